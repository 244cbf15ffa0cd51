package screening

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlacklistWinsOverWhitelist(t *testing.T) {
	res := Screen("This is SPAM content about beichte", Policy{
		Blacklist: []string{"spam"},
		Whitelist: []string{"beichte"},
	})
	require.True(t, res.Rejected())
	assert.Equal(t, Blacklisted, res.Rejection.Kind)
	assert.Equal(t, "spam", res.Rejection.Term)
	assert.Contains(t, res.Rejection.Message(), "`spam`")
}

func TestBlacklistFirstMatchIsSorted(t *testing.T) {
	for i := 0; i < 5; i++ {
		rej := CheckWordLists("zebra and apple", []string{"zebra", "apple"}, nil)
		require.NotNil(t, rej)
		assert.Equal(t, "apple", rej.Term)
	}
}

func TestWhitelist(t *testing.T) {
	rej := CheckWordLists("nothing relevant", nil, []string{"beichte", "geständnis"})
	require.NotNil(t, rej)
	assert.Equal(t, WhitelistUnsatisfied, rej.Kind)

	assert.Nil(t, CheckWordLists("Meine GESTÄNDNIS ist", nil, []string{"geständnis"}))
}

func TestEmptyListsAcceptAnything(t *testing.T) {
	for _, text := range []string{"", "hello", "spam spam", "@everyone"} {
		assert.False(t, Screen(text, Policy{}).Rejected(), text)
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Advisory
	}{
		{name: "plain", text: "just a thought", want: Advisory{}},
		{name: "everyone", text: "hey @everyone", want: Advisory{Mentions: true}},
		{name: "role mention", text: "ping <@&12345>", want: Advisory{Mentions: true}},
		{name: "link", text: "see HTTPS://example.org", want: Advisory{Links: true}},
		{name: "email", text: "mail me at Test@Example.com", want: Advisory{PII: true}},
		{name: "phone", text: "ruf an: +49 030 1234-5678", want: Advisory{PII: true}},
		{name: "crisis", text: "Ich will nicht mehr leben", want: Advisory{Crisis: true}},
		{name: "crisis english", text: "thinking about SUICIDE", want: Advisory{Crisis: true}},
		{
			name: "several",
			text: "@here https://x.y test@example.com notfall",
			want: Advisory{Mentions: true, Links: true, PII: true, Crisis: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.text, true))
		})
	}
}

func TestDetectCrisisDisabled(t *testing.T) {
	assert.False(t, Detect("suizid", false).Crisis)
}

func TestHints(t *testing.T) {
	assert.Empty(t, Advisory{}.Hints())
	assert.Len(t, Advisory{Mentions: true, Links: true, PII: true, Crisis: true}.Hints(), 4)
	assert.True(t, Advisory{PII: true}.Sensitive())
	assert.False(t, Advisory{Links: true}.Sensitive())
}

func TestNeutralizeMentions(t *testing.T) {
	out := NeutralizeMentions("hi @everyone and @here")
	assert.Equal(t, "hi @\u200beveryone and @\u200bhere", out)
	assert.False(t, mentionPattern.MatchString(strings.ReplaceAll(out, "<", "")))
}

func TestWrap(t *testing.T) {
	assert.Equal(t, "", Wrap(""))
	assert.Equal(t, "", Wrap("   \n"))
	assert.Equal(t, "||secret||", Wrap("  secret "))
	assert.Equal(t, "||secret||", Wrap("||secret||"))

	for _, text := range []string{"a", "||a||", " x y ", "||"} {
		once := Wrap(text)
		assert.Equal(t, once, Wrap(once), text)
	}
}

func TestCompose(t *testing.T) {
	assert.Equal(t, "||hello @\u200beveryone||", Compose("hello @everyone", nil))

	out := Compose("text", ParseTriggerWords(" Trauer, ,Verlust "))
	assert.Equal(t, "**TW:** Trauer, Verlust\n\n||text||", out)
}

func TestCrisisKeywordsCopy(t *testing.T) {
	words := CrisisKeywords()
	words[0] = "changed"
	assert.NotEqual(t, "changed", CrisisKeywords()[0])
}
