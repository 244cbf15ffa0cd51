package commands

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/negurvulkan/BeichtBot/internal/database"
	"github.com/negurvulkan/BeichtBot/internal/pipeline"
	"github.com/negurvulkan/BeichtBot/internal/store"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBool(t *testing.T) {
	yes, no := true, false

	tests := []struct {
		in   string
		def  *bool
		want *bool
	}{
		{in: "ja", want: &yes},
		{in: " YES ", want: &yes},
		{in: "1", def: &no, want: &yes},
		{in: "on", want: &yes},
		{in: "true", want: &yes},
		{in: "Nein", def: &yes, want: &no},
		{in: "off", want: &no},
		{in: "0", want: &no},
		{in: "no", want: &no},
		{in: "false", want: &no},
		{in: "", def: &yes, want: &yes},
		{in: "vielleicht", def: &no, want: &no},
		{in: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseBool(tt.in, tt.def)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestCustomIDRoundTrip(t *testing.T) {
	kind, arg := splitCustomID(customID(modalReply, "123"))
	assert.Equal(t, modalReply, kind)
	assert.Equal(t, "123", arg)

	kind, arg = splitCustomID(customID(modalConfession, ""))
	assert.Equal(t, modalConfession, kind)
	assert.Empty(t, arg)
}

func TestModalValues(t *testing.T) {
	components := []discordgo.MessageComponent{
		&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			&discordgo.TextInput{CustomID: fieldConfession, Value: "hallo"},
		}},
		&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			&discordgo.TextInput{CustomID: fieldLockThread, Value: "nein"},
		}},
		&discordgo.Button{CustomID: "ignored"},
	}

	assert.Equal(t, map[string]string{
		fieldConfession: "hallo",
		fieldLockThread: "nein",
	}, modalValues(components))
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList("a,b", false))
	assert.Equal(t, []string{}, splitList(",", true))
	assert.Equal(t, []string{"Spam", "Werbung"}, splitList(" Spam , ,Werbung", true))
}

func TestFormatList(t *testing.T) {
	assert.Equal(t, "-", formatList(nil))
	assert.Equal(t, "a, b", formatList([]string{"a", "b"}))
}

func TestHasPermission(t *testing.T) {
	assert.False(t, hasPermission(nil, discordgo.PermissionManageServer))
	assert.True(t, hasPermission(&discordgo.Member{Permissions: discordgo.PermissionAdministrator}, discordgo.PermissionManageServer))
	assert.True(t, hasPermission(&discordgo.Member{Permissions: discordgo.PermissionManageMessages | discordgo.PermissionSendMessages}, discordgo.PermissionManageMessages))
	assert.False(t, hasPermission(&discordgo.Member{Permissions: discordgo.PermissionManageMessages}, discordgo.PermissionAdministrator))
}

func TestGetAllCommands(t *testing.T) {
	commands := GetAllCommands()
	require.Len(t, commands, 14)

	seen := map[string]bool{}
	for _, cmd := range commands {
		assert.False(t, seen[cmd.Name], cmd.Name)
		seen[cmd.Name] = true

		require.NotNil(t, cmd.DMPermission, cmd.Name)
		assert.False(t, *cmd.DMPermission, cmd.Name)

		if p, ok := requiredPermissions[cmd.Name]; ok {
			require.NotNil(t, cmd.DefaultMemberPermissions, cmd.Name)
			assert.Equal(t, p, *cmd.DefaultMemberPermissions, cmd.Name)
		} else {
			assert.Nil(t, cmd.DefaultMemberPermissions, cmd.Name)
		}
	}

	for name := range requiredPermissions {
		assert.True(t, seen[name], name)
	}
	for _, member := range []string{cmdConfess, cmdReply, cmdReport, cmdHelp} {
		assert.True(t, seen[member], member)
	}
}

func TestSetupChangeApply(t *testing.T) {
	cfg := store.NewGuildConfig("1")
	cfg.ModChannelID = "9"

	negative := int64(-5)
	zero := int64(0)
	off := false
	setupChange{targetChannelID: "2", cooldown: &negative, autoDelete: &zero, threadLock: &off}.apply(cfg)

	assert.Equal(t, "2", cfg.TargetChannelID)
	assert.Equal(t, "9", cfg.ModChannelID)
	assert.Equal(t, 0, cfg.CooldownSeconds)
	assert.Equal(t, 0, cfg.AutoDeleteMinutes)
	assert.False(t, cfg.DefaultThreadLock)
	assert.False(t, cfg.AllowAIModeration)

	minutes := int64(15)
	on := true
	setupChange{targetChannelID: "3", modChannelID: "4", autoDelete: &minutes, aiModeration: &on}.apply(cfg)
	assert.Equal(t, "4", cfg.ModChannelID)
	assert.Equal(t, 15, cfg.AutoDeleteMinutes)
	assert.True(t, cfg.AllowAIModeration)
}

func TestConfessionAck(t *testing.T) {
	out := &pipeline.Outcome{
		Kind:         pipeline.Accepted,
		Message:      "Deine Beichte wurde anonym veröffentlicht.",
		Hints:        []string{"a", "b"},
		ThreadOpened: true,
	}
	assert.Equal(t, "Deine Beichte wurde anonym veröffentlicht.\na b\nEin Diskussions-Thread wurde geöffnet.", confessionAck(out))

	assert.Equal(t, "nope", confessionAck(&pipeline.Outcome{Kind: pipeline.Rejected, Message: "nope"}))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Ungültige Nachricht-ID.", userMessage(&pipeline.ValidationError{Field: "message_id", Message: "Ungültige Nachricht-ID."}))
	assert.Equal(t, "Nachricht nicht gefunden.", userMessage(&pipeline.DeliveryError{Operation: "reply", Err: fmt.Errorf("x: %w", pipeline.ErrMessageNotFound)}))
	assert.Equal(t, "Antwort konnte nicht gesendet werden.", userMessage(&pipeline.DeliveryError{Operation: "reply", Err: errors.New("x")}))
	assert.Contains(t, userMessage(&pipeline.PersistenceError{Err: errors.New("disk")}), "gespeichert")
	assert.Equal(t, "Da ist etwas schiefgelaufen.", userMessage(errors.New("boom")))
}

func TestStatsEmbed(t *testing.T) {
	cfg := store.NewGuildConfig("1")
	cfg.Stats[store.StatConfessions] = 1234
	cfg.PIIFlags = []string{"1", "2"}

	embed := statsEmbed(cfg, nil)
	require.Len(t, embed.Fields, 6)
	assert.Equal(t, "Beichten", embed.Fields[0].Name)
	assert.Equal(t, "1,234", embed.Fields[0].Value)
	assert.Equal(t, "2", embed.Fields[5].Value)

	embed = statsEmbed(cfg, []*database.EventCount{{Name: "filter_rejected", Count: 3}})
	require.Len(t, embed.Fields, 7)
	assert.Contains(t, embed.Fields[6].Value, "filter_rejected: 3")
}

func TestStatusEmbed(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	embed := statusEmbed(&SystemStats{
		BotStarted:      now.Add(-time.Hour),
		TotalMemory:     8 << 30,
		ProcessRSS:      64 << 20,
		ActiveCooldowns: 1500,
		GoVersion:       "go1.24.0",
	}, now)

	assert.Equal(t, "BeichtBot Status", embed.Title)
	assert.Contains(t, embed.Fields[0].Value, "unbekannt")
	assert.Equal(t, fmt.Sprintf("<t:%d:R>", now.Add(-time.Hour).Unix()), embed.Fields[1].Value)
	assert.Contains(t, embed.Fields[3].Value, "64 MiB")
	assert.Equal(t, "1,500", embed.Fields[5].Value)
}

func TestModals(t *testing.T) {
	m := confessionModal(1800)
	assert.Equal(t, modalConfession, m.CustomID)
	assert.Len(t, m.Components, 5)

	m = replyModal("55", 1800)
	kind, arg := splitCustomID(m.CustomID)
	assert.Equal(t, modalReply, kind)
	assert.Equal(t, "55", arg)

	m = reportModal("56")
	assert.Equal(t, "meldung:56", m.CustomID)
}
