package screening

import "strings"

const (
	mentionTrigger = "@"
	zeroWidthSpace = "\u200b"
	spoiler        = "||"
)

// NeutralizeMentions puts a zero width space after every @ so Discord never
// resolves the text into a ping.
func NeutralizeMentions(text string) string {
	return strings.ReplaceAll(text, mentionTrigger, mentionTrigger+zeroWidthSpace)
}

// Wrap hides text behind a spoiler. Empty text stays empty and text that is
// already wrapped is returned unchanged.
func Wrap(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}
	if strings.HasPrefix(text, spoiler) && strings.HasSuffix(text, spoiler) {
		return text
	}
	return spoiler + text + spoiler
}

// ParseTriggerWords splits a comma separated trigger-warning list.
func ParseTriggerWords(raw string) []string {
	var words []string
	for _, w := range strings.Split(raw, ",") {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, w)
		}
	}
	return words
}

// Compose renders the message that gets published: an optional trigger
// warning line followed by the neutralized, spoiler-wrapped text.
func Compose(text string, triggerWords []string) string {
	var parts []string
	if len(triggerWords) > 0 {
		parts = append(parts, "**TW:** "+NeutralizeMentions(strings.Join(triggerWords, ", ")))
	}
	parts = append(parts, Wrap(NeutralizeMentions(text)))
	return strings.Join(parts, "\n\n")
}
