package commands

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

// ParseBool reads a free-text yes/no answer. Empty or unrecognized input
// yields def.
func ParseBool(value string, def *bool) *bool {
	value = strings.ToLower(strings.TrimSpace(value))
	var v bool
	switch value {
	case "ja", "true", "1", "on", "yes":
		v = true
	case "nein", "false", "0", "off", "no":
		v = false
	default:
		return def
	}
	return &v
}

func boolValue(p *bool) bool {
	return p != nil && *p
}

const customIDSeparator = ":"

func customID(kind, arg string) string {
	if arg == "" {
		return kind
	}
	return kind + customIDSeparator + arg
}

func splitCustomID(id string) (kind, arg string) {
	kind, arg, _ = strings.Cut(id, customIDSeparator)
	return kind, arg
}

// modalValues flattens the submitted text inputs by custom id.
func modalValues(components []discordgo.MessageComponent) map[string]string {
	values := make(map[string]string)
	for _, c := range components {
		row, ok := c.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			if input, ok := inner.(*discordgo.TextInput); ok {
				values[input.CustomID] = input.Value
			}
		}
	}
	return values
}

// splitList splits a comma separated option. An absent option leaves the
// list unchanged (nil); a present one always yields a non-nil slice.
func splitList(raw string, present bool) []string {
	if !present {
		return nil
	}
	items := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

// formatList renders a sorted list, "-" when empty.
func formatList(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
