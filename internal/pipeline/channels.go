package pipeline

import "github.com/negurvulkan/BeichtBot/internal/store"

// ResolveChannel picks the channel a submission goes to. An explicit request
// wins over the configured target; the result must exist and, when the guild
// restricts targets, be on the allow list. configured reports whether there
// was any candidate at all.
func ResolveChannel(cfg *store.GuildConfig, requested string, exists func(channelID string) bool) (channelID string, configured bool) {
	candidate := requested
	if candidate == "" {
		candidate = cfg.TargetChannelID
	}
	if candidate == "" {
		return "", false
	}
	if !cfg.AllowsChannel(candidate) {
		return "", true
	}
	if exists != nil && !exists(candidate) {
		return "", true
	}
	return candidate, true
}
