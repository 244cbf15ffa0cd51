package store

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Counter names kept in GuildConfig.Stats.
const (
	StatConfessions = "confessions"
	StatResponses   = "responses"
	StatReports     = "reports"
	StatAIFlags     = "ai_flags"
)

const DefaultCooldownSeconds = 120

// GuildConfig represents everything BeichtBot persists for one guild
type GuildConfig struct {
	GuildID               string            `json:"guild_id"`
	TargetChannelID       string            `json:"target_channel_id,omitempty"`
	ModChannelID          string            `json:"mod_channel_id,omitempty"`
	AllowedTargetChannels []string          `json:"allowed_target_channels"`
	CooldownSeconds       int               `json:"cooldown_seconds"`
	AutoDeleteMinutes     int               `json:"auto_delete_minutes,omitempty"` // 0 disables auto delete
	AllowAIModeration     bool              `json:"allow_ai_moderation"`
	DefaultThreadLock     bool              `json:"default_thread_lock"`
	BannerText            string            `json:"banner_text,omitempty"`
	Blacklist             []string          `json:"blacklist"`
	Whitelist             []string          `json:"whitelist"`
	Stats                 map[string]int64  `json:"stats"`
	HashedPosts           map[string]string `json:"hashed_posts"` // message id -> trace token
	PIIFlags              []string          `json:"pii_flags"`
	CrisisFlags           []string          `json:"crisis_flags"`
}

// NewGuildConfig returns the defaults applied to a guild seen for the first time.
func NewGuildConfig(guildID string) *GuildConfig {
	return &GuildConfig{
		GuildID:               guildID,
		AllowedTargetChannels: []string{},
		CooldownSeconds:       DefaultCooldownSeconds,
		DefaultThreadLock:     true,
		Blacklist:             []string{},
		Whitelist:             []string{},
		Stats: map[string]int64{
			StatConfessions: 0,
			StatResponses:   0,
			StatReports:     0,
			StatAIFlags:     0,
		},
		HashedPosts: map[string]string{},
		PIIFlags:    []string{},
		CrisisFlags: []string{},
	}
}

// Clone returns a deep copy.
func (c *GuildConfig) Clone() *GuildConfig {
	out := *c
	out.AllowedTargetChannels = append([]string{}, c.AllowedTargetChannels...)
	out.Blacklist = append([]string{}, c.Blacklist...)
	out.Whitelist = append([]string{}, c.Whitelist...)
	out.PIIFlags = append([]string{}, c.PIIFlags...)
	out.CrisisFlags = append([]string{}, c.CrisisFlags...)

	out.Stats = make(map[string]int64, len(c.Stats))
	for k, v := range c.Stats {
		out.Stats[k] = v
	}
	out.HashedPosts = make(map[string]string, len(c.HashedPosts))
	for k, v := range c.HashedPosts {
		out.HashedPosts[k] = v
	}
	return &out
}

// Stat returns a counter value, zero when it was never written.
func (c *GuildConfig) Stat(name string) int64 {
	return c.Stats[name]
}

// AllowsChannel reports whether channelID passes the allowed-channel restriction.
func (c *GuildConfig) AllowsChannel(channelID string) bool {
	if len(c.AllowedTargetChannels) == 0 {
		return true
	}
	for _, id := range c.AllowedTargetChannels {
		if id == channelID {
			return true
		}
	}
	return false
}

// normalize fills nil collections, clamps numeric fields and folds word lists.
func (c *GuildConfig) normalize() {
	if c.CooldownSeconds < 0 {
		c.CooldownSeconds = 0
	}
	if c.AutoDeleteMinutes < 0 {
		c.AutoDeleteMinutes = 0
	}
	c.AllowedTargetChannels = uniqueSorted(c.AllowedTargetChannels, strings.TrimSpace)
	c.Blacklist = NormalizeWords(c.Blacklist)
	c.Whitelist = NormalizeWords(c.Whitelist)
	if c.Stats == nil {
		c.Stats = map[string]int64{}
	}
	for _, name := range []string{StatConfessions, StatResponses, StatReports, StatAIFlags} {
		if _, ok := c.Stats[name]; !ok {
			c.Stats[name] = 0
		}
	}
	if c.HashedPosts == nil {
		c.HashedPosts = map[string]string{}
	}
	if c.PIIFlags == nil {
		c.PIIFlags = []string{}
	}
	if c.CrisisFlags == nil {
		c.CrisisFlags = []string{}
	}
}

// FoldCase lowercases s the same way word lists are stored. A Caser holds
// state, so one is built per call.
func FoldCase(s string) string {
	return cases.Lower(language.Und).String(s)
}

// NormalizeWords trims, lowercases, dedupes and sorts filter phrases.
func NormalizeWords(words []string) []string {
	return uniqueSorted(words, func(w string) string {
		return FoldCase(strings.TrimSpace(w))
	})
}

func uniqueSorted(in []string, clean func(string) string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = clean(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
