package bot

import (
	"github.com/negurvulkan/BeichtBot/internal/cooldown"
	"github.com/negurvulkan/BeichtBot/internal/logging"
	"github.com/negurvulkan/BeichtBot/internal/store"

	"github.com/bwmarrin/discordgo"
)

// SetupEventHandlers keeps guild state in line with the gateway.
func (s *Session) SetupEventHandlers(st *store.Store, cooldowns *cooldown.Manager) {
	logging.Info("Setting up Discord event handlers...")

	s.discord.AddHandler(func(sess *discordgo.Session, r *discordgo.Ready) {
		logging.Info("Bot ready! Connected as %s in %d guilds", r.User.Username, len(r.Guilds))
	})

	// Materialize defaults for every guild the bot sits in.
	s.discord.AddHandler(func(sess *discordgo.Session, g *discordgo.GuildCreate) {
		if _, err := st.Get(g.ID); err != nil {
			logging.Error("Failed to load config for guild %s: %v", g.ID, err)
			return
		}
		logging.Info("Bot joined/loaded guild: %s (ID: %s)", g.Name, g.ID)
	})

	// Configuration survives removal; only /beichtbot-reset deletes it.
	s.discord.AddHandler(func(sess *discordgo.Session, g *discordgo.GuildDelete) {
		if g.Unavailable {
			return
		}
		cooldowns.ClearAll(g.ID)
		logging.Info("Removed from guild %s, cleared cooldowns", g.ID)
	})

	s.discord.AddHandler(func(sess *discordgo.Session, c *discordgo.ChannelDelete) {
		if c.GuildID == "" {
			return
		}
		cfg, err := st.Get(c.GuildID)
		if err != nil {
			return
		}
		for _, role := range ChannelRoles(cfg, c.ID) {
			logging.Warn("Deleted channel %s was the %s channel of guild %s", c.ID, role, c.GuildID)
		}
	})
}

// ChannelRoles lists what channelID is used for in cfg.
func ChannelRoles(cfg *store.GuildConfig, channelID string) []string {
	var roles []string
	if cfg.TargetChannelID == channelID {
		roles = append(roles, "target")
	}
	if cfg.ModChannelID == channelID {
		roles = append(roles, "moderator")
	}
	for _, id := range cfg.AllowedTargetChannels {
		if id == channelID {
			roles = append(roles, "allowed target")
			break
		}
	}
	return roles
}
