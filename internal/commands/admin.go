package commands

import (
	"fmt"
	"strings"

	"github.com/negurvulkan/BeichtBot/internal/logging"
	"github.com/negurvulkan/BeichtBot/internal/pipeline"
	"github.com/negurvulkan/BeichtBot/internal/store"
	"github.com/negurvulkan/BeichtBot/pkg/util"

	"github.com/bwmarrin/discordgo"
)

// setupChange is the parsed form of /beichtbot-setup. Nil fields are left
// untouched.
type setupChange struct {
	targetChannelID string
	modChannelID    string
	cooldown        *int64
	autoDelete      *int64
	aiModeration    *bool
	threadLock      *bool
}

func (c setupChange) apply(cfg *store.GuildConfig) {
	cfg.TargetChannelID = c.targetChannelID
	if c.modChannelID != "" {
		cfg.ModChannelID = c.modChannelID
	}
	if c.cooldown != nil {
		cfg.CooldownSeconds = int(max(0, *c.cooldown))
	}
	if c.autoDelete != nil {
		cfg.AutoDeleteMinutes = int(max(0, *c.autoDelete))
	}
	if c.aiModeration != nil {
		cfg.AllowAIModeration = *c.aiModeration
	}
	if c.threadLock != nil {
		cfg.DefaultThreadLock = *c.threadLock
	}
}

func (h *Handler) handleSetup(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	opts := options(i)
	var change setupChange

	if opt, ok := opts["ziel_channel"]; ok {
		change.targetChannelID = opt.ChannelValue(nil).ID
	}
	if opt, ok := opts["mod_channel"]; ok {
		change.modChannelID = opt.ChannelValue(nil).ID
	}
	if opt, ok := opts["cooldown"]; ok {
		v := opt.IntValue()
		change.cooldown = &v
	}
	if opt, ok := opts["auto_delete"]; ok {
		v := opt.IntValue()
		change.autoDelete = &v
	}
	if opt, ok := opts["ai_moderation"]; ok {
		v := opt.BoolValue()
		change.aiModeration = &v
	}
	if opt, ok := opts["thread_lock"]; ok {
		v := opt.BoolValue()
		change.threadLock = &v
	}

	ctx, cancel := interactionContext()
	defer cancel()
	for _, id := range []string{change.targetChannelID, change.modChannelID} {
		if id != "" && !h.session.ChannelExists(ctx, i.GuildID, id) {
			respondEphemeral(s, i, fmt.Sprintf("Channel <#%s> ist kein Text-Channel dieses Servers.", id))
			return nil
		}
	}

	cfg, err := h.deps.Store.Update(i.GuildID, func(cfg *store.GuildConfig) error {
		change.apply(cfg)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save setup: %w", err)
	}

	logging.Info("Guild %s configured: target=%s mod=%s cooldown=%d", i.GuildID, cfg.TargetChannelID, cfg.ModChannelID, cfg.CooldownSeconds)
	respondEphemeral(s, i, "Konfiguration gespeichert.")
	return nil
}

func (h *Handler) handleChannels(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	raw, _ := stringOption(options(i), "ids")
	ids, bad, err := util.SplitIDs(raw)
	if err != nil {
		respondEphemeral(s, i, fmt.Sprintf("Ungültige ID: %s", bad))
		return nil
	}

	cfg, err := h.deps.Store.UpdateAllowedChannels(i.GuildID, ids)
	if err != nil {
		return fmt.Errorf("failed to save allowed channels: %w", err)
	}

	allowed := strings.Join(cfg.AllowedTargetChannels, ", ")
	if allowed == "" {
		allowed = "(alle)"
	}
	respondEphemeral(s, i, fmt.Sprintf("Erlaubte Channels: %s", allowed))
	return nil
}

func (h *Handler) handleWords(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	opts := options(i)
	black, hasBlack := stringOption(opts, "blacklist")
	white, hasWhite := stringOption(opts, "whitelist")

	cfg, err := h.deps.Store.SetLists(i.GuildID, splitList(black, hasBlack), splitList(white, hasWhite))
	if err != nil {
		return fmt.Errorf("failed to save word lists: %w", err)
	}

	respondEphemeral(s, i, fmt.Sprintf("Blacklist: %s\nWhitelist: %s", formatList(cfg.Blacklist), formatList(cfg.Whitelist)))
	return nil
}

func (h *Handler) handleHash(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	raw, _ := stringOption(options(i), optMessageID)
	token, ok, err := h.deps.Orchestrator.TraceToken(i.GuildID, raw)
	if err != nil {
		return err
	}
	if !ok {
		respondEphemeral(s, i, "Kein Hash gefunden.")
		return nil
	}
	respondEphemeral(s, i, fmt.Sprintf("Hash-ID: `%s`", token))
	return nil
}

func (h *Handler) handleReset(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := h.deps.Store.Reset(i.GuildID); err != nil {
		return fmt.Errorf("failed to reset guild: %w", err)
	}
	h.deps.Cooldowns.ClearAll(i.GuildID)

	if h.deps.Events != nil {
		ctx, cancel := interactionContext()
		defer cancel()
		if err := h.deps.Events.DeleteGuildEvents(ctx, i.GuildID); err != nil {
			logging.Warn("Failed to drop event log of guild %s: %v", i.GuildID, err)
		}
	}

	logging.Info("Guild %s reset by %s", i.GuildID, authorID(i))
	respondEphemeral(s, i, "Konfiguration wurde zurückgesetzt.")
	return nil
}

func (h *Handler) handleBanner(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	text, _ := stringOption(options(i), "text")
	if _, err := h.deps.Store.SetBanner(i.GuildID, text); err != nil {
		return fmt.Errorf("failed to save banner: %w", err)
	}
	if text == "" {
		respondEphemeral(s, i, "Banner entfernt.")
	} else {
		respondEphemeral(s, i, "Banner aktualisiert.")
	}
	return nil
}

func (h *Handler) handleMessageLink(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	cfg, err := h.deps.Store.Get(i.GuildID)
	if err != nil {
		return err
	}
	if cfg.TargetChannelID == "" {
		respondEphemeral(s, i, "Kein Ziel-Channel konfiguriert.")
		return nil
	}

	raw, _ := stringOption(options(i), optMessageID)
	messageID, err := util.NormalizeSnowflake(raw)
	if err != nil {
		respondEphemeral(s, i, "Ungültige ID.")
		return nil
	}
	respondEphemeral(s, i, pipeline.MessageLink(i.GuildID, cfg.TargetChannelID, messageID))
	return nil
}

func (h *Handler) handleCooldown(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if opt, ok := options(i)["user"]; ok {
		user := opt.UserValue(nil)
		h.deps.Cooldowns.Clear(i.GuildID, user.ID)
		respondEphemeral(s, i, fmt.Sprintf("Cooldown für <@%s> wurde entfernt.", user.ID))
		return nil
	}

	h.deps.Cooldowns.ClearAll(i.GuildID)
	respondEphemeral(s, i, "Alle Cooldowns wurden entfernt.")
	return nil
}
