package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/negurvulkan/BeichtBot/internal/database"
	"github.com/negurvulkan/BeichtBot/internal/logging"
	"github.com/negurvulkan/BeichtBot/internal/store"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
)

var statLabels = []struct {
	key   string
	label string
}{
	{store.StatConfessions, "Beichten"},
	{store.StatResponses, "Antworten"},
	{store.StatReports, "Meldungen"},
	{store.StatAIFlags, "KI-Flags"},
}

// handleStats shows the guild's counters and, when the event log is
// enabled, the outcome breakdown.
func (h *Handler) handleStats(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	cfg, err := h.deps.Store.Get(i.GuildID)
	if err != nil {
		return err
	}

	var counts []*database.EventCount
	if h.deps.Events != nil {
		ctx, cancel := interactionContext()
		defer cancel()
		counts, err = h.deps.Events.CountEvents(ctx, i.GuildID)
		if err != nil {
			logging.Warn("Failed to count events for guild %s: %v", i.GuildID, err)
		}
	}

	return respondEmbed(s, i, statsEmbed(cfg, counts))
}

func statsEmbed(cfg *store.GuildConfig, counts []*database.EventCount) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     "BeichtBot Statistiken",
		Color:     0xC27C0E,
		Timestamp: time.Now().Format(time.RFC3339),
	}

	for _, stat := range statLabels {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   stat.label,
			Value:  humanize.Comma(cfg.Stat(stat.key)),
			Inline: true,
		})
	}
	embed.Fields = append(embed.Fields,
		&discordgo.MessageEmbedField{
			Name:   "Crisis-Flags",
			Value:  humanize.Comma(int64(len(cfg.CrisisFlags))),
			Inline: true,
		},
		&discordgo.MessageEmbedField{
			Name:   "PII-Flags",
			Value:  humanize.Comma(int64(len(cfg.PIIFlags))),
			Inline: true,
		},
	)

	if len(counts) > 0 {
		lines := make([]string, 0, len(counts))
		for _, c := range counts {
			lines = append(lines, fmt.Sprintf("• %s: %s", c.Name, humanize.Comma(c.Count)))
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Ereignisprotokoll",
			Value: strings.Join(lines, "\n"),
		})
	}

	return embed
}
