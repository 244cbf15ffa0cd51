package notifier

import (
	"errors"
	"fmt"
	"time"

	"github.com/negurvulkan/BeichtBot/internal/pipeline"

	"github.com/bwmarrin/discordgo"
)

const (
	colorSensitive = 0xFEE75C
	colorReport    = 0xED4245
)

var ErrNoSession = errors.New("notifier has no Discord session")

// Sender is the part of *discordgo.Session the notifier uses.
type Sender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var discordSession Sender

// SetSession sets the Discord session for the notifier
func SetSession(session Sender) {
	discordSession = session
}

// Send posts notice to the moderator channel. Mentions are never resolved.
func Send(channelID string, notice pipeline.Notice) error {
	if discordSession == nil {
		return ErrNoSession
	}
	if channelID == "" {
		return fmt.Errorf("no moderator channel for guild %s", notice.GuildID)
	}

	_, err := discordSession.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:          []*discordgo.MessageEmbed{BuildEmbed(notice, time.Now())},
		AllowedMentions: &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{}},
	})
	if err != nil {
		return fmt.Errorf("failed to notify moderators in %s: %w", channelID, err)
	}
	return nil
}

// BuildEmbed renders a notice. It never contains the author.
func BuildEmbed(notice pipeline.Notice, now time.Time) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "🔗 Nachricht",
				Value: notice.Link(),
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "BeichtBot",
		},
		Timestamp: now.Format(time.RFC3339),
	}

	switch notice.Kind {
	case pipeline.NoticeReport:
		reason := notice.Reason
		if reason == "" {
			reason = "kein Grund angegeben"
		}
		embed.Title = "🛡️ Neue Meldung"
		embed.Color = colorReport
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Grund",
			Value: reason,
		})
	default:
		embed.Title = "⚠️ Hinweis auf sensiblen Inhalt"
		embed.Color = colorSensitive
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{
				Name:   "Krise erkannt",
				Value:  yesNo(notice.Crisis),
				Inline: true,
			},
			&discordgo.MessageEmbedField{
				Name:   "PII erkannt",
				Value:  yesNo(notice.PII),
				Inline: true,
			},
		)
	}

	return embed
}

func yesNo(v bool) string {
	if v {
		return "Ja"
	}
	return "Nein"
}
