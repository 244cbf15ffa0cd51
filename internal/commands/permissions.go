package commands

import (
	"time"

	"github.com/bwmarrin/discordgo"
)

// hasPermission checks the member's resolved permissions from the
// interaction. Administrators pass every check.
func hasPermission(member *discordgo.Member, required int64) bool {
	if member == nil {
		return false
	}
	if member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	return member.Permissions&required == required
}

// respondPermissionError sends a permission denied error response
func respondPermissionError(s *discordgo.Session, i *discordgo.InteractionCreate) {
	embed := &discordgo.MessageEmbed{
		Title:       "Zugriff verweigert",
		Description: "Dir fehlen die nötigen Berechtigungen für diesen Befehl.",
		Color:       0x2B2D31,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "BeichtBot",
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
}
