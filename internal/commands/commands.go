package commands

import "github.com/bwmarrin/discordgo"

const (
	cmdConfess   = "beichten"
	cmdReply     = "beichtantwort"
	cmdReport    = "melden"
	cmdHelp      = "hilfe"
	cmdSetup     = "beichtbot-setup"
	cmdChannels  = "beichtbot-kanaele"
	cmdWords     = "beichtbot-woerter"
	cmdHash      = "beichtbot-hash"
	cmdStats     = "beichtbot-stats"
	cmdReset     = "beichtbot-reset"
	cmdBanner    = "beichtbot-banner"
	cmdMessage   = "beichtbot-nachricht"
	cmdCooldown  = "beichtbot-cooldown"
	cmdStatus    = "beichtbot-status"
	optMessageID = "nachricht_id"
)

// Permission bits required per admin command, checked again at runtime.
var requiredPermissions = map[string]int64{
	cmdSetup:    discordgo.PermissionManageServer,
	cmdChannels: discordgo.PermissionManageServer,
	cmdWords:    discordgo.PermissionManageMessages,
	cmdHash:     discordgo.PermissionManageMessages,
	cmdStats:    discordgo.PermissionManageServer,
	cmdReset:    discordgo.PermissionAdministrator,
	cmdBanner:   discordgo.PermissionManageChannels,
	cmdMessage:  discordgo.PermissionManageMessages,
	cmdCooldown: discordgo.PermissionManageMessages,
	cmdStatus:   discordgo.PermissionManageServer,
}

func perm(p int64) *int64 {
	return &p
}

var guildOnly = new(bool)

func messageIDOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Name:        optMessageID,
		Description: description,
		Type:        discordgo.ApplicationCommandOptionString,
		Required:    true,
	}
}

// GetAllCommands returns all application commands
func GetAllCommands() []*discordgo.ApplicationCommand {
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        cmdConfess,
			Description: "Anonym im Server posten",
		},
		{
			Name:        cmdReply,
			Description: "Anonym auf eine Beichte reagieren",
			Options: []*discordgo.ApplicationCommandOption{
				messageIDOption("ID der Ursprungsnachricht"),
			},
		},
		{
			Name:        cmdReport,
			Description: "Anonym einen Beitrag melden",
			Options: []*discordgo.ApplicationCommandOption{
				messageIDOption("ID der Nachricht, die gemeldet werden soll"),
			},
		},
		{
			Name:        cmdHelp,
			Description: "Kurzanleitung für den BeichtBot",
		},
		{
			Name:        cmdSetup,
			Description: "BeichtBot konfigurieren",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:         "ziel_channel",
					Description:  "Standard-Ziel-Channel",
					Type:         discordgo.ApplicationCommandOptionChannel,
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
					Required:     true,
				},
				{
					Name:         "mod_channel",
					Description:  "Channel für Moderationshinweise",
					Type:         discordgo.ApplicationCommandOptionChannel,
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
				},
				{
					Name:        "cooldown",
					Description: "Cooldown in Sekunden (0 = aus)",
					Type:        discordgo.ApplicationCommandOptionInteger,
				},
				{
					Name:        "auto_delete",
					Description: "Automatisches Löschen nach Minuten (0 = aus)",
					Type:        discordgo.ApplicationCommandOptionInteger,
				},
				{
					Name:        "ai_moderation",
					Description: "Einfache KI-Moderation aktivieren",
					Type:        discordgo.ApplicationCommandOptionBoolean,
				},
				{
					Name:        "thread_lock",
					Description: "Threads standardmäßig sperren",
					Type:        discordgo.ApplicationCommandOptionBoolean,
				},
			},
		},
		{
			Name:        cmdChannels,
			Description: "Liste erlaubter Ziel-Channels setzen",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "ids",
					Description: "Kommagetrennte Channel-IDs (leer = alle erlaubt)",
					Type:        discordgo.ApplicationCommandOptionString,
				},
			},
		},
		{
			Name:        cmdWords,
			Description: "Black- und White-List pflegen",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "blacklist",
					Description: "Blockierte Wörter, kommagetrennt (\",\" leert die Liste)",
					Type:        discordgo.ApplicationCommandOptionString,
				},
				{
					Name:        "whitelist",
					Description: "Erforderliche Wörter, kommagetrennt (\",\" leert die Liste)",
					Type:        discordgo.ApplicationCommandOptionString,
				},
			},
		},
		{
			Name:        cmdHash,
			Description: "Hash-ID eines Posts anzeigen",
			Options: []*discordgo.ApplicationCommandOption{
				messageIDOption("ID des Beitrags"),
			},
		},
		{
			Name:        cmdStats,
			Description: "Statistiken anzeigen",
		},
		{
			Name:        cmdReset,
			Description: "Setzt die Konfiguration zurück",
		},
		{
			Name:        cmdBanner,
			Description: "Einen Hinweis-Banner setzen",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "text",
					Description: "Text, der über dem Channel angezeigt werden soll (leer = entfernen)",
					Type:        discordgo.ApplicationCommandOptionString,
				},
			},
		},
		{
			Name:        cmdMessage,
			Description: "Link zu einer BeichtBot-Nachricht",
			Options: []*discordgo.ApplicationCommandOption{
				messageIDOption("ID der Nachricht"),
			},
		},
		{
			Name:        cmdCooldown,
			Description: "Cooldown für User zurücksetzen",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        "user",
					Description: "User, dessen Cooldown zurückgesetzt werden soll (leer = alle)",
					Type:        discordgo.ApplicationCommandOptionUser,
				},
			},
		},
		{
			Name:        cmdStatus,
			Description: "Zustand des Bots anzeigen",
		},
	}

	for _, cmd := range commands {
		cmd.DMPermission = guildOnly
		if p, ok := requiredPermissions[cmd.Name]; ok {
			cmd.DefaultMemberPermissions = perm(p)
		}
	}
	return commands
}
