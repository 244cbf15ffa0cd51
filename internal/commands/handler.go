package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/negurvulkan/BeichtBot/internal/bot"
	"github.com/negurvulkan/BeichtBot/internal/cooldown"
	"github.com/negurvulkan/BeichtBot/internal/database"
	"github.com/negurvulkan/BeichtBot/internal/logging"
	"github.com/negurvulkan/BeichtBot/internal/metrics"
	"github.com/negurvulkan/BeichtBot/internal/pipeline"
	"github.com/negurvulkan/BeichtBot/internal/store"

	"github.com/bwmarrin/discordgo"
)

// interactionTimeout bounds the work done for one interaction. Discord
// drops responses after three seconds.
const interactionTimeout = 2500 * time.Millisecond

// Deps are the components the command layer drives.
type Deps struct {
	Store        *store.Store
	Orchestrator *pipeline.Orchestrator
	Cooldowns    *cooldown.Manager
	// Events is optional; without it /beichtbot-stats shows only counters.
	Events     *database.Database
	DevGuildID string
	MaxLength  int
}

// Handler manages all command interactions
type Handler struct {
	session *bot.Session
	deps    Deps
	started time.Time
}

var globalHandler *Handler

// Initialize creates and initializes the command handler
func Initialize(session *bot.Session, deps Deps) error {
	globalHandler = &Handler{
		session: session,
		deps:    deps,
		started: time.Now(),
	}

	// Register interaction handler
	session.AddHandler(globalHandler.handleInteraction)

	// Register all commands
	commands := GetAllCommands()
	if err := session.RegisterCommands(deps.DevGuildID, commands); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	logging.Info("Command handler initialized with %d commands", len(commands))
	return nil
}

// GetHandler returns the global command handler
func GetHandler() *Handler {
	return globalHandler
}

// handleInteraction routes slash commands and modal submissions
func (h *Handler) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		h.handleCommand(s, i)
	case discordgo.InteractionModalSubmit:
		h.handleModal(s, i)
	}
}

// handleCommand routes slash commands to their handlers
func (h *Handler) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	metrics.ObserveCommand(data.Name)

	if i.GuildID == "" {
		respondEphemeral(s, i, "Nur in Servern verfügbar.")
		return
	}

	if required, ok := requiredPermissions[data.Name]; ok && !hasPermission(i.Member, required) {
		respondPermissionError(s, i)
		return
	}

	var err error
	switch data.Name {
	case cmdConfess:
		err = h.handleConfess(s, i)
	case cmdReply:
		err = h.handleReplyCommand(s, i)
	case cmdReport:
		err = h.handleReportCommand(s, i)
	case cmdHelp:
		err = handleHelp(s, i)
	case cmdSetup:
		err = h.handleSetup(s, i)
	case cmdChannels:
		err = h.handleChannels(s, i)
	case cmdWords:
		err = h.handleWords(s, i)
	case cmdHash:
		err = h.handleHash(s, i)
	case cmdStats:
		err = h.handleStats(s, i)
	case cmdReset:
		err = h.handleReset(s, i)
	case cmdBanner:
		err = h.handleBanner(s, i)
	case cmdMessage:
		err = h.handleMessageLink(s, i)
	case cmdCooldown:
		err = h.handleCooldown(s, i)
	case cmdStatus:
		err = h.handleStatus(s, i)
	default:
		err = fmt.Errorf("unknown command: %s", data.Name)
	}

	if err != nil {
		logging.Error("Command error [%s]: %v", data.Name, err)
		respondError(s, i, err)
	}
}

// handleModal routes modal submissions by custom id prefix
func (h *Handler) handleModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	kind, arg := splitCustomID(data.CustomID)
	metrics.ObserveCommand("modal:" + kind)

	if i.GuildID == "" {
		respondEphemeral(s, i, "Nur in Servern verfügbar.")
		return
	}

	fields := modalValues(data.Components)

	var err error
	switch kind {
	case modalConfession:
		err = h.submitConfession(s, i, fields)
	case modalReply:
		err = h.submitReply(s, i, arg, fields)
	case modalReport:
		err = h.submitReport(s, i, arg, fields)
	default:
		err = fmt.Errorf("unknown modal: %s", data.CustomID)
	}

	if err != nil {
		logging.Error("Modal error [%s]: %v", data.CustomID, err)
		respondError(s, i, err)
	}
}

func interactionContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), interactionTimeout)
}

// authorID is the id of the member behind an interaction.
func authorID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// userMessage turns an error into the text shown to the member.
func userMessage(err error) string {
	var verr *pipeline.ValidationError
	if errors.As(err, &verr) && verr.Message != "" {
		return verr.Message
	}
	if errors.Is(err, pipeline.ErrMessageNotFound) {
		return "Nachricht nicht gefunden."
	}
	var derr *pipeline.DeliveryError
	if errors.As(err, &derr) {
		switch derr.Operation {
		case "reply":
			return "Antwort konnte nicht gesendet werden."
		case "report":
			return "Meldung konnte nicht übermittelt werden."
		}
		return "Fehler beim Posten. Bitte versuche es später erneut."
	}
	var perr *pipeline.PersistenceError
	if errors.As(err, &perr) {
		return "Die Daten konnten nicht gespeichert werden. Bitte informiere das Mod-Team."
	}
	return "Da ist etwas schiefgelaufen."
}

// respondError sends an ephemeral error message
func respondError(s *discordgo.Session, i *discordgo.InteractionCreate, err error) {
	respondEphemeral(s, i, "❌ "+userMessage(err))
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:         content,
			Flags:           discordgo.MessageFlagsEphemeral,
			AllowedMentions: &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{}},
		},
	})
	if err != nil {
		logging.Warn("Failed to answer interaction %s: %v", i.ID, err)
	}
}

func respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
}

// options indexes the top level options of a slash command by name.
func options(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)
	for _, opt := range i.ApplicationCommandData().Options {
		opts[opt.Name] = opt
	}
	return opts
}

func stringOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) (string, bool) {
	opt, ok := opts[name]
	if !ok {
		return "", false
	}
	return strings.TrimSpace(opt.StringValue()), true
}
