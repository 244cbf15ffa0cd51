package commands

import (
	"fmt"
	"strings"

	"github.com/negurvulkan/BeichtBot/internal/pipeline"
	"github.com/negurvulkan/BeichtBot/pkg/util"

	"github.com/bwmarrin/discordgo"
)

const (
	modalConfession = "beichte"
	modalReply      = "antwort"
	modalReport     = "meldung"

	fieldConfession   = "beichte"
	fieldTriggerWords = "triggerwoerter"
	fieldAllowReplies = "antworten"
	fieldLockThread   = "sperren"
	fieldTarget       = "ziel_channel"
	fieldReply        = "antwort"
	fieldUnlock       = "entsperren"
	fieldReason       = "grund"

	maxReasonLength = 400
)

func textInput(id, label string, style discordgo.TextInputStyle, required bool, maxLength int, placeholder string) discordgo.MessageComponent {
	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:    id,
				Label:       label,
				Style:       style,
				Required:    required,
				MaxLength:   maxLength,
				Placeholder: placeholder,
			},
		},
	}
}

func confessionModal(maxLength int) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: customID(modalConfession, ""),
		Title:    "Anonyme Beichte",
		Components: []discordgo.MessageComponent{
			textInput(fieldConfession, "Beichte", discordgo.TextInputParagraph, true, maxLength, "Was möchtest du anonym teilen?"),
			textInput(fieldTriggerWords, "Triggerwörter (optional)", discordgo.TextInputShort, false, 200, "z.B. Trauer, Verlust"),
			textInput(fieldAllowReplies, "Antworten erlauben? (ja/nein, optional)", discordgo.TextInputShort, false, 10, ""),
			textInput(fieldLockThread, "Thread sperren? (ja/nein, optional)", discordgo.TextInputShort, false, 10, ""),
			textInput(fieldTarget, "Ziel-Channel ID (optional)", discordgo.TextInputShort, false, 20, ""),
		},
	}
}

func replyModal(messageID string, maxLength int) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: customID(modalReply, messageID),
		Title:    "Anonyme Antwort",
		Components: []discordgo.MessageComponent{
			textInput(fieldReply, "Antwort", discordgo.TextInputParagraph, true, maxLength, ""),
			textInput(fieldUnlock, "Thread entsperren? (ja/nein, optional)", discordgo.TextInputShort, false, 10, ""),
		},
	}
}

func reportModal(messageID string) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: customID(modalReport, messageID),
		Title:    "Beitrag melden",
		Components: []discordgo.MessageComponent{
			textInput(fieldReason, "Grund (optional)", discordgo.TextInputParagraph, false, maxReasonLength, ""),
		},
	}
}

func openModal(s *discordgo.Session, i *discordgo.InteractionCreate, modal *discordgo.InteractionResponseData) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: modal,
	})
}

func (h *Handler) maxLength() int {
	if h.deps.MaxLength > 0 {
		return h.deps.MaxLength
	}
	return 4000
}

// handleConfess opens the confession modal unless the member is still
// cooling down. The window itself is only consumed on submit.
func (h *Handler) handleConfess(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if remaining := h.deps.Orchestrator.CooldownRemaining(i.GuildID, authorID(i)); remaining > 0 {
		respondEphemeral(s, i, fmt.Sprintf("Bitte warte, bevor du erneut postest. Noch %s.", pipeline.FormatWait(remaining)))
		return nil
	}
	return openModal(s, i, confessionModal(h.maxLength()))
}

func (h *Handler) handleReplyCommand(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	raw, _ := stringOption(options(i), optMessageID)
	messageID, err := util.NormalizeSnowflake(raw)
	if err != nil {
		respondEphemeral(s, i, "Ungültige Nachricht-ID.")
		return nil
	}
	return openModal(s, i, replyModal(messageID, h.maxLength()))
}

func (h *Handler) handleReportCommand(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	raw, _ := stringOption(options(i), optMessageID)
	messageID, err := util.NormalizeSnowflake(raw)
	if err != nil {
		respondEphemeral(s, i, "Ungültige Nachricht-ID.")
		return nil
	}
	return openModal(s, i, reportModal(messageID))
}

func handleHelp(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return respondEmbed(s, i, helpEmbed())
}

func helpEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "BeichtBot Hilfe",
		Color: 0x5865F2,
		Description: strings.Join([]string{
			"**/beichten** – öffnet ein anonymes Eingabe-Modal.",
			"**/beichtantwort** – antworte anonym auf eine bestehende Beichte.",
			"**/melden** – informiere das Mod-Team über problematische Inhalte.",
			"Datensicherheit: User-IDs werden nur gehasht gespeichert.",
		}, "\n"),
	}
}

func (h *Handler) submitConfession(s *discordgo.Session, i *discordgo.InteractionCreate, fields map[string]string) error {
	ctx, cancel := interactionContext()
	defer cancel()

	out, err := h.deps.Orchestrator.Submit(ctx, pipeline.SubmitRequest{
		GuildID:      i.GuildID,
		AuthorID:     authorID(i),
		Text:         fields[fieldConfession],
		TriggerWords: fields[fieldTriggerWords],
		ChannelID:    fields[fieldTarget],
		AllowReplies: ParseBool(fields[fieldAllowReplies], nil),
		Lock:         ParseBool(fields[fieldLockThread], nil),
	})
	if err != nil {
		return err
	}
	respondEphemeral(s, i, confessionAck(out))
	return nil
}

// confessionAck is the private answer to the author.
func confessionAck(out *pipeline.Outcome) string {
	if !out.Accepted() {
		return out.Message
	}
	ack := out.Message
	if len(out.Hints) > 0 {
		ack += "\n" + strings.Join(out.Hints, " ")
	}
	if out.ThreadOpened {
		ack += "\nEin Diskussions-Thread wurde geöffnet."
	}
	return ack
}

func (h *Handler) submitReply(s *discordgo.Session, i *discordgo.InteractionCreate, messageID string, fields map[string]string) error {
	ctx, cancel := interactionContext()
	defer cancel()

	out, err := h.deps.Orchestrator.Reply(ctx, pipeline.ReplyRequest{
		GuildID:   i.GuildID,
		AuthorID:  authorID(i),
		MessageID: messageID,
		Text:      fields[fieldReply],
		Unlock:    boolValue(ParseBool(fields[fieldUnlock], nil)),
	})
	if err != nil {
		return err
	}
	respondEphemeral(s, i, out.Message)
	return nil
}

func (h *Handler) submitReport(s *discordgo.Session, i *discordgo.InteractionCreate, messageID string, fields map[string]string) error {
	ctx, cancel := interactionContext()
	defer cancel()

	out, err := h.deps.Orchestrator.Report(ctx, pipeline.ReportRequest{
		GuildID:   i.GuildID,
		MessageID: messageID,
		Reason:    fields[fieldReason],
	})
	if err != nil {
		return err
	}
	respondEphemeral(s, i, out.Message)
	return nil
}
