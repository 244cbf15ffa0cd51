package pipeline

import (
	"strings"

	"github.com/negurvulkan/BeichtBot/pkg/util"
)

// SubmitRequest is a new confession from the modal.
type SubmitRequest struct {
	GuildID  string
	AuthorID string
	Text     string
	// TriggerWords is the raw comma separated trigger-warning field.
	TriggerWords string
	// ChannelID overrides the configured target when set.
	ChannelID string
	// AllowReplies defaults to true, Lock to the guild's default_thread_lock.
	AllowReplies *bool
	Lock         *bool
}

// ReplyRequest is an anonymous answer to a published confession.
type ReplyRequest struct {
	GuildID   string
	AuthorID  string
	MessageID string
	Text      string
	Unlock    bool
}

// ReportRequest forwards a message to the moderators.
type ReportRequest struct {
	GuildID   string
	MessageID string
	Reason    string
}

const maxReasonLength = 400

func snowflake(field, value, message string) (string, error) {
	id, err := util.NormalizeSnowflake(value)
	if err != nil {
		return "", &ValidationError{Field: field, Value: value, Message: message}
	}
	return id, nil
}

func (r *SubmitRequest) validate(maxLength int) error {
	var err error
	if r.GuildID, err = snowflake("guild_id", r.GuildID, "Dieser Befehl kann nur in einem Server genutzt werden."); err != nil {
		return err
	}
	if r.AuthorID, err = snowflake("author_id", r.AuthorID, "Unbekannter Absender."); err != nil {
		return err
	}
	if strings.TrimSpace(r.ChannelID) != "" {
		if r.ChannelID, err = snowflake("channel_id", r.ChannelID, "Die Channel-ID ist ungültig."); err != nil {
			return err
		}
	} else {
		r.ChannelID = ""
	}
	return validateText(r.Text, maxLength, "Deine Beichte ist leer.")
}

func (r *ReplyRequest) validate(maxLength int) error {
	var err error
	if r.GuildID, err = snowflake("guild_id", r.GuildID, "Nur in Servern verfügbar."); err != nil {
		return err
	}
	if r.AuthorID, err = snowflake("author_id", r.AuthorID, "Unbekannter Absender."); err != nil {
		return err
	}
	if r.MessageID, err = snowflake("message_id", r.MessageID, "Ungültige Nachricht-ID."); err != nil {
		return err
	}
	return validateText(r.Text, maxLength, "Deine Antwort ist leer.")
}

func (r *ReportRequest) validate() error {
	var err error
	if r.GuildID, err = snowflake("guild_id", r.GuildID, "Nur in Servern verfügbar."); err != nil {
		return err
	}
	if r.MessageID, err = snowflake("message_id", r.MessageID, "Ungültige Nachricht-ID."); err != nil {
		return err
	}
	r.Reason = strings.TrimSpace(r.Reason)
	if len([]rune(r.Reason)) > maxReasonLength {
		return &ValidationError{Field: "reason", Value: r.Reason, Message: "Der Grund ist zu lang."}
	}
	return nil
}

func validateText(text string, maxLength int, emptyMessage string) error {
	if strings.TrimSpace(text) == "" {
		return &ValidationError{Field: "text", Message: emptyMessage}
	}
	if maxLength > 0 && len([]rune(text)) > maxLength {
		return &ValidationError{Field: "text", Message: "Der Text ist zu lang."}
	}
	return nil
}
