// Package pipeline runs confessions, replies and reports through rate
// limiting, screening, delivery and recording.
package pipeline

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/negurvulkan/BeichtBot/internal/cooldown"
	"github.com/negurvulkan/BeichtBot/internal/logging"
	"github.com/negurvulkan/BeichtBot/internal/metrics"
	"github.com/negurvulkan/BeichtBot/internal/models"
	"github.com/negurvulkan/BeichtBot/internal/pseudonym"
	"github.com/negurvulkan/BeichtBot/internal/screening"
	"github.com/negurvulkan/BeichtBot/internal/store"

	"github.com/google/uuid"
)

const (
	opSubmit = "submit"
	opReply  = "reply"
	opReport = "report"
)

// Options are the process-wide moderation settings.
type Options struct {
	// MaxLength caps submission length in runes, 0 disables the check.
	MaxLength int
	// CrisisOnlyWithAI skips the crisis lexicon unless the guild enabled
	// allow_ai_moderation.
	CrisisOnlyWithAI bool
	// RefundCooldownOnFilterReject gives the window back when the word lists
	// refuse a text.
	RefundCooldownOnFilterReject bool
}

// Orchestrator is safe for concurrent use.
type Orchestrator struct {
	store     *store.Store
	cooldowns *cooldown.Manager
	tokens    *pseudonym.Pseudonymizer
	publisher Publisher
	events    EventSink
	opts      Options
}

func New(st *store.Store, cooldowns *cooldown.Manager, publisher Publisher, opts Options) *Orchestrator {
	return &Orchestrator{
		store:     st,
		cooldowns: cooldowns,
		tokens:    pseudonym.New(st),
		publisher: publisher,
		opts:      opts,
	}
}

// SetEventSink enables the moderation event log. A nil sink disables it.
func (o *Orchestrator) SetEventSink(sink EventSink) {
	o.events = sink
}

func (o *Orchestrator) policy(cfg *store.GuildConfig) screening.Policy {
	return screening.Policy{
		Blacklist:    cfg.Blacklist,
		Whitelist:    cfg.Whitelist,
		DetectCrisis: !o.opts.CrisisOnlyWithAI || cfg.AllowAIModeration,
	}
}

// CooldownRemaining reports how long the author still has to wait without
// touching the window.
func (o *Orchestrator) CooldownRemaining(guildID, authorID string) time.Duration {
	return o.cooldowns.Remaining(guildID, authorID)
}

// Submit publishes a confession.
func (o *Orchestrator) Submit(ctx context.Context, req SubmitRequest) (*Outcome, error) {
	started := time.Now()
	defer metrics.ObserveDuration(opSubmit, started)

	if err := req.validate(o.opts.MaxLength); err != nil {
		return nil, err
	}
	correlationID := uuid.NewString()

	cfg, err := o.store.Get(req.GuildID)
	if err != nil {
		return nil, &PersistenceError{GuildID: req.GuildID, Err: err}
	}

	channelID, configured := ResolveChannel(cfg, req.ChannelID, func(id string) bool {
		return o.publisher.ChannelExists(ctx, req.GuildID, id)
	})
	if !configured {
		out := needsInput(ReasonNoTarget, "Kein Ziel-Channel konfiguriert. Bitte wende dich an das Mod-Team.")
		return o.finish(ctx, opSubmit, req.GuildID, correlationID, out), nil
	}
	if channelID == "" {
		out := rejected(StageReceived, ReasonInvalidTarget, "Kein gültiger Ziel-Channel konfiguriert.")
		return o.finish(ctx, opSubmit, req.GuildID, correlationID, out), nil
	}

	// Received -> RateChecked
	if !o.cooldowns.Admit(req.GuildID, req.AuthorID, cfg.CooldownSeconds) {
		out := rejected(StageReceived, ReasonRateLimited, o.rateLimitMessage(req.GuildID, req.AuthorID))
		return o.finish(ctx, opSubmit, req.GuildID, correlationID, out), nil
	}

	// RateChecked -> Filtered
	result := screening.Screen(req.Text, o.policy(cfg))
	if result.Rejected() {
		if o.opts.RefundCooldownOnFilterReject {
			o.cooldowns.Clear(req.GuildID, req.AuthorID)
		}
		out := rejected(StageRateChecked, rejectionReason(result.Rejection), result.Rejection.Message())
		return o.finish(ctx, opSubmit, req.GuildID, correlationID, out), nil
	}

	// Filtered -> PublishedPending
	content := screening.Compose(req.Text, screening.ParseTriggerWords(req.TriggerWords))
	messageID, err := o.publisher.Deliver(ctx, req.GuildID, channelID, content)
	metrics.ObserveDelivery(opSubmit, err)
	if err != nil {
		o.logFailure(ctx, req.GuildID, correlationID, err)
		return nil, &DeliveryError{Operation: opSubmit, Err: err}
	}

	// PublishedPending -> Recorded
	token, err := o.record(req.GuildID, req.AuthorID, messageID, store.StatConfessions, result.Advisory)
	if err != nil {
		return nil, err
	}

	out := &Outcome{
		Kind:          Accepted,
		Stage:         StageRecorded,
		CorrelationID: correlationID,
		ChannelID:     channelID,
		MessageID:     messageID,
		Content:       content,
		Hints:         result.Advisory.Hints(),
		PII:           result.Advisory.PII,
		Crisis:        result.Advisory.Crisis,
		Message:       "Deine Beichte wurde anonym veröffentlicht.",
	}

	o.afterPublish(ctx, cfg, req, out)
	o.logEvent(ctx, out, req.GuildID, models.EventTypeConfessionPublished, token)
	observeAccepted(opSubmit, result.Advisory)
	return out, nil
}

// afterPublish runs the side effects of a recorded confession. Their failures
// are logged and never undo the record.
func (o *Orchestrator) afterPublish(ctx context.Context, cfg *store.GuildConfig, req SubmitRequest, out *Outcome) {
	allowReplies := true
	if req.AllowReplies != nil {
		allowReplies = *req.AllowReplies
	}
	lock := cfg.DefaultThreadLock
	if req.Lock != nil {
		lock = *req.Lock
	}
	if !allowReplies {
		lock = true
	}

	if err := o.publisher.CreateThread(ctx, out.ChannelID, out.MessageID, lock); err != nil {
		logging.Warn("[%s] Thread creation failed for message %s: %v", out.CorrelationID, out.MessageID, err)
	} else {
		out.ThreadOpened = !lock
	}

	if cfg.AutoDeleteMinutes > 0 {
		o.publisher.ScheduleDelete(out.ChannelID, out.MessageID, time.Duration(cfg.AutoDeleteMinutes)*time.Minute)
	}

	if (out.PII || out.Crisis) && cfg.ModChannelID != "" {
		notice := Notice{
			Kind:      NoticeSensitive,
			GuildID:   req.GuildID,
			ChannelID: out.ChannelID,
			MessageID: out.MessageID,
			PII:       out.PII,
			Crisis:    out.Crisis,
		}
		if err := o.publisher.NotifyModerators(ctx, cfg.ModChannelID, notice); err != nil {
			logging.Warn("[%s] Failed to notify moderators: %v", out.CorrelationID, err)
		}
	}
}

// Reply publishes an anonymous answer in the thread of a confession.
func (o *Orchestrator) Reply(ctx context.Context, req ReplyRequest) (*Outcome, error) {
	started := time.Now()
	defer metrics.ObserveDuration(opReply, started)

	if err := req.validate(o.opts.MaxLength); err != nil {
		return nil, err
	}
	correlationID := uuid.NewString()

	cfg, err := o.store.Get(req.GuildID)
	if err != nil {
		return nil, &PersistenceError{GuildID: req.GuildID, Err: err}
	}

	channelID, configured := ResolveChannel(cfg, "", func(id string) bool {
		return o.publisher.ChannelExists(ctx, req.GuildID, id)
	})
	if !configured {
		out := needsInput(ReasonNoTarget, "Keine Ziel-Konfiguration gefunden.")
		return o.finish(ctx, opReply, req.GuildID, correlationID, out), nil
	}
	if channelID == "" {
		out := rejected(StageReceived, ReasonInvalidTarget, "Keine Ziel-Konfiguration gefunden.")
		return o.finish(ctx, opReply, req.GuildID, correlationID, out), nil
	}

	if !o.cooldowns.Admit(req.GuildID, req.AuthorID, cfg.CooldownSeconds) {
		out := rejected(StageReceived, ReasonRateLimited, o.rateLimitMessage(req.GuildID, req.AuthorID))
		return o.finish(ctx, opReply, req.GuildID, correlationID, out), nil
	}

	result := screening.Screen(req.Text, o.policy(cfg))
	if result.Rejected() {
		if o.opts.RefundCooldownOnFilterReject {
			o.cooldowns.Clear(req.GuildID, req.AuthorID)
		}
		out := rejected(StageRateChecked, rejectionReason(result.Rejection), result.Rejection.Message())
		return o.finish(ctx, opReply, req.GuildID, correlationID, out), nil
	}

	content := screening.Wrap(screening.NeutralizeMentions(req.Text))
	replyID, err := o.publisher.DeliverReply(ctx, req.GuildID, channelID, req.MessageID, content, req.Unlock)
	metrics.ObserveDelivery(opReply, err)
	if err != nil {
		o.logFailure(ctx, req.GuildID, correlationID, err)
		return nil, &DeliveryError{Operation: opReply, Err: err}
	}

	token, err := o.record(req.GuildID, req.AuthorID, replyID, store.StatResponses, result.Advisory)
	if err != nil {
		return nil, err
	}

	out := &Outcome{
		Kind:          Accepted,
		Stage:         StageRecorded,
		CorrelationID: correlationID,
		ChannelID:     channelID,
		MessageID:     replyID,
		Content:       content,
		Hints:         result.Advisory.Hints(),
		PII:           result.Advisory.PII,
		Crisis:        result.Advisory.Crisis,
		Message:       "Antwort wurde anonym veröffentlicht.",
	}
	o.logEvent(ctx, out, req.GuildID, models.EventTypeReplyPublished, token)
	observeAccepted(opReply, result.Advisory)
	return out, nil
}

// Report forwards a message to the moderator channel.
func (o *Orchestrator) Report(ctx context.Context, req ReportRequest) (*Outcome, error) {
	started := time.Now()
	defer metrics.ObserveDuration(opReport, started)

	if err := req.validate(); err != nil {
		return nil, err
	}
	correlationID := uuid.NewString()

	cfg, err := o.store.Get(req.GuildID)
	if err != nil {
		return nil, &PersistenceError{GuildID: req.GuildID, Err: err}
	}

	if cfg.ModChannelID == "" {
		out := needsInput(ReasonNoModChannel, "Es wurde kein Mod-Channel konfiguriert.")
		return o.finish(ctx, opReport, req.GuildID, correlationID, out), nil
	}
	if !o.publisher.ChannelExists(ctx, req.GuildID, cfg.ModChannelID) {
		out := rejected(StageReceived, ReasonInvalidTarget, "Mod-Channel ungültig.")
		return o.finish(ctx, opReport, req.GuildID, correlationID, out), nil
	}

	notice := Notice{
		Kind:      NoticeReport,
		GuildID:   req.GuildID,
		ChannelID: cfg.TargetChannelID,
		MessageID: req.MessageID,
		Reason:    req.Reason,
	}
	err = o.publisher.NotifyModerators(ctx, cfg.ModChannelID, notice)
	metrics.ObserveDelivery(opReport, err)
	if err != nil {
		o.logFailure(ctx, req.GuildID, correlationID, err)
		return nil, &DeliveryError{Operation: opReport, Err: err}
	}

	if _, err := o.store.IncrementStat(req.GuildID, store.StatReports, 1); err != nil {
		metrics.ObservePersistenceFailure()
		return nil, &PersistenceError{GuildID: req.GuildID, MessageID: req.MessageID, Err: err}
	}

	out := &Outcome{
		Kind:          Accepted,
		Stage:         StageRecorded,
		CorrelationID: correlationID,
		ChannelID:     cfg.ModChannelID,
		MessageID:     req.MessageID,
		Message:       "Danke, das Mod-Team wurde informiert.",
	}
	o.logEvent(ctx, out, req.GuildID, models.EventTypeReportForwarded, "")
	metrics.ObserveOutcome(opReport, Accepted.String(), "")
	return out, nil
}

// TraceToken returns the stored token of a published message.
func (o *Orchestrator) TraceToken(guildID, messageID string) (string, bool, error) {
	guildID, err := snowflake("guild_id", guildID, "Nur in Servern verfügbar.")
	if err != nil {
		return "", false, err
	}
	messageID, err = snowflake("message_id", messageID, "Ungültige ID.")
	if err != nil {
		return "", false, err
	}
	return o.store.GetHash(guildID, messageID)
}

func (o *Orchestrator) record(guildID, authorID, messageID, counter string, adv screening.Advisory) (string, error) {
	token, err := o.tokens.Token(authorID, messageID)
	if err == nil {
		_, err = o.store.RecordPublication(guildID, store.Publication{
			MessageID: messageID,
			Token:     token,
			Counter:   counter,
			PII:       adv.PII,
			Crisis:    adv.Crisis,
		})
	}
	if err != nil {
		metrics.ObservePersistenceFailure()
		logging.Error("Message %s in guild %s was delivered but not recorded: %v", messageID, guildID, err)
		return "", &PersistenceError{GuildID: guildID, MessageID: messageID, Err: err}
	}
	return token, nil
}

func (o *Orchestrator) rateLimitMessage(guildID, authorID string) string {
	msg := "Bitte warte, bevor du erneut postest."
	if remaining := o.cooldowns.Remaining(guildID, authorID); remaining > 0 {
		msg += fmt.Sprintf(" Noch %s.", FormatWait(remaining))
	}
	return msg
}

// FormatWait renders a wait time in German, rounded up to whole seconds.
func FormatWait(d time.Duration) string {
	secs := int(math.Ceil(d.Seconds()))
	switch {
	case secs <= 1:
		return "1 Sekunde"
	case secs < 60:
		return fmt.Sprintf("%d Sekunden", secs)
	}
	minutes, secs := secs/60, secs%60
	unit := "Minuten"
	if minutes == 1 {
		unit = "Minute"
	}
	if secs == 0 {
		return fmt.Sprintf("%d %s", minutes, unit)
	}
	return fmt.Sprintf("%d %s %d Sekunden", minutes, unit, secs)
}

func rejectionReason(r *screening.Rejection) Reason {
	if r.Kind == screening.Blacklisted {
		return ReasonBlacklisted
	}
	return ReasonWhitelistUnsatisfied
}

func observeAccepted(op string, adv screening.Advisory) {
	metrics.ObserveOutcome(op, Accepted.String(), "")
	if adv.PII {
		metrics.ObserveFlag("pii")
	}
	if adv.Crisis {
		metrics.ObserveFlag("crisis")
	}
	if adv.Mentions {
		metrics.ObserveFlag("mentions")
	}
	if adv.Links {
		metrics.ObserveFlag("links")
	}
}

// finish records a non-accepted outcome and returns it.
func (o *Orchestrator) finish(ctx context.Context, op, guildID, correlationID string, out *Outcome) *Outcome {
	out.CorrelationID = correlationID
	metrics.ObserveOutcome(op, out.Kind.String(), out.Reason.String())
	logging.Debug("[%s] %s in guild %s ended %s: %s", correlationID, op, guildID, out.Kind, out.Reason)

	eventType := models.EventTypeInvalidTarget
	switch out.Reason {
	case ReasonRateLimited:
		eventType = models.EventTypeRateLimited
	case ReasonBlacklisted, ReasonWhitelistUnsatisfied:
		eventType = models.EventTypeFilterRejected
	}
	o.logEvent(ctx, out, guildID, eventType, "")
	return out
}

func (o *Orchestrator) logFailure(ctx context.Context, guildID, correlationID string, err error) {
	logging.Warn("[%s] Delivery failed in guild %s: %v", correlationID, guildID, err)
	ev := models.NewModerationEvent(guildID, models.EventTypeDeliveryFailed)
	ev.CorrelationID = correlationID
	ev.Stage = StagePublishedPending.String()
	ev.Detail = err.Error()
	o.writeEvent(ctx, ev)
}

func (o *Orchestrator) logEvent(ctx context.Context, out *Outcome, guildID string, eventType int, token string) {
	ev := models.NewModerationEvent(guildID, eventType)
	ev.CorrelationID = out.CorrelationID
	ev.Stage = out.Stage.String()
	if out.Kind != Accepted {
		ev.Stage = out.RejectedAt.String()
		ev.Detail = out.Reason.String()
	}
	ev.MessageID = out.MessageID
	ev.TraceToken = token
	ev.PII = out.PII
	ev.Crisis = out.Crisis
	o.writeEvent(ctx, ev)
}

func (o *Orchestrator) writeEvent(ctx context.Context, ev *models.ModerationEvent) {
	if o.events == nil {
		return
	}
	if err := o.events.LogEvent(ctx, ev); err != nil {
		logging.Warn("[%s] Failed to write moderation event: %v", ev.CorrelationID, err)
	}
}
