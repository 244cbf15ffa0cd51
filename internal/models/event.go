package models

import "time"

// ModerationEvent is one terminal outcome of the moderation pipeline. It never
// carries a raw author id; the trace token stands in for the author.
type ModerationEvent struct {
	ID            int64
	CorrelationID string
	GuildID       string
	EventType     int
	Stage         string
	MessageID     string
	TraceToken    string
	PII           bool
	Crisis        bool
	Detail        string
	Timestamp     int64
}

const (
	EventTypeUnknown = iota
	EventTypeConfessionPublished
	EventTypeReplyPublished
	EventTypeReportForwarded
	EventTypeRateLimited
	EventTypeFilterRejected
	EventTypeInvalidTarget
	EventTypeDeliveryFailed
)

// EventTypeNames maps event types to the names seeded into the database.
var EventTypeNames = map[int]string{
	EventTypeConfessionPublished: "confession_published",
	EventTypeReplyPublished:      "reply_published",
	EventTypeReportForwarded:     "report_forwarded",
	EventTypeRateLimited:         "rate_limited",
	EventTypeFilterRejected:      "filter_rejected",
	EventTypeInvalidTarget:       "invalid_target",
	EventTypeDeliveryFailed:      "delivery_failed",
}

func NewModerationEvent(guildID string, eventType int) *ModerationEvent {
	return &ModerationEvent{
		GuildID:   guildID,
		EventType: eventType,
		Timestamp: time.Now().Unix(),
	}
}
