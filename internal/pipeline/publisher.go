package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/negurvulkan/BeichtBot/internal/models"
)

// ErrMessageNotFound is wrapped by publishers when a referenced message does
// not exist in the target channel.
var ErrMessageNotFound = errors.New("message not found")

// Publisher performs every Discord side effect on behalf of the pipeline.
// Implementations must be safe for concurrent use.
type Publisher interface {
	Deliver(ctx context.Context, guildID, channelID, content string) (string, error)
	ChannelExists(ctx context.Context, guildID, channelID string) bool
	// DeliverReply posts content in the thread under messageID, creating the
	// thread when needed. unlock temporarily opens a locked thread.
	DeliverReply(ctx context.Context, guildID, channelID, messageID, content string, unlock bool) (string, error)
	CreateThread(ctx context.Context, channelID, messageID string, lock bool) error
	ScheduleDelete(channelID, messageID string, after time.Duration)
	NotifyModerators(ctx context.Context, channelID string, notice Notice) error
}

// EventSink receives one event per finished pipeline run.
type EventSink interface {
	LogEvent(ctx context.Context, ev *models.ModerationEvent) error
}

type NoticeKind int

const (
	NoticeSensitive NoticeKind = iota + 1
	NoticeReport
)

// Notice is a message for the moderator channel. It never names the author.
type Notice struct {
	Kind      NoticeKind
	GuildID   string
	ChannelID string
	MessageID string
	PII       bool
	Crisis    bool
	Reason    string
}

func (n Notice) Link() string {
	return MessageLink(n.GuildID, n.ChannelID, n.MessageID)
}

// MessageLink builds the jump URL of a message.
func MessageLink(guildID, channelID, messageID string) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}
