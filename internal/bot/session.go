package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/negurvulkan/BeichtBot/internal/logging"
	"github.com/negurvulkan/BeichtBot/internal/notifier"
	"github.com/negurvulkan/BeichtBot/internal/pipeline"

	"github.com/bwmarrin/discordgo"
	"github.com/puzpuzpuz/xsync/v3"
)

// threadArchiveMinutes is Discord's one day auto archive duration.
const threadArchiveMinutes = 1440

type Session struct {
	discord    *discordgo.Session
	token      string
	threadName string
	BotID      string

	// pending auto deletes keyed by message id
	deletes *xsync.MapOf[string, *pendingDelete]
}

var globalSession *Session

// Initialize creates and initializes the Discord session
func Initialize(token, threadName string) error {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return fmt.Errorf("failed to create Discord session: %w", err)
	}

	// Slash commands and modals need no message content.
	dg.Identify.Intents = discordgo.IntentsGuilds

	globalSession = &Session{
		discord:    dg,
		token:      token,
		threadName: threadName,
		deletes:    xsync.NewMapOf[string, *pendingDelete](),
	}

	notifier.SetSession(dg)
	return nil
}

// GetSession returns the global Discord session
func GetSession() *Session {
	return globalSession
}

// GetDiscord returns the underlying discordgo session
func (s *Session) GetDiscord() *discordgo.Session {
	return s.discord
}

// Connect opens the Discord websocket connection
func (s *Session) Connect() error {
	if err := s.discord.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	if s.discord.State.User != nil {
		s.BotID = s.discord.State.User.ID
		logging.Info("Bot ID: %s", s.BotID)
	}

	logging.Info("Discord bot connected successfully")
	return nil
}

// Close stops pending auto deletes and closes the Discord connection
func (s *Session) Close() error {
	s.deletes.Range(func(id string, p *pendingDelete) bool {
		p.stop()
		s.deletes.Delete(id)
		return true
	})
	if s.discord != nil {
		return s.discord.Close()
	}
	return nil
}

// GatewayHealth fails when the gateway has not acknowledged a heartbeat
// within maxSilence.
func (s *Session) GatewayHealth(maxSilence time.Duration) error {
	s.discord.RLock()
	ready := s.discord.DataReady
	lastAck := s.discord.LastHeartbeatAck
	s.discord.RUnlock()

	if !ready {
		return errors.New("gateway not ready")
	}
	if silence := time.Since(lastAck); silence > maxSilence {
		return fmt.Errorf("no heartbeat ack for %s", silence.Truncate(time.Second))
	}
	return nil
}

// RegisterCommands registers all slash commands with Discord. An empty
// guildID registers them globally.
func (s *Session) RegisterCommands(guildID string, commands []*discordgo.ApplicationCommand) error {
	logging.Info("Registering %d slash commands...", len(commands))

	for _, cmd := range commands {
		_, err := s.discord.ApplicationCommandCreate(s.discord.State.User.ID, guildID, cmd)
		if err != nil {
			return fmt.Errorf("failed to register command %s: %w", cmd.Name, err)
		}
		logging.Info("Registered command: /%s", cmd.Name)
	}

	return nil
}

// AddHandler adds an event handler to the Discord session
func (s *Session) AddHandler(handler interface{}) {
	s.discord.AddHandler(handler)
}

func noMentions() *discordgo.MessageAllowedMentions {
	return &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{}}
}

// Deliver posts content with every mention type disabled.
func (s *Session) Deliver(ctx context.Context, guildID, channelID, content string) (string, error) {
	msg, err := s.discord.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:         content,
		AllowedMentions: noMentions(),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to post in %s: %w", channelID, err)
	}
	return msg.ID, nil
}

// ChannelExists reports whether channelID is a text channel of guildID.
func (s *Session) ChannelExists(ctx context.Context, guildID, channelID string) bool {
	ch, err := s.discord.State.Channel(channelID)
	if err != nil {
		ch, err = s.discord.Channel(channelID, discordgo.WithContext(ctx))
		if err != nil {
			return false
		}
	}
	return ch.GuildID == guildID && isTextChannel(ch)
}

func isTextChannel(ch *discordgo.Channel) bool {
	return ch.Type == discordgo.ChannelTypeGuildText || ch.Type == discordgo.ChannelTypeGuildNews
}

// CreateThread opens the discussion thread of a confession.
func (s *Session) CreateThread(ctx context.Context, channelID, messageID string, lock bool) error {
	th, err := s.discord.MessageThreadStart(channelID, messageID, s.threadName, threadArchiveMinutes, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to start thread on %s: %w", messageID, err)
	}
	if lock {
		return s.setLocked(ctx, th.ID, true)
	}
	return nil
}

func (s *Session) setLocked(ctx context.Context, threadID string, locked bool) error {
	_, err := s.discord.ChannelEdit(threadID, &discordgo.ChannelEdit{Locked: &locked}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to set lock=%v on thread %s: %w", locked, threadID, err)
	}
	return nil
}

// DeliverReply posts content in the thread of messageID. A locked thread is
// opened for the reply and locked again afterwards when unlock is set.
func (s *Session) DeliverReply(ctx context.Context, guildID, channelID, messageID, content string, unlock bool) (string, error) {
	msg, err := s.discord.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		if isUnknownMessage(err) {
			return "", fmt.Errorf("%w: %s", pipeline.ErrMessageNotFound, messageID)
		}
		return "", fmt.Errorf("failed to fetch message %s: %w", messageID, err)
	}

	thread := msg.Thread
	if thread == nil {
		thread, err = s.discord.MessageThreadStart(channelID, messageID, s.threadName, threadArchiveMinutes, discordgo.WithContext(ctx))
		if err != nil {
			return "", fmt.Errorf("failed to start thread on %s: %w", messageID, err)
		}
	}

	locked := thread.ThreadMetadata != nil && thread.ThreadMetadata.Locked
	reopened := false
	if unlock && locked {
		if err := s.setLocked(ctx, thread.ID, false); err != nil {
			logging.Warn("%v", err)
		} else {
			reopened = true
		}
	}

	reply, err := s.discord.ChannelMessageSendComplex(thread.ID, &discordgo.MessageSend{
		Content:         content,
		AllowedMentions: noMentions(),
	}, discordgo.WithContext(ctx))

	if reopened {
		if lockErr := s.setLocked(ctx, thread.ID, true); lockErr != nil {
			logging.Warn("%v", lockErr)
		}
	}
	if err != nil {
		return "", fmt.Errorf("failed to post reply in %s: %w", thread.ID, err)
	}
	return reply.ID, nil
}

func isUnknownMessage(err error) bool {
	var restErr *discordgo.RESTError
	return errors.As(err, &restErr) && restErr.Message != nil &&
		restErr.Message.Code == discordgo.ErrCodeUnknownMessage
}

// pendingDelete is one scheduled auto delete. A newer schedule for the same
// message or Close may stop it before its timer exists.
type pendingDelete struct {
	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func (p *pendingDelete) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	if p.timer != nil {
		p.timer.Stop()
	}
}

// ScheduleDelete removes the message after the given delay. Pending deletes
// are dropped on Close.
func (s *Session) ScheduleDelete(channelID, messageID string, after time.Duration) {
	p := &pendingDelete{}
	if prev, loaded := s.deletes.LoadAndStore(messageID, p); loaded {
		prev.stop()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.timer = time.AfterFunc(after, func() {
		// only drop the entry if it is still ours
		s.deletes.Compute(messageID, func(cur *pendingDelete, loaded bool) (*pendingDelete, bool) {
			return cur, !loaded || cur == p
		})
		if err := s.discord.ChannelMessageDelete(channelID, messageID); err != nil {
			logging.Info("Message %s could not be deleted automatically: %v", messageID, err)
		}
	})
}

// PendingDeletes is the number of scheduled auto deletes.
func (s *Session) PendingDeletes() int {
	return s.deletes.Size()
}

// NotifyModerators sends notice to the guild's moderator channel.
func (s *Session) NotifyModerators(ctx context.Context, channelID string, notice pipeline.Notice) error {
	return notifier.Send(channelID, notice)
}

var _ pipeline.Publisher = (*Session)(nil)
