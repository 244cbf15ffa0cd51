package bot

import (
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/negurvulkan/BeichtBot/internal/store"

	"github.com/bwmarrin/discordgo"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingTransport struct {
	calls atomic.Int32
}

func (f *failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	f.calls.Add(1)
	return nil, errors.New("offline")
}

func TestIsUnknownMessage(t *testing.T) {
	notFound := &discordgo.RESTError{Message: &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownMessage}}
	assert.True(t, isUnknownMessage(fmt.Errorf("wrapped: %w", notFound)))

	other := &discordgo.RESTError{Message: &discordgo.APIErrorMessage{Code: discordgo.ErrCodeMissingAccess}}
	assert.False(t, isUnknownMessage(other))
	assert.False(t, isUnknownMessage(&discordgo.RESTError{}))
	assert.False(t, isUnknownMessage(fmt.Errorf("boom")))
}

func TestIsTextChannel(t *testing.T) {
	assert.True(t, isTextChannel(&discordgo.Channel{Type: discordgo.ChannelTypeGuildText}))
	assert.True(t, isTextChannel(&discordgo.Channel{Type: discordgo.ChannelTypeGuildNews}))
	assert.False(t, isTextChannel(&discordgo.Channel{Type: discordgo.ChannelTypeGuildVoice}))
	assert.False(t, isTextChannel(&discordgo.Channel{Type: discordgo.ChannelTypeGuildPublicThread}))
}

func TestScheduleDeleteReplacesAndClose(t *testing.T) {
	s := &Session{deletes: xsync.NewMapOf[string, *pendingDelete]()}

	s.ScheduleDelete("1", "2", time.Hour)
	s.ScheduleDelete("1", "2", time.Hour)
	s.ScheduleDelete("1", "3", time.Hour)
	assert.Equal(t, 2, s.PendingDeletes())

	assert.NoError(t, s.Close())
	assert.Equal(t, 0, s.PendingDeletes())
}

func TestScheduleDeleteFiredTimerKeepsNewerEntry(t *testing.T) {
	dg, err := discordgo.New("Bot test")
	require.NoError(t, err)
	transport := &failingTransport{}
	dg.Client = &http.Client{Transport: transport}
	s := &Session{discord: dg, deletes: xsync.NewMapOf[string, *pendingDelete]()}

	s.ScheduleDelete("1", "2", time.Millisecond)
	assert.Eventually(t, func() bool {
		return transport.calls.Load() == 1 && s.PendingDeletes() == 0
	}, time.Second, 5*time.Millisecond)

	s.ScheduleDelete("1", "3", time.Millisecond)
	s.ScheduleDelete("1", "3", time.Hour)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, s.PendingDeletes())

	assert.NoError(t, s.Close())
	assert.Equal(t, 0, s.PendingDeletes())
}

func TestChannelRoles(t *testing.T) {
	cfg := store.NewGuildConfig("1")
	cfg.TargetChannelID = "10"
	cfg.ModChannelID = "10"
	cfg.AllowedTargetChannels = []string{"10", "11"}

	assert.Equal(t, []string{"target", "moderator", "allowed target"}, ChannelRoles(cfg, "10"))
	assert.Equal(t, []string{"allowed target"}, ChannelRoles(cfg, "11"))
	assert.Empty(t, ChannelRoles(cfg, "12"))
}
