package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/negurvulkan/BeichtBot/internal/models"
	"github.com/negurvulkan/BeichtBot/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestDocumentRoundTrip(t *testing.T) {
	d := openTestDB(t)

	body, err := d.LoadDocument()
	require.NoError(t, err)
	assert.Nil(t, body)

	require.NoError(t, d.SaveDocument([]byte(`{"version":1}`)))
	require.NoError(t, d.SaveDocument([]byte(`{"version":1,"guilds":{}}`)))

	body, err = d.LoadDocument()
	require.NoError(t, err)
	assert.Equal(t, `{"version":1,"guilds":{}}`, string(body))
}

func TestStoreOnSQLiteBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	d, err := Open(path)
	require.NoError(t, err)

	s, err := store.Open(NewDocumentBackend(d))
	require.NoError(t, err)
	_, err = s.IncrementStat("42", store.StatConfessions, 2)
	require.NoError(t, err)
	secret, err := s.Secret()
	require.NoError(t, err)
	require.NoError(t, d.Close())

	d, err = Open(path)
	require.NoError(t, err)
	defer d.Close()

	s, err = store.Open(NewDocumentBackend(d))
	require.NoError(t, err)
	cfg, err := s.Get("42")
	require.NoError(t, err)
	assert.Equal(t, int64(2), cfg.Stat(store.StatConfessions))

	again, err := s.Secret()
	require.NoError(t, err)
	assert.Equal(t, secret, again)
}

func TestLogAndQueryEvents(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	published := models.NewModerationEvent("1", models.EventTypeConfessionPublished)
	published.CorrelationID = "c-1"
	published.Stage = "recorded"
	published.MessageID = "900"
	published.TraceToken = "abc"
	published.PII = true
	require.NoError(t, d.LogEvent(ctx, published))
	assert.NotZero(t, published.ID)

	rejected := models.NewModerationEvent("1", models.EventTypeFilterRejected)
	rejected.CorrelationID = "c-2"
	rejected.Stage = "rejected"
	rejected.Detail = "blacklist:spam"
	require.NoError(t, d.LogEvent(ctx, rejected))

	other := models.NewModerationEvent("2", models.EventTypeRateLimited)
	other.CorrelationID = "c-3"
	other.Stage = "rejected"
	require.NoError(t, d.LogEvent(ctx, other))

	events, err := d.GetRecentEvents(ctx, "1", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "c-2", events[0].CorrelationID)
	assert.Equal(t, "c-1", events[1].CorrelationID)
	assert.True(t, events[1].PII)
	assert.False(t, events[1].Crisis)
	assert.Equal(t, "abc", events[1].TraceToken)

	counts, err := d.CountEvents(ctx, "1")
	require.NoError(t, err)
	byName := map[string]int64{}
	for _, c := range counts {
		byName[c.Name] = c.Count
	}
	assert.Equal(t, int64(1), byName["confession_published"])
	assert.Equal(t, int64(1), byName["filter_rejected"])
	assert.Equal(t, int64(0), byName["rate_limited"])

	require.NoError(t, d.DeleteGuildEvents(ctx, "1"))
	events, err = d.GetRecentEvents(ctx, "1", 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEventTypesSeeded(t *testing.T) {
	d := openTestDB(t)

	types, err := d.GetEventTypes()
	require.NoError(t, err)
	assert.Len(t, types, len(models.EventTypeNames))
	assert.Equal(t, "confession_published", types[0].Name)
}

func TestGlobalInitialize(t *testing.T) {
	require.NoError(t, Initialize(filepath.Join(t.TempDir(), "global.db")))
	assert.True(t, IsConnected())
	assert.NotNil(t, GetDB())
	require.NoError(t, Close())
	assert.False(t, IsConnected())
}
