package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")

	logger, err := NewLogger(LevelInfo, path)
	require.NoError(t, err)

	logger.Debug("hidden %d", 1)
	logger.Info("guild %s configured", "42")
	logger.Critical("store unreadable")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "guild 42 configured")
	assert.Contains(t, out, `"critical":true`)
	assert.NotContains(t, out, "hidden 1")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelInfo, ParseLevel("bogus"))
}

func TestGlobalLoggerNilSafe(t *testing.T) {
	GlobalLogger = nil
	Info("no logger installed %d", 1)
	assert.NoError(t, CloseGlobalLogger())
}
