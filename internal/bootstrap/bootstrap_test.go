package bootstrap

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/negurvulkan/BeichtBot/internal/config"
	"github.com/negurvulkan/BeichtBot/internal/database"
	"github.com/negurvulkan/BeichtBot/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DISCORD_TOKEN", "token")

	b := New(Options{
		ConfigPath:   filepath.Join(dir, "missing.json"),
		EnvFile:      filepath.Join(dir, "missing.env"),
		LogLevel:     "debug",
		Backend:      config.BackendSQLite,
		DatabasePath: filepath.Join(dir, "bot.db"),
		MetricsAddr:  "127.0.0.1:0",
		DevGuildID:   "42",
	})
	require.NoError(t, b.loadConfig())

	assert.Equal(t, "token", b.Config.Bot.Token)
	assert.Equal(t, "debug", b.Config.Logging.Level)
	assert.Equal(t, config.BackendSQLite, b.Config.Storage.Backend)
	assert.True(t, b.Config.Metrics.Enabled)
	assert.Equal(t, "42", b.Config.Bot.DevGuildID)
}

func TestLoadConfigRequiresToken(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DISCORD_TOKEN", "")

	b := New(Options{ConfigPath: filepath.Join(dir, "missing.json")})
	err := b.loadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DISCORD_TOKEN")
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DISCORD_TOKEN", "token")

	b := New(Options{ConfigPath: filepath.Join(dir, "missing.json"), Backend: "redis"})
	assert.Error(t, b.loadConfig())
}

func TestOpenStoreBackends(t *testing.T) {
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Storage.StatePath = filepath.Join(dir, "state", "beichtbot.json")
	st, err := openStore(cfg, nil)
	require.NoError(t, err)
	_, err = st.Get("1")
	require.NoError(t, err)
	_, err = os.Stat(cfg.Storage.StatePath)
	assert.NoError(t, err)

	db, err := database.Open(filepath.Join(dir, "beichtbot.db"))
	require.NoError(t, err)
	defer db.Close()

	cfg.Storage.Backend = config.BackendSQLite
	st, err = openStore(cfg, db)
	require.NoError(t, err)
	assert.Empty(t, st.ListGuildIDs())
}

func TestOpenDatabaseSkippedWithoutUse(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Storage.EventLog = false

	db, err := openDatabase(cfg)
	require.NoError(t, err)
	assert.Nil(t, db)
}

func TestStartAllFailsWhenMetricsAddressTaken(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	cfg := config.DefaultConfig()
	c := &Components{Metrics: metrics.NewServer(taken.Addr().String())}

	err = StartAll(cfg, c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metrics")
}
