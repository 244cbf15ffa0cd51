package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMergesDefaults(t *testing.T) {
	path := writeFile(t, "config.json", `{"storage": {"backend": "sqlite", "database_path": "x.db"}}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "x.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 1800, cfg.Moderation.MaxLength)
	assert.Equal(t, CrisisAlways, cfg.Moderation.CrisisScreening)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "secret-token")
	t.Setenv("BEICHTBOT_STATE_PATH", "/tmp/state.json")
	t.Setenv("BEICHTBOT_METRICS_ADDR", ":9999")
	t.Setenv("BEICHTBOT_REFUND_COOLDOWN", "true")

	path := writeFile(t, "config.json", `{"bot": {"token": "from-file"}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-token", cfg.Bot.Token)
	assert.Equal(t, "/tmp/state.json", cfg.Storage.StatePath)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9999", cfg.Metrics.Addr)
	assert.True(t, cfg.Moderation.RefundCooldownOnFilterReject)
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)

	broken := writeFile(t, "config.json", `{not json`)
	_, err = LoadOrDefault(broken)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Backend = "etcd"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Moderation.CrisisScreening = "sometimes"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Moderation.MaxLength = 0
	assert.Error(t, cfg.Validate())

	assert.NoError(t, DefaultConfig().Validate())
}

func TestLoadDotEnvMissing(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))

	path := writeFile(t, ".env", "BEICHTBOT_LOG_LEVEL=debug\n")
	t.Setenv("BEICHTBOT_LOG_LEVEL", "")
	os.Unsetenv("BEICHTBOT_LOG_LEVEL")
	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "debug", os.Getenv("BEICHTBOT_LOG_LEVEL"))
}
