package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"

	// CrisisAlways screens every submission for crisis keywords.
	CrisisAlways = "always"
	// CrisisAIToggle screens only when the guild enabled allow_ai_moderation.
	CrisisAIToggle = "ai_toggle"
)

type Config struct {
	Bot        BotConfig        `json:"bot"`
	Storage    StorageConfig    `json:"storage"`
	Moderation ModerationConfig `json:"moderation"`
	Metrics    MetricsConfig    `json:"metrics"`
	Logging    LoggingConfig    `json:"logging"`
}

type BotConfig struct {
	Token    string `json:"token"`
	ClientID string `json:"client_id"`
	// DevGuildID registers commands in a single guild for fast iteration.
	DevGuildID string `json:"dev_guild_id"`
}

type StorageConfig struct {
	Backend      string `json:"backend"`
	StatePath    string `json:"state_path"`
	DatabasePath string `json:"database_path"`
	EventLog     bool   `json:"event_log"`
}

type ModerationConfig struct {
	CrisisScreening              string `json:"crisis_screening"`
	RefundCooldownOnFilterReject bool   `json:"refund_cooldown_on_filter_reject"`
	MaxLength                    int    `json:"max_length"`
	ThreadName                   string `json:"thread_name"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

type LoggingConfig struct {
	Level string `json:"level"`
	Path  string `json:"path"`
}

// Load reads path on top of DefaultConfig and applies environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	ApplyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault falls back to defaults only when the file does not exist.
// A present but broken file is still an error.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = DefaultConfig()
		ApplyEnv(cfg)
		return cfg, cfg.Validate()
	}
	return cfg, err
}

// LoadDotEnv loads variables from a .env file if it exists.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides config values with environment variables when set.
func ApplyEnv(cfg *Config) {
	if token := os.Getenv("DISCORD_TOKEN"); token != "" {
		cfg.Bot.Token = token
	}
	if clientID := os.Getenv("CLIENT_ID"); clientID != "" {
		cfg.Bot.ClientID = clientID
	}
	if path := os.Getenv("BEICHTBOT_STATE_PATH"); path != "" {
		cfg.Storage.StatePath = path
	}
	if path := os.Getenv("BEICHTBOT_DB_PATH"); path != "" {
		cfg.Storage.DatabasePath = path
	}
	if backend := os.Getenv("BEICHTBOT_STORAGE_BACKEND"); backend != "" {
		cfg.Storage.Backend = backend
	}
	if addr := os.Getenv("BEICHTBOT_METRICS_ADDR"); addr != "" {
		cfg.Metrics.Addr = addr
		cfg.Metrics.Enabled = true
	}
	if level := os.Getenv("BEICHTBOT_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if refund := os.Getenv("BEICHTBOT_REFUND_COOLDOWN"); refund != "" {
		if v, err := strconv.ParseBool(refund); err == nil {
			cfg.Moderation.RefundCooldownOnFilterReject = v
		}
	}
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile:
		if c.Storage.StatePath == "" {
			return fmt.Errorf("storage.state_path is required for the file backend")
		}
	case BackendSQLite:
		if c.Storage.DatabasePath == "" {
			return fmt.Errorf("storage.database_path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.Moderation.CrisisScreening {
	case CrisisAlways, CrisisAIToggle:
	default:
		return fmt.Errorf("unknown crisis_screening mode %q", c.Moderation.CrisisScreening)
	}

	if c.Moderation.MaxLength <= 0 {
		return fmt.Errorf("moderation.max_length must be positive")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:      BackendFile,
			StatePath:    "beichtbot_state.json",
			DatabasePath: "beichtbot.db",
			EventLog:     true,
		},
		Moderation: ModerationConfig{
			CrisisScreening: CrisisAlways,
			MaxLength:       1800,
			ThreadName:      "Beicht-Thread",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9464",
		},
		Logging: LoggingConfig{
			Level: "info",
			Path:  "beichtbot.log",
		},
	}
}
