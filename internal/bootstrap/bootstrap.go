package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/negurvulkan/BeichtBot/internal/bot"
	"github.com/negurvulkan/BeichtBot/internal/config"
	"github.com/negurvulkan/BeichtBot/internal/cooldown"
	"github.com/negurvulkan/BeichtBot/internal/database"
	"github.com/negurvulkan/BeichtBot/internal/logging"
	"github.com/negurvulkan/BeichtBot/internal/metrics"
	"github.com/negurvulkan/BeichtBot/internal/pipeline"
	"github.com/negurvulkan/BeichtBot/internal/store"
	"github.com/negurvulkan/BeichtBot/internal/watchdog"
)

// Options are command line overrides. Empty values keep the config file
// or environment setting.
type Options struct {
	ConfigPath   string
	EnvFile      string
	LogLevel     string
	LogPath      string
	Backend      string
	StatePath    string
	DatabasePath string
	MetricsAddr  string
	DevGuildID   string
}

type Bootstrap struct {
	Config      *config.Config
	Options     Options
	Components  *Components
	initialized bool
}

type Components struct {
	Store        *store.Store
	Database     *database.Database
	Cooldowns    *cooldown.Manager
	Session      *bot.Session
	Orchestrator *pipeline.Orchestrator

	// Monitoring
	Watchdog *watchdog.Watchdog
	Metrics  *metrics.Server
}

func New(opts Options) *Bootstrap {
	return &Bootstrap{
		Options:     opts,
		initialized: false,
	}
}

func (b *Bootstrap) Initialize() error {
	if err := b.loadConfig(); err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	if err := b.initializeLogging(); err != nil {
		return fmt.Errorf("logging init failed: %w", err)
	}

	if err := b.wireComponents(); err != nil {
		return fmt.Errorf("component wiring failed: %w", err)
	}

	b.initialized = true
	logging.Info("Bootstrap complete")
	return nil
}

// LoadConfig resolves and validates the configuration without starting
// anything.
func (b *Bootstrap) LoadConfig() (*config.Config, error) {
	if err := b.loadConfig(); err != nil {
		return nil, err
	}
	return b.Config, nil
}

func (b *Bootstrap) loadConfig() error {
	if err := config.LoadDotEnv(b.Options.EnvFile); err != nil {
		return err
	}

	cfg, err := config.LoadOrDefault(b.Options.ConfigPath)
	if err != nil {
		return err
	}
	b.applyOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Bot.Token == "" {
		return errors.New("DISCORD_TOKEN is not set")
	}

	b.Config = cfg
	return nil
}

func (b *Bootstrap) applyOverrides(cfg *config.Config) {
	o := b.Options
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	if o.LogPath != "" {
		cfg.Logging.Path = o.LogPath
	}
	if o.Backend != "" {
		cfg.Storage.Backend = o.Backend
	}
	if o.StatePath != "" {
		cfg.Storage.StatePath = o.StatePath
	}
	if o.DatabasePath != "" {
		cfg.Storage.DatabasePath = o.DatabasePath
	}
	if o.MetricsAddr != "" {
		cfg.Metrics.Addr = o.MetricsAddr
		cfg.Metrics.Enabled = true
	}
	if o.DevGuildID != "" {
		cfg.Bot.DevGuildID = o.DevGuildID
	}
}

func (b *Bootstrap) initializeLogging() error {
	if err := ensureParentDirectory(b.Config.Logging.Path); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return logging.InitGlobalLogger(logging.ParseLevel(b.Config.Logging.Level), b.Config.Logging.Path)
}

func ensureParentDirectory(path string) error {
	if path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

func (b *Bootstrap) wireComponents() error {
	return Wire(b)
}

func (b *Bootstrap) Start() error {
	if !b.initialized {
		return fmt.Errorf("bootstrap not initialized")
	}

	return StartAll(b.Config, b.Components)
}

func (b *Bootstrap) Shutdown() error {
	if b.Components == nil {
		return logging.CloseGlobalLogger()
	}
	return Shutdown(b.Components)
}
