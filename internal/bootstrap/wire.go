package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/negurvulkan/BeichtBot/internal/bot"
	"github.com/negurvulkan/BeichtBot/internal/commands"
	"github.com/negurvulkan/BeichtBot/internal/config"
	"github.com/negurvulkan/BeichtBot/internal/cooldown"
	"github.com/negurvulkan/BeichtBot/internal/database"
	"github.com/negurvulkan/BeichtBot/internal/logging"
	"github.com/negurvulkan/BeichtBot/internal/metrics"
	"github.com/negurvulkan/BeichtBot/internal/pipeline"
	"github.com/negurvulkan/BeichtBot/internal/store"
	"github.com/negurvulkan/BeichtBot/internal/watchdog"
)

const (
	watchdogInterval = 30 * time.Second
	// discordgo heartbeats roughly every 41 seconds
	gatewaySilenceLimit = 2 * time.Minute
)

func Wire(b *Bootstrap) error {
	logging.Info("Wiring components...")
	cfg := b.Config

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}

	st, err := openStore(cfg, db)
	if err != nil {
		return err
	}
	logging.Info("Store loaded with %d guilds (%s backend)", len(st.ListGuildIDs()), cfg.Storage.Backend)

	cooldowns := cooldown.NewManager(cooldown.NewMonotonicClock())

	if err := bot.Initialize(cfg.Bot.Token, cfg.Moderation.ThreadName); err != nil {
		return err
	}
	session := bot.GetSession()

	orchestrator := pipeline.New(st, cooldowns, session, pipeline.Options{
		MaxLength:                    cfg.Moderation.MaxLength,
		CrisisOnlyWithAI:             cfg.Moderation.CrisisScreening == config.CrisisAIToggle,
		RefundCooldownOnFilterReject: cfg.Moderation.RefundCooldownOnFilterReject,
	})
	if db != nil && cfg.Storage.EventLog {
		orchestrator.SetEventSink(db)
		logging.Info("Moderation event log enabled")
	}

	watchdogInst := watchdog.NewWatchdog(watchdogInterval)
	watchdogInst.Every("cooldown_sweep", func() {
		if n := cooldowns.Sweep(); n > 0 {
			logging.Debug("Swept %d expired cooldowns", n)
		}
	})
	watchdogInst.RegisterComponent("gateway", func() error {
		return session.GatewayHealth(gatewaySilenceLimit)
	})
	if db != nil {
		watchdogInst.RegisterComponent("database", func() error {
			if !database.IsConnected() {
				return errors.New("database ping failed")
			}
			return nil
		})
	}

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Addr)
		watchdogInst.OnChange(metricsServer.SetReady)
	}

	b.Components = &Components{
		Store:        st,
		Database:     db,
		Cooldowns:    cooldowns,
		Session:      session,
		Orchestrator: orchestrator,
		Watchdog:     watchdogInst,
		Metrics:      metricsServer,
	}

	logging.Info("Component wiring complete")
	return nil
}

// openDatabase opens SQLite when it backs the store or the event log.
func openDatabase(cfg *config.Config) (*database.Database, error) {
	if cfg.Storage.Backend != config.BackendSQLite && !cfg.Storage.EventLog {
		return nil, nil
	}
	if err := ensureParentDirectory(cfg.Storage.DatabasePath); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	if err := database.Initialize(cfg.Storage.DatabasePath); err != nil {
		return nil, err
	}
	logging.Info("Database opened at %s", cfg.Storage.DatabasePath)
	return database.GetDB(), nil
}

func openStore(cfg *config.Config, db *database.Database) (*store.Store, error) {
	var backend store.Backend
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		backend = database.NewDocumentBackend(db)
	default:
		if err := ensureParentDirectory(cfg.Storage.StatePath); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
		backend = store.NewFileBackend(cfg.Storage.StatePath)
	}

	st, err := store.Open(backend)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, nil
}

func StartAll(cfg *config.Config, c *Components) error {
	logging.Info("Starting components...")

	if c.Metrics != nil {
		if err := c.Metrics.Start(); err != nil {
			return err
		}
		logging.Info("Metrics listening on %s", c.Metrics.Addr())
	}

	// Handlers must be registered before the gateway opens.
	c.Session.SetupEventHandlers(c.Store, c.Cooldowns)

	if err := c.Session.Connect(); err != nil {
		return fmt.Errorf("gateway connection failed: %w", err)
	}

	deps := commands.Deps{
		Store:        c.Store,
		Orchestrator: c.Orchestrator,
		Cooldowns:    c.Cooldowns,
		DevGuildID:   cfg.Bot.DevGuildID,
		MaxLength:    cfg.Moderation.MaxLength,
	}
	if c.Database != nil && cfg.Storage.EventLog {
		deps.Events = c.Database
	}
	if err := commands.Initialize(c.Session, deps); err != nil {
		return err
	}

	c.Watchdog.Start()
	logging.Info("Watchdog started")

	if c.Metrics != nil {
		c.Metrics.SetReady(true)
	}

	logging.Info("All components started")
	return nil
}
