package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/negurvulkan/BeichtBot/internal/bootstrap"
	"github.com/negurvulkan/BeichtBot/internal/logging"

	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.App{
		Name:   "beichtbot",
		Usage:  "anonymous confessions for Discord servers",
		Flags:  flags(),
		Action: runBot,
	}
	app.Commands = []*cli.Command{
		&cli.Command{
			Name:   "check-config",
			Usage:  "load and validate the configuration, then exit",
			Action: runCheckConfig,
		},
	}
	app.RunAndExitOnError()
}

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "path to the JSON config file",
			Value:   "config.json",
			EnvVars: []string{"BEICHTBOT_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "dotenv file loaded before the config",
			Value: ".env",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn or error",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "JSON log file, empty logs to stderr only",
		},
		&cli.StringFlag{
			Name:  "backend",
			Usage: "storage backend: file or sqlite",
		},
		&cli.StringFlag{
			Name:  "state",
			Usage: "path of the JSON state document",
		},
		&cli.StringFlag{
			Name:  "db",
			Usage: "path of the SQLite database",
		},
		&cli.StringFlag{
			Name:  "metrics-addr",
			Usage: "serve /metrics and /healthz on this address",
		},
		&cli.StringFlag{
			Name:    "dev-guild",
			Usage:   "register commands in this guild only",
			EnvVars: []string{"DEV_GUILD_ID"},
		},
	}
}

func options(cctx *cli.Context) bootstrap.Options {
	return bootstrap.Options{
		ConfigPath:   cctx.String("config"),
		EnvFile:      cctx.String("env-file"),
		LogLevel:     cctx.String("log-level"),
		LogPath:      cctx.String("log-file"),
		Backend:      cctx.String("backend"),
		StatePath:    cctx.String("state"),
		DatabasePath: cctx.String("db"),
		MetricsAddr:  cctx.String("metrics-addr"),
		DevGuildID:   cctx.String("dev-guild"),
	}
}

func runBot(cctx *cli.Context) error {
	fmt.Println("Starting BeichtBot")

	b := bootstrap.New(options(cctx))
	if err := b.Initialize(); err != nil {
		return err
	}

	if err := b.Start(); err != nil {
		logging.Critical("Startup failed: %v", err)
		b.Shutdown()
		return err
	}
	logging.Info("BeichtBot is running. Press Ctrl+C to exit.")

	waitForShutdown()
	return b.Shutdown()
}

func runCheckConfig(cctx *cli.Context) error {
	b := bootstrap.New(options(cctx))
	cfg, err := b.LoadConfig()
	if err != nil {
		return err
	}
	fmt.Printf("storage: %s (state=%s db=%s event_log=%t)\n", cfg.Storage.Backend, cfg.Storage.StatePath, cfg.Storage.DatabasePath, cfg.Storage.EventLog)
	fmt.Printf("moderation: crisis_screening=%s max_length=%d refund_on_filter_reject=%t\n", cfg.Moderation.CrisisScreening, cfg.Moderation.MaxLength, cfg.Moderation.RefundCooldownOnFilterReject)
	fmt.Printf("metrics: enabled=%t addr=%s\n", cfg.Metrics.Enabled, cfg.Metrics.Addr)
	fmt.Println("config ok")
	return nil
}

func waitForShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	fmt.Println("\nShutdown signal received")
}
