package bootstrap

import (
	"errors"

	"github.com/negurvulkan/BeichtBot/internal/database"
	"github.com/negurvulkan/BeichtBot/internal/logging"
)

// Shutdown stops components in reverse start order. Pending auto deletes
// are dropped with the session.
func Shutdown(c *Components) error {
	logging.Info("Starting graceful shutdown...")
	var errs []error

	if c.Metrics != nil {
		c.Metrics.SetReady(false)
	}

	if c.Watchdog != nil {
		logging.Info("Stopping watchdog...")
		c.Watchdog.Stop()
	}

	if c.Session != nil {
		logging.Info("Closing Discord session...")
		if err := c.Session.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.Metrics != nil {
		logging.Info("Stopping metrics server...")
		if err := c.Metrics.Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.Database != nil {
		logging.Info("Closing database...")
		if err := database.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	logging.Info("Graceful shutdown complete")
	if err := logging.CloseGlobalLogger(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
