package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/robfig/cron/v3"

	"reelshelf/internal/logging"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Concurrency < 0 {
		return errors.New("concurrency must be zero or positive")
	}
	if c.Poster.Height < 16 || c.Poster.Height > 4320 {
		return fmt.Errorf("poster.height %d out of range 16-4320", c.Poster.Height)
	}
	if c.Poster.Quality < 1 || c.Poster.Quality > 100 {
		return fmt.Errorf("poster.quality %d out of range 1-100", c.Poster.Quality)
	}
	if c.ScanSchedule != "" {
		if _, err := cron.ParseStandard(c.ScanSchedule); err != nil {
			return fmt.Errorf("scan_schedule %q: %w", c.ScanSchedule, err)
		}
	}
	if _, _, err := net.SplitHostPort(c.HTTP.Listen); err != nil {
		return fmt.Errorf("http.listen %q: %w", c.HTTP.Listen, err)
	}
	if _, ok := logging.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("log_level %q: expected debug, info, warn or error", c.LogLevel)
	}
	if _, err := c.MemoryLimitBytes(); err != nil {
		return err
	}
	return nil
}
