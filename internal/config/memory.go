package config

import (
	"fmt"
	"math"
	"os"
	"runtime/debug"

	"github.com/dustin/go-humanize"

	"reelshelf/internal/logging"
)

// MemoryLimitBytes parses MemoryLimit. Zero means no limit configured.
func (c *Config) MemoryLimitBytes() (int64, error) {
	if c.MemoryLimit == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(c.MemoryLimit)
	if err != nil {
		return 0, fmt.Errorf("memory_limit %q: %w", c.MemoryLimit, err)
	}
	if n == 0 || n > math.MaxInt64 {
		return 0, fmt.Errorf("memory_limit %q out of range", c.MemoryLimit)
	}
	return int64(n), nil
}

// ApplyMemoryLimit sets the Go soft memory limit from MemoryLimit. An
// explicit GOMEMLIMIT in the environment takes precedence. It returns the
// limit now in effect, or zero when none was set.
func (c *Config) ApplyMemoryLimit() int64 {
	if env := os.Getenv("GOMEMLIMIT"); env != "" {
		limit := debug.SetMemoryLimit(-1)
		logging.Info("GOMEMLIMIT set via environment: %s", env)
		if limit == math.MaxInt64 {
			return 0
		}
		return limit
	}

	limit, err := c.MemoryLimitBytes()
	if err != nil || limit == 0 {
		return 0
	}
	debug.SetMemoryLimit(limit)
	logging.Info("Go memory limit set to %s", humanize.IBytes(uint64(limit)))
	return limit
}
