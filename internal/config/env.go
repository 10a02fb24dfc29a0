package config

import (
	"os"
	"strconv"
	"strings"

	"reelshelf/internal/toolpath"
	"reelshelf/internal/workers"
)

// Environment overrides. They win over the config file.
const (
	EnvConfig  = "REELSHELF_CONFIG"
	EnvDataDir = "REELSHELF_DATA_DIR"
)

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		c.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv(toolpath.EnvFFmpeg)); v != "" {
		c.FFmpeg = v
	}
	if v := strings.TrimSpace(os.Getenv(toolpath.EnvFFprobe)); v != "" {
		c.FFprobe = v
	}
	if v := strings.TrimSpace(os.Getenv(workers.EnvOverride)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Concurrency = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		c.LogLevel = v
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEBUG"))) {
	case "1", "true", "yes", "on":
		c.LogLevel = "debug"
	}
}

// Tools resolves the ffmpeg and ffprobe executables, preferring the
// configured paths. Empty results mean the tool was not found.
func (c *Config) Tools() (ffmpeg, ffprobe string) {
	r := toolpath.Resolver{
		Getenv: func(key string) string {
			switch key {
			case toolpath.EnvFFmpeg:
				return c.FFmpeg
			case toolpath.EnvFFprobe:
				return c.FFprobe
			}
			return os.Getenv(key)
		},
	}
	return r.Resolve(toolpath.EnvFFmpeg, "ffmpeg"), r.Resolve(toolpath.EnvFFprobe, "ffprobe")
}

// Workers returns the scanner worker count.
func (c *Config) Workers() int {
	return workers.Resolve(c.Concurrency, 32)
}
