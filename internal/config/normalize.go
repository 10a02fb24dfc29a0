package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRules()
	c.normalizePoster()

	c.ScanSchedule = strings.TrimSpace(c.ScanSchedule)
	c.HTTP.Listen = strings.TrimSpace(c.HTTP.Listen)
	if c.HTTP.Listen == "" {
		c.HTTP.Listen = defaultHTTPListen
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	c.MemoryLimit = strings.TrimSpace(c.MemoryLimit)
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.DataDir) == "" {
		if c.DataDir, err = DefaultDataDir(); err != nil {
			return fmt.Errorf("data_dir: %w", err)
		}
	}
	if c.DataDir, err = ExpandPath(c.DataDir); err != nil {
		return fmt.Errorf("data_dir: %w", err)
	}
	if c.LogFile, err = ExpandPath(strings.TrimSpace(c.LogFile)); err != nil {
		return fmt.Errorf("log_file: %w", err)
	}
	if c.FFmpeg, err = expandTool(c.FFmpeg); err != nil {
		return fmt.Errorf("ffmpeg: %w", err)
	}
	if c.FFprobe, err = expandTool(c.FFprobe); err != nil {
		return fmt.Errorf("ffprobe: %w", err)
	}

	roots := make([]string, 0, len(c.LibraryRoots))
	seen := make(map[string]bool, len(c.LibraryRoots))
	for _, root := range c.LibraryRoots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		expanded, err := ExpandPath(root)
		if err != nil {
			return fmt.Errorf("library_roots: %w", err)
		}
		if seen[expanded] {
			continue
		}
		seen[expanded] = true
		roots = append(roots, expanded)
	}
	c.LibraryRoots = roots
	return nil
}

func (c *Config) normalizeRules() {
	rules := make([]string, 0, len(c.IgnoreRules))
	for _, rule := range c.IgnoreRules {
		if rule = strings.TrimSpace(rule); rule != "" {
			rules = append(rules, rule)
		}
	}
	c.IgnoreRules = rules
}

func (c *Config) normalizePoster() {
	if c.Poster.Height <= 0 {
		c.Poster.Height = defaultPosterHeight
	}
	if c.Poster.Quality <= 0 {
		c.Poster.Quality = defaultPosterQuality
	}
}

// expandTool expands tool values that look like paths and leaves bare
// program names for PATH lookup.
func expandTool(v string) (string, error) {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "~") || strings.ContainsAny(v, `/\`) {
		return ExpandPath(v)
	}
	return v, nil
}
