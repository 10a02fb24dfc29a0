package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Poster controls generated poster images.
type Poster struct {
	Height  int `toml:"height"`
	Quality int `toml:"quality"`
}

// HTTP controls the read-only API server.
type HTTP struct {
	Listen string `toml:"listen"`
}

// Config is the reelshelf configuration.
//
// Sections:
//   - library: roots, ignore rules, concurrency, fingerprinting
//   - schedule: cron rescans and the optional filesystem watcher
//   - tools: explicit ffmpeg/ffprobe paths
//   - poster: output size and JPEG quality
//   - http: API listen address
//   - logging: level and optional log file
type Config struct {
	DataDir      string   `toml:"data_dir"`
	LibraryRoots []string `toml:"library_roots"`
	IgnoreRules  []string `toml:"ignore_rules"`
	// Concurrency bounds the scanner's stat pool; 0 derives it from the CPU
	// count.
	Concurrency  int    `toml:"concurrency"`
	Fingerprint  bool   `toml:"fingerprint"`
	ScanSchedule string `toml:"scan_schedule"`
	Watch        bool   `toml:"watch"`
	FFmpeg       string `toml:"ffmpeg"`
	FFprobe      string `toml:"ffprobe"`
	// MemoryLimit is a soft Go heap limit such as "1.5GiB"; empty leaves the
	// runtime default.
	MemoryLimit string `toml:"memory_limit"`
	LogLevel    string `toml:"log_level"`
	LogFile     string `toml:"log_file"`
	Poster      Poster `toml:"poster"`
	HTTP        HTTP   `toml:"http"`
}

// Load reads the configuration at path, or at the default location when
// path is empty. A missing file yields the defaults. It returns the config,
// the resolved path, and whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		data, err := os.ReadFile(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// Save writes cfg as TOML to path, creating the parent directory. The file
// is replaced atomically.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

// SampleConfig returns an annotated configuration file.
func SampleConfig() string {
	return sampleConfig
}

// DefaultConfigPath returns the config file location inside the data
// directory.
func DefaultConfigPath() (string, error) {
	dir, err := DefaultDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		if env := strings.TrimSpace(os.Getenv(EnvConfig)); env != "" {
			path = env
		}
	}
	if path == "" {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return "", false, err
		}
	}

	expanded, err := ExpandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %s is a directory", expanded)
	}
	return expanded, true, nil
}

// CatalogPath returns the sqlite catalog location.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.DataDir, catalogFileName)
}

// CacheDir returns the artifact cache root.
func (c *Config) CacheDir() string {
	return filepath.Join(c.DataDir, "cache")
}

// LogDir returns the log directory.
func (c *Config) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// DefaultLogFile returns the log file used when logging to file is enabled
// without an explicit path.
func (c *Config) DefaultLogFile() string {
	return filepath.Join(c.LogDir(), "reelshelf.log")
}

// EnsureDirectories creates the data, cache and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.DataDir, c.CacheDir(), c.LogDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// AddRoot appends root to the library roots unless already present. It
// reports whether the list changed.
func (c *Config) AddRoot(root string) (bool, error) {
	expanded, err := ExpandPath(root)
	if err != nil {
		return false, err
	}
	for _, existing := range c.LibraryRoots {
		if existing == expanded {
			return false, nil
		}
	}
	c.LibraryRoots = append(c.LibraryRoots, expanded)
	return true, nil
}

// RemoveRoot drops root from the library roots and reports whether it was
// present.
func (c *Config) RemoveRoot(root string) (bool, error) {
	expanded, err := ExpandPath(root)
	if err != nil {
		return false, err
	}
	for i, existing := range c.LibraryRoots {
		if existing == expanded {
			c.LibraryRoots = append(c.LibraryRoots[:i], c.LibraryRoots[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// ExpandPath expands a leading ~ and returns a clean absolute path. The
// empty string is returned unchanged.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}
