package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	appDisplayName = "ReelShelf"
	appSlug        = "reelshelf"

	configFileName  = "config.toml"
	catalogFileName = "db.sqlite3"

	defaultScanSchedule  = "@every 30m"
	defaultHTTPListen    = "127.0.0.1:8787"
	defaultLogLevel      = "info"
	defaultPosterHeight  = 1000
	defaultPosterQuality = 90
)

// Default returns a Config populated with repository defaults. DataDir is
// left empty and resolved by Load.
func Default() Config {
	return Config{
		LibraryRoots: []string{},
		IgnoreRules:  []string{},
		Fingerprint:  true,
		ScanSchedule: defaultScanSchedule,
		LogLevel:     defaultLogLevel,
		Poster: Poster{
			Height:  defaultPosterHeight,
			Quality: defaultPosterQuality,
		},
		HTTP: HTTP{
			Listen: defaultHTTPListen,
		},
	}
}

// DefaultDataDir returns the per-user data directory: REELSHELF_DATA_DIR when
// set, otherwise %LOCALAPPDATA%\ReelShelf on Windows, ~/Library/Application
// Support/ReelShelf on macOS, and $XDG_DATA_HOME/reelshelf (default
// ~/.local/share/reelshelf) elsewhere.
func DefaultDataDir() (string, error) {
	if override := strings.TrimSpace(os.Getenv(EnvDataDir)); override != "" {
		return ExpandPath(override)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	switch runtime.GOOS {
	case "windows":
		base := os.Getenv("LOCALAPPDATA")
		if base == "" {
			base = filepath.Join(home, "AppData", "Local")
		}
		return filepath.Join(base, appDisplayName), nil
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", appDisplayName), nil
	default:
		base := os.Getenv("XDG_DATA_HOME")
		if base == "" {
			base = filepath.Join(home, ".local", "share")
		}
		return filepath.Join(base, appSlug), nil
	}
}
