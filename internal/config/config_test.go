package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"reelshelf/internal/config"
)

// isolate points every location the loader consults at temp dirs.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, "xdg"))
	t.Setenv("LOCALAPPDATA", filepath.Join(home, "local"))
	for _, key := range []string{
		config.EnvConfig, config.EnvDataDir, "REELSHELF_FFMPEG", "REELSHELF_FFPROBE",
		"REELSHELF_SCAN_WORKERS", "LOG_LEVEL", "DEBUG", "GOMEMLIMIT",
	} {
		t.Setenv(key, "")
	}
	return home
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent")
	}

	var wantData string
	switch runtime.GOOS {
	case "windows":
		wantData = filepath.Join(home, "local", "ReelShelf")
	case "darwin":
		wantData = filepath.Join(home, "Library", "Application Support", "ReelShelf")
	default:
		wantData = filepath.Join(home, "xdg", "reelshelf")
	}
	if cfg.DataDir != wantData {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, wantData)
	}
	if resolved != filepath.Join(wantData, "config.toml") {
		t.Errorf("resolved path = %q", resolved)
	}
	if cfg.CatalogPath() != filepath.Join(wantData, "db.sqlite3") {
		t.Errorf("CatalogPath = %q", cfg.CatalogPath())
	}
	if cfg.CacheDir() != filepath.Join(wantData, "cache") || cfg.LogDir() != filepath.Join(wantData, "logs") {
		t.Errorf("derived dirs = %q, %q", cfg.CacheDir(), cfg.LogDir())
	}
	if !cfg.Fingerprint {
		t.Error("fingerprinting should default on")
	}
	if cfg.ScanSchedule != "@every 30m" {
		t.Errorf("ScanSchedule = %q", cfg.ScanSchedule)
	}
	if cfg.Poster.Height != 1000 || cfg.Poster.Quality != 90 {
		t.Errorf("Poster = %+v", cfg.Poster)
	}
	if cfg.HTTP.Listen != "127.0.0.1:8787" {
		t.Errorf("HTTP.Listen = %q", cfg.HTTP.Listen)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if len(cfg.LibraryRoots) != 0 || cfg.Watch {
		t.Errorf("unexpected roots/watch: %v/%v", cfg.LibraryRoots, cfg.Watch)
	}
}

func TestLoadFileAndNormalize(t *testing.T) {
	home := isolate(t)

	path := writeConfig(t, `
data_dir = "~/rs"
library_roots = ["~/Movies", "  ", "~/Movies", "/srv/films"]
ignore_rules = [" /trailers/ ", ""]
concurrency = 6
fingerprint = false
scan_schedule = "0 3 * * *"
watch = true
ffmpeg = "ffmpeg"
ffprobe = "~/bin/ffprobe"
log_level = "WARN"

[poster]
height = 720

[http]
listen = ":9000"
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}

	if cfg.DataDir != filepath.Join(home, "rs") {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	wantRoots := []string{filepath.Join(home, "Movies"), filepath.Clean("/srv/films")}
	if runtime.GOOS != "windows" && strings.Join(cfg.LibraryRoots, "|") != strings.Join(wantRoots, "|") {
		t.Errorf("LibraryRoots = %v, want %v", cfg.LibraryRoots, wantRoots)
	}
	if len(cfg.IgnoreRules) != 1 || cfg.IgnoreRules[0] != "/trailers/" {
		t.Errorf("IgnoreRules = %q", cfg.IgnoreRules)
	}
	if cfg.Concurrency != 6 || cfg.Workers() != 6 {
		t.Errorf("Concurrency = %d, Workers() = %d", cfg.Concurrency, cfg.Workers())
	}
	if cfg.Fingerprint || !cfg.Watch {
		t.Errorf("Fingerprint/Watch = %v/%v", cfg.Fingerprint, cfg.Watch)
	}
	if cfg.FFmpeg != "ffmpeg" {
		t.Errorf("bare tool name rewritten to %q", cfg.FFmpeg)
	}
	if cfg.FFprobe != filepath.Join(home, "bin", "ffprobe") {
		t.Errorf("FFprobe = %q", cfg.FFprobe)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.Poster.Height != 720 || cfg.Poster.Quality != 90 {
		t.Errorf("Poster = %+v, want height from file and default quality", cfg.Poster)
	}
	if cfg.HTTP.Listen != ":9000" {
		t.Errorf("HTTP.Listen = %q", cfg.HTTP.Listen)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	dataDir := t.TempDir()
	t.Setenv(config.EnvDataDir, dataDir)
	t.Setenv("REELSHELF_SCAN_WORKERS", "3")
	t.Setenv("REELSHELF_FFMPEG", "/opt/ff/ffmpeg")
	t.Setenv("DEBUG", "true")

	path := writeConfig(t, `
data_dir = "/ignored"
concurrency = 8
log_level = "error"
`)
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.DataDir != dataDir {
		t.Errorf("DataDir = %q, want env value %q", cfg.DataDir, dataDir)
	}
	if cfg.Concurrency != 3 {
		t.Errorf("Concurrency = %d, want 3 from env", cfg.Concurrency)
	}
	if runtime.GOOS != "windows" && cfg.FFmpeg != "/opt/ff/ffmpeg" {
		t.Errorf("FFmpeg = %q", cfg.FFmpeg)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug from DEBUG", cfg.LogLevel)
	}
}

func TestLoadConfigFromEnvPath(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `watch = true`)
	t.Setenv(config.EnvConfig, path)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if resolved != path || !exists || !cfg.Watch {
		t.Errorf("resolved = %q exists = %v watch = %v", resolved, exists, cfg.Watch)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"syntax", `library_roots = [`, "parse config"},
		{"schedule", `scan_schedule = "whenever"`, "scan_schedule"},
		{"quality", "[poster]\nquality = 101", "poster.quality"},
		{"height", "[poster]\nheight = 8", "poster.height"},
		{"listen", "[http]\nlisten = \"localhost\"", "http.listen"},
		{"level", `log_level = "loud"`, "log_level"},
		{"concurrency", `concurrency = -1`, "concurrency"},
		{"memory", `memory_limit = "lots"`, "memory_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			_, _, _, err := config.Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadDirectoryPath(t *testing.T) {
	isolate(t)
	if _, _, _, err := config.Load(t.TempDir()); err == nil {
		t.Error("expected error for a directory config path")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	home := isolate(t)

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	added, err := cfg.AddRoot("~/Films")
	if err != nil || !added {
		t.Fatalf("AddRoot = %v, %v", added, err)
	}
	if again, _ := cfg.AddRoot(filepath.Join(home, "Films")); again {
		t.Error("AddRoot added a duplicate")
	}
	cfg.Watch = true
	cfg.Poster.Quality = 75

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.Save(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("saved file is not TOML: %v", err)
	}
	if _, ok := raw["library_roots"]; !ok {
		t.Errorf("library_roots missing from saved file:\n%s", data)
	}

	loaded, _, exists, err := config.Load(path)
	if err != nil || !exists {
		t.Fatalf("reload: exists=%v err=%v", exists, err)
	}
	if len(loaded.LibraryRoots) != 1 || loaded.LibraryRoots[0] != filepath.Join(home, "Films") {
		t.Errorf("LibraryRoots = %v", loaded.LibraryRoots)
	}
	if !loaded.Watch || loaded.Poster.Quality != 75 {
		t.Errorf("reloaded = %+v", loaded)
	}

	removed, err := loaded.RemoveRoot("~/Films")
	if err != nil || !removed || len(loaded.LibraryRoots) != 0 {
		t.Errorf("RemoveRoot = %v, %v; roots %v", removed, err, loaded.LibraryRoots)
	}
}

func TestSampleConfigParses(t *testing.T) {
	isolate(t)
	path := writeConfig(t, config.SampleConfig())
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
	if cfg.Poster.Height != 1000 || cfg.HTTP.Listen != "127.0.0.1:8787" {
		t.Errorf("sample config values = %+v", cfg)
	}
}

func TestEnsureDirectories(t *testing.T) {
	isolate(t)
	cfg := config.Default()
	cfg.DataDir = filepath.Join(t.TempDir(), "data")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	for _, dir := range []string{cfg.DataDir, cfg.CacheDir(), cfg.LogDir()} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("%s not created: %v", dir, err)
		}
	}
}

func TestMemoryLimitBytes(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"512MiB", 512 << 20, false},
		{"1.5GiB", 3 << 29, false},
		{"2GB", 2_000_000_000, false},
		{"0", 0, true},
		{"lots", 0, true},
	}
	for _, tt := range tests {
		cfg := config.Default()
		cfg.MemoryLimit = tt.in
		got, err := cfg.MemoryLimitBytes()
		if (err != nil) != tt.wantErr {
			t.Errorf("MemoryLimitBytes(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("MemoryLimitBytes(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestToolsPreferConfiguredPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("executable bit semantics differ on Windows")
	}
	isolate(t)

	dir := t.TempDir()
	ffmpeg := filepath.Join(dir, "my-ffmpeg")
	if err := os.WriteFile(ffmpeg, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.FFmpeg = ffmpeg
	got, _ := cfg.Tools()
	if got != ffmpeg {
		t.Errorf("Tools() ffmpeg = %q, want %q", got, ffmpeg)
	}
}
