package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"reelshelf/internal/config"
	"reelshelf/internal/logging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

const toolCheckTimeout = 5 * time.Second

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// ToolStatus describes an external executable.
type ToolStatus struct {
	Name    string `json:"name"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Available reports whether the tool was found and answered -version.
func (s ToolStatus) Available() bool {
	return s.Path != "" && s.Error == ""
}

// LogConfig prints the banner, system information, and the effective
// configuration.
func LogConfig(cfg *config.Config, configPath string, configExists bool) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	if configExists {
		logging.Info("  Config file:         %s", configPath)
	} else {
		logging.Info("  Config file:         %s (not found, using defaults)", configPath)
	}
	logging.Info("  Data directory:      %s", cfg.DataDir)
	logging.Info("  Catalog:             %s", cfg.CatalogPath())
	logging.Info("  Cache:               %s", cfg.CacheDir())
	logging.Info("  Library roots:       %d", len(cfg.LibraryRoots))
	for _, root := range cfg.LibraryRoots {
		logging.Info("    %s", root)
	}
	if len(cfg.IgnoreRules) > 0 {
		logging.Info("  Ignore rules:        %s", strings.Join(cfg.IgnoreRules, ", "))
	}
	logging.Info("  Scan workers:        %d", cfg.Workers())
	logging.Info("  Fingerprints:        %s", enabledString(cfg.Fingerprint))
	logging.Info("  Scan schedule:       %s", orNone(cfg.ScanSchedule))
	logging.Info("  Watcher:             %s", enabledString(cfg.Watch))
	logging.Info("  Poster:              %dpx, quality %d", cfg.Poster.Height, cfg.Poster.Quality)
	logging.Info("  HTTP listen:         %s", cfg.HTTP.Listen)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())
	logging.Info("")
}

// PrepareDirectories creates the data, cache and log directories and checks
// that the data directory is writable, which the catalog requires.
func PrepareDirectories(cfg *config.Config) error {
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	if err := ensureDirectory(cfg.DataDir, "data"); err != nil {
		return fmt.Errorf("data directory error: %w", err)
	}
	if err := testWriteAccess(cfg.DataDir); err != nil {
		return fmt.Errorf("data directory is not writable (required for catalog): %w", err)
	}
	logging.Info("  [OK] Data directory is writable")

	for _, dir := range []struct{ path, name string }{
		{cfg.CacheDir(), "cache"},
		{cfg.LogDir(), "logs"},
	} {
		if err := ensureDirectory(dir.path, dir.name); err != nil {
			return fmt.Errorf("%s directory error: %w", dir.name, err)
		}
	}

	for _, root := range cfg.LibraryRoots {
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			logging.Warn("  Library root unavailable: %s", root)
		}
	}
	logging.Info("")
	return nil
}

// CheckTools reports on ffmpeg and ffprobe. Missing tools are not fatal:
// probing is skipped and posters fall back to placeholders.
func CheckTools(ctx context.Context, ffmpegPath, ffprobePath string) []ToolStatus {
	logging.Info("------------------------------------------------------------")
	logging.Info("EXTERNAL TOOLS")
	logging.Info("------------------------------------------------------------")

	statuses := []ToolStatus{
		CheckTool(ctx, "ffmpeg", ffmpegPath),
		CheckTool(ctx, "ffprobe", ffprobePath),
	}
	for _, s := range statuses {
		switch {
		case s.Available():
			logging.Info("  [OK] %-8s %s", s.Name, s.Path)
			logging.Debug("       %s", s.Version)
		case s.Path == "":
			logging.Warn("  %-8s not found", s.Name)
		default:
			logging.Warn("  %-8s %s: %s", s.Name, s.Path, s.Error)
		}
	}
	if !statuses[0].Available() {
		logging.Warn("  Posters will be placeholders until ffmpeg is available")
	}
	if !statuses[1].Available() {
		logging.Warn("  Codec, resolution and runtime will not be recorded")
	}
	logging.Info("")
	return statuses
}

// CheckTool runs path -version and records the first output line.
func CheckTool(ctx context.Context, name, path string) ToolStatus {
	status := ToolStatus{Name: name, Path: path}
	if path == "" {
		status.Error = "not found"
		return status
	}

	ctx, cancel := context.WithTimeout(ctx, toolCheckTimeout)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		status.Error = fmt.Sprintf("failed to get version: %v", err)
		return status
	}

	line, _, _ := strings.Cut(string(output), "\n")
	status.Version = strings.TrimSpace(line)
	return status
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration, fts bool) {
	logging.Info("------------------------------------------------------------")
	logging.Info("CATALOG INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Catalog opened in %v", duration)
	if fts {
		logging.Info("  Title search: FTS5")
	} else {
		logging.Info("  Title search: LIKE fallback (FTS5 unavailable)")
	}
	logging.Info("")
}

// LogIndexerInit logs indexer initialization
func LogIndexerInit(schedule string, watch bool) {
	logging.Info("------------------------------------------------------------")
	logging.Info("INDEXER INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Schedule: %s", orNone(schedule))
	logging.Info("  Watcher:  %s", enabledString(watch))
	logging.Info("  Starting indexer...")
}

// LogIndexerStarted logs successful indexer start
func LogIndexerStarted() {
	logging.Info("  [OK] Indexer started")
	logging.Info("")
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs the registered routes at debug level, grouped by
// prefix.
func LogHTTPRoutes(router *mux.Router) {
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if !logging.IsDebugEnabled() {
		return
	}

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}
	logging.Debug("  Registered routes (%d total):", len(routes))

	groups := make(map[string][]RouteInfo)
	for _, route := range routes {
		prefix := getRouteGroup(route.Path)
		groups[prefix] = append(groups[prefix], route)
	}

	groupKeys := make([]string, 0, len(groups))
	for k := range groups {
		groupKeys = append(groupKeys, k)
	}
	sort.Strings(groupKeys)

	for _, group := range groupKeys {
		if group == "" {
			group = "root"
		}
		logging.Debug("  [%s]", group)
		for _, route := range groups[group] {
			logging.Debug("    %-6s %s", route.Method, route.Path)
		}
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Listen          string
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with endpoint information
func LogServerStarted(cfg ServerConfig) {
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", cfg.StartupDuration)
	logging.Info("  API:             http://%s/api/movies", displayAddr(cfg.Listen))
	logging.Info("  Health:          http://%s/healthz", displayAddr(cfg.Listen))
	logging.Info("  Metrics:         http://%s/metrics", displayAddr(cfg.Listen))
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

func displayAddr(listen string) string {
	if strings.HasPrefix(listen, ":") {
		return "localhost" + listen
	}
	return listen
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func printBanner() {
	banner := `
------------------------------------------------------------
    ____            __   _____ __         ____
   / __ \___  ___  / /  / ___// /_  ___  / / _/
  / /_/ / _ \/ _ \/ /   \__ \/ __ \/ _ \/ / /_
 / _, _/  __/  __/ /   ___/ / / / /  __/ / __/
/_/ |_|\___/\___/_/   /____/_/ /_/\___/_/_/

------------------------------------------------------------`
	fmt.Fprintln(os.Stderr, banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}
