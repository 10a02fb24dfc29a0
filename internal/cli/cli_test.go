package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"reelshelf/internal/config"
	"reelshelf/internal/database"
	"reelshelf/internal/indexer"
	"reelshelf/internal/startup"
)

type cliTestEnv struct {
	dataDir    string
	configPath string
	root       string
}

// setupCLITestEnv points the data directory and config at temp dirs and
// hides ffmpeg and ffprobe so posters are placeholders.
func setupCLITestEnv(t *testing.T, files ...string) *cliTestEnv {
	t.Helper()

	dataDir := t.TempDir()
	t.Setenv(config.EnvDataDir, dataDir)
	t.Setenv(config.EnvConfig, "")
	t.Setenv("PATH", "")
	t.Setenv("LOG_LEVEL", "error")

	root := t.TempDir()
	for i, name := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(strings.Repeat("m", 64+i)), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	return &cliTestEnv{
		dataDir:    dataDir,
		configPath: filepath.Join(dataDir, "config.toml"),
		root:       root,
	}
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func decodeJSON[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	return v
}

func (e *cliTestEnv) scan(t *testing.T) indexer.RunResult {
	t.Helper()
	out, stderr, err := runCLI(t, "--json", "scan", e.root)
	if err != nil {
		t.Fatalf("scan failed: %v (stderr %q)", err, stderr)
	}
	return decodeJSON[indexer.RunResult](t, out)
}

func titles(movies []database.Movie) []string {
	out := make([]string, len(movies))
	for i, m := range movies {
		out[i] = m.CanonicalTitle
	}
	return out
}

func TestScanListAndSearch(t *testing.T) {
	env := setupCLITestEnv(t,
		"Alien (1979)/Alien (1979).mkv",
		"Heat.1995.1080p.BluRay.mp4",
		"Zodiac (2007).avi",
		"notes.txt",
	)

	result := env.scan(t)
	if result.Summary.TotalFiles != 3 {
		t.Errorf("TotalFiles = %d, want 3", result.Summary.TotalFiles)
	}
	if result.Summary.NewMovies != 3 {
		t.Errorf("NewMovies = %d, want 3", result.Summary.NewMovies)
	}
	if result.Trigger != indexer.TriggerCLI {
		t.Errorf("Trigger = %q, want %q", result.Trigger, indexer.TriggerCLI)
	}

	out, _, err := runCLI(t, "--json", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := titles(decodeJSON[[]database.Movie](t, out))
	want := []string{"Alien", "Heat", "Zodiac"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("list titles = %v, want %v", got, want)
	}

	out, _, err = runCLI(t, "--json", "list", "--order", "year", "--limit", "1")
	if err != nil {
		t.Fatalf("list by year: %v", err)
	}
	if movies := decodeJSON[[]database.Movie](t, out); len(movies) != 1 {
		t.Errorf("list --limit 1 returned %d movies", len(movies))
	}

	out, _, err = runCLI(t, "--json", "search", "zod")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if got := titles(decodeJSON[[]database.Movie](t, out)); len(got) != 1 || got[0] != "Zodiac" {
		t.Errorf("search zod = %v, want [Zodiac]", got)
	}

	out, _, err = runCLI(t, "--json", "search", "nothing-matches-this")
	if err != nil {
		t.Fatalf("search without hits: %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("empty search output = %q, want []", out)
	}

	out, _, err = runCLI(t, "list")
	if err != nil {
		t.Fatalf("list table: %v", err)
	}
	for _, title := range want {
		if !strings.Contains(out, title) {
			t.Errorf("table output missing %q:\n%s", title, out)
		}
	}
}

func TestRescanIsIdempotent(t *testing.T) {
	env := setupCLITestEnv(t, "Alien (1979).mkv", "Heat (1995).mkv")

	env.scan(t)
	second := env.scan(t)
	if second.Summary.NewMovies != 0 || second.Summary.NewFiles != 0 {
		t.Errorf("second scan summary = %+v, want no new rows", second.Summary)
	}
}

func TestListUnder(t *testing.T) {
	env := setupCLITestEnv(t, "a/Alien (1979).mkv", "b/Heat (1995).mkv")
	env.scan(t)

	out, _, err := runCLI(t, "--json", "list", "--under", filepath.Join(env.root, "b"))
	if err != nil {
		t.Fatalf("list --under: %v", err)
	}
	if got := titles(decodeJSON[[]database.Movie](t, out)); len(got) != 1 || got[0] != "Heat" {
		t.Errorf("list --under b = %v, want [Heat]", got)
	}
}

func TestShowMovie(t *testing.T) {
	env := setupCLITestEnv(t, "Alien (1979).mkv")
	env.scan(t)

	out, _, err := runCLI(t, "--json", "show", "1")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	detail := decodeJSON[database.MovieDetail](t, out)
	if detail.CanonicalTitle != "Alien" || detail.Year != 1979 {
		t.Errorf("show = %q (%d), want Alien (1979)", detail.CanonicalTitle, detail.Year)
	}
	if len(detail.Files) != 1 {
		t.Fatalf("files = %d, want 1", len(detail.Files))
	}
	if detail.Poster == nil {
		t.Error("expected a poster")
	}

	out, _, err = runCLI(t, "show", "1")
	if err != nil {
		t.Fatalf("show text: %v", err)
	}
	if !strings.HasPrefix(out, "Alien (1979)") {
		t.Errorf("show output = %q", out)
	}

	if _, _, err := runCLI(t, "show", "99"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("show 99 error = %v, want not found", err)
	}
	if _, _, err := runCLI(t, "show", "abc"); err == nil {
		t.Error("show abc should fail")
	}
}

func TestReadCommandsNeedCatalog(t *testing.T) {
	setupCLITestEnv(t)

	_, _, err := runCLI(t, "list")
	if err == nil || !strings.Contains(err.Error(), "reelshelf scan") {
		t.Errorf("list without catalog error = %v", err)
	}
}

func TestScanWithoutRoots(t *testing.T) {
	setupCLITestEnv(t)

	_, _, err := runCLI(t, "scan")
	if err == nil || !strings.Contains(err.Error(), "no library roots") {
		t.Errorf("scan error = %v, want no library roots", err)
	}
}

func TestScanRejectsFileRoot(t *testing.T) {
	env := setupCLITestEnv(t, "Alien (1979).mkv")

	_, _, err := runCLI(t, "scan", filepath.Join(env.root, "Alien (1979).mkv"))
	if err == nil || !strings.Contains(err.Error(), "not a directory") {
		t.Errorf("scan error = %v, want not a directory", err)
	}
}

func TestScanSaveRoots(t *testing.T) {
	env := setupCLITestEnv(t, "Alien (1979).mkv")

	if _, _, err := runCLI(t, "scan", "--save", env.root); err != nil {
		t.Fatalf("scan --save: %v", err)
	}

	cfg, _, exists, err := config.Load(env.configPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("config file was not written")
	}
	if len(cfg.LibraryRoots) != 1 || cfg.LibraryRoots[0] != env.root {
		t.Errorf("LibraryRoots = %v, want [%s]", cfg.LibraryRoots, env.root)
	}

	// Configured roots are used when none are given.
	out, _, err := runCLI(t, "--json", "scan")
	if err != nil {
		t.Fatalf("scan from config: %v", err)
	}
	if got := decodeJSON[indexer.RunResult](t, out); got.Summary.TotalFiles != 1 {
		t.Errorf("TotalFiles = %d, want 1", got.Summary.TotalFiles)
	}
}

func TestRelink(t *testing.T) {
	env := setupCLITestEnv(t, "Alien (1979).mkv", "Heat (1995).mkv")
	env.scan(t)

	oldPath := filepath.Join(env.root, "Alien (1979).mkv")
	newPath := filepath.Join(env.root, "moved", "Alien (1979).mkv")

	out, _, err := runCLI(t, "relink", oldPath, newPath)
	if err != nil {
		t.Fatalf("relink: %v", err)
	}
	if !strings.Contains(out, "Relinked") {
		t.Errorf("relink output = %q", out)
	}

	out, _, err = runCLI(t, "--json", "search", "alien")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	found := decodeJSON[[]database.Movie](t, out)
	if len(found) != 1 {
		t.Fatalf("search alien = %v", titles(found))
	}
	out, _, err = runCLI(t, "--json", "show", strconv.FormatInt(found[0].ID, 10))
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	detail := decodeJSON[database.MovieDetail](t, out)
	if len(detail.Files) != 1 || detail.Files[0].Path != newPath {
		t.Errorf("files after relink = %+v, want %s", detail.Files, newPath)
	}

	if _, _, err := runCLI(t, "relink", oldPath, newPath); err == nil {
		t.Error("relinking onto a catalogued path should fail")
	}
	if _, _, err := runCLI(t, "relink", filepath.Join(env.root, "missing.mkv"), filepath.Join(env.root, "x.mkv")); err == nil {
		t.Error("relinking an unknown path should fail")
	}
}

func TestProgress(t *testing.T) {
	env := setupCLITestEnv(t, "Alien (1979).mkv")
	env.scan(t)

	if _, _, err := runCLI(t, "progress", "1", "--position", "1h2m"); err != nil {
		t.Fatalf("progress --position: %v", err)
	}
	detail := decodeShow(t)
	if detail.PlayState == nil || detail.PlayState.PositionSec != 3720 {
		t.Errorf("PlayState = %+v, want position 3720", detail.PlayState)
	}

	if _, _, err := runCLI(t, "progress", "1", "--watched"); err != nil {
		t.Fatalf("progress --watched: %v", err)
	}
	if detail := decodeShow(t); detail.PlayState == nil || !detail.PlayState.Watched {
		t.Errorf("PlayState = %+v, want watched", detail.PlayState)
	}

	if _, _, err := runCLI(t, "progress", "1", "--reset"); err != nil {
		t.Fatalf("progress --reset: %v", err)
	}
	if detail := decodeShow(t); detail.PlayState != nil && (detail.PlayState.Watched || detail.PlayState.PositionSec != 0) {
		t.Errorf("PlayState after reset = %+v", detail.PlayState)
	}

	tests := []struct {
		name string
		args []string
	}{
		{name: "no flag", args: []string{"progress", "1"}},
		{name: "two flags", args: []string{"progress", "1", "--watched", "--reset"}},
		{name: "unknown movie", args: []string{"progress", "42", "--watched"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := runCLI(t, tt.args...); err == nil {
				t.Errorf("%v should fail", tt.args)
			}
		})
	}
}

func decodeShow(t *testing.T) database.MovieDetail {
	t.Helper()
	out, _, err := runCLI(t, "--json", "show", "1")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	return decodeJSON[database.MovieDetail](t, out)
}

func TestValidatePosters(t *testing.T) {
	env := setupCLITestEnv(t, "Alien (1979).mkv", "Heat (1995).mkv")
	env.scan(t)

	out, _, err := runCLI(t, "--json", "validate-posters")
	if err != nil {
		t.Fatalf("validate-posters: %v", err)
	}
	var report struct {
		Checked     int
		Placeholder int
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Checked != 2 {
		t.Errorf("Checked = %d, want 2", report.Checked)
	}
	if report.Placeholder != 2 {
		t.Errorf("Placeholder = %d, want 2 without ffmpeg", report.Placeholder)
	}
}

func TestConfigInit(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, "config", "init")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, env.configPath) {
		t.Errorf("config init output = %q, want path %s", out, env.configPath)
	}
	data, err := os.ReadFile(env.configPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if string(data) != config.SampleConfig() {
		t.Error("config init did not write the sample config")
	}

	if _, _, err := runCLI(t, "config", "init"); err == nil || !strings.Contains(err.Error(), "--overwrite") {
		t.Errorf("second init error = %v, want overwrite hint", err)
	}
	if _, _, err := runCLI(t, "config", "init", "--overwrite"); err != nil {
		t.Errorf("config init --overwrite: %v", err)
	}

	custom := filepath.Join(t.TempDir(), "nested", "custom.toml")
	if _, _, err := runCLI(t, "--config", custom, "config", "init"); err != nil {
		t.Fatalf("config init --config: %v", err)
	}
	if _, err := os.Stat(custom); err != nil {
		t.Errorf("custom config not written: %v", err)
	}
}

func TestConfigInitSkipsBrokenConfig(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.WriteFile(env.configPath, []byte("library_roots = ["), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := runCLI(t, "config", "show"); err == nil {
		t.Error("config show should report the parse error")
	}
	if _, _, err := runCLI(t, "config", "init", "--overwrite"); err != nil {
		t.Errorf("config init should not load the broken config: %v", err)
	}
}

func TestConfigRoots(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, "config", "add-root", env.root)
	if err != nil {
		t.Fatalf("add-root: %v", err)
	}
	if !strings.Contains(out, "Added "+env.root) {
		t.Errorf("add-root output = %q", out)
	}

	out, _, err = runCLI(t, "config", "add-root", env.root)
	if err != nil {
		t.Fatalf("add-root again: %v", err)
	}
	if !strings.Contains(out, "already") {
		t.Errorf("repeat add-root output = %q", out)
	}

	out, _, err = runCLI(t, "--json", "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	shown := decodeJSON[config.Config](t, out)
	if len(shown.LibraryRoots) != 1 || shown.LibraryRoots[0] != env.root {
		t.Errorf("LibraryRoots = %v, want [%s]", shown.LibraryRoots, env.root)
	}

	if _, _, err := runCLI(t, "config", "remove-root", env.root); err != nil {
		t.Fatalf("remove-root: %v", err)
	}
	cfg, _, _, err := config.Load(env.configPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.LibraryRoots) != 0 {
		t.Errorf("LibraryRoots after remove = %v", cfg.LibraryRoots)
	}

	if _, _, err := runCLI(t, "config", "add-root", filepath.Join(env.root, "missing")); err == nil {
		t.Error("adding a missing directory should fail")
	}
}

func TestConfigShowText(t *testing.T) {
	setupCLITestEnv(t)

	out, _, err := runCLI(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "using defaults") {
		t.Errorf("config show should note the missing file:\n%s", out)
	}
	if !strings.Contains(out, "scan_schedule") {
		t.Errorf("config show should print TOML:\n%s", out)
	}
}

func TestInvalidLogLevel(t *testing.T) {
	setupCLITestEnv(t)

	_, _, err := runCLI(t, "--log-level", "loud", "config", "show")
	if err == nil || !strings.Contains(err.Error(), "invalid log level") {
		t.Errorf("error = %v, want invalid log level", err)
	}
}

func TestVersion(t *testing.T) {
	setupCLITestEnv(t)

	out, _, err := runCLI(t, "--json", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	info := decodeJSON[startup.BuildInfo](t, out)
	if info.Version != startup.Version {
		t.Errorf("Version = %q, want %q", info.Version, startup.Version)
	}

	out, _, err = runCLI(t, "version")
	if err != nil {
		t.Fatalf("version text: %v", err)
	}
	if !strings.HasPrefix(out, "reelshelf "+startup.Version) {
		t.Errorf("version output = %q", out)
	}
}

func TestParseMovieID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "1", want: 1},
		{in: " 42 ", want: 42},
		{in: "0", wantErr: true},
		{in: "-3", wantErr: true},
		{in: "abc", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseMovieID(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseMovieID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseMovieID(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFormatHelpers(t *testing.T) {
	t.Parallel()

	if got := runtimeString(0); got != "-" {
		t.Errorf("runtimeString(0) = %q", got)
	}
	if got := runtimeString(7380); got != "2h03m" {
		t.Errorf("runtimeString(7380) = %q, want 2h03m", got)
	}
	if got := yearString(0); got != "-" {
		t.Errorf("yearString(0) = %q", got)
	}
	if got := resolutionString(1920, 1080); got != "1920x1080" {
		t.Errorf("resolutionString = %q", got)
	}
	if got := resolutionString(0, 1080); got != "-" {
		t.Errorf("resolutionString(0, 1080) = %q", got)
	}
}

func TestRenderTable(t *testing.T) {
	t.Parallel()

	out := renderTable([]string{"Name", "Count"}, [][]string{{"alpha", "1"}, {"beta"}}, []columnAlignment{alignLeft, alignRight})
	for _, want := range []string{"Name", "Count", "alpha", "beta", "╭"} {
		if !strings.Contains(out, want) {
			t.Errorf("renderTable output missing %q:\n%s", want, out)
		}
	}
	if renderTable(nil, nil, nil) != "" {
		t.Error("renderTable with no headers should be empty")
	}
}
