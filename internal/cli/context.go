package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"reelshelf/internal/artifactcache"
	"reelshelf/internal/config"
	"reelshelf/internal/database"
	"reelshelf/internal/filesystem"
	"reelshelf/internal/indexer"
	"reelshelf/internal/logging"
	"reelshelf/internal/poster"
	"reelshelf/internal/probe"
)

// commandContext carries flags and the lazily loaded config shared by every
// subcommand.
type commandContext struct {
	configFlag   string
	logLevelFlag string
	jsonFlag     bool

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(strings.TrimSpace(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		if err := c.configureLogging(cfg); err != nil {
			c.configErr = err
			return
		}
		filesystem.SetDefaultVolumeResolver(volumeResolver(cfg))
		c.config, c.configPath, c.configExists = cfg, path, exists
	})
	return c.config, c.configErr
}

func (c *commandContext) configureLogging(cfg *config.Config) error {
	name := cfg.LogLevel
	if c.logLevelFlag != "" {
		name = c.logLevelFlag
	}
	level, ok := logging.ParseLevel(name)
	if !ok {
		return fmt.Errorf("invalid log level %q", name)
	}
	logging.SetLevel(level)

	if cfg.LogFile != "" {
		if err := logging.SetOutputFile(cfg.LogFile); err != nil {
			return err
		}
	}
	return nil
}

// volumeResolver labels filesystem metrics by library root, cache or data
// directory.
func volumeResolver(cfg *config.Config) *filesystem.VolumeResolver {
	volumes := map[string]string{
		"data":  cfg.DataDir,
		"cache": cfg.CacheDir(),
	}
	for i, root := range cfg.LibraryRoots {
		name := "library"
		if i > 0 {
			name = fmt.Sprintf("library%d", i+1)
		}
		volumes[name] = root
	}
	return filesystem.NewVolumeResolver(volumes)
}

func (c *commandContext) close() {
	logging.Close()
}

// openCatalog opens the configured catalog. Read-only handles skip the write
// lock, so they work while a scan or the server holds it.
func (c *commandContext) openCatalog(ctx context.Context, readOnly bool) (*database.Database, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	path := cfg.CatalogPath()
	if readOnly {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no catalog at %s; run `reelshelf scan` first", path)
		}
	}

	db, err := database.New(ctx, path, &database.Options{ReadOnly: readOnly})
	if errors.Is(err, database.ErrCatalogLocked) {
		return nil, fmt.Errorf("%w; stop the running scan or server first", err)
	}
	return db, err
}

// synthesizer builds the poster synthesizer from the configured tools and
// poster spec.
func synthesizer(cfg *config.Config) *poster.Synthesizer {
	ffmpeg, _ := cfg.Tools()
	if ffmpeg == "" {
		logging.Warn("ffmpeg not found; posters will be placeholders")
	}
	return poster.New(artifactcache.New(cfg.CacheDir()), poster.Options{
		FFmpeg: ffmpeg,
		Spec:   poster.Spec{Height: cfg.Poster.Height, Quality: cfg.Poster.Quality},
	})
}

// newReconciler wires the catalog to ffprobe and the poster synthesizer.
// A missing ffprobe leaves metadata unrecorded.
func newReconciler(cfg *config.Config, db *database.Database) *indexer.Reconciler {
	var prober probe.Prober
	if _, ffprobe := cfg.Tools(); ffprobe != "" {
		prober = probe.New(ffprobe)
	} else {
		logging.Warn("ffprobe not found; codec, resolution and runtime will not be recorded")
	}
	return indexer.NewReconciler(db, prober, synthesizer(cfg))
}

func indexerConfig(cfg *config.Config) indexer.Config {
	return indexer.Config{
		Roots:       cfg.LibraryRoots,
		IgnoreRules: cfg.IgnoreRules,
		Workers:     cfg.Workers(),
		Fingerprint: cfg.Fingerprint,
		Schedule:    cfg.ScanSchedule,
		Watch:       cfg.Watch,
	}
}
