package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"reelshelf/internal/config"
	"reelshelf/internal/indexer"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var (
		noFingerprint bool
		workers       int
		saveRoots     bool
	)

	cmd := &cobra.Command{
		Use:   "scan [directory...]",
		Short: "Scan library roots and update the catalog",
		Long: `Scan walks the given directories, or the configured library_roots when
none are given, and reconciles every video file with the catalog: new
titles are added, renamed files are followed by fingerprint, and each
title gets a poster. Interrupting a scan stops it between files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			roots := cfg.LibraryRoots
			if len(args) > 0 {
				if roots, err = expandRoots(args); err != nil {
					return err
				}
			}
			if len(roots) == 0 {
				return fmt.Errorf("no library roots configured; pass a directory or add library_roots to %s", ctx.configPath)
			}
			if saveRoots && len(args) > 0 {
				if err := persistRoots(cmd, ctx, cfg, roots); err != nil {
					return err
				}
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := ctx.openCatalog(runCtx, false)
			if err != nil {
				return err
			}
			defer db.Close()

			progress := newProgressPrinter(cmd.ErrOrStderr())
			icfg := indexerConfig(cfg)
			icfg.Roots = roots
			var seen, total int
			icfg.OnProgress = func(done, n int) {
				seen, total = done, n
				progress.update(done, n)
			}
			if workers > 0 {
				icfg.Workers = workers
			}
			if noFingerprint {
				icfg.Fingerprint = false
			}

			idx := indexer.New(newReconciler(cfg, db), icfg)
			defer idx.Stop()

			result, err := idx.Index(runCtx, indexer.TriggerCLI)
			progress.finish()
			if errors.Is(err, context.Canceled) {
				fmt.Fprintf(cmd.ErrOrStderr(), "Scan interrupted after %d of %d files; progress so far is saved\n", seen, total)
			}

			if ctx.jsonFlag {
				if jsonErr := writeJSON(cmd, result); jsonErr != nil {
					return jsonErr
				}
				return err
			}
			if result.RunID != "" {
				renderRunResult(cmd, result)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&noFingerprint, "no-fingerprint", false, "Skip content fingerprints (faster, but renames become new titles)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Stat worker count (default from config)")
	cmd.Flags().BoolVar(&saveRoots, "save", false, "Add the given directories to library_roots in the config file")
	return cmd
}

func expandRoots(args []string) ([]string, error) {
	roots := make([]string, 0, len(args))
	for _, arg := range args {
		root, err := config.ExpandPath(arg)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("library root %s: %w", root, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("library root %s is not a directory", root)
		}
		roots = append(roots, root)
	}
	return roots, nil
}

func persistRoots(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, roots []string) error {
	changed := false
	for _, root := range roots {
		added, err := cfg.AddRoot(root)
		if err != nil {
			return err
		}
		changed = changed || added
	}
	if !changed {
		return nil
	}
	if err := config.Save(cfg, ctx.configPath); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Saved library roots to %s\n", ctx.configPath)
	return nil
}

func renderRunResult(cmd *cobra.Command, result indexer.RunResult) {
	s := result.Summary
	rows := [][]string{
		{"Files seen", humanize.Comma(int64(s.TotalFiles))},
		{"New titles", humanize.Comma(int64(s.NewMovies))},
		{"New files", humanize.Comma(int64(s.NewFiles))},
		{"Duplicates", humanize.Comma(int64(s.Duplicates))},
		{"Renames", humanize.Comma(int64(s.Renames))},
		{"Probed", humanize.Comma(int64(s.Probed))},
		{"Posters", humanize.Comma(int64(s.Posters))},
		{"Placeholders", humanize.Comma(int64(s.Placeholders))},
		{"Duration", result.Duration().Round(time.Millisecond).String()},
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable([]string{"Scan " + result.RunID, "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
	if result.Error != "" {
		fmt.Fprintln(out, "Stopped: "+result.Error)
	}
}
