package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"reelshelf/internal/config"
	"reelshelf/internal/database"
	"reelshelf/internal/indexer"
	"reelshelf/internal/logging"
	"reelshelf/internal/poster"
)

func newRelinkCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "relink <old-path> <new-path>",
		Short: "Point a catalogued file at its new location",
		Long: `Relink updates the catalog after a file was moved somewhere a scan would
not connect it to its old entry, for example when fingerprints are off.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldPath, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			newPath, err := config.ExpandPath(args[1])
			if err != nil {
				return err
			}

			db, err := ctx.openCatalog(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer db.Close()

			if _, err := db.GetMediaFileByPath(cmd.Context(), newPath); err == nil {
				return fmt.Errorf("%s is already catalogued", newPath)
			} else if !errors.Is(err, database.ErrNotFound) {
				return err
			}

			found, err := db.RelinkMediaFileByPath(cmd.Context(), oldPath, newPath)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no catalogued file at %s", oldPath)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Relinked %s -> %s\n", oldPath, newPath)
			return nil
		},
	}
}

func newProgressCommand(ctx *commandContext) *cobra.Command {
	var (
		position  time.Duration
		watched   bool
		unwatched bool
		reset     bool
	)

	cmd := &cobra.Command{
		Use:   "progress <id>",
		Short: "Record or clear playback progress for a title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMovieID(args[0])
			if err != nil {
				return err
			}

			set := 0
			for _, b := range []bool{cmd.Flags().Changed("position"), watched, unwatched, reset} {
				if b {
					set++
				}
			}
			if set != 1 {
				return errors.New("specify exactly one of --position, --watched, --unwatched or --reset")
			}

			db, err := ctx.openCatalog(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer db.Close()

			if _, err := db.GetMovie(cmd.Context(), id); errors.Is(err, database.ErrNotFound) {
				return fmt.Errorf("movie %d not found", id)
			} else if err != nil {
				return err
			}

			switch {
			case reset:
				err = db.ResetProgress(cmd.Context(), id)
			case watched, unwatched:
				err = db.SetWatched(cmd.Context(), id, watched)
			default:
				err = db.SetPlayState(cmd.Context(), database.PlayState{MovieID: id, PositionSec: int(position.Seconds())})
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated playback for movie %d\n", id)
			return nil
		},
	}

	cmd.Flags().DurationVar(&position, "position", 0, "Resume position, e.g. 1h12m30s")
	cmd.Flags().BoolVar(&watched, "watched", false, "Mark as watched")
	cmd.Flags().BoolVar(&unwatched, "unwatched", false, "Mark as not watched")
	cmd.Flags().BoolVar(&reset, "reset", false, "Clear position and watched flag")
	return cmd
}

func newValidatePostersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-posters",
		Short: "Check every poster and regenerate missing, broken or placeholder ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			db, err := ctx.openCatalog(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := poster.InitVips(); err != nil {
				logging.Warn("libvips unavailable: %v", err)
			}
			defer poster.ShutdownVips()

			report, err := indexer.ValidatePosters(cmd.Context(), db, synthesizer(cfg))
			if err != nil {
				return err
			}
			if ctx.jsonFlag {
				return writeJSON(cmd, report)
			}

			rows := [][]string{
				{"Checked", fmt.Sprint(report.Checked)},
				{"OK", fmt.Sprint(report.OK)},
				{"Missing", fmt.Sprint(report.Missing)},
				{"Placeholder", fmt.Sprint(report.Placeholder)},
				{"Corrupt", fmt.Sprint(report.Corrupt)},
				{"Regenerated", fmt.Sprint(report.Regenerated)},
				{"Failed", fmt.Sprint(report.Failed)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Posters", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}
