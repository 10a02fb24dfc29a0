package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"reelshelf/internal/config"
	"reelshelf/internal/database"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var (
		order string
		limit int
		under string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog titles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := ctx.openCatalog(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer db.Close()

			var movies []database.Movie
			if under != "" {
				movies, err = moviesUnder(cmd, db, under, limit)
			} else {
				movies, err = db.ListMovies(cmd.Context(), database.ParseListOrder(order), limit)
			}
			if err != nil {
				return err
			}
			if ctx.jsonFlag {
				return writeJSON(cmd, nonNilMovies(movies))
			}
			renderMovies(cmd.OutOrStdout(), movies)
			return nil
		},
	}

	cmd.Flags().StringVarP(&order, "order", "o", string(database.OrderTitle), "Sort order: title, recent or year")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum titles to show (0 for all)")
	cmd.Flags().StringVar(&under, "under", "", "Only titles with a file below this directory, in id order")
	return cmd
}

func moviesUnder(cmd *cobra.Command, db *database.Database, dir string, limit int) ([]database.Movie, error) {
	prefix, err := config.ExpandPath(dir)
	if err != nil {
		return nil, err
	}
	ids, err := db.MovieIDsByPathPrefix(cmd.Context(), prefix)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return db.MoviesByIDs(cmd.Context(), ids)
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "search <words...>",
		Short: "Find titles whose words start with every given word",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.openCatalog(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer db.Close()

			movies, err := db.SearchMovies(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if ctx.jsonFlag {
				return writeJSON(cmd, nonNilMovies(movies))
			}
			renderMovies(cmd.OutOrStdout(), movies)
			return nil
		},
	}
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a title with its files and poster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseMovieID(args[0])
			if err != nil {
				return err
			}

			db, err := ctx.openCatalog(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer db.Close()

			detail, err := db.GetMovieDetail(cmd.Context(), id)
			if errors.Is(err, database.ErrNotFound) {
				return fmt.Errorf("movie %d not found", id)
			}
			if err != nil {
				return err
			}
			if ctx.jsonFlag {
				return writeJSON(cmd, detail)
			}
			renderMovieDetail(cmd, detail)
			return nil
		},
	}
}

func renderMovieDetail(cmd *cobra.Command, d *database.MovieDetail) {
	out := cmd.OutOrStdout()

	title := d.CanonicalTitle
	if d.Year != 0 {
		title = fmt.Sprintf("%s (%d)", title, d.Year)
	}
	fmt.Fprintln(out, title)
	fmt.Fprintf(out, "  ID:        %d\n", d.ID)
	fmt.Fprintf(out, "  Sort:      %s\n", d.SortTitle)
	if d.Edition != "" {
		fmt.Fprintf(out, "  Edition:   %s\n", d.Edition)
	}
	fmt.Fprintf(out, "  Runtime:   %s\n", runtimeString(d.RuntimeSec))
	fmt.Fprintf(out, "  Added:     %s (%s)\n", d.CreatedAt.Format("2006-01-02 15:04"), humanize.Time(d.CreatedAt))
	if d.Poster != nil {
		fmt.Fprintf(out, "  Poster:    %s [%s, %s]\n", d.Poster.Path, d.Poster.Src, resolutionString(d.Poster.Width, d.Poster.Height))
	} else {
		fmt.Fprintln(out, "  Poster:    -")
	}
	if d.PlayState != nil {
		state := "in progress at " + runtimeString(d.PlayState.PositionSec)
		if d.PlayState.Watched {
			state = "watched"
		}
		fmt.Fprintf(out, "  Playback:  %s\n", state)
	}

	if len(d.Files) == 0 {
		return
	}
	rows := make([][]string, 0, len(d.Files))
	for _, f := range d.Files {
		channels := "-"
		if f.AudioChannels > 0 {
			channels = strconv.Itoa(f.AudioChannels)
		}
		rows = append(rows, []string{
			f.Path,
			humanize.IBytes(uint64(max(f.SizeBytes, 0))),
			orDash(f.VideoCodec),
			resolutionString(f.Width, f.Height),
			channels,
		})
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable(
		[]string{"File", "Size", "Codec", "Resolution", "Channels"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignRight},
	))
}

func parseMovieID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid movie id %q", arg)
	}
	return id, nil
}

func nonNilMovies(movies []database.Movie) []database.Movie {
	if movies == nil {
		return []database.Movie{}
	}
	return movies
}
