package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"reelshelf/internal/database"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// renderMovies prints movies as a table, or a notice when there are none.
func renderMovies(w io.Writer, movies []database.Movie) {
	if len(movies) == 0 {
		fmt.Fprintln(w, "No movies found")
		return
	}
	rows := make([][]string, 0, len(movies))
	for _, m := range movies {
		rows = append(rows, []string{
			strconv.FormatInt(m.ID, 10),
			m.CanonicalTitle,
			yearString(m.Year),
			runtimeString(m.RuntimeSec),
			humanize.Time(m.CreatedAt),
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"ID", "Title", "Year", "Runtime", "Added"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft},
	))
}

func yearString(year int) string {
	if year == 0 {
		return "-"
	}
	return strconv.Itoa(year)
}

func runtimeString(sec int) string {
	if sec <= 0 {
		return "-"
	}
	d := time.Duration(sec) * time.Second
	return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
}

func resolutionString(width, height int) string {
	if width == 0 || height == 0 {
		return "-"
	}
	return fmt.Sprintf("%dx%d", width, height)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// progressPrinter rewrites a single status line while a scan runs. It only
// draws when w is a terminal.
type progressPrinter struct {
	w       io.Writer
	enabled bool
	width   int
	last    time.Time
	drawn   bool
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	p := &progressPrinter{w: w}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.enabled = true
		if width, _, err := term.GetSize(int(f.Fd())); err == nil {
			p.width = width
		}
	}
	return p
}

func (p *progressPrinter) update(done, total int) {
	if !p.enabled {
		return
	}
	if done < total && time.Since(p.last) < 100*time.Millisecond {
		return
	}
	p.last = time.Now()

	line := fmt.Sprintf("Indexing %s/%s files", humanize.Comma(int64(done)), humanize.Comma(int64(total)))
	if total > 0 {
		line += fmt.Sprintf(" (%d%%)", done*100/total)
	}
	if p.width > 0 && len(line) < p.width-1 {
		line += fmt.Sprintf("%*s", p.width-1-len(line), "")
	}
	fmt.Fprint(p.w, "\r"+line)
	p.drawn = true
}

func (p *progressPrinter) finish() {
	if p.drawn {
		fmt.Fprintln(p.w)
		p.drawn = false
	}
}
