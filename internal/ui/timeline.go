package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/javiermolinar/rota/internal/booking"
	"github.com/javiermolinar/rota/internal/dateutil"
	"github.com/javiermolinar/rota/internal/timeline"
)

// timelineLabelWidth is the width of the owner column of the text timeline.
const timelineLabelWidth = 12

func (a *App) timelineCmd() *cobra.Command {
	var (
		hide  string
		show  bool
		from  string
		to    string
		width int
	)

	cmd := &cobra.Command{
		Use:     "timeline",
		Aliases: []string{"tl"},
		Short:   "Print the timeline as text",
		Long: `Print the timeline with one column per visible day and one row per lane.

Hidden months from the config are left out unless --all is given; --hide
replaces them. Output wider than the terminal is cut at the right edge.`,
		Example: `  rota timeline --from 2025-03-01 --to 2025-04-30
  rota timeline --hide jul,aug
  rota timeline --all --width 400 > year.txt`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}

			vis := s.engine.View().Visibility()
			switch {
			case show:
				vis = nil
			case cmd.Flags().Changed("hide"):
				months, err := parseMonths(hide)
				if err != nil {
					return fmt.Errorf("--hide: %w", err)
				}
				if len(months) > 0 {
					vis = timeline.HideMonths(months...)
				} else {
					vis = nil
				}
			}

			window, err := listWindow(s.engine.Year(), from, to)
			if err != nil {
				return err
			}
			if width <= 0 {
				width = termWidth()
			}

			grid := newTextGrid(s.engine.Year(), vis, window, width-timelineLabelWidth-1)
			if grid.columns() == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No visible days in range.")
				return nil
			}
			grid.render(cmd.OutOrStdout(), s)
			if grid.cut > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), formatWarn(fmt.Sprintf(
					"%d more days not shown, narrow with --from/--to or --hide", grid.cut)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&hide, "hide", "", "Months to hide, e.g. \"jul,aug\" or \"7,8\"")
	cmd.Flags().BoolVar(&show, "all", false, "Show every month")
	cmd.Flags().StringVar(&from, "from", "", "First day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last day (YYYY-MM-DD)")
	cmd.Flags().IntVar(&width, "width", 0, "Output width (default: terminal width)")
	cmd.MarkFlagsMutuallyExclusive("hide", "all")

	return cmd
}

// cell is one character of the text timeline.
type cell struct {
	r rune
	c *color.Color
}

// textGrid maps visible days to character columns.
type textGrid struct {
	year int
	vis  timeline.Visibility
	days []int       // day index of each column
	col  map[int]int // day index -> column
	cut  int         // visible days dropped at the right edge
}

func newTextGrid(year int, vis timeline.Visibility, window booking.Range, maxCols int) *textGrid {
	g := &textGrid{year: year, vis: vis, col: make(map[int]int)}
	first := dateutil.DayIndex(window.Start, year)
	last := dateutil.DayIndex(window.End, year)
	for idx := range timeline.VisibleDayIndices(year, vis) {
		if idx < first || idx >= last {
			continue
		}
		if len(g.days) >= max(maxCols, 0) {
			g.cut++
			continue
		}
		g.col[idx] = len(g.days)
		g.days = append(g.days, idx)
	}
	return g
}

func (g *textGrid) columns() int {
	return len(g.days)
}

func (g *textGrid) date(col int) time.Time {
	return dateutil.DateOfDayIndex(g.year, g.days[col])
}

func (g *textGrid) render(w io.Writer, s *session) {
	g.header(w)

	layout := s.engine.Layout()
	rows := make([][]cell, layout.Len())
	for i := range rows {
		rows[i] = g.emptyRow()
	}
	for _, b := range s.engine.Bookings() {
		row, ok := layout.RowOf(b.OwnerID, b.Lane)
		if !ok {
			continue
		}
		for _, seg := range timeline.ClipRangeToSegments(b.Start, b.End, g.year, g.vis) {
			g.paintSegment(rows[row], b, seg)
		}
	}

	prev := "\x00"
	for i, r := range layout.Rows() {
		label := ""
		if r.OwnerID != prev {
			label = s.ownerName(r.OwnerID)
			prev = r.OwnerID
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "%-*s ", timelineLabelWidth, truncate(label, timelineLabelWidth))
		for _, c := range rows[i] {
			if c.c != nil {
				sb.WriteString(c.c.Sprint(string(c.r)))
			} else {
				sb.WriteRune(c.r)
			}
		}
		fmt.Fprintln(w, sb.String())
	}
}

// header prints month names above their first column and the day of month
// below, marking hidden months with a bar.
func (g *textGrid) header(w io.Writer) {
	months := []rune(strings.Repeat(" ", g.columns()))
	days := make([]rune, g.columns())
	next := 0 // first column free for a month name
	for col := range g.days {
		d := g.date(col)
		days[col] = rune('0' + d.Day()%10)
		if col > 0 && g.days[col]-g.days[col-1] > 1 {
			days[col] = '|'
		}
		if col >= next && (col == 0 || d.Month() != g.date(col-1).Month()) {
			copy(months[col:], []rune(d.Month().String()[:3]))
			next = col + 4
		}
	}
	pad := strings.Repeat(" ", timelineLabelWidth+1)
	fmt.Fprintln(w, pad+formatHeader(string(months)))
	fmt.Fprintln(w, pad+formatMuted(string(days)))
}

func (g *textGrid) emptyRow() []cell {
	row := make([]cell, g.columns())
	for col := range row {
		row[col] = cell{r: '·', c: colorMuted}
		if wd := g.date(col).Weekday(); wd == time.Saturday || wd == time.Sunday {
			row[col].r = ' '
		}
	}
	return row
}

// paintSegment writes the visible part of one booking segment. Regular
// bookings show their title followed by a bar, leave is shaded.
func (g *textGrid) paintSegment(row []cell, b booking.Booking, seg timeline.Segment) {
	c := hexColor(b.Color)
	fill := '━'
	switch {
	case b.IsLeave():
		fill = '░'
		if c == nil {
			c = colorLeave
		}
	case c == nil && b.IsShared():
		c = colorShared
	}
	title := []rune(b.Title)

	n := 0
	for idx := seg.Start; idx < seg.End; idx++ {
		col, ok := g.col[idx]
		if !ok {
			continue
		}
		r := fill
		if !b.IsLeave() && n < len(title) && seg.Days() > 1 {
			r = title[n]
		}
		row[col] = cell{r: r, c: c}
		n++
	}
}

