package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/javiermolinar/rota/internal/booking"
	"github.com/javiermolinar/rota/internal/dateutil"
)

// shortIDLen is how much of a booking ID the CLI prints.
const shortIDLen = 8

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

// formatRange renders an exclusive range by its first and last day.
func formatRange(start, end time.Time) string {
	last := dateutil.AddDays(end, -1)
	if last.Equal(start) {
		return dateutil.Format(start)
	}
	return fmt.Sprintf("%s → %s", dateutil.Format(start), dateutil.Format(last))
}

// FormatDays formats a day count as "1 day" or "N days".
func FormatDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// PrintBookingRow prints one booking as a single line.
func PrintBookingRow(w io.Writer, b booking.Booking, owner string) {
	marker := paint("■", b.Color, nil)
	switch {
	case b.IsLeave():
		marker = colorLeave.Sprint("░")
	case b.IsShared() && b.Color == "":
		marker = colorShared.Sprint("■")
	}
	fmt.Fprintf(w, "  %s %s %-24s %-10s lane %d  %s (%s)\n",
		marker,
		formatMuted(shortID(b.ID)),
		truncate(b.Title, 24),
		truncate(owner, 10),
		b.Lane,
		formatRange(b.Start, b.End),
		FormatDays(b.Days()),
	)
}

// PrintBookingDetail prints every field of a booking.
func PrintBookingDetail(w io.Writer, b booking.Booking, owner string) {
	fmt.Fprintf(w, "%s\n", formatHeader(b.Title))
	fmt.Fprintf(w, "  id:      %s\n", b.ID)
	fmt.Fprintf(w, "  owner:   %s (lane %d)\n", owner, b.Lane)
	fmt.Fprintf(w, "  dates:   %s (%s)\n", formatRange(b.Start, b.End), FormatDays(b.Days()))
	fmt.Fprintf(w, "  kind:    %s\n", b.Kind)
	if b.Color != "" {
		fmt.Fprintf(w, "  color:   %s\n", paint(b.Color, b.Color, nil))
	}
	if b.Link != "" {
		fmt.Fprintf(w, "  link:    %s\n", b.Link)
	}
	if b.Comment != "" {
		fmt.Fprintf(w, "  comment: %s\n", b.Comment)
	}
}

// truncate cuts s to width runes, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}

// parseMonths reads a comma separated list of month numbers or names.
func parseMonths(s string) ([]int, error) {
	var months []int
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		m, err := parseMonth(part)
		if err != nil {
			return nil, err
		}
		months = append(months, int(m))
	}
	return months, nil
}

func parseMonth(s string) (time.Month, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > 12 {
			return 0, fmt.Errorf("month %d out of range", n)
		}
		return time.Month(n), nil
	}
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		if strings.EqualFold(s, name) || (len(s) >= 3 && strings.HasPrefix(name, strings.ToLower(s))) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown month %q", s)
}
