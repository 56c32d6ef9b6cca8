package timeline

import (
	"iter"
	"slices"
	"time"

	"github.com/javiermolinar/rota/internal/dateutil"
)

// Visibility maps months to whether they are drawn.
// Missing months are visible, so a nil Visibility shows the whole year.
type Visibility map[time.Month]bool

// HideMonths returns a Visibility with the given months (1-12) hidden.
func HideMonths(months ...int) Visibility {
	v := make(Visibility, len(months))
	for _, m := range months {
		v[time.Month(m)] = false
	}
	return v
}

// Visible reports whether month m is drawn.
func (v Visibility) Visible(m time.Month) bool {
	visible, ok := v[m]
	return !ok || visible
}

// Toggle returns a copy of v with month m flipped.
func (v Visibility) Toggle(m time.Month) Visibility {
	next := make(Visibility, len(v)+1)
	for k, val := range v {
		next[k] = val
	}
	next[m] = !v.Visible(m)
	return next
}

// HiddenMonths returns the hidden months in calendar order.
func (v Visibility) HiddenMonths() []int {
	var months []int
	for m, visible := range v {
		if !visible {
			months = append(months, int(m))
		}
	}
	slices.Sort(months)
	return months
}

// VisibleDayIndices yields the day indices of year whose month is visible.
// The sequence is finite and can be ranged over any number of times.
func VisibleDayIndices(year int, v Visibility) iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := 0; i <= 365; i++ {
			d := dateutil.DateOfDayIndex(year, i)
			if d.Year() != year {
				return
			}
			if !v.Visible(d.Month()) {
				continue
			}
			if !yield(i) {
				return
			}
		}
	}
}

// BuildIndexLookup maps each calendar day index to its display column.
func BuildIndexLookup(indices iter.Seq[int]) map[int]int {
	lookup := make(map[int]int)
	col := 0
	for idx := range indices {
		lookup[idx] = col
		col++
	}
	return lookup
}

// Segment is a contiguous run of visible days [Start, End) as day indices.
type Segment struct {
	Start int
	End   int
}

// Days returns the number of days in the segment.
func (s Segment) Days() int {
	return s.End - s.Start
}

// ClipRangeToSegments splits [start, end) into runs of visible days of year.
// Days outside year are treated as hidden. A range entirely inside hidden
// months yields no segments.
func ClipRangeToSegments(start, end time.Time, year int, v Visibility) []Segment {
	from := max(dateutil.DayIndex(start, year), 0)
	to := min(dateutil.DayIndex(end, year), dateutil.DaysInYear(year))

	var segments []Segment
	open := -1
	for i := from; i < to; i++ {
		month := dateutil.DateOfDayIndex(year, i).Month()
		if v.Visible(month) {
			if open < 0 {
				open = i
			}
			continue
		}
		if open >= 0 {
			segments = append(segments, Segment{Start: open, End: i})
			open = -1
		}
	}
	if open >= 0 {
		segments = append(segments, Segment{Start: open, End: to})
	}
	return segments
}
