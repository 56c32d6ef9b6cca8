package timeline

import (
	"slices"
	"time"

	"github.com/javiermolinar/rota/internal/booking"
	"github.com/javiermolinar/rota/internal/dateutil"
)

// Rect is a rectangle in pixel space.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether (x, y) falls inside r.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// View combines a Mapper with a Visibility and produces drawable geometry.
// Hidden days are removed from the horizontal axis, so x positions refer to
// display columns rather than calendar days.
type View struct {
	mapper     Mapper
	visibility Visibility
	cellHeight float64

	visible []int       // display column -> day index
	lookup  map[int]int // day index -> display column
}

// NewView builds a View. cellHeight is the height of one lane.
func NewView(m Mapper, v Visibility, cellHeight float64) *View {
	if cellHeight <= 0 {
		cellHeight = 1
	}
	view := &View{mapper: m, visibility: v, cellHeight: cellHeight}
	view.rebuild()
	return view
}

// rebuild recomputes the column tables; called on every visibility or year change.
func (v *View) rebuild() {
	seq := VisibleDayIndices(v.mapper.Year, v.visibility)
	v.visible = slices.Collect(seq)
	v.lookup = BuildIndexLookup(seq)
}

// Mapper returns the underlying mapper.
func (v *View) Mapper() Mapper {
	return v.mapper
}

// SetMapper replaces the mapper, e.g. after a zoom change.
func (v *View) SetMapper(m Mapper) {
	yearChanged := m.Year != v.mapper.Year
	v.mapper = m
	if yearChanged {
		v.rebuild()
	}
}

// Visibility returns the current month visibility.
func (v *View) Visibility() Visibility {
	return v.visibility
}

// SetVisibility replaces the month visibility.
func (v *View) SetVisibility(vis Visibility) {
	v.visibility = vis
	v.rebuild()
}

// CellWidth returns the width of one day column.
func (v *View) CellWidth() float64 {
	return v.mapper.CellWidth()
}

// CellHeight returns the height of one lane.
func (v *View) CellHeight() float64 {
	return v.cellHeight
}

// Columns returns the number of visible days.
func (v *View) Columns() int {
	return len(v.visible)
}

// Width returns the total drawable width.
func (v *View) Width() float64 {
	return float64(len(v.visible)) * v.mapper.CellWidth()
}

// DayAt returns the calendar day index drawn at x.
func (v *View) DayAt(x float64) (int, bool) {
	col := v.mapper.DayIndexAt(x)
	if col < 0 || col >= len(v.visible) {
		return 0, false
	}
	return v.visible[col], true
}

// ClampedDayAt is DayAt clamped to the first or last visible day.
func (v *View) ClampedDayAt(x float64) int {
	if len(v.visible) == 0 {
		return 0
	}
	col := min(max(v.mapper.DayIndexAt(x), 0), len(v.visible)-1)
	return v.visible[col]
}

// XOfDay returns the left edge of a calendar day index, if visible.
func (v *View) XOfDay(dayIndex int) (float64, bool) {
	col, ok := v.lookup[dayIndex]
	if !ok {
		return 0, false
	}
	return float64(col) * v.mapper.CellWidth(), true
}

// DateOfColumn returns the date drawn in display column col.
func (v *View) DateOfColumn(col int) (time.Time, bool) {
	if col < 0 || col >= len(v.visible) {
		return time.Time{}, false
	}
	return dateutil.DateOfDayIndex(v.mapper.Year, v.visible[col]), true
}

// RangeRects returns one rectangle per visible segment of [start, end),
// placed on the given row. Fully hidden ranges yield nil.
func (v *View) RangeRects(start, end time.Time, row int) []Rect {
	segments := ClipRangeToSegments(start, end, v.mapper.Year, v.visibility)
	if len(segments) == 0 {
		return nil
	}
	cw := v.mapper.CellWidth()
	rects := make([]Rect, 0, len(segments))
	for _, seg := range segments {
		x, ok := v.XOfDay(seg.Start)
		if !ok {
			continue
		}
		rects = append(rects, Rect{
			X: x,
			Y: float64(row) * v.cellHeight,
			W: float64(max(seg.Days(), 1)) * cw,
			H: v.cellHeight,
		})
	}
	return rects
}

// BookingRects returns the drawable rectangles of b given the row layout.
func (v *View) BookingRects(b booking.Booking, layout *Layout) []Rect {
	row, ok := layout.RowOf(b.OwnerID, b.Lane)
	if !ok {
		return nil
	}
	return v.RangeRects(b.Start, b.End, row)
}
