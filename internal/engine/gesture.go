package engine

import (
	"math"

	"github.com/javiermolinar/rota/internal/booking"
	"github.com/javiermolinar/rota/internal/dateutil"
	"github.com/javiermolinar/rota/internal/timeline"
)

// State is the interaction state of the engine.
type State int

const (
	StateIdle State = iota
	StateCreating
	StateDragging
	StateResizing
)

// String returns a readable state name.
func (s State) String() string {
	switch s {
	case StateCreating:
		return "creating"
	case StateDragging:
		return "dragging"
	case StateResizing:
		return "resizing"
	default:
		return "idle"
	}
}

// CreateMode tells a creation gesture what kind of booking to make.
type CreateMode int

const (
	ModeCreate CreateMode = iota
	ModeLeaveCreate
)

// Modifiers carries the modifier keys held on pointer down.
type Modifiers struct {
	Create bool // plain creation
	Leave  bool // creation with the leave preset
}

// Zone is the part of the timeline under the pointer.
type Zone int

const (
	ZoneNone Zone = iota
	ZoneEmpty
	ZoneBody
	ZoneLeftEdge
	ZoneRightEdge
)

// Hit is the result of a hit test.
type Hit struct {
	Zone      Zone
	BookingID string
	Row       timeline.Row
	Day       int // calendar day index
}

// Draft is the transient state of a creation gesture.
type Draft struct {
	OwnerID string
	Lane    int
	Anchor  int // day index where the gesture started
	Current int // day index under the pointer
	Mode    CreateMode
}

// Range returns the drafted days; anchor == current still spans one day.
func (d Draft) Range() (startIdx, endIdx int) {
	return min(d.Anchor, d.Current), max(d.Anchor, d.Current) + 1
}

type gesture struct {
	state  State
	startX float64
	startY float64

	// creating
	draft Draft

	// dragging / resizing
	bookingID string
	original  booking.Booking
	edge      Edge
	preview   booking.Fields

	colliding bool
}

// State returns the current interaction state.
func (e *Engine) State() State {
	if e.gesture == nil {
		return StateIdle
	}
	return e.gesture.state
}

// Colliding reports whether the current preview overlaps another booking.
func (e *Engine) Colliding() bool {
	return e.gesture != nil && e.gesture.colliding
}

// Draft returns the creation draft, if a creation gesture is active.
func (e *Engine) Draft() (Draft, bool) {
	if e.gesture == nil || e.gesture.state != StateCreating {
		return Draft{}, false
	}
	return e.gesture.draft, true
}

func (e *Engine) edgeWidth() float64 {
	if e.cfg.EdgeWidth > 0 {
		return e.cfg.EdgeWidth
	}
	return e.view.CellWidth() / 3
}

// HitTest returns what lies at (x, y). Coordinates are relative to the top
// left corner of the first row of the first visible day.
func (e *Engine) HitTest(x, y float64) Hit {
	row, ok := e.layout.HitRow(y, e.view.CellHeight())
	if !ok {
		return Hit{}
	}
	day, ok := e.view.DayAt(x)
	if !ok {
		return Hit{}
	}
	hit := Hit{Zone: ZoneEmpty, Row: row, Day: day}

	edge := e.edgeWidth()
	for _, b := range e.bookings.ForOwner(row.OwnerID) {
		if b.Lane != row.Lane {
			continue
		}
		rects := e.view.BookingRects(b, e.layout)
		for i, r := range rects {
			if !r.Contains(x, y) {
				continue
			}
			hit.BookingID = b.ID
			hit.Zone = ZoneBody
			if r.W < 3*edge {
				return hit
			}
			switch {
			case i == 0 && x < r.X+edge:
				hit.Zone = ZoneLeftEdge
			case i == len(rects)-1 && x >= r.X+r.W-edge:
				hit.Zone = ZoneRightEdge
			}
			return hit
		}
	}
	return hit
}

// PointerDown starts a gesture at (x, y). With a creation modifier on an empty
// cell it starts a draft; on a booking body it starts a drag; on a booking
// edge it starts a resize. Anything else is ignored.
func (e *Engine) PointerDown(x, y float64, mods Modifiers) error {
	if e.gesture != nil {
		return ErrGestureActive
	}
	hit := e.HitTest(x, y)
	switch hit.Zone {
	case ZoneEmpty:
		if !mods.Create && !mods.Leave {
			return nil
		}
		mode := ModeCreate
		if mods.Leave {
			mode = ModeLeaveCreate
		}
		e.gesture = &gesture{
			state:  StateCreating,
			startX: x,
			startY: y,
			draft: Draft{
				OwnerID: hit.Row.OwnerID,
				Lane:    hit.Row.Lane,
				Anchor:  hit.Day,
				Current: hit.Day,
				Mode:    mode,
			},
		}
		e.gesture.colliding = e.collides(e.draftBooking(e.gesture.draft))
	case ZoneBody, ZoneLeftEdge, ZoneRightEdge:
		if mods.Create || mods.Leave {
			return nil
		}
		b, _ := e.bookings.Get(hit.BookingID)
		g := &gesture{
			state:     StateDragging,
			startX:    x,
			startY:    y,
			bookingID: b.ID,
			original:  b,
			preview:   b.Fields(),
		}
		switch hit.Zone {
		case ZoneLeftEdge:
			g.state, g.edge = StateResizing, EdgeLeft
		case ZoneRightEdge:
			g.state, g.edge = StateResizing, EdgeRight
		}
		e.gesture = g
	}
	return nil
}

// PointerMove updates the active gesture's preview.
func (e *Engine) PointerMove(x, y float64) {
	g := e.gesture
	if g == nil {
		return
	}
	switch g.state {
	case StateCreating:
		g.draft.Current = e.clampDay(e.view.ClampedDayAt(x))
		g.colliding = e.collides(e.draftBooking(g.draft))
	case StateDragging:
		days := e.clampShift(g.original, e.dayDelta(g.startX, x))
		laneDelta := int(math.Round((y - g.startY) / e.view.CellHeight()))
		lane := e.lanes.ClampLane(g.original.OwnerID, g.original.Lane+laneDelta)
		g.preview = movedFields(g.original, days, lane)
		g.colliding = e.collides(g.original.WithFields(g.preview))
	case StateResizing:
		days := e.dayDelta(g.startX, x)
		g.preview = e.clampToYear(resizedFields(g.original, g.edge, days))
		g.colliding = e.collides(g.original.WithFields(g.preview))
	}
}

// PointerUp commits the active gesture. A colliding preview is dropped
// without touching local state or the backend and reports ErrCollision.
func (e *Engine) PointerUp() error {
	g := e.gesture
	if g == nil {
		return nil
	}
	e.gesture = nil

	switch g.state {
	case StateCreating:
		b := e.draftBooking(g.draft)
		_, err := e.Create(NewBooking{
			OwnerID: b.OwnerID,
			Title:   b.Title,
			Start:   b.Start,
			End:     b.End,
			Lane:    b.Lane,
			Color:   b.Color,
			Kind:    b.Kind,
		})
		return err
	case StateDragging, StateResizing:
		if g.colliding {
			return booking.ErrCollision
		}
		if fieldsEqual(g.original.Fields(), g.preview) {
			return nil
		}
		return e.Update(g.bookingID, g.preview)
	}
	return nil
}

// Cancel drops the active gesture. Nothing is written and nothing is recorded.
func (e *Engine) Cancel() {
	e.gesture = nil
}

// PointerLeave is Cancel for a pointer leaving the timeline.
func (e *Engine) PointerLeave() {
	e.Cancel()
}

// Preview is the drawable state of the active gesture.
type Preview struct {
	State     State
	BookingID string // empty while creating
	Fields    booking.Fields
	Rects     []timeline.Rect
	Colliding bool
}

// Preview returns the geometry of the active gesture.
func (e *Engine) Preview() (Preview, bool) {
	g := e.gesture
	if g == nil {
		return Preview{}, false
	}
	p := Preview{State: g.state, BookingID: g.bookingID, Colliding: g.colliding}
	switch g.state {
	case StateCreating:
		p.Fields = e.draftBooking(g.draft).Fields()
	default:
		p.Fields = g.preview
	}
	row, ok := e.layout.RowOf(p.Fields.OwnerID, p.Fields.Lane)
	if ok {
		p.Rects = e.view.RangeRects(p.Fields.Start, p.Fields.End, row)
	}
	return p, true
}

// Item is a booking with its drawable geometry.
type Item struct {
	Booking booking.Booking
	Rects   []timeline.Rect
	Pending bool
	Active  bool // being dragged or resized; drawn at the preview instead
}

// Items returns every booking with the rectangles it occupies on screen.
// Bookings fully inside hidden months have no rectangles.
func (e *Engine) Items() []Item {
	all := e.bookings.All()
	items := make([]Item, 0, len(all))
	for _, b := range all {
		items = append(items, Item{
			Booking: b,
			Rects:   e.view.BookingRects(b, e.layout),
			Pending: e.bookings.IsPending(b.ID),
			Active:  e.gesture != nil && e.gesture.bookingID == b.ID,
		})
	}
	return items
}

// draftBooking turns a draft into the booking it would create.
func (e *Engine) draftBooking(d Draft) booking.Booking {
	startIdx, endIdx := d.Range()
	b := booking.Booking{
		ID:      "draft",
		OwnerID: d.OwnerID,
		Title:   e.cfg.DefaultTitle,
		Start:   dateutil.DateOfDayIndex(e.cfg.Year, startIdx),
		End:     dateutil.DateOfDayIndex(e.cfg.Year, endIdx),
		Lane:    d.Lane,
		Kind:    booking.KindRegular,
	}
	if m, ok := e.Member(d.OwnerID); ok {
		b.Color = m.Color
	}
	if d.Mode == ModeLeaveCreate {
		b.Title = e.cfg.LeaveTitle
		b.Color = e.cfg.LeaveColor
		b.Kind = booking.KindLeave
	}
	return b
}

// dayDelta is the number of calendar days between the days under two x
// positions. Hidden months have no columns, so a column delta can span them.
func (e *Engine) dayDelta(fromX, toX float64) int {
	return e.view.ClampedDayAt(toX) - e.view.ClampedDayAt(fromX)
}

func (e *Engine) clampDay(idx int) int {
	return min(max(idx, 0), dateutil.DaysInYear(e.cfg.Year)-1)
}

// clampShift limits a day shift so the booking still starts inside the year.
func (e *Engine) clampShift(b booking.Booking, days int) int {
	start := dateutil.DayIndex(b.Start, e.cfg.Year)
	lo := -start
	hi := dateutil.DaysInYear(e.cfg.Year) - 1 - start
	return min(max(days, lo), hi)
}

// clampToYear keeps a resized booking's start inside the year.
func (e *Engine) clampToYear(f booking.Fields) booking.Fields {
	first := dateutil.YearStart(e.cfg.Year)
	if f.Start.Before(first) {
		f.Start = first
	}
	last := dateutil.DateOfDayIndex(e.cfg.Year, dateutil.DaysInYear(e.cfg.Year)-1)
	if f.Start.After(last) {
		f.Start = last
	}
	if !f.Start.Before(f.End) {
		f.End = dateutil.AddDays(f.Start, 1)
	}
	return f
}
