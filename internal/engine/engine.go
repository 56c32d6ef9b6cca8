// Package engine drives the interactive timeline: pointer gestures, optimistic
// writes with rollback, lane management and undo/redo replay.
//
// An Engine is owned by a single event loop. It is not safe for concurrent
// use; backend completions must be delivered back to the owning loop by the
// Executor.
package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/javiermolinar/rota/internal/booking"
	"github.com/javiermolinar/rota/internal/dateutil"
	"github.com/javiermolinar/rota/internal/history"
	"github.com/javiermolinar/rota/internal/lanes"
	"github.com/javiermolinar/rota/internal/logging"
	"github.com/javiermolinar/rota/internal/timeline"
)

// Engine errors.
var (
	ErrGestureActive   = errors.New("another gesture is in progress")
	ErrNoGesture       = errors.New("no gesture in progress")
	ErrUnknownOwner    = errors.New("unknown owner")
	ErrSameOwner       = errors.New("booking already belongs to that owner")
	ErrOwnerChange     = errors.New("use transfer to change the owner")
	ErrNothingToUndo   = errors.New("nothing to undo")
	ErrNothingToRedo   = errors.New("nothing to redo")
	ErrOutsideYear     = errors.New("booking must start inside the displayed year")
	ErrInvalidReplay   = errors.New("history entry no longer applies")
	ErrSnapshotMissing = errors.New("no snapshot loaded")
)

// Default values used when Config leaves them empty.
const (
	DefaultTitle      = "New booking"
	DefaultLeaveTitle = "Leave"
	DefaultCellHeight = 1.0
)

// Config holds the view and behaviour settings of an Engine.
type Config struct {
	Year         int
	Zoom         float64
	ColumnScale  float64
	CellWidth    float64 // width of one day at zoom 1, scale 1
	CellHeight   float64 // height of one lane
	HiddenMonths []int

	DefaultTitle string
	LeaveTitle   string
	LeaveColor   string

	HistoryMax int
	EdgeWidth  float64 // resize handle width; defaults to a third of a day
}

// Engine owns the local booking collection and applies every change to it
// before the backend confirms.
type Engine struct {
	store   booking.Store
	exec    Executor
	log     logging.Logger
	history *history.Manager
	cfg     Config

	bookings     *booking.Collection
	lanes        *lanes.Registry
	members      []booking.Member
	pendingLanes map[string]int

	view   *timeline.View
	layout *timeline.Layout

	gesture *gesture
	lastErr error
}

// New creates an Engine. exec decides where backend writes run; pass
// NewSyncExecutor for blocking callers.
func New(store booking.Store, exec Executor, log logging.Logger, cfg Config) *Engine {
	if log == nil {
		log = logging.Nop()
	}
	if cfg.Year == 0 {
		cfg.Year = dateutil.Today().Year()
	}
	if cfg.Zoom <= 0 {
		cfg.Zoom = 1
	}
	if cfg.ColumnScale <= 0 {
		cfg.ColumnScale = 1
	}
	if cfg.CellWidth <= 0 {
		cfg.CellWidth = timeline.BaseCellWidth
	}
	if cfg.CellHeight <= 0 {
		cfg.CellHeight = DefaultCellHeight
	}
	if cfg.DefaultTitle == "" {
		cfg.DefaultTitle = DefaultTitle
	}
	if cfg.LeaveTitle == "" {
		cfg.LeaveTitle = DefaultLeaveTitle
	}

	e := &Engine{
		store:        store,
		exec:         exec,
		log:          log.With("component", "engine"),
		history:      history.NewManager(cfg.HistoryMax),
		cfg:          cfg,
		bookings:     booking.NewCollection(nil),
		lanes:        lanes.NewRegistry(),
		pendingLanes: make(map[string]int),
	}
	e.view = timeline.NewView(e.mapper(), timeline.HideMonths(cfg.HiddenMonths...), cfg.CellHeight)
	e.rebuildLayout()
	return e
}

func (e *Engine) mapper() timeline.Mapper {
	m := timeline.NewMapper(e.cfg.Year, e.cfg.Zoom, e.cfg.ColumnScale)
	m.BaseWidth = e.cfg.CellWidth
	return m
}

// ApplySnapshot replaces local state with a backend snapshot. Bookings and
// lane counts with writes still in flight keep their local values.
// Snapshots for another year are ignored.
func (e *Engine) ApplySnapshot(s booking.Snapshot) {
	if s.Year != 0 && s.Year != e.cfg.Year {
		e.log.Debug(context.Background(), "ignoring snapshot for another year", "year", s.Year)
		return
	}

	members := slices.Clone(s.Members)
	slices.SortStableFunc(members, func(a, b booking.Member) int { return a.Position - b.Position })
	e.members = members

	e.bookings.Replace(s.Bookings)

	known := map[string]bool{lanes.Shared: true}
	if e.pendingLanes[lanes.Shared] == 0 {
		e.lanes.Set(lanes.Shared, s.SharedLanes)
	}
	for _, m := range members {
		known[m.ID] = true
		if e.pendingLanes[m.ID] == 0 {
			e.lanes.Set(m.ID, m.LaneCount)
		}
	}
	// Never let stored data sit outside the lanes we draw.
	for owner := range known {
		if top := e.bookings.MaxLane(owner); top >= e.lanes.Count(owner) {
			e.lanes.Set(owner, top+1)
		}
	}

	if e.gesture != nil && e.gesture.bookingID != "" {
		if _, ok := e.bookings.Get(e.gesture.bookingID); !ok {
			e.gesture = nil
		}
	}
	e.rebuildLayout()
}

func (e *Engine) rebuildLayout() {
	ids := make([]string, 0, len(e.members))
	for _, m := range e.members {
		ids = append(ids, m.ID)
	}
	e.layout = timeline.NewLayout(ids, e.lanes.Count, true)
}

// Year returns the displayed year.
func (e *Engine) Year() int {
	return e.cfg.Year
}

// Members returns the member directory in display order.
func (e *Engine) Members() []booking.Member {
	return slices.Clone(e.members)
}

// Member looks up a member by ID.
func (e *Engine) Member(id string) (booking.Member, bool) {
	for _, m := range e.members {
		if m.ID == id {
			return m, true
		}
	}
	return booking.Member{}, false
}

// Bookings returns every local booking.
func (e *Engine) Bookings() []booking.Booking {
	return e.bookings.All()
}

// Booking returns one booking by ID.
func (e *Engine) Booking(id string) (booking.Booking, bool) {
	return e.bookings.Get(id)
}

// LaneCount returns the number of lanes of owner.
func (e *Engine) LaneCount(owner string) int {
	return e.lanes.Count(owner)
}

// View returns the current geometry view.
func (e *Engine) View() *timeline.View {
	return e.view
}

// Layout returns the current row layout.
func (e *Engine) Layout() *timeline.Layout {
	return e.layout
}

// SetZoom changes the zoom factor.
func (e *Engine) SetZoom(zoom float64) {
	if zoom <= 0 {
		return
	}
	e.cfg.Zoom = zoom
	e.view.SetMapper(e.mapper())
}

// Zoom returns the zoom factor.
func (e *Engine) Zoom() float64 {
	return e.cfg.Zoom
}

// SetColumnScale changes the column width multiplier.
func (e *Engine) SetColumnScale(scale float64) {
	if scale <= 0 {
		return
	}
	e.cfg.ColumnScale = scale
	e.view.SetMapper(e.mapper())
}

// ColumnScale returns the column width multiplier.
func (e *Engine) ColumnScale() float64 {
	return e.cfg.ColumnScale
}

// SetVisibility replaces the month visibility map.
func (e *Engine) SetVisibility(v timeline.Visibility) {
	e.view.SetVisibility(v)
}

// CanUndo returns true if there is something to undo.
func (e *Engine) CanUndo() bool {
	return e.history.CanUndo()
}

// CanRedo returns true if there is something to redo.
func (e *Engine) CanRedo() bool {
	return e.history.CanRedo()
}

// History exposes the history stacks for display.
func (e *Engine) History() *history.Manager {
	return e.history
}

// IsPending reports whether a booking has unconfirmed writes.
func (e *Engine) IsPending(id string) bool {
	return e.bookings.IsPending(id)
}

// LastError returns and clears the most recent backend failure.
func (e *Engine) LastError() error {
	err := e.lastErr
	e.lastErr = nil
	return err
}

func (e *Engine) knownOwner(owner string) bool {
	if owner == lanes.Shared {
		return true
	}
	_, ok := e.Member(owner)
	return ok
}

// write runs a backend call through the executor. rollback restores local
// state on failure; onSuccess runs after the backend confirmed.
func (e *Engine) write(name, id string, run func(ctx context.Context) error, rollback, onSuccess func()) {
	e.exec.Go(Op{
		Name: name,
		ID:   id,
		Run:  run,
		Done: func(err error) {
			if err != nil {
				if rollback != nil {
					rollback()
				}
				e.lastErr = fmt.Errorf("%s %s: %w", name, id, err)
				e.log.Error(context.Background(), "backend write failed", "op", name, "id", id, "error", err)
				e.rebuildLayout()
				return
			}
			if onSuccess != nil {
				onSuccess()
			}
		},
	})
}

// collides reports whether b overlaps another booking in its scope.
func (e *Engine) collides(b booking.Booking) bool {
	candidates := e.bookings.ForOwner(b.OwnerID)
	return booking.HasCollision(b, candidates)
}

func (e *Engine) inYear(f booking.Fields) bool {
	start := dateutil.DayIndex(f.Start, e.cfg.Year)
	return start >= 0 && start < dateutil.DaysInYear(e.cfg.Year)
}
