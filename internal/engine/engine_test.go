package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javiermolinar/rota/internal/booking"
	"github.com/javiermolinar/rota/internal/dateutil"
	"github.com/javiermolinar/rota/internal/lanes"
	"github.com/javiermolinar/rota/internal/logging"
	"github.com/javiermolinar/rota/internal/timeline"
)

const testYear = 2025

var errBackend = errors.New("backend unavailable")

type laneCall struct {
	owner string
	n     int
}

type fakeStore struct {
	created []booking.Booking
	updated map[string]booking.Fields
	deleted []string
	lanes   []laneCall

	fail     map[string]error // keyed by method name
	onCreate func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{updated: make(map[string]booking.Fields), fail: make(map[string]error)}
}

func (s *fakeStore) CreateBooking(_ context.Context, b booking.Booking) error {
	if s.onCreate != nil {
		s.onCreate()
	}
	if err := s.fail["create"]; err != nil {
		return err
	}
	s.created = append(s.created, b)
	return nil
}

func (s *fakeStore) UpdateBooking(_ context.Context, id string, f booking.Fields) error {
	if err := s.fail["update"]; err != nil {
		return err
	}
	s.updated[id] = f
	return nil
}

func (s *fakeStore) DeleteBooking(_ context.Context, id string) error {
	if err := s.fail["delete"]; err != nil {
		return err
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *fakeStore) SetLaneCount(_ context.Context, owner string, n int) error {
	if err := s.fail["lanes"]; err != nil {
		return err
	}
	s.lanes = append(s.lanes, laneCall{owner, n})
	return nil
}

// queueExecutor holds ops until flush, like an event loop between messages.
type queueExecutor struct {
	ops []Op
}

func (q *queueExecutor) Go(op Op) {
	q.ops = append(q.ops, op)
}

func (q *queueExecutor) flush() {
	ops := q.ops
	q.ops = nil
	for _, op := range ops {
		op.Done(op.Run(context.Background()))
	}
}

func mk(id, owner string, lane, start, end int) booking.Booking {
	return booking.Booking{
		ID:      id,
		OwnerID: owner,
		Title:   id,
		Lane:    lane,
		Start:   dateutil.DateOfDayIndex(testYear, start),
		End:     dateutil.DateOfDayIndex(testYear, end),
		Kind:    booking.KindRegular,
	}
}

func testConfig() Config {
	return Config{
		Year:       testYear,
		Zoom:       1,
		CellWidth:  3,
		CellHeight: 1,
		LeaveTitle: "Vacation",
		LeaveColor: "#00aa00",
	}
}

func snapshot(laneCounts map[string]int, bookings ...booking.Booking) booking.Snapshot {
	s := booking.Snapshot{Year: testYear, SharedLanes: 1, Bookings: bookings}
	for i, id := range []string{"ana", "bob"} {
		n := laneCounts[id]
		if n == 0 {
			n = 1
		}
		s.Members = append(s.Members, booking.Member{ID: id, Name: id, Color: "#" + id, LaneCount: n, Position: i})
	}
	return s
}

func newTestEngine(t *testing.T, s booking.Snapshot) (*Engine, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	e := New(store, NewSyncExecutor(context.Background()), logging.Nop(), testConfig())
	e.ApplySnapshot(s)
	return e, store
}

// rowY returns the vertical centre of an owner's lane.
func rowY(t *testing.T, e *Engine, owner string, lane int) float64 {
	t.Helper()
	row, ok := e.Layout().RowOf(owner, lane)
	require.True(t, ok, "row for %s/%d", owner, lane)
	return float64(row) + 0.5
}

// dayX returns an x inside the body of a calendar day.
func dayX(n int) float64 {
	return float64(n)*3 + 1.5
}

func TestApplySnapshot_Layout(t *testing.T) {
	e, _ := newTestEngine(t, snapshot(map[string]int{"ana": 2}))

	// shared(1) + ana(2) + bob(1)
	assert.Equal(t, 4, e.Layout().Len())
	assert.Equal(t, 2, e.LaneCount("ana"))
	assert.Equal(t, 1, e.LaneCount(lanes.Shared))
}

func TestApplySnapshot_GrowsLanesForStoredBookings(t *testing.T) {
	e, _ := newTestEngine(t, snapshot(nil, mk("a", "ana", 2, 0, 3)))
	assert.Equal(t, 3, e.LaneCount("ana"))
}

func TestApplySnapshot_IgnoresOtherYear(t *testing.T) {
	e, _ := newTestEngine(t, snapshot(nil, mk("a", "ana", 0, 0, 3)))
	other := snapshot(nil)
	other.Year = testYear + 1
	e.ApplySnapshot(other)
	assert.Len(t, e.Bookings(), 1)
}

func TestCreateGesture(t *testing.T) {
	e, store := newTestEngine(t, snapshot(nil))
	y := rowY(t, e, "ana", 0)

	store.onCreate = func() {
		assert.Equal(t, StateIdle, e.State(), "draft must be cleared before the write")
	}

	require.NoError(t, e.PointerDown(dayX(5), y, Modifiers{Create: true}))
	assert.Equal(t, StateCreating, e.State())

	e.PointerMove(dayX(8), y)
	d, ok := e.Draft()
	require.True(t, ok)
	assert.Equal(t, 5, d.Anchor)
	assert.Equal(t, 8, d.Current)

	p, ok := e.Preview()
	require.True(t, ok)
	require.Len(t, p.Rects, 1)
	assert.Equal(t, 4*3.0, p.Rects[0].W)

	require.NoError(t, e.PointerUp())

	require.Len(t, store.created, 1)
	b := store.created[0]
	assert.Equal(t, "ana", b.OwnerID)
	assert.True(t, b.Start.Equal(dateutil.DateOfDayIndex(testYear, 5)))
	assert.True(t, b.End.Equal(dateutil.DateOfDayIndex(testYear, 9)))
	assert.Equal(t, DefaultTitle, b.Title)
	assert.Equal(t, "#ana", b.Color)
	assert.Equal(t, 1, e.History().UndoCount())
	assert.Equal(t, StateIdle, e.State())

	local, ok := e.Booking(b.ID)
	require.True(t, ok)
	assert.Equal(t, 4, local.Days())
}

func TestCreateGesture_SingleDayAndBackwards(t *testing.T) {
	e, store := newTestEngine(t, snapshot(nil))
	y := rowY(t, e, "bob", 0)

	require.NoError(t, e.PointerDown(dayX(10), y, Modifiers{Create: true}))
	require.NoError(t, e.PointerUp())
	require.Len(t, store.created, 1)
	assert.Equal(t, 1, store.created[0].Days())

	require.NoError(t, e.PointerDown(dayX(30), y, Modifiers{Create: true}))
	e.PointerMove(dayX(27), y)
	require.NoError(t, e.PointerUp())
	require.Len(t, store.created, 2)
	assert.True(t, store.created[1].Start.Equal(dateutil.DateOfDayIndex(testYear, 27)))
	assert.Equal(t, 4, store.created[1].Days())
}

func TestCreateGesture_ClampsToYear(t *testing.T) {
	e, _ := newTestEngine(t, snapshot(nil))
	y := rowY(t, e, "ana", 0)

	require.NoError(t, e.PointerDown(dayX(360), y, Modifiers{Create: true}))
	e.PointerMove(1e6, y)
	d, _ := e.Draft()
	assert.Equal(t, 364, d.Current)

	e.PointerMove(-50, y)
	d, _ = e.Draft()
	assert.Equal(t, 0, d.Current)
	e.Cancel()
}

func TestCreateGesture_Leave(t *testing.T) {
	e, store := newTestEngine(t, snapshot(nil))

	require.NoError(t, e.PointerDown(dayX(3), rowY(t, e, "ana", 0), Modifiers{Leave: true}))
	d, _ := e.Draft()
	assert.Equal(t, ModeLeaveCreate, d.Mode)
	require.NoError(t, e.PointerUp())

	require.Len(t, store.created, 1)
	assert.Equal(t, "Vacation", store.created[0].Title)
	assert.Equal(t, "#00aa00", store.created[0].Color)
	assert.Equal(t, booking.KindLeave, store.created[0].Kind)
}

func TestCreateGesture_CollidingDraftIsRejected(t *testing.T) {
	e, store := newTestEngine(t, snapshot(nil, mk("a", "ana", 0, 10, 12)))
	y := rowY(t, e, "ana", 0)

	require.NoError(t, e.PointerDown(dayX(8), y, Modifiers{Create: true}))
	e.PointerMove(dayX(11), y)
	assert.True(t, e.Colliding())

	err := e.PointerUp()
	assert.ErrorIs(t, err, booking.ErrCollision)
	assert.Empty(t, store.created)
	assert.False(t, e.CanUndo())
}

func TestPlainClickOnEmptyCellDoesNothing(t *testing.T) {
	e, _ := newTestEngine(t, snapshot(nil))
	require.NoError(t, e.PointerDown(dayX(3), rowY(t, e, "ana", 0), Modifiers{}))
	assert.Equal(t, StateIdle, e.State())
}

func TestHitTest(t *testing.T) {
	e, _ := newTestEngine(t, snapshot(nil, mk("a", "ana", 0, 0, 3)))
	y := rowY(t, e, "ana", 0)

	tests := []struct {
		x    float64
		zone Zone
	}{
		{0.5, ZoneLeftEdge},
		{4, ZoneBody},
		{8.5, ZoneRightEdge},
		{10, ZoneEmpty},
		{-1, ZoneNone},
	}
	for _, tc := range tests {
		hit := e.HitTest(tc.x, y)
		assert.Equal(t, tc.zone, hit.Zone, "x=%v", tc.x)
	}
	assert.Equal(t, ZoneNone, e.HitTest(4, 100).Zone)
}

func TestDrag_BlockedByCollision(t *testing.T) {
	e, store := newTestEngine(t, snapshot(nil,
		mk("a", "ana", 0, 0, 3),
		mk("b", "ana", 0, 5, 8),
	))
	y := rowY(t, e, "ana", 0)

	require.NoError(t, e.PointerDown(4, y, Modifiers{}))
	require.Equal(t, StateDragging, e.State())

	e.PointerMove(4+4*3, y)
	assert.True(t, e.Colliding())

	err := e.PointerUp()
	assert.ErrorIs(t, err, booking.ErrCollision)
	assert.Empty(t, store.updated, "no backend call")
	assert.False(t, e.CanUndo())

	a, _ := e.Booking("a")
	assert.True(t, a.Start.Equal(dateutil.DateOfDayIndex(testYear, 0)), "no local change")
}

func TestDrag_MovesAcrossDaysAndLanes(t *testing.T) {
	e, store := newTestEngine(t, snapshot(map[string]int{"ana": 2},
		mk("a", "ana", 0, 0, 3),
		mk("b", "ana", 0, 5, 8),
	))
	y := rowY(t, e, "ana", 0)

	require.NoError(t, e.PointerDown(4, y, Modifiers{}))
	// four days right, one lane down, then far below the owner's lanes
	e.PointerMove(4+4*3, y+5)
	assert.False(t, e.Colliding())
	p, _ := e.Preview()
	assert.Equal(t, 1, p.Fields.Lane, "lane clamped to the owner's lanes")
	require.NoError(t, e.PointerUp())

	a, _ := e.Booking("a")
	assert.Equal(t, 1, a.Lane)
	assert.True(t, a.Start.Equal(dateutil.DateOfDayIndex(testYear, 4)))
	assert.Equal(t, 3, a.Days())
	assert.Contains(t, store.updated, "a")
	assert.Equal(t, 1, e.History().UndoCount())
}

func TestDrag_NoMovementNoWrite(t *testing.T) {
	e, store := newTestEngine(t, snapshot(nil, mk("a", "ana", 0, 0, 3)))
	y := rowY(t, e, "ana", 0)

	require.NoError(t, e.PointerDown(4, y, Modifiers{}))
	e.PointerMove(4.5, y)
	require.NoError(t, e.PointerUp())
	assert.Empty(t, store.updated)
	assert.False(t, e.CanUndo())
}

func TestResize(t *testing.T) {
	e, store := newTestEngine(t, snapshot(nil, mk("a", "ana", 0, 10, 13)))
	y := rowY(t, e, "ana", 0)
	right := 13*3 - 0.5

	require.NoError(t, e.PointerDown(right, y, Modifiers{}))
	require.Equal(t, StateResizing, e.State())
	e.PointerMove(right+2*3, y)
	require.NoError(t, e.PointerUp())

	a, _ := e.Booking("a")
	assert.True(t, a.Start.Equal(dateutil.DateOfDayIndex(testYear, 10)), "opposite edge fixed")
	assert.Equal(t, 5, a.Days())
	assert.Contains(t, store.updated, "a")
}

func TestResize_MinimumOneDay(t *testing.T) {
	e, _ := newTestEngine(t, snapshot(nil, mk("a", "ana", 0, 10, 13)))
	y := rowY(t, e, "ana", 0)
	left := 10*3 + 0.5

	require.NoError(t, e.PointerDown(left, y, Modifiers{}))
	require.Equal(t, StateResizing, e.State())
	e.PointerMove(left+20*3, y)
	p, _ := e.Preview()
	assert.Equal(t, 1, p.Fields.Days())
	require.NoError(t, e.PointerUp())

	a, _ := e.Booking("a")
	assert.True(t, a.Start.Equal(dateutil.DateOfDayIndex(testYear, 12)))
	assert.True(t, a.End.Equal(dateutil.DateOfDayIndex(testYear, 13)))
}

func TestGestureExclusive(t *testing.T) {
	e, store := newTestEngine(t, snapshot(nil, mk("a", "ana", 0, 0, 3)))
	y := rowY(t, e, "ana", 0)

	require.NoError(t, e.PointerDown(4, y, Modifiers{}))
	assert.ErrorIs(t, e.PointerDown(dayX(20), y, Modifiers{Create: true}), ErrGestureActive)
	assert.ErrorIs(t, e.Undo(), ErrGestureActive)

	e.PointerMove(20, y)
	e.PointerLeave()
	assert.Equal(t, StateIdle, e.State())
	assert.NoError(t, e.PointerUp())
	assert.Empty(t, store.updated)
	assert.False(t, e.CanUndo())
}

func TestUpdate_RollbackOnFailure(t *testing.T) {
	e, store := newTestEngine(t, snapshot(nil, mk("a", "ana", 0, 0, 3)))
	store.fail["update"] = errBackend

	require.NoError(t, e.Move("a", 2, 0))

	a, _ := e.Booking("a")
	assert.True(t, a.Start.Equal(dateutil.DateOfDayIndex(testYear, 0)), "rolled back")
	assert.False(t, e.IsPending("a"))
	assert.False(t, e.CanUndo())
	assert.ErrorIs(t, e.LastError(), errBackend)
	assert.NoError(t, e.LastError(), "LastError clears")
}

func TestCreate_RollbackOnFailure(t *testing.T) {
	e, store := newTestEngine(t, snapshot(nil))
	store.fail["create"] = errBackend

	b, err := e.Create(NewBooking{
		OwnerID: "ana",
		Title:   "offsite",
		Start:   dateutil.DateOfDayIndex(testYear, 40),
		End:     dateutil.DateOfDayIndex(testYear, 42),
	})
	require.NoError(t, err)

	_, ok := e.Booking(b.ID)
	assert.False(t, ok)
	assert.False(t, e.CanUndo())
}

func TestCreate_Validation(t *testing.T) {
	e, _ := newTestEngine(t, snapshot(nil, mk("a", "ana", 0, 10, 20)))

	tests := []struct {
		name string
		nb   NewBooking
		want error
	}{
		{"empty title", NewBooking{OwnerID: "ana", Start: dateutil.DateOfDayIndex(testYear, 1), End: dateutil.DateOfDayIndex(testYear, 2)}, booking.ErrEmptyTitle},
		{"unknown owner", NewBooking{OwnerID: "zed", Title: "x", Start: dateutil.DateOfDayIndex(testYear, 1), End: dateutil.DateOfDayIndex(testYear, 2)}, ErrUnknownOwner},
		{"lane out of range", NewBooking{OwnerID: "ana", Title: "x", Lane: 1, Start: dateutil.DateOfDayIndex(testYear, 1), End: dateutil.DateOfDayIndex(testYear, 2)}, lanes.ErrInvalidLane},
		{"collision", NewBooking{OwnerID: "ana", Title: "x", Start: dateutil.DateOfDayIndex(testYear, 15), End: dateutil.DateOfDayIndex(testYear, 25)}, booking.ErrCollision},
		{"other year", NewBooking{OwnerID: "ana", Title: "x", Start: dateutil.DateOfDayIndex(testYear, 400), End: dateutil.DateOfDayIndex(testYear, 401)}, ErrOutsideYear},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.Create(tc.nb)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestSharedTrackScope(t *testing.T) {
	e, _ := newTestEngine(t, snapshot(nil, mk("s", lanes.Shared, 0, 10, 20)))

	// a member booking on the same days does not compete with the shared track
	_, err := e.Create(NewBooking{OwnerID: "ana", Title: "x", Start: dateutil.DateOfDayIndex(testYear, 12), End: dateutil.DateOfDayIndex(testYear, 14)})
	require.NoError(t, err)

	_, err = e.Create(NewBooking{OwnerID: lanes.Shared, Title: "y", Start: dateutil.DateOfDayIndex(testYear, 12), End: dateutil.DateOfDayIndex(testYear, 14)})
	assert.ErrorIs(t, err, booking.ErrCollision)
}

func TestUpdate_Fields(t *testing.T) {
	e, store := newTestEngine(t, snapshot(nil, mk("a", "ana", 0, 0, 3)))

	a, _ := e.Booking("a")
	f := a.Fields()
	f.Title = "  Planning  "
	f.Link = "https://example.com/doc"
	require.NoError(t, e.Update("a", f))

	got, _ := e.Booking("a")
	assert.Equal(t, "Planning", got.Title)
	assert.Equal(t, "Planning", store.updated["a"].Title)
	entry, ok := e.History().PeekUndo()
	require.True(t, ok)
	assert.Equal(t, "field-update", entry.Kind)

	f.OwnerID = "bob"
	assert.ErrorIs(t, e.Update("a", f), ErrOwnerChange)
	assert.ErrorIs(t, e.Update("missing", f), booking.ErrBookingNotFound)
}

func TestDelete_UndoRedo(t *testing.T) {
	e, store := newTestEngine(t, snapshot(nil, mk("a", "ana", 0, 0, 3)))

	require.NoError(t, e.Delete("a"))
	_, ok := e.Booking("a")
	assert.False(t, ok)
	assert.Equal(t, []string{"a"}, store.deleted)

	require.NoError(t, e.Undo())
	_, ok = e.Booking("a")
	assert.True(t, ok)
	require.Len(t, store.created, 1)
	assert.Equal(t, "a", store.created[0].ID)

	require.NoError(t, e.Redo())
	_, ok = e.Booking("a")
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "a"}, store.deleted)
}

func TestUndoRedo_Move(t *testing.T) {
	e, store := newTestEngine(t, snapshot(nil, mk("a", "ana", 0, 0, 3)))

	require.NoError(t, e.Move("a", 5, 0))
	require.NoError(t, e.Undo())
	a, _ := e.Booking("a")
	assert.True(t, a.Start.Equal(dateutil.DateOfDayIndex(testYear, 0)))
	assert.True(t, store.updated["a"].Start.Equal(dateutil.DateOfDayIndex(testYear, 0)))
	assert.True(t, e.CanRedo())
	assert.False(t, e.CanUndo())

	require.NoError(t, e.Redo())
	a, _ = e.Booking("a")
	assert.True(t, a.Start.Equal(dateutil.DateOfDayIndex(testYear, 5)))

	assert.ErrorIs(t, e.Redo(), ErrNothingToRedo)
	require.NoError(t, e.Undo())
	assert.ErrorIs(t, e.Undo(), ErrNothingToUndo)
}

func TestUndo_BackendFailureRestoresStacks(t *testing.T) {
	e, store := newTestEngine(t, snapshot(nil, mk("a", "ana", 0, 0, 3)))

	require.NoError(t, e.Move("a", 5, 0))
	store.fail["update"] = errBackend

	assert.ErrorIs(t, e.Undo(), errBackend, "a synchronous failure is returned")
	a, _ := e.Booking("a")
	assert.True(t, a.Start.Equal(dateutil.DateOfDayIndex(testYear, 5)), "local change rolled back")
	assert.True(t, e.CanUndo(), "entry back on the undo stack")
	assert.False(t, e.CanRedo())
	assert.NoError(t, e.LastError())

	// redo fails the same way
	store.fail["update"] = nil
	require.NoError(t, e.Undo())
	store.fail["update"] = errBackend
	assert.ErrorIs(t, e.Redo(), errBackend)
	assert.True(t, e.CanRedo(), "entry back on the redo stack")
	a, _ = e.Booking("a")
	assert.True(t, a.Start.Equal(dateutil.DateOfDayIndex(testYear, 0)))
}

func TestUndo_AsyncFailureUsesLastError(t *testing.T) {
	store := newFakeStore()
	exec := &queueExecutor{}
	e := New(store, exec, logging.Nop(), testConfig())
	e.ApplySnapshot(snapshot(nil, mk("a", "ana", 0, 0, 3)))

	require.NoError(t, e.Move("a", 5, 0))
	exec.flush()
	store.fail["update"] = errBackend

	require.NoError(t, e.Undo(), "the write has not run yet")
	exec.flush()
	assert.ErrorIs(t, e.LastError(), errBackend)
	assert.True(t, e.CanUndo())
}

func TestUndo_RejectedReplayKeepsEntry(t *testing.T) {
	e, _ := newTestEngine(t, snapshot(nil, mk("a", "ana", 0, 0, 3)))

	require.NoError(t, e.Move("a", 5, 0))

	// another client takes the original slot
	e.ApplySnapshot(snapshot(nil,
		mk("a", "ana", 0, 5, 8),
		mk("z", "ana", 0, 0, 2),
	))

	err := e.Undo()
	assert.ErrorIs(t, err, ErrInvalidReplay)
	assert.ErrorIs(t, err, booking.ErrCollision)

	entry, ok := e.History().PeekUndo()
	require.True(t, ok)
	assert.Equal(t, "field-update", entry.Kind, "rejected entry stays on the undo stack")
	assert.False(t, e.CanRedo())

	a, _ := e.Booking("a")
	assert.True(t, a.Start.Equal(dateutil.DateOfDayIndex(testYear, 5)))
}

func TestTransfer_ToFullOwnerGrowsLanes(t *testing.T) {
	e, store := newTestEngine(t, snapshot(nil,
		mk("a", "ana", 0, 10, 15),
		mk("b", "bob", 0, 0, 30),
	))

	require.NoError(t, e.Transfer("a", "bob"))

	a, _ := e.Booking("a")
	assert.Equal(t, "bob", a.OwnerID)
	assert.Equal(t, 1, a.Lane)
	assert.Equal(t, 2, e.LaneCount("bob"))
	assert.Equal(t, []laneCall{{"bob", 2}}, store.lanes)
	assert.Equal(t, "bob", store.updated["a"].OwnerID)

	entry, _ := e.History().PeekUndo()
	assert.Equal(t, "transfer", entry.Kind)

	require.NoError(t, e.Undo())
	a, _ = e.Booking("a")
	assert.Equal(t, "ana", a.OwnerID)
	assert.Equal(t, 0, a.Lane)
	assert.Equal(t, 1, e.LaneCount("bob"))
	assert.Equal(t, []laneCall{{"bob", 2}, {"bob", 1}}, store.lanes)

	require.NoError(t, e.Redo())
	assert.Equal(t, 2, e.LaneCount("bob"))
}

func TestTransfer_UsesFreeLane(t *testing.T) {
	e, store := newTestEngine(t, snapshot(map[string]int{"bob": 2},
		mk("a", "ana", 0, 10, 15),
		mk("b", "bob", 0, 0, 30),
	))

	require.NoError(t, e.Transfer("a", "bob"))
	a, _ := e.Booking("a")
	assert.Equal(t, 1, a.Lane)
	assert.Equal(t, 2, e.LaneCount("bob"))
	assert.Empty(t, store.lanes)
}

func TestTransfer_RollbackOnFailure(t *testing.T) {
	e, store := newTestEngine(t, snapshot(nil,
		mk("a", "ana", 0, 10, 15),
		mk("b", "bob", 0, 0, 30),
	))
	store.fail["update"] = errBackend

	require.NoError(t, e.Transfer("a", "bob"))

	a, _ := e.Booking("a")
	assert.Equal(t, "ana", a.OwnerID)
	assert.Equal(t, 0, a.Lane)
	assert.Equal(t, 1, e.LaneCount("bob"))
	assert.False(t, e.CanUndo())
	// the grown lane was written and then restored
	assert.Equal(t, []laneCall{{"bob", 2}, {"bob", 1}}, store.lanes)
}

func TestTransfer_Validation(t *testing.T) {
	e, _ := newTestEngine(t, snapshot(nil, mk("a", "ana", 0, 10, 15)))

	assert.ErrorIs(t, e.Transfer("a", "ana"), ErrSameOwner)
	assert.ErrorIs(t, e.Transfer("a", "zed"), ErrUnknownOwner)
	assert.ErrorIs(t, e.Transfer("nope", "bob"), booking.ErrBookingNotFound)
}

func TestLanes_AddRemove(t *testing.T) {
	e, store := newTestEngine(t, snapshot(nil, mk("a", "ana", 0, 10, 15)))

	require.NoError(t, e.AddLane("ana"))
	assert.Equal(t, 2, e.LaneCount("ana"))
	assert.Equal(t, 4, e.Layout().Len())

	require.NoError(t, e.Move("a", 0, 1))
	assert.ErrorIs(t, e.RemoveLane("ana"), lanes.ErrLaneOccupied)

	require.NoError(t, e.Move("a", 0, -1))
	require.NoError(t, e.RemoveLane("ana"))
	assert.Equal(t, 1, e.LaneCount("ana"))
	assert.ErrorIs(t, e.RemoveLane("ana"), lanes.ErrMinimumLanes)

	require.NoError(t, e.Undo())
	assert.Equal(t, 2, e.LaneCount("ana"))
	assert.Equal(t, []laneCall{{"ana", 2}, {"ana", 1}, {"ana", 2}}, store.lanes)
}

func TestLanes_UndoAddRejectedWhenOccupied(t *testing.T) {
	e, _ := newTestEngine(t, snapshot(nil, mk("a", "ana", 0, 10, 15)))

	require.NoError(t, e.AddLane("bob"))
	_, err := e.Create(NewBooking{OwnerID: "bob", Title: "x", Lane: 1, Start: dateutil.DateOfDayIndex(testYear, 1), End: dateutil.DateOfDayIndex(testYear, 3)})
	require.NoError(t, err)

	// the undone booking reappears from another client
	require.NoError(t, e.Undo())
	e.ApplySnapshot(snapshot(map[string]int{"bob": 2},
		mk("a", "ana", 0, 10, 15),
		mk("x", "bob", 1, 1, 3),
	))

	err = e.Undo()
	assert.ErrorIs(t, err, lanes.ErrLaneOccupied)
	assert.Equal(t, 2, e.LaneCount("bob"))
}

func TestSnapshot_KeepsPendingEdits(t *testing.T) {
	store := newFakeStore()
	exec := &queueExecutor{}
	e := New(store, exec, logging.Nop(), testConfig())
	original := mk("a", "ana", 0, 0, 3)
	e.ApplySnapshot(snapshot(nil, original))

	require.NoError(t, e.Move("a", 4, 0))
	assert.True(t, e.IsPending("a"))

	// a stale snapshot arrives before the write lands
	e.ApplySnapshot(snapshot(nil, original, mk("n", "bob", 0, 1, 2)))
	a, _ := e.Booking("a")
	assert.True(t, a.Start.Equal(dateutil.DateOfDayIndex(testYear, 4)), "local edit survives")
	_, ok := e.Booking("n")
	assert.True(t, ok, "other bookings follow the snapshot")
	assert.False(t, e.CanUndo(), "history waits for the backend")

	exec.flush()
	assert.False(t, e.IsPending("a"))
	assert.True(t, e.CanUndo())

	// a snapshot read before the write committed is older than the local copy
	e.ApplySnapshot(snapshot(nil, original))
	a, _ = e.Booking("a")
	assert.True(t, a.Start.Equal(dateutil.DateOfDayIndex(testYear, 4)), "stale version ignored")
	assert.Equal(t, int64(1), a.Version)

	// once settled, newer snapshots win again
	reverted := original
	reverted.Version = 2
	e.ApplySnapshot(snapshot(nil, reverted))
	a, _ = e.Booking("a")
	assert.True(t, a.Start.Equal(dateutil.DateOfDayIndex(testYear, 0)))
}

func TestSnapshot_KeepsPendingLaneCount(t *testing.T) {
	exec := &queueExecutor{}
	e := New(newFakeStore(), exec, logging.Nop(), testConfig())
	e.ApplySnapshot(snapshot(nil))

	require.NoError(t, e.AddLane("ana"))
	e.ApplySnapshot(snapshot(nil))
	assert.Equal(t, 2, e.LaneCount("ana"))

	exec.flush()
	e.ApplySnapshot(snapshot(map[string]int{"ana": 2}))
	assert.Equal(t, 2, e.LaneCount("ana"))
}

func TestItems_HiddenMonth(t *testing.T) {
	cfg := testConfig()
	cfg.HiddenMonths = []int{2}
	e := New(newFakeStore(), NewSyncExecutor(context.Background()), logging.Nop(), cfg)
	e.ApplySnapshot(snapshot(nil,
		mk("jan", "ana", 0, 27, 34), // Jan 28 - Feb 3
		mk("feb", "bob", 0, 35, 40),
	))

	items := map[string]Item{}
	for _, it := range e.Items() {
		items[it.Booking.ID] = it
	}
	require.Len(t, items["jan"].Rects, 1)
	assert.Equal(t, timeline.Rect{X: 27 * 3, Y: 1, W: 4 * 3, H: 1}, items["jan"].Rects[0])
	assert.Empty(t, items["feb"].Rects)
}

func TestDrag_SkipsHiddenMonth(t *testing.T) {
	cfg := testConfig()
	cfg.HiddenMonths = []int{2}
	store := newFakeStore()
	e := New(store, NewSyncExecutor(context.Background()), logging.Nop(), cfg)
	e.ApplySnapshot(snapshot(nil,
		mk("a", "ana", 0, 28, 29), // Jan 29
		mk("r", "bob", 0, 27, 30), // Jan 28 - Jan 30
	))

	// column 32 shows Mar 2 once February is hidden
	y := rowY(t, e, "ana", 0)
	require.NoError(t, e.PointerDown(dayX(28), y, Modifiers{}))
	require.Equal(t, StateDragging, e.State())
	e.PointerMove(dayX(32), y)
	p, ok := e.Preview()
	require.True(t, ok)
	assert.True(t, p.Fields.Start.Equal(dateutil.Date(testYear, 3, 2)), "preview starts %s", p.Fields.Start)
	assert.NotEmpty(t, p.Rects)
	require.NoError(t, e.PointerUp())

	a, _ := e.Booking("a")
	assert.True(t, a.Start.Equal(dateutil.Date(testYear, 3, 2)), "stored start %s", a.Start)
	assert.Equal(t, a.Start, store.updated["a"].Start)

	// the right edge of Jan 30 pulled onto the Mar 1 column
	y = rowY(t, e, "bob", 0)
	require.NoError(t, e.PointerDown(30*3-0.5, y, Modifiers{}))
	require.Equal(t, StateResizing, e.State())
	e.PointerMove(dayX(31), y)
	require.NoError(t, e.PointerUp())

	r, _ := e.Booking("r")
	assert.True(t, r.Start.Equal(dateutil.Date(testYear, 1, 28)))
	assert.True(t, r.End.Equal(dateutil.Date(testYear, 3, 2)), "end %s", r.End)
}

func TestViewControls(t *testing.T) {
	e, _ := newTestEngine(t, snapshot(nil))

	e.SetZoom(2)
	assert.Equal(t, 6.0, e.View().CellWidth())
	e.SetZoom(-1)
	assert.Equal(t, 2.0, e.Zoom(), "invalid zoom ignored")

	e.SetColumnScale(0.5)
	assert.Equal(t, 3.0, e.View().CellWidth())

	e.SetVisibility(timeline.HideMonths(1))
	assert.Equal(t, 365-31, e.View().Columns())
}
