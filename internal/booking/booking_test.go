package booking

import (
	"errors"
	"testing"
	"time"

	"github.com/javiermolinar/rota/internal/dateutil"
)

// day returns January 1st 2025 plus n days.
func day(n int) time.Time {
	return dateutil.DateOfDayIndex(2025, n)
}

func mk(id, owner string, lane, start, end int) Booking {
	return Booking{
		ID:      id,
		OwnerID: owner,
		Title:   id,
		Start:   day(start),
		End:     day(end),
		Lane:    lane,
		Kind:    KindRegular,
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		start   int
		end     int
		lane    int
		wantErr error
	}{
		{"valid", "Onboarding", 3, 5, 0, nil},
		{"one day", "Review", 3, 4, 1, nil},
		{"empty title", "  ", 3, 5, 0, ErrEmptyTitle},
		{"zero length", "Trip", 3, 3, 0, ErrEndBeforeStart},
		{"reversed", "Trip", 5, 3, 0, ErrEndBeforeStart},
		{"negative lane", "Trip", 3, 5, -1, ErrNegativeLane},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b, err := New("m1", tc.title, day(tc.start), day(tc.end), tc.lane)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("New() error = %v, want %v", err, tc.wantErr)
			}
			if err != nil {
				return
			}
			if b.ID == "" {
				t.Error("expected generated ID")
			}
			if b.Kind != KindRegular {
				t.Errorf("expected regular kind, got %s", b.Kind)
			}
		})
	}
}

func TestBooking_Days(t *testing.T) {
	b := mk("a", "m1", 0, 5, 9)
	if got := b.Days(); got != 4 {
		t.Errorf("Days() = %d, want 4", got)
	}
}

func TestBooking_FieldsRoundTrip(t *testing.T) {
	b := mk("a", "m1", 2, 5, 9)
	b.Color = "#ff0000"
	b.Link = "https://example.com"

	f := b.Fields()
	f.Title = "renamed"
	f.Lane = 0

	got := b.WithFields(f)
	if got.ID != "a" {
		t.Errorf("WithFields must keep ID, got %q", got.ID)
	}
	if got.Title != "renamed" || got.Lane != 0 {
		t.Errorf("fields not applied: %+v", got)
	}
	if b.Title != "a" {
		t.Error("WithFields must not mutate the receiver")
	}
}

func TestHasCollision_HalfOpenAdjacency(t *testing.T) {
	tests := []struct {
		name     string
		existing Booking
		want     bool
	}{
		{"ends where candidate starts", mk("x", "m1", 0, 5, 10), false},
		{"ends one day after candidate starts", mk("x", "m1", 0, 5, 11), true},
		{"starts where candidate ends", mk("x", "m1", 0, 15, 20), false},
		{"contains candidate", mk("x", "m1", 0, 0, 30), true},
		{"different lane", mk("x", "m1", 1, 0, 30), false},
		{"different owner", mk("x", "m2", 0, 0, 30), false},
		{"shared booking", mk("x", "", 0, 0, 30), false},
	}

	candidate := mk("c", "m1", 0, 10, 15)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := HasCollision(candidate, []Booking{tc.existing}); got != tc.want {
				t.Errorf("HasCollision = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestHasCollision_Symmetric(t *testing.T) {
	pairs := [][2]Booking{
		{mk("a", "m1", 0, 0, 5), mk("b", "m1", 0, 4, 8)},
		{mk("a", "m1", 0, 0, 5), mk("b", "m1", 0, 5, 8)},
		{mk("a", "m1", 1, 3, 4), mk("b", "m1", 1, 0, 10)},
		{mk("a", "", 2, 3, 4), mk("b", "", 2, 3, 4)},
		{mk("a", "", 2, 3, 4), mk("b", "", 2, 4, 6)},
	}
	for i, p := range pairs {
		ab := HasCollision(p[0], []Booking{p[1]})
		ba := HasCollision(p[1], []Booking{p[0]})
		if ab != ba {
			t.Errorf("pair %d: HasCollision(A,[B])=%v but HasCollision(B,[A])=%v", i, ab, ba)
		}
	}
}

func TestHasCollision_IgnoresSelf(t *testing.T) {
	b := mk("a", "m1", 0, 0, 5)
	if HasCollision(b, []Booking{b}) {
		t.Error("a booking must never collide with itself")
	}

	moved := b
	moved.Start, moved.End = day(2), day(7)
	if HasCollision(moved, []Booking{b}) {
		t.Error("a moved booking must not collide with its own previous position")
	}
}

func TestHasCollision_SharedScopeUsesLane(t *testing.T) {
	candidate := mk("c", "", 1, 0, 3)
	all := []Booking{
		mk("x", "", 0, 0, 3),
		mk("y", "m1", 1, 0, 3),
	}
	if HasCollision(candidate, all) {
		t.Error("shared booking should only collide with shared bookings in the same lane")
	}

	all = append(all, mk("z", "", 1, 2, 4))
	if !HasCollision(candidate, all) {
		t.Error("expected collision with shared booking in lane 1")
	}
}

func TestFindCollision_ReturnsConflict(t *testing.T) {
	candidate := mk("c", "m1", 0, 3, 5)
	all := []Booking{mk("x", "m1", 0, 0, 2), mk("y", "m1", 0, 4, 6)}

	got, found := FindCollision(candidate, all, OwnerScope{})
	if !found {
		t.Fatal("expected a collision")
	}
	if got.ID != "y" {
		t.Errorf("expected collision with y, got %s", got.ID)
	}
}
