package integration

import (
	"context"
	"testing"
	"time"

	"github.com/javiermolinar/rota/internal/dateutil"
	"github.com/javiermolinar/rota/internal/engine"
	"github.com/javiermolinar/rota/internal/timeline"
)

// withLocal runs the test with time.Local set to name.
func withLocal(t *testing.T, name string) {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("time zone %s not available: %v", name, err)
	}
	prev := time.Local
	time.Local = loc
	t.Cleanup(func() { time.Local = prev })
}

func TestBookingAcrossDSTStart(t *testing.T) {
	// Clocks in New York went forward on 2025-03-09.
	withLocal(t, "America/New_York")
	repo, _ := openRepo(t)
	alice := addMember(t, repo, "Alice")
	eng := openEngine(t, repo)

	b := create(t, eng, alice, "Trip", "2025-03-08", "2025-03-11", 0)
	if b.Days() != 3 {
		t.Errorf("Days across DST: got %d, want 3", b.Days())
	}

	got, ok := getBooking(t, repo, b.ID)
	if !ok {
		t.Fatal("booking not stored")
	}
	if !got.Start.Equal(b.Start) || !got.End.Equal(b.End) {
		t.Errorf("stored range %v..%v, want %v..%v", got.Start, got.End, b.Start, b.End)
	}
	if got.Start.Hour() != 0 || got.End.Hour() != 0 {
		t.Errorf("stored days are not local midnight: %v, %v", got.Start, got.End)
	}

	if err := eng.Resize(b.ID, engine.EdgeRight, 1); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	got, _ = getBooking(t, repo, b.ID)
	if want := dateutil.Date(2025, time.March, 12); !got.End.Equal(want) {
		t.Errorf("resized end: got %v, want %v", got.End, want)
	}
}

func TestGridAcrossDSTEnd(t *testing.T) {
	// Clocks in Sydney went back on 2025-04-06.
	withLocal(t, "Australia/Sydney")

	m := timeline.NewMapper(testYear, 1, 1)
	before := dateutil.Date(2025, time.April, 5)
	after := dateutil.Date(2025, time.April, 7)

	if got := m.RangeToWidth(before, after); got != 2*m.CellWidth() {
		t.Errorf("width across DST end: got %g, want %g", got, 2*m.CellWidth())
	}
	if got := m.PixelToDate(m.DateToPixel(after)); !got.Equal(after) {
		t.Errorf("round trip: got %v, want %v", got, after)
	}
	if idx := dateutil.DayIndex(after, testYear); idx != 96 {
		t.Errorf("day index of April 7: got %d, want 96", idx)
	}
}

func TestSnapshotKeepsLocalDays(t *testing.T) {
	withLocal(t, "Pacific/Auckland")
	repo, _ := openRepo(t)
	eng := openEngine(t, repo)
	b := create(t, eng, "", "New year", "2025-01-01", "2025-01-02", 0)

	snap, err := repo.LoadSnapshot(context.Background(), testYear)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if len(snap.Bookings) != 1 {
		t.Fatalf("snapshot bookings: got %d, want 1", len(snap.Bookings))
	}
	if got := snap.Bookings[0]; got.ID != b.ID || dateutil.Format(got.Start) != "2025-01-01" {
		t.Errorf("snapshot booking = %+v", got)
	}
}
