package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/javiermolinar/rota/internal/booking"
	"github.com/javiermolinar/rota/internal/dateutil"
	"github.com/javiermolinar/rota/internal/lanes"
)

func newTestRepo(t *testing.T) *SQLite {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	repo, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create test repo: %v", err)
	}

	t.Cleanup(func() {
		_ = repo.Close()
	})

	return repo
}

func addMember(t *testing.T, repo *SQLite, name string) booking.Member {
	t.Helper()
	m := booking.Member{Name: name, Color: "#123456"}
	if err := repo.CreateMember(context.Background(), &m); err != nil {
		t.Fatalf("CreateMember(%q) failed: %v", name, err)
	}
	return m
}

func newBooking(t *testing.T, owner, title string, start time.Time, days, lane int) booking.Booking {
	t.Helper()
	b, err := booking.New(owner, title, start, dateutil.AddDays(start, days), lane)
	if err != nil {
		t.Fatalf("booking.New failed: %v", err)
	}
	return *b
}

func TestCreateBooking(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	ana := addMember(t, repo, "Ana")

	start := dateutil.Date(2025, time.March, 10)
	b := newBooking(t, ana.ID, "Onboarding", start, 3, 0)
	b.Link = "https://example.com"
	b.Comment = "bring laptop"

	if err := repo.CreateBooking(ctx, b); err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	got, err := repo.GetBooking(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetBooking failed: %v", err)
	}
	if got.Title != "Onboarding" || got.OwnerID != ana.ID || got.Link != b.Link || got.Comment != b.Comment {
		t.Errorf("unexpected booking %+v", got)
	}
	if !got.Start.Equal(start) || !got.End.Equal(dateutil.AddDays(start, 3)) {
		t.Errorf("dates = %s..%s", dateutil.Format(got.Start), dateutil.Format(got.End))
	}
	if got.Kind != booking.KindRegular {
		t.Errorf("Kind = %q", got.Kind)
	}
	if got.Version != 1 {
		t.Errorf("Version = %d, want 1", got.Version)
	}
}

func TestCreateBooking_Shared(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	b := newBooking(t, lanes.Shared, "Release freeze", dateutil.Date(2025, time.December, 20), 10, 0)
	if err := repo.CreateBooking(ctx, b); err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	got, err := repo.GetBooking(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetBooking failed: %v", err)
	}
	if !got.IsShared() {
		t.Errorf("expected shared booking, owner = %q", got.OwnerID)
	}
}

func TestCreateBooking_OverlapError(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	ana := addMember(t, repo, "Ana")
	bob := addMember(t, repo, "Bob")
	start := dateutil.Date(2025, time.May, 5)

	if err := repo.CreateBooking(ctx, newBooking(t, ana.ID, "First", start, 5, 0)); err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	tests := []struct {
		name    string
		b       booking.Booking
		wantErr error
	}{
		{"overlap same lane", newBooking(t, ana.ID, "Clash", dateutil.AddDays(start, 4), 2, 0), booking.ErrCollision},
		{"adjacent", newBooking(t, ana.ID, "After", dateutil.AddDays(start, 5), 2, 0), nil},
		{"other lane", newBooking(t, ana.ID, "Other lane", start, 5, 1), nil},
		{"other owner", newBooking(t, bob.ID, "Bob's", start, 5, 0), nil},
		{"shared track", newBooking(t, lanes.Shared, "Shared", start, 5, 0), nil},
		{"unknown owner", newBooking(t, "ghost", "Ghost", start, 1, 0), booking.ErrMemberNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := repo.CreateBooking(ctx, tc.b)
			if tc.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestCreateBookings_Atomic(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	ana := addMember(t, repo, "Ana")
	start := dateutil.Date(2025, time.June, 1)

	batch := []booking.Booking{
		newBooking(t, ana.ID, "One", start, 2, 0),
		newBooking(t, ana.ID, "Two", dateutil.AddDays(start, 1), 2, 0), // overlaps One
	}
	if err := repo.CreateBookings(ctx, batch); !errors.Is(err, booking.ErrCollision) {
		t.Fatalf("expected ErrCollision, got %v", err)
	}

	list, err := repo.ListBookings(ctx, 2025)
	if err != nil {
		t.Fatalf("ListBookings failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("failed batch must not store anything, got %d bookings", len(list))
	}

	batch[1] = newBooking(t, ana.ID, "Two", dateutil.AddDays(start, 2), 2, 0)
	if err := repo.CreateBookings(ctx, batch); err != nil {
		t.Fatalf("CreateBookings failed: %v", err)
	}
}

func TestUpdateBooking(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	ana := addMember(t, repo, "Ana")
	bob := addMember(t, repo, "Bob")
	start := dateutil.Date(2025, time.July, 1)

	b := newBooking(t, ana.ID, "Sprint", start, 10, 0)
	if err := repo.CreateBooking(ctx, b); err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	f := b.Fields()
	f.OwnerID = bob.ID
	f.Start = dateutil.AddDays(start, 2)
	f.End = dateutil.AddDays(start, 4)
	f.Title = "Sprint 2"
	if err := repo.UpdateBooking(ctx, b.ID, f); err != nil {
		t.Fatalf("UpdateBooking failed: %v", err)
	}

	got, _ := repo.GetBooking(ctx, b.ID)
	if got.OwnerID != bob.ID || got.Title != "Sprint 2" || got.Days() != 2 {
		t.Errorf("unexpected booking after update: %+v", got)
	}
	if got.Version != 2 {
		t.Errorf("Version = %d, want 2", got.Version)
	}

	if err := repo.UpdateBooking(ctx, "missing", f); !errors.Is(err, booking.ErrBookingNotFound) {
		t.Errorf("expected ErrBookingNotFound, got %v", err)
	}

	f.Title = ""
	if err := repo.UpdateBooking(ctx, b.ID, f); !errors.Is(err, booking.ErrEmptyTitle) {
		t.Errorf("expected ErrEmptyTitle, got %v", err)
	}
}

func TestUpdateBooking_OverlapExcludesSelf(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	ana := addMember(t, repo, "Ana")
	start := dateutil.Date(2025, time.July, 1)

	a := newBooking(t, ana.ID, "A", start, 5, 0)
	b := newBooking(t, ana.ID, "B", dateutil.AddDays(start, 10), 5, 0)
	for _, bk := range []booking.Booking{a, b} {
		if err := repo.CreateBooking(ctx, bk); err != nil {
			t.Fatalf("CreateBooking failed: %v", err)
		}
	}

	// grow A within its own range
	f := a.Fields()
	f.End = dateutil.AddDays(start, 8)
	if err := repo.UpdateBooking(ctx, a.ID, f); err != nil {
		t.Fatalf("UpdateBooking failed: %v", err)
	}

	f.End = dateutil.AddDays(start, 12)
	if err := repo.UpdateBooking(ctx, a.ID, f); !errors.Is(err, booking.ErrCollision) {
		t.Errorf("expected ErrCollision, got %v", err)
	}
}

func TestDeleteBooking(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	b := newBooking(t, lanes.Shared, "Holiday", dateutil.Date(2025, time.August, 1), 1, 0)
	if err := repo.CreateBooking(ctx, b); err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}
	if err := repo.DeleteBooking(ctx, b.ID); err != nil {
		t.Fatalf("DeleteBooking failed: %v", err)
	}
	if _, err := repo.GetBooking(ctx, b.ID); !errors.Is(err, booking.ErrBookingNotFound) {
		t.Errorf("expected ErrBookingNotFound, got %v", err)
	}
	if err := repo.DeleteBooking(ctx, b.ID); !errors.Is(err, booking.ErrBookingNotFound) {
		t.Errorf("second delete: expected ErrBookingNotFound, got %v", err)
	}
}

func TestListBookings_YearBounds(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	bookings := []booking.Booking{
		newBooking(t, lanes.Shared, "Spans new year", dateutil.Date(2024, time.December, 30), 5, 0),
		newBooking(t, lanes.Shared, "Inside", dateutil.Date(2025, time.April, 1), 2, 1),
		newBooking(t, lanes.Shared, "Ends at year start", dateutil.Date(2024, time.December, 25), 7, 2),
		newBooking(t, lanes.Shared, "Next year", dateutil.Date(2026, time.January, 1), 2, 0),
	}
	if err := repo.CreateBookings(ctx, bookings); err != nil {
		t.Fatalf("CreateBookings failed: %v", err)
	}

	list, err := repo.ListBookings(ctx, 2025)
	if err != nil {
		t.Fatalf("ListBookings failed: %v", err)
	}

	var titles []string
	for _, b := range list {
		titles = append(titles, b.Title)
	}
	if len(titles) != 2 || titles[0] != "Spans new year" || titles[1] != "Inside" {
		t.Errorf("titles = %v", titles)
	}
}

func TestSetLaneCount(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	ana := addMember(t, repo, "Ana")

	if err := repo.SetLaneCount(ctx, ana.ID, 3); err != nil {
		t.Fatalf("SetLaneCount failed: %v", err)
	}
	if err := repo.CreateBooking(ctx, newBooking(t, ana.ID, "Top", dateutil.Date(2025, time.May, 1), 1, 2)); err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	if err := repo.SetLaneCount(ctx, ana.ID, 2); !errors.Is(err, lanes.ErrLaneOccupied) {
		t.Errorf("expected ErrLaneOccupied, got %v", err)
	}
	if err := repo.SetLaneCount(ctx, ana.ID, 0); !errors.Is(err, lanes.ErrMinimumLanes) {
		t.Errorf("expected ErrMinimumLanes, got %v", err)
	}
	if err := repo.SetLaneCount(ctx, "ghost", 2); !errors.Is(err, booking.ErrMemberNotFound) {
		t.Errorf("expected ErrMemberNotFound, got %v", err)
	}

	got, _ := repo.GetMember(ctx, ana.ID)
	if got.LaneCount != 3 {
		t.Errorf("LaneCount = %d, want 3", got.LaneCount)
	}

	if err := repo.SetLaneCount(ctx, lanes.Shared, 4); err != nil {
		t.Fatalf("SetLaneCount(shared) failed: %v", err)
	}
	n, err := repo.SharedLaneCount(ctx)
	if err != nil || n != 4 {
		t.Errorf("SharedLaneCount() = %d, %v", n, err)
	}
}

func TestLoadSnapshot(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	ana := addMember(t, repo, "Ana")
	addMember(t, repo, "Bob")

	if err := repo.CreateBooking(ctx, newBooking(t, ana.ID, "Trip", dateutil.Date(2025, time.September, 1), 4, 0)); err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	snap, err := repo.LoadSnapshot(ctx, 2025)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if snap.Year != 2025 || len(snap.Members) != 2 || len(snap.Bookings) != 1 || snap.SharedLanes != 1 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if snap.Members[0].Name != "Ana" || snap.Members[1].Position != 1 {
		t.Errorf("members out of order: %+v", snap.Members)
	}
}

func TestWatcher_PublishesOnCommit(t *testing.T) {
	repo := newTestRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewWatcher(repo, 2025, 10*time.Millisecond, nil)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// give Run time to read the initial data version
	time.Sleep(50 * time.Millisecond)

	b := newBooking(t, lanes.Shared, "Launch", dateutil.Date(2025, time.October, 1), 1, 0)
	if err := repo.CreateBooking(context.Background(), b); err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	select {
	case snap := <-w.Changes():
		if len(snap.Bookings) != 1 || snap.Bookings[0].ID != b.ID {
			t.Errorf("unexpected snapshot %+v", snap)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not publish a snapshot")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned %v", err)
	}
	if _, open := <-w.Changes(); open {
		t.Error("Changes should be closed after Run returns")
	}
}
