package db

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/javiermolinar/rota/internal/booking"
)

// LoadSnapshot reads the member directory, the shared lane count and the
// bookings of year concurrently.
func (s *SQLite) LoadSnapshot(ctx context.Context, year int) (booking.Snapshot, error) {
	snap := booking.Snapshot{Year: year}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		members, err := s.ListMembers(gctx)
		snap.Members = members
		return err
	})
	g.Go(func() error {
		n, err := s.SharedLaneCount(gctx)
		snap.SharedLanes = n
		return err
	})
	g.Go(func() error {
		bookings, err := s.ListBookings(gctx, year)
		snap.Bookings = bookings
		return err
	})

	if err := g.Wait(); err != nil {
		return booking.Snapshot{}, fmt.Errorf("loading snapshot: %w", err)
	}
	return snap, nil
}
