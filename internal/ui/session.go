package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/javiermolinar/rota/internal/booking"
	"github.com/javiermolinar/rota/internal/engine"
	"github.com/javiermolinar/rota/internal/lanes"
)

// minPrefix is the shortest ID prefix accepted as a booking reference.
const minPrefix = 4

// session is an engine loaded with the current snapshot. Writes go through
// a synchronous executor, so every operation has reached the store when it
// returns.
type session struct {
	engine *engine.Engine
}

func (a *App) openSession(ctx context.Context) (*session, error) {
	if err := a.ensureStore(); err != nil {
		return nil, err
	}
	eng := engine.New(a.store, engine.NewSyncExecutor(ctx), a.log, a.config.Engine())
	snap, err := a.store.LoadSnapshot(ctx, eng.Year())
	if err != nil {
		return nil, fmt.Errorf("loading timeline: %w", err)
	}
	eng.ApplySnapshot(snap)
	return &session{engine: eng}, nil
}

// do runs one engine operation and returns the backend failure, if any.
func (s *session) do(op func() error) error {
	if err := op(); err != nil {
		return err
	}
	return s.engine.LastError()
}

// owner resolves a member name or ID. "shared" and the empty string name the
// shared track.
func (s *session) owner(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.EqualFold(ref, "shared") {
		return lanes.Shared, nil
	}
	for _, m := range s.engine.Members() {
		if m.ID == ref || strings.EqualFold(m.Name, ref) {
			return m.ID, nil
		}
	}
	return "", fmt.Errorf("%q: %w", ref, booking.ErrMemberNotFound)
}

// ownerName returns a display name for an owner ID.
func (s *session) ownerName(id string) string {
	if id == lanes.Shared {
		return "Shared"
	}
	if m, ok := s.engine.Member(id); ok {
		return m.Name
	}
	return id
}

// booking resolves a booking by full ID, unique ID prefix or unique title.
func (s *session) booking(ref string) (booking.Booking, error) {
	ref = strings.TrimSpace(ref)
	if b, ok := s.engine.Booking(ref); ok {
		return b, nil
	}

	var matches []booking.Booking
	if len(ref) >= minPrefix {
		for _, b := range s.engine.Bookings() {
			if strings.HasPrefix(b.ID, ref) {
				matches = append(matches, b)
			}
		}
	}
	if len(matches) == 0 {
		for _, b := range s.engine.Bookings() {
			if strings.EqualFold(b.Title, ref) {
				matches = append(matches, b)
			}
		}
	}

	switch len(matches) {
	case 0:
		return booking.Booking{}, fmt.Errorf("%q: %w", ref, booking.ErrBookingNotFound)
	case 1:
		return matches[0], nil
	default:
		return booking.Booking{}, fmt.Errorf("%q matches %d bookings, use the ID", ref, len(matches))
	}
}

// freeLane returns the lowest lane of owner where [b.Start, b.End) fits.
func (s *session) freeLane(b booking.Booking) (int, bool) {
	return lanes.FindFreeLane(b, s.engine.LaneCount(b.OwnerID), s.engine.Bookings())
}
