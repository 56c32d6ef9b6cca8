// Package lanes tracks how many display lanes each owner has and finds room
// for bookings that move between owners.
package lanes

import (
	"errors"
	"fmt"

	"github.com/javiermolinar/rota/internal/booking"
)

// Shared is the pseudo-owner of the shared track.
const Shared = ""

var (
	ErrLaneOccupied = errors.New("the highest lane still has bookings")
	ErrMinimumLanes = errors.New("an owner must keep at least one lane")
	ErrInvalidLane  = errors.New("lane index out of range")
)

// Registry holds the lane count of every owner. Owners never seen default to
// a single lane.
type Registry struct {
	counts map[string]int
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{counts: make(map[string]int)}
}

// Count returns the lane count of owner, at least 1.
func (r *Registry) Count(owner string) int {
	if n, ok := r.counts[owner]; ok && n > 0 {
		return n
	}
	return 1
}

// Set stores the lane count of owner. Values below 1 are stored as 1.
func (r *Registry) Set(owner string, n int) {
	r.counts[owner] = max(n, 1)
}

// Forget drops an owner, e.g. after the member was removed.
func (r *Registry) Forget(owner string) {
	delete(r.counts, owner)
}

// AddLane appends a lane and returns the new count.
func (r *Registry) AddLane(owner string) int {
	n := r.Count(owner) + 1
	r.counts[owner] = n
	return n
}

// CanRemoveLane reports whether the highest lane of owner can be dropped given
// the owner's bookings.
func (r *Registry) CanRemoveLane(owner string, bookings []booking.Booking) error {
	n := r.Count(owner)
	if n <= 1 {
		return ErrMinimumLanes
	}
	top := n - 1
	for _, b := range bookings {
		if b.OwnerID == owner && b.Lane >= top {
			return fmt.Errorf("lane %d: %w", top, ErrLaneOccupied)
		}
	}
	return nil
}

// RemoveLane drops the highest lane of owner and returns the new count.
func (r *Registry) RemoveLane(owner string, bookings []booking.Booking) (int, error) {
	if err := r.CanRemoveLane(owner, bookings); err != nil {
		return r.Count(owner), err
	}
	n := r.Count(owner) - 1
	r.counts[owner] = n
	return n, nil
}

// CheckLane returns ErrInvalidLane if lane is outside [0, Count(owner)).
func (r *Registry) CheckLane(owner string, lane int) error {
	if lane < 0 || lane >= r.Count(owner) {
		return fmt.Errorf("lane %d of %d: %w", lane, r.Count(owner), ErrInvalidLane)
	}
	return nil
}

// ClampLane limits lane to the owner's lanes.
func (r *Registry) ClampLane(owner string, lane int) int {
	return min(max(lane, 0), r.Count(owner)-1)
}

// FindFreeLane returns the lowest lane in [0, laneCount) where candidate, moved
// to that lane, overlaps none of targetBookings. targetBookings are expected
// to belong to the candidate's new owner.
func FindFreeLane(candidate booking.Booking, laneCount int, targetBookings []booking.Booking) (int, bool) {
	scope := booking.ScopeFor(candidate)
	for lane := range max(laneCount, 1) {
		probe := candidate
		probe.Lane = lane
		if _, hit := booking.FindCollision(probe, targetBookings, scope); !hit {
			return lane, true
		}
	}
	return 0, false
}

// Allocation is the outcome of placing a booking on another owner.
type Allocation struct {
	Lane          int
	Grew          bool // a lane was appended for the booking
	PreviousCount int
	Count         int
}

// AllocateForTransfer finds a lane for candidate on target. When every lane is
// taken the target grows by one lane, so a transfer never fails for lack of
// space. The registry is updated in place; callers roll back with Set on
// backend failure.
func (r *Registry) AllocateForTransfer(candidate booking.Booking, target string, targetBookings []booking.Booking) Allocation {
	candidate.OwnerID = target
	prev := r.Count(target)
	if lane, ok := FindFreeLane(candidate, prev, targetBookings); ok {
		return Allocation{Lane: lane, PreviousCount: prev, Count: prev}
	}
	n := r.AddLane(target)
	return Allocation{Lane: n - 1, Grew: true, PreviousCount: prev, Count: n}
}
