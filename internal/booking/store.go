package booking

import "context"

// Store is the write side of the backend the engine talks to.
// Every call may fail; callers treat failures as a signal to roll back.
type Store interface {
	// CreateBooking persists a new booking. The ID is assigned by the caller.
	CreateBooking(ctx context.Context, b Booking) error

	// UpdateBooking replaces the mutable fields of an existing booking.
	UpdateBooking(ctx context.Context, id string, f Fields) error

	// DeleteBooking removes a booking.
	DeleteBooking(ctx context.Context, id string) error

	// SetLaneCount stores the lane count of a member, or of the shared track
	// when ownerID is empty.
	SetLaneCount(ctx context.Context, ownerID string, n int) error
}

// Loader reads full snapshots from the backend.
type Loader interface {
	LoadSnapshot(ctx context.Context, year int) (Snapshot, error)
}
