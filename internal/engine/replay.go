package engine

import (
	"context"
	"fmt"

	"github.com/javiermolinar/rota/internal/booking"
	"github.com/javiermolinar/rota/internal/history"
	"github.com/javiermolinar/rota/internal/lanes"
)

// Undo reverts the most recent action. The entry moves to the redo stack at
// once; if the replay is rejected or the backend write fails, the local
// change is rolled back, the entry returns to the undo stack and the error is
// returned when the write has already completed.
func (e *Engine) Undo() error {
	if e.gesture != nil {
		return ErrGestureActive
	}
	entry, ok := e.history.Undo()
	if !ok {
		return ErrNothingToUndo
	}
	failed := false
	revert := func() {
		failed = true
		e.history.RevertUndo(entry.ID)
	}
	if err := e.replay(history.Inverse(entry.Action), revert); err != nil {
		revert()
		e.log.Warn(context.Background(), "undo rejected", "entry", entry.Description, "error", err)
		return fmt.Errorf("undo %s: %w", entry.Description, err)
	}
	return e.replayResult("undo", entry, failed)
}

// Redo re-applies the most recently undone action, with the same failure
// handling as Undo.
func (e *Engine) Redo() error {
	if e.gesture != nil {
		return ErrGestureActive
	}
	entry, ok := e.history.Redo()
	if !ok {
		return ErrNothingToRedo
	}
	failed := false
	revert := func() {
		failed = true
		e.history.RevertRedo(entry.ID)
	}
	if err := e.replay(entry.Action, revert); err != nil {
		revert()
		e.log.Warn(context.Background(), "redo rejected", "entry", entry.Description, "error", err)
		return fmt.Errorf("redo %s: %w", entry.Description, err)
	}
	return e.replayResult("redo", entry, failed)
}

// replayResult reports a backend failure that completed before Undo or Redo
// returned, as it does with a SyncExecutor. Asynchronous failures surface
// through LastError instead.
func (e *Engine) replayResult(verb string, entry history.Entry, failed bool) error {
	if !failed {
		return nil
	}
	err := e.LastError()
	if err == nil {
		err = ErrInvalidReplay
	}
	return fmt.Errorf("%s %s: %w", verb, entry.Description, err)
}

// replay applies a without recording history. Local state is validated first
// and left untouched on error; onFailure runs if the backend write fails.
func (e *Engine) replay(a history.Action, onFailure func()) error {
	switch a := a.(type) {
	case history.BookingCreated:
		if _, exists := e.bookings.Get(a.Booking.ID); exists {
			return fmt.Errorf("booking %s already exists: %w", a.Booking.ID, ErrInvalidReplay)
		}
		if err := e.checkReplayPlacement(a.Booking); err != nil {
			return err
		}
		e.doCreate(a.Booking, nil, onFailure)

	case history.BookingDeleted:
		b, ok := e.bookings.Get(a.Booking.ID)
		if !ok {
			return fmt.Errorf("%s: %w", a.Booking.ID, booking.ErrBookingNotFound)
		}
		e.doDelete(b, nil, onFailure)

	case history.BookingUpdated:
		b, ok := e.bookings.Get(a.ID)
		if !ok {
			return fmt.Errorf("%s: %w", a.ID, booking.ErrBookingNotFound)
		}
		if b.OwnerID != a.After.OwnerID {
			return fmt.Errorf("booking %s changed owner: %w", a.ID, ErrInvalidReplay)
		}
		if err := e.checkReplayPlacement(b.WithFields(a.After)); err != nil {
			return err
		}
		e.doUpdate(b, a.After, nil, onFailure)

	case history.BookingTransferred:
		b, ok := e.bookings.Get(a.ID)
		if !ok {
			return fmt.Errorf("%s: %w", a.ID, booking.ErrBookingNotFound)
		}
		if b.OwnerID != a.Before.OwnerID {
			return fmt.Errorf("booking %s changed owner: %w", a.ID, ErrInvalidReplay)
		}
		if err := e.checkTransferReplay(b, a); err != nil {
			return err
		}
		e.doTransfer(b, a, nil, onFailure)

	case history.LaneCountChanged:
		if !e.knownOwner(a.Owner) {
			return fmt.Errorf("%q: %w", a.Owner, ErrUnknownOwner)
		}
		if a.After < 1 {
			return lanes.ErrMinimumLanes
		}
		if top := e.bookings.MaxLane(a.Owner); top >= a.After {
			return fmt.Errorf("lane %d: %w", top, lanes.ErrLaneOccupied)
		}
		e.doSetLanes(a, nil, onFailure)

	default:
		return fmt.Errorf("unknown action %T: %w", a, ErrInvalidReplay)
	}
	return nil
}

// checkReplayPlacement is checkPlacement with the replay error wrapped.
func (e *Engine) checkReplayPlacement(b booking.Booking) error {
	if err := e.checkPlacement(b); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidReplay, err)
	}
	return nil
}

// checkTransferReplay validates a transfer against the lane counts it will
// leave behind.
func (e *Engine) checkTransferReplay(b booking.Booking, a history.BookingTransferred) error {
	moved := b.WithFields(a.After)
	if !e.knownOwner(moved.OwnerID) || !e.knownOwner(a.LaneOwner) {
		return fmt.Errorf("%w: %w", ErrInvalidReplay, ErrUnknownOwner)
	}

	count := e.lanes.Count(moved.OwnerID)
	if moved.OwnerID == a.LaneOwner {
		count = a.LanesAfter
	}
	if moved.Lane < 0 || moved.Lane >= count {
		return fmt.Errorf("%w: %w", ErrInvalidReplay, lanes.ErrInvalidLane)
	}
	if booking.HasCollision(moved, e.bookings.ForOwner(moved.OwnerID)) {
		return fmt.Errorf("%w: %w", ErrInvalidReplay, booking.ErrCollision)
	}

	// Shrinking must not strand another booking above the new count.
	if a.LanesAfter < a.LanesBefore {
		for _, other := range e.bookings.ForOwner(a.LaneOwner) {
			if other.ID != b.ID && other.Lane >= a.LanesAfter {
				return fmt.Errorf("%w: %w", ErrInvalidReplay, lanes.ErrLaneOccupied)
			}
		}
	}
	return nil
}
