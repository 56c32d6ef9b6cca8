package history

import (
	"fmt"

	"github.com/javiermolinar/rota/internal/booking"
)

// Action is a reversible change. The set of actions is closed: every
// implementation lives in this package.
type Action interface {
	// Kind returns a short machine name, e.g. "create".
	Kind() string
	action()
}

// BookingCreated records a new booking.
type BookingCreated struct {
	Booking booking.Booking
}

// BookingDeleted records a removed booking, kept whole so it can be restored.
type BookingDeleted struct {
	Booking booking.Booking
}

// BookingUpdated records a field change: move, resize or edit.
type BookingUpdated struct {
	ID     string
	Before booking.Fields
	After  booking.Fields
}

// BookingTransferred records a move to another owner. LaneOwner had its lane
// count changed from LanesBefore to LanesAfter to make room; both are equal
// when no lane was added.
type BookingTransferred struct {
	ID          string
	Before      booking.Fields
	After       booking.Fields
	LaneOwner   string
	LanesBefore int
	LanesAfter  int
}

// LaneCountChanged records a lane added to or removed from an owner.
type LaneCountChanged struct {
	Owner  string
	Before int
	After  int
}

func (BookingCreated) Kind() string     { return "create" }
func (BookingDeleted) Kind() string     { return "delete" }
func (BookingUpdated) Kind() string     { return "field-update" }
func (BookingTransferred) Kind() string { return "transfer" }
func (LaneCountChanged) Kind() string   { return "lane-count" }

func (BookingCreated) action()     {}
func (BookingDeleted) action()     {}
func (BookingUpdated) action()     {}
func (BookingTransferred) action() {}
func (LaneCountChanged) action()   {}

// Inverse returns the action that undoes a.
func Inverse(a Action) Action {
	switch a := a.(type) {
	case BookingCreated:
		return BookingDeleted(a)
	case BookingDeleted:
		return BookingCreated(a)
	case BookingUpdated:
		return BookingUpdated{ID: a.ID, Before: a.After, After: a.Before}
	case BookingTransferred:
		return BookingTransferred{
			ID:          a.ID,
			Before:      a.After,
			After:       a.Before,
			LaneOwner:   a.LaneOwner,
			LanesBefore: a.LanesAfter,
			LanesAfter:  a.LanesBefore,
		}
	case LaneCountChanged:
		return LaneCountChanged{Owner: a.Owner, Before: a.After, After: a.Before}
	default:
		panic(fmt.Sprintf("history: unknown action %T", a))
	}
}

// Describe returns a human readable label for a.
func Describe(a Action) string {
	switch a := a.(type) {
	case BookingCreated:
		return "Create: " + a.Booking.Title
	case BookingDeleted:
		return "Delete: " + a.Booking.Title
	case BookingUpdated:
		switch {
		case a.Before.Lane != a.After.Lane || !a.Before.Start.Equal(a.After.Start) && a.Before.Days() == a.After.Days():
			return "Move: " + a.After.Title
		case !a.Before.Start.Equal(a.After.Start) || !a.Before.End.Equal(a.After.End):
			return "Resize: " + a.After.Title
		default:
			return "Edit: " + a.After.Title
		}
	case BookingTransferred:
		return "Transfer: " + a.After.Title
	case LaneCountChanged:
		if a.After > a.Before {
			return "Add lane"
		}
		return "Remove lane"
	default:
		return a.Kind()
	}
}
