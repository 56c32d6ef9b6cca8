// Package booking defines the core domain types for rota.
package booking

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/javiermolinar/rota/internal/dateutil"
)

// Validation errors.
var (
	ErrEmptyTitle     = errors.New("title cannot be empty")
	ErrEndBeforeStart = errors.New("end date must be after start date")
	ErrNegativeLane   = errors.New("lane index cannot be negative")
)

// Domain errors.
var (
	ErrCollision       = errors.New("booking overlaps with an existing booking")
	ErrBookingNotFound = errors.New("booking not found")
	ErrMemberNotFound  = errors.New("member not found")
)

// Kind distinguishes regular bookings from leave created with the alternate modifier.
type Kind string

const (
	KindRegular Kind = "regular"
	KindLeave   Kind = "leave"
)

// Valid returns true if the kind is a known value.
func (k Kind) Valid() bool {
	switch k {
	case KindRegular, KindLeave:
		return true
	default:
		return false
	}
}

// Booking is a scheduled item on the timeline.
// Start and End are local days; End is exclusive, so a one-day booking has
// End == Start + 1 day. An empty OwnerID places the booking on the shared track.
type Booking struct {
	ID      string
	OwnerID string
	Title   string
	Start   time.Time
	End     time.Time
	Color   string
	Lane    int
	Link    string
	Comment string
	Kind    Kind
	Version int64 // incremented by the store on every write
}

// Fields is the mutable part of a booking. It doubles as the update patch sent
// to a Store and as the before/after payload recorded in history.
type Fields struct {
	OwnerID string
	Title   string
	Start   time.Time
	End     time.Time
	Color   string
	Lane    int
	Link    string
	Comment string
}

// Days returns the number of days between Start and End.
func (f Fields) Days() int {
	return dateutil.DaysBetween(f.Start, f.End)
}

// NewID returns a fresh booking identifier.
func NewID() string {
	return uuid.NewString()
}

// New creates a validated booking with a generated ID.
// start and end are truncated to local days; end is exclusive.
func New(ownerID, title string, start, end time.Time, lane int) (*Booking, error) {
	b := &Booking{
		ID:      NewID(),
		OwnerID: ownerID,
		Title:   strings.TrimSpace(title),
		Start:   dateutil.TruncateToDay(start),
		End:     dateutil.TruncateToDay(end),
		Lane:    lane,
		Kind:    KindRegular,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks the booking invariants that do not depend on other bookings.
func (b *Booking) Validate() error {
	if b.Title == "" {
		return ErrEmptyTitle
	}
	if !b.Start.Before(b.End) {
		return ErrEndBeforeStart
	}
	if b.Lane < 0 {
		return ErrNegativeLane
	}
	return nil
}

// IsShared returns true if the booking lives on the shared track.
func (b Booking) IsShared() bool {
	return b.OwnerID == ""
}

// IsLeave returns true if the booking was created as leave.
func (b Booking) IsLeave() bool {
	return b.Kind == KindLeave
}

// Days returns the number of days covered by the booking.
func (b Booking) Days() int {
	return dateutil.DaysBetween(b.Start, b.End)
}

// Range returns the booking's half-open day range.
func (b Booking) Range() Range {
	return Range{Start: b.Start, End: b.End}
}

// Fields returns a copy of the booking's mutable fields.
func (b Booking) Fields() Fields {
	return Fields{
		OwnerID: b.OwnerID,
		Title:   b.Title,
		Start:   b.Start,
		End:     b.End,
		Color:   b.Color,
		Lane:    b.Lane,
		Link:    b.Link,
		Comment: b.Comment,
	}
}

// WithFields returns a copy of b with the given fields applied.
func (b Booking) WithFields(f Fields) Booking {
	b.OwnerID = f.OwnerID
	b.Title = f.Title
	b.Start = f.Start
	b.End = f.End
	b.Color = f.Color
	b.Lane = f.Lane
	b.Link = f.Link
	b.Comment = f.Comment
	return b
}

// Range is a half-open day range [Start, End).
type Range struct {
	Start time.Time
	End   time.Time
}

// Overlaps returns true if the two ranges share at least one day.
// Two ranges overlap if: start1 < end2 AND start2 < end1
func (r Range) Overlaps(o Range) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

// Days returns the length of the range in days.
func (r Range) Days() int {
	return dateutil.DaysBetween(r.Start, r.End)
}

// Member is an entry of the owner directory.
type Member struct {
	ID        string
	Name      string
	Color     string
	LaneCount int
	Position  int
}

// Snapshot is a full view of the backend for one year.
type Snapshot struct {
	Year        int
	Members     []Member
	SharedLanes int
	Bookings    []Booking
}
