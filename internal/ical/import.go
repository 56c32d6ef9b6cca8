package ical

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/javiermolinar/rota/internal/booking"
	"github.com/javiermolinar/rota/internal/dateutil"
	"github.com/javiermolinar/rota/internal/lanes"
)

var (
	ErrOutsideYear     = errors.New("event is outside the timeline year")
	ErrAlreadyImported = errors.New("event was already imported")
)

// importNamespace derives stable booking IDs from occurrence keys, so that
// importing the same file twice does not duplicate bookings.
var importNamespace = uuid.MustParse("6f1c7a52-3c1e-4d8e-9a51-2b7f0f3c9e11")

// BookingID returns the booking ID an occurrence is imported under.
func BookingID(key string) string {
	return uuid.NewSHA1(importNamespace, []byte(key)).String()
}

// Planner places occurrences on owners and lanes of a snapshot. Each placed
// booking is taken into account for the next one.
type Planner struct {
	year     int
	members  map[string]booking.Member
	lanes    *lanes.Registry
	existing []booking.Booking
	ids      map[string]struct{}
	grown    map[string]int
}

// NewPlanner returns a Planner for the bookings and lanes of snap.
func NewPlanner(snap booking.Snapshot) *Planner {
	p := &Planner{
		year:     snap.Year,
		members:  make(map[string]booking.Member),
		lanes:    lanes.NewRegistry(),
		existing: append([]booking.Booking(nil), snap.Bookings...),
		ids:      make(map[string]struct{}, len(snap.Bookings)),
		grown:    make(map[string]int),
	}
	for _, m := range snap.Members {
		p.members[strings.ToLower(m.Name)] = m
		p.members[strings.ToLower(m.ID)] = m
		p.lanes.Set(m.ID, m.LaneCount)
	}
	p.lanes.Set(lanes.Shared, snap.SharedLanes)
	for _, b := range snap.Bookings {
		p.ids[b.ID] = struct{}{}
		if b.Lane >= p.lanes.Count(b.OwnerID) {
			p.lanes.Set(b.OwnerID, b.Lane+1)
		}
	}
	return p
}

// Place converts o into a booking clipped to the year. It picks the lane
// recorded in the event when it is free, else the lowest free lane, else a
// new lane.
func (p *Planner) Place(o Occurrence) (booking.Booking, error) {
	owner, err := p.resolveOwner(o.Owner)
	if err != nil {
		return booking.Booking{}, err
	}

	start := dateutil.TruncateToDay(o.Start)
	end := dateutil.TruncateToDay(o.End)
	first := dateutil.YearStart(p.year)
	last := dateutil.YearStart(p.year + 1)
	if start.Before(first) {
		start = first
	}
	if end.After(last) {
		end = last
	}
	if !start.Before(end) {
		return booking.Booking{}, ErrOutsideYear
	}

	b := booking.Booking{
		ID:      BookingID(o.Key),
		OwnerID: owner,
		Title:   o.Summary,
		Start:   start,
		End:     end,
		Color:   o.Color,
		Link:    o.URL,
		Comment: o.Description,
		Kind:    booking.KindRegular,
	}
	if o.Leave {
		b.Kind = booking.KindLeave
	}
	// Events exported by rota carry the booking ID as their UID.
	if _, dup := p.ids[o.Key]; dup {
		return booking.Booking{}, ErrAlreadyImported
	}
	if _, dup := p.ids[b.ID]; dup {
		return booking.Booking{}, ErrAlreadyImported
	}

	b.Lane = p.lane(b, o.Lane)
	if err := b.Validate(); err != nil {
		return booking.Booking{}, err
	}
	p.existing = append(p.existing, b)
	p.ids[b.ID] = struct{}{}
	return b, nil
}

func (p *Planner) lane(b booking.Booking, preferred int) int {
	count := p.lanes.Count(b.OwnerID)
	if preferred >= 0 && preferred < count {
		probe := b
		probe.Lane = preferred
		if !booking.HasCollision(probe, p.existing) {
			return preferred
		}
	}
	if lane, ok := lanes.FindFreeLane(b, count, p.existing); ok {
		return lane
	}
	n := p.lanes.AddLane(b.OwnerID)
	p.grown[b.OwnerID] = n
	return n - 1
}

func (p *Planner) resolveOwner(name string) (string, error) {
	if name == "" || strings.EqualFold(name, "shared") {
		return lanes.Shared, nil
	}
	m, ok := p.members[strings.ToLower(name)]
	if !ok {
		return "", fmt.Errorf("%q: %w", name, booking.ErrMemberNotFound)
	}
	return m.ID, nil
}

// Grown returns the owners that need more lanes, with their new counts.
func (p *Planner) Grown() map[string]int {
	return p.grown
}

// Store is what an import writes to.
type Store interface {
	booking.Loader
	SetLaneCount(ctx context.Context, ownerID string, n int) error
	CreateBookings(ctx context.Context, bookings []booking.Booking) error
}

// Report summarizes an import.
type Report struct {
	Created   []booking.Booking
	Skipped   []Skipped
	Truncated []string
	Lanes     map[string]int
}

// ImportOptions tunes Import.
type ImportOptions struct {
	Year           int
	MaxOccurrences int
	DryRun         bool
}

// Import reads a calendar and stores every occurrence that falls in the year.
// Lane counts grow before the bookings are written; the bookings themselves
// are written in one transaction.
func Import(ctx context.Context, store Store, r io.Reader, opts ImportOptions) (Report, error) {
	events, skipped, err := Parse(r)
	if err != nil {
		return Report{}, err
	}
	snap, err := store.LoadSnapshot(ctx, opts.Year)
	if err != nil {
		return Report{}, fmt.Errorf("loading snapshot: %w", err)
	}

	from := dateutil.YearStart(opts.Year)
	to := dateutil.YearStart(opts.Year + 1)
	exp := Expand(events, from, to, opts.MaxOccurrences)

	report := Report{
		Skipped:   append(skipped, exp.Skipped...),
		Truncated: exp.Truncated,
	}
	planner := NewPlanner(snap)
	for _, o := range exp.Occurrences {
		b, err := planner.Place(o)
		if err != nil {
			report.Skipped = append(report.Skipped, Skipped{UID: o.Key, Reason: err})
			continue
		}
		report.Created = append(report.Created, b)
	}
	report.Lanes = planner.Grown()
	if opts.DryRun {
		return report, nil
	}

	for owner, n := range report.Lanes {
		if err := store.SetLaneCount(ctx, owner, n); err != nil {
			return report, fmt.Errorf("growing lanes: %w", err)
		}
	}
	if err := store.CreateBookings(ctx, report.Created); err != nil {
		return report, fmt.Errorf("storing bookings: %w", err)
	}
	return report, nil
}

// Window returns the first and last day touched by the created bookings.
func (r Report) Window() (time.Time, time.Time, bool) {
	if len(r.Created) == 0 {
		return time.Time{}, time.Time{}, false
	}
	first, last := r.Created[0].Start, r.Created[0].End
	for _, b := range r.Created[1:] {
		if b.Start.Before(first) {
			first = b.Start
		}
		if b.End.After(last) {
			last = b.End
		}
	}
	return first, last, true
}
