package ical

import (
	"fmt"
	"io"
	"strconv"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/javiermolinar/rota/internal/booking"
)

// ExportOptions tunes Export.
type ExportOptions struct {
	// Owner restricts the export to one member ID. Empty exports everything.
	Owner string
	// SharedOnly exports only the shared track.
	SharedOnly bool
	// Now stamps DTSTAMP; zero means time.Now.
	Now time.Time
}

// Export writes the bookings of snap as all-day events.
func Export(w io.Writer, snap booking.Snapshot, opts ExportOptions) (int, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	names := make(map[string]string, len(snap.Members))
	for _, m := range snap.Members {
		names[m.ID] = m.Name
	}

	cal := ics.NewCalendarFor("rota")
	cal.SetMethod(ics.MethodPublish)
	cal.SetXWRCalName(fmt.Sprintf("rota %d", snap.Year))

	n := 0
	for _, b := range snap.Bookings {
		if opts.SharedOnly && !b.IsShared() {
			continue
		}
		if opts.Owner != "" && b.OwnerID != opts.Owner {
			continue
		}
		ev := cal.AddEvent(b.ID)
		ev.SetDtStampTime(now)
		ev.SetSummary(b.Title)
		ev.SetAllDayStartAt(b.Start)
		ev.SetAllDayEndAt(b.End)
		if b.Comment != "" {
			ev.SetDescription(b.Comment)
		}
		if b.Link != "" {
			ev.SetURL(b.Link)
		}
		if b.Color != "" {
			ev.SetColor(b.Color)
		}
		if !b.IsShared() {
			owner := names[b.OwnerID]
			if owner == "" {
				owner = b.OwnerID
			}
			ev.SetProperty(PropOwner, owner)
		}
		if b.IsLeave() {
			ev.SetProperty(PropKind, string(booking.KindLeave))
		}
		ev.SetProperty(PropLane, strconv.Itoa(b.Lane))
		n++
	}

	if err := cal.SerializeTo(w); err != nil {
		return 0, fmt.Errorf("writing calendar: %w", err)
	}
	return n, nil
}
