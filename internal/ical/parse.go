// Package ical converts between rota bookings and iCalendar files.
//
// Bookings are whole days, so every VEVENT is reduced to a half-open range of
// local days on import, and exported as an all-day event. Owner, kind and
// lane travel in X-ROTA-* properties so that an export imports back to the
// same rows.
package ical

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/javiermolinar/rota/internal/dateutil"
)

// Extension properties written by Export and understood by Parse.
const (
	PropOwner = ics.ComponentProperty("X-ROTA-OWNER")
	PropKind  = ics.ComponentProperty("X-ROTA-KIND")
	PropLane  = ics.ComponentProperty("X-ROTA-LANE")
)

var (
	ErrEmptyCalendar = errors.New("calendar is empty")
	ErrMissingUID    = errors.New("missing UID")
	ErrMissingStart  = errors.New("missing or unreadable DTSTART")
	ErrMissingTitle  = errors.New("missing SUMMARY")
)

// Event is a VEVENT reduced to whole local days. End is exclusive.
type Event struct {
	UID         string
	Summary     string
	Description string
	URL         string
	Color       string
	Owner       string // member name, empty for the shared track
	Leave       bool
	Lane        int // preferred lane, -1 when not given
	Start       time.Time
	End         time.Time
	RRule       string
	ExDates     []time.Time
}

// Days returns the length of the event in days.
func (e Event) Days() int {
	return dateutil.DaysBetween(e.Start, e.End)
}

// Skipped is a VEVENT that could not be read.
type Skipped struct {
	UID    string
	Reason error
}

func (s Skipped) String() string {
	if s.UID == "" {
		return s.Reason.Error()
	}
	return fmt.Sprintf("%s: %v", s.UID, s.Reason)
}

// Parse reads every VEVENT of an iCalendar stream. Events that cannot be
// converted are reported in the skipped list; they never fail the whole parse.
func Parse(r io.Reader) ([]Event, []Skipped, error) {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing calendar: %w", err)
	}
	vevents := cal.Events()
	if len(vevents) == 0 {
		return nil, nil, ErrEmptyCalendar
	}

	var events []Event
	var skipped []Skipped
	for _, ve := range vevents {
		ev, err := parseEvent(ve)
		if err != nil {
			skipped = append(skipped, Skipped{UID: ev.UID, Reason: err})
			continue
		}
		events = append(events, ev)
	}
	return events, skipped, nil
}

func parseEvent(ve *ics.VEvent) (Event, error) {
	ev := Event{Lane: -1}
	ev.UID = propValue(ve, ics.ComponentPropertyUniqueId)
	if ev.UID == "" {
		return ev, ErrMissingUID
	}
	ev.Summary = strings.TrimSpace(propValue(ve, ics.ComponentPropertySummary))
	if ev.Summary == "" {
		return ev, ErrMissingTitle
	}
	ev.Description = propValue(ve, ics.ComponentPropertyDescription)
	ev.URL = propValue(ve, ics.ComponentPropertyUrl)
	ev.Color = propValue(ve, ics.ComponentPropertyColor)
	ev.Owner = strings.TrimSpace(propValue(ve, PropOwner))
	ev.Leave = strings.EqualFold(propValue(ve, PropKind), "leave")
	if v := propValue(ve, PropLane); v != "" {
		lane, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || lane < 0 {
			return ev, fmt.Errorf("invalid %s %q", PropLane, v)
		}
		ev.Lane = lane
	}

	start, end, err := eventDays(ve)
	if err != nil {
		return ev, err
	}
	ev.Start, ev.End = start, end

	ev.RRule = propValue(ve, ics.ComponentPropertyRrule)
	for _, p := range ve.GetProperties(ics.ComponentPropertyExdate) {
		for part := range strings.SplitSeq(p.Value, ",") {
			if t, err := parseStamp(part); err == nil {
				ev.ExDates = append(ev.ExDates, t)
			}
		}
	}
	return ev, nil
}

// eventDays returns the local days an event covers. A timed event ending
// exactly at midnight does not cover the following day.
func eventDays(ve *ics.VEvent) (time.Time, time.Time, error) {
	startProp := ve.GetProperty(ics.ComponentPropertyDtStart)
	if startProp == nil {
		return time.Time{}, time.Time{}, ErrMissingStart
	}
	allDay := isDateValue(startProp)

	var start time.Time
	var err error
	if allDay {
		start, err = ve.GetAllDayStartAt()
	} else {
		start, err = ve.GetStartAt()
	}
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %v", ErrMissingStart, err)
	}
	startDay := localDay(start, allDay)

	endProp := ve.GetProperty(ics.ComponentPropertyDtEnd)
	if endProp == nil {
		return startDay, dateutil.AddDays(startDay, 1), nil
	}
	endAllDay := isDateValue(endProp)
	var end time.Time
	if endAllDay {
		end, err = ve.GetAllDayEndAt()
	} else {
		end, err = ve.GetEndAt()
	}
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("reading DTEND: %w", err)
	}

	endDay := localDay(end, endAllDay)
	if !endAllDay && !end.In(time.Local).Equal(endDay) {
		endDay = dateutil.AddDays(endDay, 1)
	}
	if !endDay.After(startDay) {
		endDay = dateutil.AddDays(startDay, 1)
	}
	return startDay, endDay, nil
}

// localDay keeps the calendar date of all-day values and converts timed
// values to the local day they fall on.
func localDay(t time.Time, allDay bool) time.Time {
	if allDay {
		return dateutil.Date(t.Year(), t.Month(), t.Day())
	}
	return dateutil.TruncateToDay(t.In(time.Local))
}

func isDateValue(p *ics.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func propValue(ve *ics.VEvent, prop ics.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return p.Value
	}
	return ""
}

// parseStamp reads the DATE and DATE-TIME forms used in EXDATE lists.
func parseStamp(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, time.Local)
	default:
		return time.ParseInLocation("20060102", v, time.Local)
	}
}
