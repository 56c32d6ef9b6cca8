package ical

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/javiermolinar/rota/internal/dateutil"
)

// DefaultMaxOccurrences caps the expansion of a single recurring event.
const DefaultMaxOccurrences = 366

// Occurrence is one concrete instance of an event.
type Occurrence struct {
	Event
	// Key identifies the instance among the occurrences of the same UID.
	Key string
}

// Expansion is the result of expanding a list of events.
type Expansion struct {
	Occurrences []Occurrence
	Truncated   []string // UIDs that hit the occurrence cap
	Skipped     []Skipped
}

// Expand turns events into the occurrences that touch [from, to). Events
// without a recurrence rule yield themselves when they touch the window.
// limit bounds the occurrences of one event; zero means DefaultMaxOccurrences.
func Expand(events []Event, from, to time.Time, limit int) Expansion {
	if limit <= 0 {
		limit = DefaultMaxOccurrences
	}
	var out Expansion
	for _, ev := range events {
		if ev.RRule == "" {
			if ev.Start.Before(to) && from.Before(ev.End) {
				out.Occurrences = append(out.Occurrences, Occurrence{Event: ev, Key: ev.UID})
			}
			continue
		}
		occ, truncated, err := expandRule(ev, from, to, limit)
		if err != nil {
			out.Skipped = append(out.Skipped, Skipped{UID: ev.UID, Reason: err})
			continue
		}
		if truncated {
			out.Truncated = append(out.Truncated, ev.UID)
		}
		out.Occurrences = append(out.Occurrences, occ...)
	}
	return out
}

func expandRule(ev Event, from, to time.Time, limit int) ([]Occurrence, bool, error) {
	r, err := rrule.StrToRRule(ev.RRule)
	if err != nil {
		return nil, false, fmt.Errorf("invalid RRULE %q: %w", ev.RRule, err)
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(dateutil.TruncateToDay(ex))
	}

	// Instances that start before the window can still reach into it.
	days := max(ev.Days(), 1)
	starts := set.Between(dateutil.AddDays(from, 1-days), to, true)

	var out []Occurrence
	for _, start := range starts {
		day := dateutil.TruncateToDay(start)
		if !day.Before(to) {
			continue
		}
		if len(out) == limit {
			return out, true, nil
		}
		inst := ev
		inst.Start = day
		inst.End = dateutil.AddDays(day, days)
		inst.RRule = ""
		inst.ExDates = nil
		out = append(out, Occurrence{Event: inst, Key: ev.UID + "/" + dateutil.Format(day)})
	}
	return out, false, nil
}
