// Package dateutil provides day-granularity calendar helpers.
//
// All values are local wall-clock days: a date is a time.Time at midnight in
// time.Local. Day arithmetic goes through time.Date so DST transitions never
// produce 23 or 25 hour days.
package dateutil

import (
	"errors"
	"strings"
	"time"
)

// Validation errors.
var (
	ErrInvalidDateFormat  = errors.New("date must be in YYYY-MM-DD format")
	ErrEndDateBeforeStart = errors.New("end date must be on or after start date")
)

// Layout is the date format used across CLI flags, storage and logs.
const Layout = "2006-01-02"

// DateRange represents a validated inclusive date range as typed by a user.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange creates a new DateRange with validation.
// startDate can be empty (defaults to today) or in YYYY-MM-DD format.
// endDate can be empty (defaults to startDate) or in YYYY-MM-DD format.
func NewDateRange(startDate, endDate string) (*DateRange, error) {
	start, err := ParseDate(startDate)
	if err != nil {
		return nil, err
	}

	end := start
	if endDate != "" {
		end, err = ParseDate(endDate)
		if err != nil {
			return nil, err
		}
	}

	if end.Before(start) {
		return nil, ErrEndDateBeforeStart
	}

	return &DateRange{Start: start, End: end}, nil
}

// ParseDate parses a date string in YYYY-MM-DD format as a local day.
// If the string is empty, returns today's date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TruncateToDay(time.Now()), nil
	}
	t, err := time.ParseInLocation(Layout, s, time.Local)
	if err != nil {
		return time.Time{}, ErrInvalidDateFormat
	}
	return t, nil
}

// Format renders a day as YYYY-MM-DD.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// Today returns the current local day at midnight.
func Today() time.Time {
	return TruncateToDay(time.Now())
}

// TruncateToDay returns t at local midnight of the same calendar day.
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// Date builds a local-midnight day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.Local)
}

// AddDays returns the day n days after t (n may be negative).
func AddDays(t time.Time, n int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+n, 0, 0, 0, 0, time.Local)
}

// YearStart returns January 1st of year.
func YearStart(year int) time.Time {
	return Date(year, time.January, 1)
}

// DaysInYear returns 365 or 366.
func DaysInYear(year int) int {
	return DaysBetween(YearStart(year), YearStart(year+1))
}

// DaysBetween returns the number of calendar days from a to b.
// The result is negative when b is before a.
func DaysBetween(a, b time.Time) int {
	// Compare in UTC so the difference is an exact multiple of 24h.
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// DayIndex returns the zero-based day of year of t relative to January 1st
// of year. Dates outside the year yield negative or >= DaysInYear values.
func DayIndex(t time.Time, year int) int {
	return DaysBetween(YearStart(year), t)
}

// DateOfDayIndex is the inverse of DayIndex.
func DateOfDayIndex(year, index int) time.Time {
	return Date(year, time.January, 1+index)
}
