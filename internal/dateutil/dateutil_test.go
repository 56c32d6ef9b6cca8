package dateutil

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr error
	}{
		{"valid", "2025-03-14", Date(2025, time.March, 14), nil},
		{"padded", "  2025-01-01 ", Date(2025, time.January, 1), nil},
		{"bad format", "14/03/2025", time.Time{}, ErrInvalidDateFormat},
		{"bad month", "2025-13-01", time.Time{}, ErrInvalidDateFormat},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDate(tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("ParseDate(%q) error = %v, want %v", tc.input, err, tc.wantErr)
			}
			if err == nil && !got.Equal(tc.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseDate_EmptyIsToday(t *testing.T) {
	got, err := ParseDate("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(TruncateToDay(time.Now())) {
		t.Errorf("expected today, got %v", got)
	}
}

func TestNewDateRange(t *testing.T) {
	r, err := NewDateRange("2025-01-10", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Start.Equal(r.End) {
		t.Errorf("empty end should default to start, got %v..%v", r.Start, r.End)
	}

	if _, err := NewDateRange("2025-01-10", "2025-01-09"); !errors.Is(err, ErrEndDateBeforeStart) {
		t.Errorf("expected ErrEndDateBeforeStart, got %v", err)
	}
}

func TestDaysInYear(t *testing.T) {
	tests := []struct {
		year int
		want int
	}{
		{2023, 365},
		{2024, 366},
		{2100, 365},
		{2000, 366},
	}
	for _, tc := range tests {
		if got := DaysInYear(tc.year); got != tc.want {
			t.Errorf("DaysInYear(%d) = %d, want %d", tc.year, got, tc.want)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	a := Date(2025, time.March, 1)
	b := Date(2025, time.April, 1)
	if got := DaysBetween(a, b); got != 31 {
		t.Errorf("DaysBetween = %d, want 31", got)
	}
	if got := DaysBetween(b, a); got != -31 {
		t.Errorf("DaysBetween reversed = %d, want -31", got)
	}
	if got := DaysBetween(a, a); got != 0 {
		t.Errorf("DaysBetween same day = %d, want 0", got)
	}
}

func TestDayIndexRoundTrip(t *testing.T) {
	for _, year := range []int{2024, 2025} {
		for i := 0; i < DaysInYear(year); i++ {
			d := DateOfDayIndex(year, i)
			if got := DayIndex(d, year); got != i {
				t.Fatalf("year %d: DayIndex(DateOfDayIndex(%d)) = %d", year, i, got)
			}
		}
	}
}

func TestDayIndex_OutsideYear(t *testing.T) {
	if got := DayIndex(Date(2024, time.December, 31), 2025); got != -1 {
		t.Errorf("expected -1, got %d", got)
	}
	if got := DayIndex(Date(2026, time.January, 1), 2025); got != 365 {
		t.Errorf("expected 365, got %d", got)
	}
}

func TestAddDays_CrossesMonth(t *testing.T) {
	got := AddDays(Date(2025, time.January, 30), 3)
	want := Date(2025, time.February, 2)
	if !got.Equal(want) {
		t.Errorf("AddDays = %v, want %v", got, want)
	}
}
