// Package timeline maps calendar days to horizontal screen positions and
// filters the year down to the months the user wants to see.
package timeline

import (
	"math"
	"time"

	"github.com/javiermolinar/rota/internal/dateutil"
)

// BaseCellWidth is the width of one day at zoom 1 and column scale 1.
// The TUI treats one pixel as one terminal column.
const BaseCellWidth = 3.0

// floorEpsilon absorbs float error so that x = i*cellWidth floors back to i.
const floorEpsilon = 1e-9

// Mapper converts between days of a year and horizontal pixel offsets.
// The zero value is not usable; build one with NewMapper.
type Mapper struct {
	Year        int
	Zoom        float64
	ColumnScale float64
	BaseWidth   float64 // width of one day at zoom 1, scale 1
}

// NewMapper returns a Mapper using BaseCellWidth.
func NewMapper(year int, zoom, columnScale float64) Mapper {
	return Mapper{
		Year:        year,
		Zoom:        zoom,
		ColumnScale: columnScale,
		BaseWidth:   BaseCellWidth,
	}
}

// CellWidth returns the width of one day.
func (m Mapper) CellWidth() float64 {
	base := m.BaseWidth
	if base <= 0 {
		base = BaseCellWidth
	}
	return base * m.Zoom * m.ColumnScale
}

// YearDays returns the number of days in the mapped year.
func (m Mapper) YearDays() int {
	return dateutil.DaysInYear(m.Year)
}

// DateToPixel returns the left edge of date.
func (m Mapper) DateToPixel(date time.Time) float64 {
	return float64(dateutil.DayIndex(date, m.Year)) * m.CellWidth()
}

// DayIndexAt returns the day index under x using floor semantics.
func (m Mapper) DayIndexAt(x float64) int {
	cw := m.CellWidth()
	if cw <= 0 {
		return 0
	}
	return int(math.Floor(x/cw + floorEpsilon))
}

// PixelToDate returns the day under x.
func (m Mapper) PixelToDate(x float64) time.Time {
	return dateutil.DateOfDayIndex(m.Year, m.DayIndexAt(x))
}

// RangeToWidth returns the width of [start, end), never less than one day.
func (m Mapper) RangeToWidth(start, end time.Time) float64 {
	days := max(dateutil.DaysBetween(start, end), 1)
	return float64(days) * m.CellWidth()
}

// SnapToGrid rounds pixel to the nearest multiple of cellWidth.
func SnapToGrid(pixel, cellWidth float64) float64 {
	if cellWidth <= 0 {
		return pixel
	}
	return math.Round(pixel/cellWidth) * cellWidth
}

// SnapDays converts a pixel delta into a whole number of days.
func SnapDays(delta, cellWidth float64) int {
	if cellWidth <= 0 {
		return 0
	}
	return int(math.Round(SnapToGrid(delta, cellWidth) / cellWidth))
}
