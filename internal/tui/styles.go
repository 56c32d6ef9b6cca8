package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/rota/internal/tui/theme"
)

// labelWidth is the width of the owner name column.
const labelWidth = 14

// Styles holds all lipgloss styles for the TUI, derived from a theme.
type Styles struct {
	palette *theme.Palette

	// Title bar
	TitleStyle lipgloss.Style
	InfoStyle  lipgloss.Style

	// Header rows
	MonthHeaderStyle lipgloss.Style
	DayHeaderStyle   lipgloss.Style
	TodayHeaderStyle lipgloss.Style
	WeekendHeader    lipgloss.Style

	// Owner labels
	LabelStyle       lipgloss.Style
	SharedLabelStyle lipgloss.Style
	LaneLabelStyle   lipgloss.Style

	// Grid cells
	EmptyCellStyle   lipgloss.Style
	AltRowCellStyle  lipgloss.Style
	WeekendCellStyle lipgloss.Style
	TodayCellStyle   lipgloss.Style

	// Gesture previews
	PreviewStyle   lipgloss.Style
	CollisionStyle lipgloss.Style

	// Footer
	StatusStyle      lipgloss.Style
	StatusErrorStyle lipgloss.Style
	HelpStyle        lipgloss.Style
	PromptStyle      lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t *theme.Theme) *Styles {
	p := theme.NewPalette(t)
	base := lipgloss.NewStyle().Foreground(p.Fg)

	return &Styles{
		palette: p,

		TitleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.TextOnAccent).
			Background(p.Accent).
			Padding(0, 1),
		InfoStyle: lipgloss.NewStyle().Foreground(p.FgMuted).Padding(0, 1),

		MonthHeaderStyle: lipgloss.NewStyle().Bold(true).Foreground(p.Accent).Background(p.BgHighlight),
		DayHeaderStyle:   lipgloss.NewStyle().Foreground(p.FgMuted),
		TodayHeaderStyle: lipgloss.NewStyle().Bold(true).Foreground(p.TextOnAccent).Background(p.Accent),
		WeekendHeader:    lipgloss.NewStyle().Foreground(p.FgMuted).Background(p.WeekendBg),

		LabelStyle:       base.Bold(true),
		SharedLabelStyle: lipgloss.NewStyle().Bold(true).Foreground(p.Shared),
		LaneLabelStyle:   lipgloss.NewStyle().Foreground(p.FgMuted),

		EmptyCellStyle:   lipgloss.NewStyle().Foreground(p.FgMuted),
		AltRowCellStyle:  lipgloss.NewStyle().Foreground(p.FgMuted).Background(p.BgHighlight),
		WeekendCellStyle: lipgloss.NewStyle().Foreground(p.FgMuted).Background(p.WeekendBg),
		TodayCellStyle:   lipgloss.NewStyle().Foreground(p.Accent),

		PreviewStyle:   lipgloss.NewStyle().Bold(true).Foreground(p.Fg).Background(p.BgSelection),
		CollisionStyle: lipgloss.NewStyle().Bold(true).Foreground(p.TextOnCollision).Background(p.CollisionBg),

		StatusStyle:      lipgloss.NewStyle().Foreground(p.Fg),
		StatusErrorStyle: lipgloss.NewStyle().Bold(true).Foreground(p.Warning),
		HelpStyle:        lipgloss.NewStyle().Foreground(p.FgMuted),
		PromptStyle:      lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
	}
}

// BookingStyle returns the style of a booking bar.
func (s *Styles) BookingStyle(color string, leave, pending, hovered bool) lipgloss.Style {
	bg, fg := s.palette.BookingColors(color, leave, pending)
	if hovered {
		bg = s.palette.Highlight(bg)
	}
	st := lipgloss.NewStyle().Foreground(fg).Background(bg)
	if leave {
		st = st.Italic(true)
	}
	return st
}

// SharedBookingStyle returns the style of a booking on the shared track
// without a color of its own.
func (s *Styles) SharedBookingStyle(hovered bool) lipgloss.Style {
	bg := s.palette.SharedBg
	if hovered {
		bg = s.palette.Highlight(bg)
	}
	return lipgloss.NewStyle().Foreground(s.palette.Fg).Background(bg).Bold(true)
}
