package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/rota/internal/engine"
)

// wheelColumns is how far one horizontal wheel notch scrolls, in days.
const wheelColumns = 3

// gridPoint converts a terminal cell to timeline coordinates. Cells are
// sampled at their centre so that a cell maps to the day covering most of it.
func (m Model) gridPoint(col, line int) (x, y float64, inside bool) {
	gx, gy := col-labelWidth, line-gridTop
	inside = gx >= 0 && gx < m.gridWidth() && gy >= 0 && gy < m.gridHeight()
	x = float64(gx+m.scrollX) + 0.5
	y = float64(gy+m.scrollY) + 0.5
	return x, y, inside
}

// handleMouseMsg turns terminal mouse events into engine pointer events.
// Alt-drag on an empty cell draws a booking, ctrl-drag draws leave, and a
// plain drag moves or resizes the booking under the pointer.
func (m Model) handleMouseMsg(msg tea.MouseMsg) (Model, tea.Cmd) {
	if m.mode != ModeNormal || m.loading {
		return m, nil
	}
	if tea.MouseEvent(msg).IsWheel() {
		return m.handleWheel(msg)
	}

	x, y, inside := m.gridPoint(msg.X, msg.Y)
	m.logMouse(msg, x, y, inside)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !inside {
			return m, nil
		}
		hit := m.engine.HitTest(x, y)
		m.hover = hit
		m.selected = hit.BookingID
		m.focus, m.focused = hit.Row, hit.Zone != engine.ZoneNone
		mods := engine.Modifiers{Create: msg.Alt, Leave: msg.Ctrl}
		if err := m.engine.PointerDown(x, y, mods); err != nil {
			return m, m.setError(err)
		}
		m.logGesture("pointer down")

	case tea.MouseActionMotion:
		if !inside {
			m.hover = engine.Hit{}
			if m.engine.State() != engine.StateIdle {
				m.engine.PointerLeave()
				m.logGesture("pointer left the grid")
				return m, m.setStatus("Cancelled")
			}
			return m, nil
		}
		m.hover = m.engine.HitTest(x, y)
		m.engine.PointerMove(x, y)

	case tea.MouseActionRelease:
		if m.engine.State() == engine.StateIdle {
			return m, nil
		}
		if !inside {
			m.hover = engine.Hit{}
			m.engine.PointerLeave()
			m.logGesture("pointer released outside the grid")
			return m, m.setStatus("Cancelled")
		}
		state := m.engine.State()
		err := m.engine.PointerUp()
		m.logGesture("pointer up")
		if err != nil {
			return m, m.setError(err)
		}
		if state == engine.StateCreating {
			return m, m.setStatus("Booking created")
		}
		m.hover = m.engine.HitTest(x, y)
	}
	return m, nil
}

// handleWheel scrolls the viewport; shift scrolls sideways and ctrl zooms.
func (m Model) handleWheel(msg tea.MouseMsg) (Model, tea.Cmd) {
	step := max(int(m.engine.View().CellWidth()), 1) * wheelColumns
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		switch {
		case msg.Ctrl:
			m.setZoom(m.engine.Zoom() * zoomStep)
		case msg.Shift:
			m.scrollBy(-step, 0)
		default:
			m.scrollBy(0, -1)
		}
	case tea.MouseButtonWheelDown:
		switch {
		case msg.Ctrl:
			m.setZoom(m.engine.Zoom() / zoomStep)
		case msg.Shift:
			m.scrollBy(step, 0)
		default:
			m.scrollBy(0, 1)
		}
	case tea.MouseButtonWheelLeft:
		m.scrollBy(-step, 0)
	case tea.MouseButtonWheelRight:
		m.scrollBy(step, 0)
	}
	return m, nil
}
