package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/rota/internal/engine"
)

// logKey logs a keystroke.
func (m Model) logKey(msg tea.KeyMsg) {
	m.log.Debug(m.exec.ctx, "key",
		"key", msg.String(),
		"mode", m.mode.String(),
		"state", m.engine.State().String(),
	)
}

// logMouse logs a mouse event and where it lands on the grid. Motion without
// an active gesture is too chatty to be useful and is skipped.
func (m Model) logMouse(msg tea.MouseMsg, x, y float64, inside bool) {
	if msg.Action == tea.MouseActionMotion && m.engine.State() == engine.StateIdle {
		return
	}
	m.log.Debug(m.exec.ctx, "mouse",
		"event", msg.String(),
		"x", x,
		"y", y,
		"inside", inside,
		"scroll_x", m.scrollX,
		"scroll_y", m.scrollY,
	)
}

// logGesture logs the engine's gesture state after a pointer event.
func (m Model) logGesture(action string) {
	p, ok := m.engine.Preview()
	if !ok {
		m.log.Debug(m.exec.ctx, action, "state", m.engine.State().String(), "selected", m.selected)
		return
	}
	m.log.Debug(m.exec.ctx, action,
		"state", p.State.String(),
		"booking", p.BookingID,
		"owner", p.Fields.OwnerID,
		"lane", p.Fields.Lane,
		"start", p.Fields.Start.Format("2006-01-02"),
		"end", p.Fields.End.Format("2006-01-02"),
		"colliding", p.Colliding,
	)
}
