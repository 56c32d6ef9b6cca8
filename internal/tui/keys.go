package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/rota/internal/dateutil"
	"github.com/javiermolinar/rota/internal/engine"
	"github.com/javiermolinar/rota/internal/timeline"
)

var errNoSelection = errors.New("no booking selected")

// handleKeyMsg handles keyboard input.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	m.logKey(msg)

	// Global keys (work in all modes)
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.mode {
	case ModePrompt:
		return m.handlePromptKeys(msg)
	case ModeConfirm:
		return m.handleConfirmKeys(msg)
	default:
		return m.handleNormalKeys(msg)
	}
}

// handleConfirmKeys answers the delete confirmation.
func (m Model) handleConfirmKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	id := m.confirm
	switch msg.String() {
	case "y", "enter":
		m.mode, m.confirm = ModeNormal, ""
		b, ok := m.engine.Booking(id)
		if !ok {
			return m, m.setError(errNoSelection)
		}
		if err := m.engine.Delete(id); err != nil {
			return m, m.setError(err)
		}
		m.selected = ""
		return m, m.setStatus("Deleted: " + b.Title)
	case "n", "esc", "q":
		m.mode, m.confirm = ModeNormal, ""
	}
	return m, nil
}

// handleNormalKeys handles keys in normal mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	cw := max(int(m.engine.View().CellWidth()), 1)

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.engine.State() != engine.StateIdle {
			m.engine.Cancel()
			return m, m.setStatus("Cancelled")
		}
		m.selected = ""

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.clampScroll()

	// Navigation
	case key.Matches(msg, m.keys.Left):
		m.scrollBy(-cw, 0)
	case key.Matches(msg, m.keys.Right):
		m.scrollBy(cw, 0)
	case key.Matches(msg, m.keys.Up):
		m.scrollBy(0, -1)
	case key.Matches(msg, m.keys.Down):
		m.scrollBy(0, 1)
	case key.Matches(msg, m.keys.PageLeft):
		m.scrollBy(-max(m.gridWidth(), 1), 0)
	case key.Matches(msg, m.keys.PageRight):
		m.scrollBy(max(m.gridWidth(), 1), 0)
	case key.Matches(msg, m.keys.Today):
		m.scrolled = true
		if !m.scrollToDate(dateutil.TruncateToDay(m.now())) {
			return m, m.setError(errors.New("today is not on this timeline"))
		}

	// View
	case key.Matches(msg, m.keys.ZoomIn):
		m.setZoom(m.engine.Zoom() * zoomStep)
	case key.Matches(msg, m.keys.ZoomOut):
		m.setZoom(m.engine.Zoom() / zoomStep)
	case key.Matches(msg, m.keys.Wider):
		m.setColumnScale(m.engine.ColumnScale() + scaleStep)
	case key.Matches(msg, m.keys.Narrower):
		m.setColumnScale(m.engine.ColumnScale() - scaleStep)
	case key.Matches(msg, m.keys.ResetZoom):
		m.setZoom(1)
		m.setColumnScale(1)
	case key.Matches(msg, m.keys.ToggleMon):
		return m, m.toggleMonth()
	case key.Matches(msg, m.keys.ShowMonths):
		m.rescale(func() { m.engine.SetVisibility(timeline.HideMonths()) })
		return m, m.setStatus("Showing all months")

	// History
	case key.Matches(msg, m.keys.Undo):
		entry, _ := m.engine.History().PeekUndo()
		if err := m.engine.Undo(); err != nil {
			return m, m.setError(err)
		}
		return m, m.setStatus("Undone: " + entry.Description)
	case key.Matches(msg, m.keys.Redo):
		entry, _ := m.engine.History().PeekRedo()
		if err := m.engine.Redo(); err != nil {
			return m, m.setError(err)
		}
		return m, m.setStatus("Redone: " + entry.Description)

	// Selected booking
	case key.Matches(msg, m.keys.Delete):
		if _, ok := m.engine.Booking(m.selected); !ok {
			return m, m.setError(errNoSelection)
		}
		m.engine.Cancel()
		m.mode = ModeConfirm
		m.confirm = m.selected
	case key.Matches(msg, m.keys.Rename):
		b, ok := m.engine.Booking(m.selected)
		if !ok {
			return m, m.setError(errNoSelection)
		}
		return m, m.openPrompt("/title " + b.Title)
	case key.Matches(msg, m.keys.Copy):
		b, ok := m.engine.Booking(m.selected)
		if !ok {
			return m, m.setError(errNoSelection)
		}
		if err := m.copy(bookingSummary(b, m.ownerName(b.OwnerID))); err != nil {
			return m, m.setError(fmt.Errorf("copying to clipboard: %w", err))
		}
		return m, m.setStatus("Copied: " + b.Title)
	case key.Matches(msg, m.keys.Prompt):
		return m, m.openPrompt("/")

	// Lanes
	case key.Matches(msg, m.keys.AddLane):
		owner, ok := m.focusOwner()
		if !ok {
			return m, m.setError(errors.New("click a row first"))
		}
		if err := m.engine.AddLane(owner); err != nil {
			return m, m.setError(err)
		}
		return m, m.setStatus("Added a lane to " + m.ownerName(owner))
	case key.Matches(msg, m.keys.RemoveLane):
		owner, ok := m.focusOwner()
		if !ok {
			return m, m.setError(errors.New("click a row first"))
		}
		if err := m.engine.RemoveLane(owner); err != nil {
			return m, m.setError(err)
		}
		m.clampScroll()
		return m, m.setStatus("Removed a lane from " + m.ownerName(owner))
	}

	return m, nil
}

// scrollBy moves the viewport by dx columns and dy lines.
func (m *Model) scrollBy(dx, dy int) {
	m.scrollX += dx
	m.scrollY += dy
	m.scrolled = true
	m.clampScroll()
}

// String returns a readable mode name.
func (md Mode) String() string {
	switch md {
	case ModeNormal:
		return "normal"
	case ModePrompt:
		return "prompt"
	case ModeConfirm:
		return "confirm"
	default:
		return fmt.Sprintf("unknown(%d)", int(md))
	}
}
