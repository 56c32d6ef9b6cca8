package tui

import (
	"errors"
	"fmt"
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/rota/internal/booking"
	"github.com/javiermolinar/rota/internal/dateutil"
	"github.com/javiermolinar/rota/internal/engine"
	"github.com/javiermolinar/rota/internal/lanes"
	"github.com/javiermolinar/rota/internal/tui/commands"
)

// Zoom and column scale limits.
const (
	zoomStep  = 1.25
	minZoom   = 0.2
	maxZoom   = 8
	scaleStep = 0.25
	minScale  = 0.5
	maxScale  = 4
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		m, cmd = m.handleKeyMsg(msg)

	case tea.MouseMsg:
		m, cmd = m.handleMouseMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.prompt.Width = max(msg.Width-4, 10)
		m.clampScroll()

	case commands.SnapshotMsg:
		m.engine.ApplySnapshot(msg.Snapshot)
		if m.loading {
			m.loading = false
			if !m.scrolled {
				m.scrollToDate(dateutil.TruncateToDay(m.now()))
			}
		}
		if m.selected != "" {
			if _, ok := m.engine.Booking(m.selected); !ok {
				m.selected = ""
			}
		}
		m.clampScroll()
		if msg.Live {
			cmd = commands.WaitForSnapshot(m.changes)
		}

	case commands.WatcherClosedMsg:
		m.log.Debug(m.exec.ctx, "watcher stream closed")

	case commands.OpDoneMsg:
		if msg.Op.Done != nil {
			msg.Op.Done(msg.Err)
		}
		if err := m.engine.LastError(); err != nil {
			cmd = m.setError(err)
		}
		if m.selected != "" {
			if _, ok := m.engine.Booking(m.selected); !ok {
				m.selected = ""
			}
		}
		m.clampScroll()

	case commands.ErrMsg:
		m.loading = false
		m.log.Error(m.exec.ctx, "tui error", "error", msg.Err)
		cmd = m.setError(msg.Err)

	case commands.StatusMsgCmd:
		cmd = m.setStatus(msg.Msg)

	case commands.ClearStatusMsg:
		if !m.now().Before(m.statusTime) {
			m.statusMsg = ""
			m.statusErr = false
		}
	}

	// Writes queued by the engine during this update run after it.
	return m, tea.Batch(cmd, m.exec.drain())
}

// setStatus shows a temporary message in the footer.
func (m *Model) setStatus(msg string) tea.Cmd {
	m.statusMsg = msg
	m.statusErr = false
	return m.statusTick()
}

// setError shows err in the footer.
func (m *Model) setError(err error) tea.Cmd {
	m.statusMsg = errorText(err)
	m.statusErr = true
	return m.statusTick()
}

func (m *Model) statusTick() tea.Cmd {
	if m.statusTTL <= 0 {
		return nil
	}
	m.statusTime = m.now().Add(m.statusTTL)
	return tea.Tick(m.statusTTL, func(time.Time) tea.Msg {
		return commands.ClearStatusMsg{}
	})
}

// errorText turns the errors a user can cause into short messages.
func errorText(err error) string {
	switch {
	case errors.Is(err, booking.ErrCollision):
		return "Overlaps another booking"
	case errors.Is(err, engine.ErrGestureActive):
		return "Finish the current gesture first"
	case errors.Is(err, engine.ErrNothingToUndo):
		return "Nothing to undo"
	case errors.Is(err, engine.ErrNothingToRedo):
		return "Nothing to redo"
	case errors.Is(err, lanes.ErrLaneOccupied):
		return "The last lane still has bookings"
	case errors.Is(err, lanes.ErrMinimumLanes):
		return "At least one lane is required"
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

// gridWidth is the number of terminal columns available to days.
func (m Model) gridWidth() int {
	return max(m.width-labelWidth, 0)
}

// gridHeight is the number of terminal lines available to lanes.
func (m Model) gridHeight() int {
	return max(m.height-gridTop-m.footerHeight(), 0)
}

func (m Model) footerHeight() int {
	h := 1 + lipgloss.Height(m.help.View(m.keys))
	if m.mode == ModePrompt {
		h++
	}
	return h
}

// contentWidth and contentHeight are the full scrollable extents.
func (m Model) contentWidth() int {
	return int(math.Ceil(m.engine.View().Width()))
}

func (m Model) contentHeight() int {
	return int(math.Ceil(float64(m.engine.Layout().Len()) * m.engine.View().CellHeight()))
}

func (m *Model) clampScroll() {
	m.scrollX = min(max(m.scrollX, 0), max(m.contentWidth()-m.gridWidth(), 0))
	m.scrollY = min(max(m.scrollY, 0), max(m.contentHeight()-m.gridHeight(), 0))
}

// scrollToDate brings t into view, a third of the way from the left edge.
// It reports false when t is outside the year or in a hidden month.
func (m *Model) scrollToDate(t time.Time) bool {
	x, ok := m.engine.View().XOfDay(dateutil.DayIndex(t, m.engine.Year()))
	if !ok {
		return false
	}
	m.scrollX = int(x) - m.gridWidth()/3
	m.clampScroll()
	return true
}

// rescale applies a geometry change while keeping the leftmost day in place.
func (m *Model) rescale(apply func()) {
	view := m.engine.View()
	left := view.ClampedDayAt(float64(m.scrollX) + 0.5)
	apply()
	if x, ok := m.engine.View().XOfDay(left); ok {
		m.scrollX = int(math.Ceil(x))
	}
	m.clampScroll()
}

func (m *Model) setZoom(z float64) {
	z = min(max(z, minZoom), maxZoom)
	m.rescale(func() { m.engine.SetZoom(z) })
}

func (m *Model) setColumnScale(s float64) {
	s = min(max(s, minScale), maxScale)
	m.rescale(func() { m.engine.SetColumnScale(s) })
}

// toggleMonth hides or shows the month under the pointer, or the month in
// the middle of the viewport when the pointer is not over a day.
func (m *Model) toggleMonth() tea.Cmd {
	view := m.engine.View()
	var month time.Month
	if m.hover.Zone != engine.ZoneNone {
		month = dateutil.DateOfDayIndex(m.engine.Year(), m.hover.Day).Month()
	} else {
		month = dateutil.DateOfDayIndex(m.engine.Year(), view.ClampedDayAt(float64(m.scrollX+m.gridWidth()/2))).Month()
	}
	next := view.Visibility().Toggle(month)
	if len(next.HiddenMonths()) == 12 {
		return m.setError(errors.New("cannot hide every month"))
	}
	m.rescale(func() { m.engine.SetVisibility(next) })
	m.hover = engine.Hit{}
	if next.Visible(month) {
		return m.setStatus("Showing " + month.String())
	}
	return m.setStatus("Hiding " + month.String())
}

// focusOwner returns the owner lane commands act on: the selected booking's
// owner, or the row last clicked.
func (m Model) focusOwner() (string, bool) {
	if b, ok := m.engine.Booking(m.selected); ok {
		return b.OwnerID, true
	}
	if m.focused {
		return m.focus.OwnerID, true
	}
	return "", false
}

// ownerName returns a display name for an owner ID.
func (m Model) ownerName(owner string) string {
	if owner == lanes.Shared {
		return "Shared"
	}
	if mem, ok := m.engine.Member(owner); ok {
		return mem.Name
	}
	return owner
}
