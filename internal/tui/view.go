package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/javiermolinar/rota/internal/booking"
	"github.com/javiermolinar/rota/internal/dateutil"
	"github.com/javiermolinar/rota/internal/engine"
	"github.com/javiermolinar/rota/internal/lanes"
	"github.com/javiermolinar/rota/internal/timeline"
	"github.com/javiermolinar/rota/internal/tui/input"
)

// View renders the model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.loading {
		return m.styles.InfoStyle.Render("Loading...")
	}

	cols := m.columns()
	lines := make([]string, 0, m.height)
	lines = append(lines, m.renderTitle())
	lines = append(lines, m.renderHeader(cols)...)
	lines = append(lines, m.renderGrid(cols)...)
	lines = append(lines, m.renderFooter()...)
	out := strings.Join(lines, "\n")

	if m.mode == ModeConfirm {
		out = m.overlay.render(out, m.width, m.height, m.confirmContent())
	}
	return out
}

// confirmContent is the body of the delete confirmation box.
func (m Model) confirmContent() string {
	b, ok := m.engine.Booking(m.confirm)
	if !ok {
		return ""
	}
	last := dateutil.AddDays(b.End, -1)
	return strings.Join([]string{
		m.styles.LabelStyle.Render("Delete " + b.Title + "?"),
		m.styles.HelpStyle.Render(fmt.Sprintf("%s  %s → %s", m.ownerName(b.OwnerID), b.Start.Format("Jan 2"), last.Format("Jan 2"))),
		"",
		m.styles.HelpStyle.Render("y: delete   n: keep"),
	}, "\n")
}

// column is one terminal column of the grid.
type column struct {
	day   int // calendar day index, -1 past the last visible day
	date  time.Time
	first bool // first terminal column of its day
}

// columns samples the visible days at the centre of each terminal column.
func (m Model) columns() []column {
	view := m.engine.View()
	year := m.engine.Year()
	cols := make([]column, m.gridWidth())
	for i := range cols {
		day, ok := view.DayAt(float64(m.scrollX+i) + 0.5)
		if !ok {
			cols[i] = column{day: -1}
			continue
		}
		cols[i] = column{
			day:   day,
			date:  dateutil.DateOfDayIndex(year, day),
			first: i == 0 || cols[i-1].day != day,
		}
	}
	return cols
}

func isWeekend(t time.Time) bool {
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}

func (m Model) today() time.Time {
	return dateutil.TruncateToDay(m.now())
}

func (m Model) renderTitle() string {
	title := m.styles.TitleStyle.Render(fmt.Sprintf("rota %d", m.engine.Year()))

	info := []string{fmt.Sprintf("zoom %.3gx", m.engine.Zoom())}
	if s := m.engine.ColumnScale(); s != 1 {
		info = append(info, fmt.Sprintf("scale %.3gx", s))
	}
	if hidden := m.engine.View().Visibility().HiddenMonths(); len(hidden) > 0 {
		names := make([]string, len(hidden))
		for i, mo := range hidden {
			names[i] = time.Month(mo).String()[:3]
		}
		info = append(info, "hidden "+strings.Join(names, " "))
	}
	h := m.engine.History()
	info = append(info, fmt.Sprintf("undo %d  redo %d", h.UndoCount(), h.RedoCount()))
	if st := m.engine.State(); st != engine.StateIdle {
		info = append(info, st.String())
	}

	line := title + m.styles.InfoStyle.Render(strings.Join(info, "  ·  "))
	return ansi.Truncate(line, m.width, "")
}

// renderHeader draws the month and day lines above the grid.
func (m Model) renderHeader(cols []column) []string {
	blank := strings.Repeat(" ", labelWidth)
	c := newCanvas(len(cols), 2, m.styles.MonthHeaderStyle)
	monthStyle := 0
	dayStyle := c.add(m.styles.DayHeaderStyle)
	weekendStyle := c.add(m.styles.WeekendHeader)
	todayStyle := c.add(m.styles.TodayHeaderStyle)
	today := m.today()

	// Later months overwrite the tail of a name that runs into them.
	for x, col := range cols {
		if col.day < 0 {
			continue
		}
		if x == 0 || cols[x-1].day < 0 || cols[x-1].date.Month() != col.date.Month() {
			c.text(x, 0, col.date.Month().String(), monthStyle, c.w)
		}
	}

	next := 0
	for x, col := range cols {
		style := dayStyle
		switch {
		case col.day < 0:
		case col.date.Equal(today):
			style = todayStyle
		case isWeekend(col.date):
			style = weekendStyle
		}
		c.set(x, 1, ' ', style)
		if col.first && x >= next {
			label := strconv.Itoa(col.date.Day())
			next = c.text(x, 1, label, style, c.w) + 1
		}
	}
	return []string{blank + c.line(0), blank + c.line(1)}
}

// renderGrid draws the owner labels, the day cells, the bookings and the
// active gesture preview.
func (m Model) renderGrid(cols []column) []string {
	gh := m.gridHeight()
	layout := m.engine.Layout()
	cellH := m.engine.View().CellHeight()
	c := newCanvas(len(cols), gh, m.styles.EmptyCellStyle)

	base := [...]lipgloss.Style{m.styles.EmptyCellStyle, m.styles.AltRowCellStyle, m.styles.WeekendCellStyle}
	var plain, today [3]int
	for i, st := range base {
		plain[i] = c.add(st)
		today[i] = c.add(m.styles.TodayCellStyle.Inherit(st))
	}
	todayDate := m.today()
	separators := m.engine.View().CellWidth() >= 2

	ownerIndex := map[string]int{lanes.Shared: 0}
	for i, mem := range m.engine.Members() {
		ownerIndex[mem.ID] = i + 1
	}

	labels := make([]string, gh)
	for y := range gh {
		py := m.scrollY + y
		rowIdx := int(float64(py) / cellH)
		row, ok := layout.RowAt(rowIdx)
		if !ok {
			labels[y] = strings.Repeat(" ", labelWidth)
			continue
		}
		firstLine := int(math.Ceil(float64(rowIdx)*cellH)) == py
		labels[y] = m.renderLabel(row, firstLine)

		shade := ownerIndex[row.OwnerID] % 2
		for x, col := range cols {
			kind := shade
			if col.day >= 0 && isWeekend(col.date) {
				kind = 2
			}
			style := plain[kind]
			switch {
			case col.day >= 0 && col.first && col.date.Equal(todayDate):
				c.set(x, y, '▏', today[kind])
			case separators && col.day >= 0 && col.first && col.date.Weekday() == time.Monday:
				c.set(x, y, '┊', style)
			default:
				c.set(x, y, ' ', style)
			}
		}
	}

	for _, item := range m.engine.Items() {
		if item.Active {
			continue
		}
		b := item.Booking
		hovered := b.ID == m.hover.BookingID || b.ID == m.selected
		style := c.add(m.bookingStyle(b, item.Pending, hovered))
		for _, r := range item.Rects {
			m.paintRect(c, r, b.Title, style)
		}
	}

	if p, ok := m.engine.Preview(); ok {
		st := m.styles.PreviewStyle
		if p.Colliding {
			st = m.styles.CollisionStyle
		}
		style := c.add(st)
		label := previewLabel(p)
		for _, r := range p.Rects {
			m.paintRect(c, r, label, style)
		}
	}

	lines := make([]string, gh)
	for y := range gh {
		lines[y] = labels[y] + c.line(y)
	}
	return lines
}

// renderLabel draws the owner column for one grid line.
func (m Model) renderLabel(row timeline.Row, firstLine bool) string {
	st := m.styles.LaneLabelStyle
	text := ""
	switch {
	case !firstLine:
	case row.Lane > 0:
		text = fmt.Sprintf("  lane %d", row.Lane+1)
	case row.OwnerID == lanes.Shared:
		st = m.styles.SharedLabelStyle
		text = "Shared"
	default:
		st = m.styles.LabelStyle
		if mem, ok := m.engine.Member(row.OwnerID); ok {
			text = mem.Name
			if mem.Color != "" {
				st = st.Foreground(lipgloss.Color(mem.Color))
			}
		}
	}
	text = ansi.Truncate(text, labelWidth-1, "…")
	return st.Width(labelWidth).MaxWidth(labelWidth).Render(text)
}

// bookingStyle picks a bar style. Bookings without a color use their
// owner's color; shared ones fall back to the shared track color.
func (m Model) bookingStyle(b booking.Booking, pending, hovered bool) lipgloss.Style {
	color := b.Color
	if color == "" && b.IsShared() && !b.IsLeave() {
		return m.styles.SharedBookingStyle(hovered)
	}
	if color == "" && !b.IsLeave() {
		if mem, ok := m.engine.Member(b.OwnerID); ok {
			color = mem.Color
		}
	}
	return m.styles.BookingStyle(color, b.IsLeave(), pending, hovered)
}

// paintRect fills a timeline rectangle and writes label on its first line.
// A day covers the terminal columns whose centre lies inside it; bars too
// narrow to cover any centre still get one column.
func (m Model) paintRect(c *canvas, r timeline.Rect, label string, style int) {
	x0 := int(math.Ceil(r.X-0.5)) - m.scrollX
	x1 := int(math.Ceil(r.X+r.W-0.5)) - m.scrollX
	if x1 <= x0 {
		x1 = x0 + 1
	}
	y0 := int(math.Ceil(r.Y)) - m.scrollY
	y1 := int(math.Ceil(r.Y+r.H)) - m.scrollY
	for y := y0; y < y1; y++ {
		c.fill(x0, x1, y, style)
	}
	start := max(x0, 0)
	if x1-start > 2 {
		c.text(start+1, y0, label, style, x1)
	}
}

// previewLabel describes the drafted or moved range.
func previewLabel(p engine.Preview) string {
	last := dateutil.AddDays(p.Fields.End, -1)
	label := fmt.Sprintf("%s→%s %s", p.Fields.Start.Format("Jan 2"), last.Format("Jan 2"), p.Fields.Title)
	if p.Colliding {
		label += " (overlaps)"
	}
	return label
}

// renderFooter draws the status line, the key help and the prompt.
func (m Model) renderFooter() []string {
	var status string
	switch {
	case m.statusMsg != "" && m.statusErr:
		status = m.styles.StatusErrorStyle.Render(m.statusMsg)
	case m.statusMsg != "":
		status = m.styles.StatusStyle.Render(m.statusMsg)
	default:
		status = m.styles.HelpStyle.Render(m.hoverInfo())
	}
	lines := []string{ansi.Truncate(status, m.width, "…")}
	lines = append(lines, strings.Split(m.help.View(m.keys), "\n")...)

	if m.mode == ModePrompt {
		prompt := m.styles.PromptStyle.Render(m.prompt.View())
		matches := input.PromptMatchingCommands(m.prompt.Value(), promptCommands)
		if len(matches) > 0 {
			hints := make([]string, len(matches))
			for i, cmd := range matches {
				hints[i] = cmd.Name
			}
			prompt += "  " + m.styles.HelpStyle.Render(strings.Join(hints, " "))
			if len(matches) == 1 {
				prompt += m.styles.HelpStyle.Render(": " + matches[0].Description)
			}
		}
		lines = append(lines, ansi.Truncate(prompt, m.width, "…"))
	}
	return lines
}

// hoverInfo describes what is under the pointer.
func (m Model) hoverInfo() string {
	if m.hover.BookingID == "" {
		if m.hover.Zone == engine.ZoneNone {
			return "alt+drag: new booking  ctrl+drag: leave  drag: move  drag an edge: resize"
		}
		date := dateutil.DateOfDayIndex(m.engine.Year(), m.hover.Day)
		return fmt.Sprintf("%s  %s", m.ownerName(m.hover.Row.OwnerID), date.Format("Mon Jan 2 2006"))
	}
	b, ok := m.engine.Booking(m.hover.BookingID)
	if !ok {
		return ""
	}
	last := dateutil.AddDays(b.End, -1)
	parts := []string{
		b.Title,
		m.ownerName(b.OwnerID),
		fmt.Sprintf("%s → %s (%dd)", b.Start.Format("Jan 2"), last.Format("Jan 2"), b.Days()),
	}
	if b.Link != "" {
		parts = append(parts, b.Link)
	}
	if b.Comment != "" {
		parts = append(parts, b.Comment)
	}
	if m.engine.IsPending(b.ID) {
		parts = append(parts, "saving...")
	}
	return strings.Join(parts, "  ·  ")
}
