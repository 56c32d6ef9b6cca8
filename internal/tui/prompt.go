package tui

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/rota/internal/booking"
	"github.com/javiermolinar/rota/internal/dateutil"
	"github.com/javiermolinar/rota/internal/engine"
	"github.com/javiermolinar/rota/internal/lanes"
	"github.com/javiermolinar/rota/internal/tui/input"
)

var promptCommands = []input.PromptCommand{
	{
		Name:        "/title",
		Description: "Rename the selected booking",
	},
	{
		Name:        "/color",
		Description: "Set the selected booking's color (#rrggbb, empty to reset)",
	},
	{
		Name:        "/link",
		Description: "Attach a link to the selected booking",
	},
	{
		Name:        "/comment",
		Description: "Attach a comment to the selected booking",
	},
	{
		Name:        "/transfer",
		Description: "Move the selected booking to another member or to shared",
	},
	{
		Name:        "/goto",
		Description: "Scroll to a date (YYYY-MM-DD)",
	},
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// openPrompt switches to prompt mode with value pre-filled.
func (m *Model) openPrompt(value string) tea.Cmd {
	if m.engine.State() != engine.StateIdle {
		m.engine.Cancel()
	}
	m.mode = ModePrompt
	m.prompt.SetValue(value)
	m.prompt.CursorEnd()
	m.clampScroll()
	return m.prompt.Focus()
}

func (m *Model) closePrompt() {
	m.mode = ModeNormal
	m.prompt.Blur()
	m.prompt.SetValue("")
	m.clampScroll()
}

// handlePromptKeys handles keys while the command prompt is open.
func (m Model) handlePromptKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePrompt()
		return m, nil
	case "enter":
		value := m.prompt.Value()
		m.closePrompt()
		if err := m.runPrompt(value); err != nil {
			return m, m.setError(err)
		}
		return m, m.setStatus("Done")
	case "tab":
		if completed, ok := input.PromptAutocomplete(m.prompt.Value(), promptCommands, m.promptArgs); ok {
			m.prompt.SetValue(completed)
			m.prompt.CursorEnd()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

// promptArgs offers argument completions for a command.
func (m Model) promptArgs(cmd string) []string {
	if cmd != "/transfer" {
		return nil
	}
	names := []string{"shared"}
	for _, mem := range m.engine.Members() {
		names = append(names, mem.Name)
	}
	return names
}

// runPrompt executes a prompt line against the engine.
func (m *Model) runPrompt(value string) error {
	name, arg, ok := input.ParsePrompt(value)
	if !ok {
		return fmt.Errorf("unknown command %q", value)
	}

	if name == "/goto" {
		t, err := dateutil.ParseDate(arg)
		if err != nil {
			return err
		}
		m.scrolled = true
		if !m.scrollToDate(t) {
			return fmt.Errorf("%s is not on this timeline", arg)
		}
		return nil
	}

	b, ok := m.engine.Booking(m.selected)
	if !ok {
		return errNoSelection
	}
	f := b.Fields()

	switch name {
	case "/title":
		if arg == "" {
			return booking.ErrEmptyTitle
		}
		f.Title = arg
	case "/color":
		if arg != "" && !hexColor.MatchString(arg) {
			return fmt.Errorf("invalid color %q, want #rrggbb", arg)
		}
		f.Color = arg
	case "/link":
		f.Link = arg
	case "/comment":
		f.Comment = arg
	case "/transfer":
		target, err := m.resolveOwner(arg)
		if err != nil {
			return err
		}
		return m.engine.Transfer(b.ID, target)
	default:
		return fmt.Errorf("unknown command %q", name)
	}
	return m.engine.Update(b.ID, f)
}

// resolveOwner maps a member name, or "shared", to an owner ID.
func (m Model) resolveOwner(name string) (string, error) {
	if name == "" {
		return "", errors.New("transfer needs a member name or shared")
	}
	if strings.EqualFold(name, "shared") {
		return lanes.Shared, nil
	}
	for _, mem := range m.engine.Members() {
		if strings.EqualFold(mem.Name, name) {
			return mem.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %s", booking.ErrMemberNotFound, name)
}

// bookingSummary is the text copied to the clipboard.
func bookingSummary(b booking.Booking, owner string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s): %s to %s", b.Title, owner,
		dateutil.Format(b.Start), dateutil.Format(dateutil.AddDays(b.End, -1)))
	if b.Link != "" {
		sb.WriteString("\n" + b.Link)
	}
	if b.Comment != "" {
		sb.WriteString("\n" + b.Comment)
	}
	return sb.String()
}
