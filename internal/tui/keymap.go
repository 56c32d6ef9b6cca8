package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap lists the bindings of the timeline view.
type KeyMap struct {
	Left      key.Binding
	Right     key.Binding
	Up        key.Binding
	Down      key.Binding
	PageLeft  key.Binding
	PageRight key.Binding
	Today     key.Binding

	ZoomIn     key.Binding
	ZoomOut    key.Binding
	Wider      key.Binding
	Narrower   key.Binding
	ResetZoom  key.Binding
	ToggleMon  key.Binding
	ShowMonths key.Binding

	Undo   key.Binding
	Redo   key.Binding
	Delete key.Binding
	Rename key.Binding
	Prompt key.Binding
	Copy   key.Binding

	AddLane    key.Binding
	RemoveLane key.Binding

	Cancel key.Binding
	Help   key.Binding
	Quit   key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Left:      key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("←/h", "scroll left")),
		Right:     key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("→/l", "scroll right")),
		Up:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "scroll up")),
		Down:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "scroll down")),
		PageLeft:  key.NewBinding(key.WithKeys("H", "pgup"), key.WithHelp("H", "page left")),
		PageRight: key.NewBinding(key.WithKeys("L", "pgdown"), key.WithHelp("L", "page right")),
		Today:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "today")),

		ZoomIn:     key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		ZoomOut:    key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "zoom out")),
		Wider:      key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "wider columns")),
		Narrower:   key.NewBinding(key.WithKeys("["), key.WithHelp("[", "narrower columns")),
		ResetZoom:  key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset zoom")),
		ToggleMon:  key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "hide month")),
		ShowMonths: key.NewBinding(key.WithKeys("M"), key.WithHelp("M", "show all months")),

		Undo:   key.NewBinding(key.WithKeys("ctrl+z", "u"), key.WithHelp("ctrl+z", "undo")),
		Redo:   key.NewBinding(key.WithKeys("ctrl+y", "ctrl+r"), key.WithHelp("ctrl+y", "redo")),
		Delete: key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		Rename: key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "rename")),
		Prompt: key.NewBinding(key.WithKeys("/", ":"), key.WithHelp("/", "command")),
		Copy:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy")),

		AddLane:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add lane")),
		RemoveLane: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove lane")),

		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Undo, k.Redo, k.Rename, k.Delete, k.ZoomIn, k.ZoomOut, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down, k.PageLeft, k.PageRight, k.Today},
		{k.ZoomIn, k.ZoomOut, k.Wider, k.Narrower, k.ResetZoom, k.ToggleMon, k.ShowMonths},
		{k.Undo, k.Redo, k.Rename, k.Delete, k.Prompt, k.Copy},
		{k.AddLane, k.RemoveLane, k.Cancel, k.Help, k.Quit},
	}
}
