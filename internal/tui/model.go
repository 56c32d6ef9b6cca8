// Package tui provides the terminal user interface for rota.
package tui

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/rota/internal/booking"
	"github.com/javiermolinar/rota/internal/config"
	"github.com/javiermolinar/rota/internal/engine"
	"github.com/javiermolinar/rota/internal/logging"
	"github.com/javiermolinar/rota/internal/timeline"
	"github.com/javiermolinar/rota/internal/tui/commands"
	"github.com/javiermolinar/rota/internal/tui/theme"
)

// Mode represents the current interaction mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModePrompt      // Command prompt open
	ModeConfirm     // Waiting for a yes/no answer
)

// gridTop is the number of lines above the grid: title, months, days.
const gridTop = 3

// defaultStatusTTL is how long a status message stays visible.
const defaultStatusTTL = 3 * time.Second

// Backend is what the TUI needs from storage.
type Backend interface {
	booking.Store
	booking.Loader
}

// Model is the main TUI model.
type Model struct {
	// Dependencies
	backend Backend
	config  *config.Config
	engine  *engine.Engine
	exec    *cmdExecutor
	changes <-chan booking.Snapshot
	log     logging.Logger

	// Theme and styles
	theme   *theme.Theme
	styles  *Styles
	keys    KeyMap
	help    help.Model
	overlay overlay

	// State
	mode     Mode
	loading  bool
	prompt   textinput.Model
	selected string       // booking selected by the last click
	focus    timeline.Row // row of the last click, for lane commands
	focused  bool
	hover    engine.Hit
	scrolled bool   // the user scrolled before the first snapshot arrived
	confirm  string // booking waiting for delete confirmation

	// Terminal dimensions and viewport
	width   int
	height  int
	scrollX int // columns
	scrollY int // lines

	// Messages
	statusMsg  string    // Temporary status/error message
	statusErr  bool      // statusMsg is an error
	statusTime time.Time // When to clear message
	statusTTL  time.Duration

	copy func(string) error
	now  func() time.Time
}

// ModelOption configures optional model behavior.
type ModelOption func(*Model)

// WithWatcher feeds live snapshots into the model.
func WithWatcher(changes <-chan booking.Snapshot) ModelOption {
	return func(m *Model) {
		m.changes = changes
	}
}

// WithLogger sets the logger used by the model and its engine.
func WithLogger(log logging.Logger) ModelOption {
	return func(m *Model) {
		if log != nil {
			m.log = log
		}
	}
}

// WithContext sets the context backend writes run under.
func WithContext(ctx context.Context) ModelOption {
	return func(m *Model) {
		m.exec.ctx = ctx
	}
}

// WithClipboard replaces the system clipboard.
func WithClipboard(copy func(string) error) ModelOption {
	return func(m *Model) {
		m.copy = copy
	}
}

func withStatusTTL(d time.Duration) ModelOption {
	return func(m *Model) {
		m.statusTTL = d
	}
}

func withClock(now func() time.Time) ModelOption {
	return func(m *Model) {
		m.now = now
	}
}

// New creates a new TUI model.
func New(backend Backend, cfg *config.Config, opts ...ModelOption) *Model {
	// Load theme from config
	t, err := theme.Load(cfg.UI.Theme)
	if err != nil {
		t, _ = theme.Load(theme.DefaultName)
	}
	styles := NewStyles(t)

	ti := textinput.New()
	ti.Placeholder = "/title, /color, /link, /comment, /transfer, /goto"
	ti.CharLimit = 256
	ti.Prompt = "› "

	m := &Model{
		backend:   backend,
		config:    cfg,
		exec:      &cmdExecutor{ctx: context.Background()},
		log:       logging.Nop(),
		theme:     t,
		styles:    styles,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		overlay:   overlay{bg: lipgloss.Color(t.BgHighlight)},
		mode:      ModeNormal,
		loading:   true,
		prompt:    ti,
		statusTTL: defaultStatusTTL,
		copy:      clipboard.WriteAll,
		now:       time.Now,
	}
	m.help.Styles.ShortKey = styles.HelpStyle.Bold(true)
	m.help.Styles.ShortDesc = styles.HelpStyle
	m.help.Styles.FullKey = styles.HelpStyle.Bold(true)
	m.help.Styles.FullDesc = styles.HelpStyle

	for _, opt := range opts {
		opt(m)
	}

	m.engine = engine.New(backend, m.exec, m.log, cfg.Engine())
	return m
}

// Engine returns the engine driving the view.
func (m Model) Engine() *engine.Engine {
	return m.engine
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		commands.LoadSnapshot(m.backend, m.engine.Year()),
		commands.WaitForSnapshot(m.changes),
	)
}

// cmdExecutor turns engine writes into tea commands. Queued commands are
// handed to bubbletea at the end of each Update, and their completions come
// back as OpDoneMsg so that Done runs on the event loop.
type cmdExecutor struct {
	ctx    context.Context
	queued []tea.Cmd
}

// Go implements engine.Executor.
func (x *cmdExecutor) Go(op engine.Op) {
	x.queued = append(x.queued, commands.RunOp(x.ctx, op))
}

// drain returns the queued writes as one command.
func (x *cmdExecutor) drain() tea.Cmd {
	if len(x.queued) == 0 {
		return nil
	}
	cmds := x.queued
	x.queued = nil
	return tea.Batch(cmds...)
}
