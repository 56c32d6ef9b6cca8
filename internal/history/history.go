// Package history keeps bounded undo and redo stacks of reversible actions.
package history

import (
	"time"

	"github.com/google/uuid"
)

// DefaultMaxEntries is the default depth of each stack.
const DefaultMaxEntries = 50

// Entry is one recorded action.
type Entry struct {
	ID          string
	Kind        string
	Description string
	Time        time.Time
	Action      Action
}

// Manager holds the undo and redo stacks. It is not safe for concurrent use;
// it belongs to the event loop that owns the engine.
type Manager struct {
	undo       []Entry
	redo       []Entry
	maxEntries int
	now        func() time.Time
}

// NewManager creates a Manager keeping at most maxEntries per stack.
// Non-positive values use DefaultMaxEntries.
func NewManager(maxEntries int) *Manager {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Manager{maxEntries: maxEntries, now: time.Now}
}

// Push records a new action on the undo stack and clears the redo stack.
// The oldest entry is dropped when the stack is full.
func (m *Manager) Push(a Action) Entry {
	e := Entry{
		ID:          uuid.NewString(),
		Kind:        a.Kind(),
		Description: Describe(a),
		Time:        m.now(),
		Action:      a,
	}
	m.undo = pushBounded(m.undo, e, m.maxEntries)
	m.redo = nil
	return e
}

// Undo moves the most recent entry to the redo stack and returns it.
func (m *Manager) Undo() (Entry, bool) {
	e, ok := top(m.undo)
	if !ok {
		return Entry{}, false
	}
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = pushBounded(m.redo, e, m.maxEntries)
	return e, true
}

// Redo moves the most recently undone entry back to the undo stack and
// returns it.
func (m *Manager) Redo() (Entry, bool) {
	e, ok := top(m.redo)
	if !ok {
		return Entry{}, false
	}
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = pushBounded(m.undo, e, m.maxEntries)
	return e, true
}

// RevertUndo puts an entry moved by Undo back on the undo stack. It is used
// when replaying the entry failed. Returns false if the entry is no longer on
// the redo stack.
func (m *Manager) RevertUndo(id string) bool {
	var ok bool
	m.redo, m.undo, ok = moveByID(m.redo, m.undo, id, m.maxEntries)
	return ok
}

// RevertRedo puts an entry moved by Redo back on the redo stack.
func (m *Manager) RevertRedo(id string) bool {
	var ok bool
	m.undo, m.redo, ok = moveByID(m.undo, m.redo, id, m.maxEntries)
	return ok
}

// PeekUndo returns the entry Undo would return, without moving it.
func (m *Manager) PeekUndo() (Entry, bool) {
	return top(m.undo)
}

// PeekRedo returns the entry Redo would return, without moving it.
func (m *Manager) PeekRedo() (Entry, bool) {
	return top(m.redo)
}

// CanUndo returns true if there is something to undo.
func (m *Manager) CanUndo() bool {
	return len(m.undo) > 0
}

// CanRedo returns true if there is something to redo.
func (m *Manager) CanRedo() bool {
	return len(m.redo) > 0
}

// UndoCount returns the depth of the undo stack.
func (m *Manager) UndoCount() int {
	return len(m.undo)
}

// RedoCount returns the depth of the redo stack.
func (m *Manager) RedoCount() int {
	return len(m.redo)
}

// Clear empties both stacks.
func (m *Manager) Clear() {
	m.undo = nil
	m.redo = nil
}

func top(stack []Entry) (Entry, bool) {
	if len(stack) == 0 {
		return Entry{}, false
	}
	return stack[len(stack)-1], true
}

func pushBounded(stack []Entry, e Entry, limit int) []Entry {
	if len(stack) >= limit {
		// Remove oldest entry
		stack = stack[len(stack)-limit+1:]
	}
	return append(stack, e)
}

func moveByID(from, to []Entry, id string, limit int) ([]Entry, []Entry, bool) {
	for i := len(from) - 1; i >= 0; i-- {
		if from[i].ID != id {
			continue
		}
		e := from[i]
		from = append(from[:i:i], from[i+1:]...)
		return from, pushBounded(to, e, limit), true
	}
	return from, to, false
}
