// Package commands provides TUI command constructors and message types.
package commands

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/rota/internal/booking"
	"github.com/javiermolinar/rota/internal/engine"
)

// SnapshotMsg carries a full backend snapshot, either from the initial load
// or from the watcher.
type SnapshotMsg struct {
	Snapshot booking.Snapshot
	Live     bool // delivered by the watcher
}

// WatcherClosedMsg is sent once the watcher stream ends.
type WatcherClosedMsg struct{}

// OpDoneMsg is sent when a backend write scheduled by the engine finishes.
type OpDoneMsg struct {
	Op  engine.Op
	Err error
}

// ErrMsg is sent when an error occurs.
type ErrMsg struct {
	Err error
}

// StatusMsgCmd is sent for temporary status messages.
type StatusMsgCmd struct {
	Msg string
}

// ClearStatusMsg is sent to clear the status message.
type ClearStatusMsg struct{}

// LoadSnapshot reads the year from the backend.
func LoadSnapshot(loader booking.Loader, year int) tea.Cmd {
	return func() tea.Msg {
		snap, err := loader.LoadSnapshot(context.Background(), year)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return SnapshotMsg{Snapshot: snap}
	}
}

// WaitForSnapshot blocks until the watcher publishes. Update must issue it
// again after every SnapshotMsg with Live set.
func WaitForSnapshot(changes <-chan booking.Snapshot) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-changes
		if !ok {
			return WatcherClosedMsg{}
		}
		return SnapshotMsg{Snapshot: snap, Live: true}
	}
}

// RunOp performs a backend write off the event loop. The completion comes
// back as an OpDoneMsg so that op.Done runs on the loop.
func RunOp(ctx context.Context, op engine.Op) tea.Cmd {
	return func() tea.Msg {
		return OpDoneMsg{Op: op, Err: op.Run(ctx)}
	}
}

// Status returns a command that shows msg in the status line.
func Status(msg string) tea.Cmd {
	return func() tea.Msg {
		return StatusMsgCmd{Msg: msg}
	}
}
