package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/javiermolinar/rota/internal/config"
	"github.com/javiermolinar/rota/internal/db"
	"github.com/javiermolinar/rota/internal/logging"
)

// InitState tracks whether startup initialization is required.
type InitState struct {
	NeedsInit     bool
	ConfigMissing bool
	DBMissing     bool
	ConfigPath    string
	DBPath        string
}

// DetectInitState checks for missing config or database files.
func DetectInitState(cfg *config.Config, configPath string) (InitState, error) {
	state := InitState{
		ConfigPath: configPath,
		DBPath:     cfg.Storage.DBPath,
	}

	configMissing, err := pathMissing(state.ConfigPath)
	if err != nil {
		return InitState{}, fmt.Errorf("checking config path: %w", err)
	}
	dbMissing, err := pathMissing(state.DBPath)
	if err != nil {
		return InitState{}, fmt.Errorf("checking db path: %w", err)
	}

	state.ConfigMissing = configMissing
	state.DBMissing = dbMissing
	state.NeedsInit = configMissing || dbMissing
	return state, nil
}

func pathMissing(path string) (bool, error) {
	if path == "" {
		return true, nil
	}
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if os.IsNotExist(err) {
		return true, nil
	}
	return false, err
}

// OpenStore opens the database at dbPath, creating its directory first.
func OpenStore(dbPath string) (*db.SQLite, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("db path is empty")
	}
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	store, err := db.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	return store, nil
}

// Initialize writes the configuration if it is missing and opens the store.
func Initialize(cfg *config.Config, state InitState) (*db.SQLite, error) {
	if state.ConfigMissing && state.ConfigPath != "" {
		if err := cfg.SaveTo(state.ConfigPath); err != nil {
			return nil, fmt.Errorf("saving config: %w", err)
		}
	}
	return OpenStore(state.DBPath)
}

// Run starts the watcher and the program, and returns when the user quits.
func Run(ctx context.Context, store *db.SQLite, cfg *config.Config, log logging.Logger) error {
	interval, err := cfg.PollInterval()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	watcher := db.NewWatcher(store, cfg.TimelineYear(), interval, log)
	model := New(store, cfg,
		WithWatcher(watcher.Changes()),
		WithLogger(log),
		WithContext(ctx),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("watching database: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		defer cancel()
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("running tui: %w", err)
		}
		return nil
	})
	return g.Wait()
}
