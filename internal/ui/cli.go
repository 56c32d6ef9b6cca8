package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/rota/internal/config"
	"github.com/javiermolinar/rota/internal/db"
	"github.com/javiermolinar/rota/internal/logging"
	"github.com/javiermolinar/rota/internal/tui"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// App holds the CLI application state.
type App struct {
	store      *db.SQLite
	config     *config.Config
	configPath string
	root       *cobra.Command
	log        logging.Logger
	closeLog   func() error
	debug      bool // Enable debug logging
	year       int  // --year override, 0 keeps the configured year
}

// NewApp creates a new CLI application. The store is opened on first use.
func NewApp(cfg *config.Config, configPath string) *App {
	a := &App{config: cfg, configPath: configPath, log: logging.Nop()}

	a.root = &cobra.Command{
		Use:   "rota",
		Short: "A team timeline for bookings and leave",
		Long: `Rota keeps a year-long timeline of bookings for a team.

Run without arguments to open the interactive timeline. Drag with Alt held
to create a booking, with Ctrl held to create leave, and drag existing
bookings to move or resize them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("config") {
				cfg, err := config.LoadFrom(a.configPath)
				if err != nil {
					return fmt.Errorf("loading config: %w", err)
				}
				a.config = cfg
			}
			if a.year != 0 {
				a.config.Timeline.Year = a.year
			}
			// The TUI owns the terminal, so it only logs to a file.
			if cmd == a.root {
				return a.openFileLog()
			}
			return a.openStderrLog()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runTUI(cmd.Context())
		},
	}

	// Add global flags
	a.root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging")
	a.root.PersistentFlags().StringVar(&a.configPath, "config", configPath, "Config file")
	a.root.PersistentFlags().IntVar(&a.year, "year", 0, "Timeline year (default: from config, else the current year)")

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.configCmd())
	a.root.AddCommand(a.membersCmd())
	a.root.AddCommand(a.bookCmd())
	a.root.AddCommand(a.lanesCmd())
	a.root.AddCommand(a.timelineCmd())
	a.root.AddCommand(a.importCmd())
	a.root.AddCommand(a.exportCmd())

	return a
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rota %s (commit: %s)\n", Version, Commit)
		},
	}
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.ExecuteContext(context.Background())
}

// ExecuteContext runs the CLI application with ctx.
func (a *App) ExecuteContext(ctx context.Context) error {
	return a.root.ExecuteContext(ctx)
}

// Close releases the store and the log file.
func (a *App) Close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	if a.closeLog != nil {
		errs = append(errs, a.closeLog())
		a.closeLog = nil
	}
	return errors.Join(errs...)
}

// ensureStore opens the database on first use.
func (a *App) ensureStore() error {
	if a.store != nil {
		return nil
	}
	store, err := tui.OpenStore(a.config.Storage.DBPath)
	if err != nil {
		return err
	}
	a.store = store
	return nil
}

func (a *App) runTUI(ctx context.Context) error {
	state, err := tui.DetectInitState(a.config, a.configPath)
	if err != nil {
		return err
	}
	if a.store == nil {
		if state.NeedsInit {
			a.log.Info(ctx, "initializing", "config", state.ConfigPath, "db", state.DBPath,
				"config_missing", state.ConfigMissing, "db_missing", state.DBMissing)
			a.store, err = tui.Initialize(a.config, state)
		} else {
			err = a.ensureStore()
		}
		if err != nil {
			return err
		}
	}
	return tui.Run(ctx, a.store, a.config, a.log)
}

func (a *App) logLevel() (slog.Level, error) {
	if a.debug {
		return slog.LevelDebug, nil
	}
	return logging.ParseLevel(a.config.Log.Level)
}

// openFileLog logs to the configured file, or to a file in the temp
// directory with --debug, and stays silent otherwise.
func (a *App) openFileLog() error {
	path := a.config.Log.File
	if path == "" && a.debug {
		path = filepath.Join(os.TempDir(), "rota-debug.log")
	}
	if path == "" {
		return nil
	}
	lvl, err := a.logLevel()
	if err != nil {
		return err
	}
	log, closeFn, err := logging.OpenFile(path, lvl)
	if err != nil {
		return err
	}
	a.log, a.closeLog = log, closeFn
	return nil
}

func (a *App) openStderrLog() error {
	lvl, err := a.logLevel()
	if err != nil {
		return err
	}
	a.log = logging.New(os.Stderr, lvl, logging.FormatText)
	return nil
}
