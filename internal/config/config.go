// Package config handles configuration loading from files, defaults, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/javiermolinar/rota/internal/engine"
	"github.com/javiermolinar/rota/internal/history"
	"github.com/javiermolinar/rota/internal/logging"
	"github.com/javiermolinar/rota/internal/tui/theme"
)

// Config holds the application configuration.
type Config struct {
	Timeline TimelineConfig `toml:"timeline"`
	Leave    LeaveConfig    `toml:"leave"`
	History  HistoryConfig  `toml:"history"`
	Storage  StorageConfig  `toml:"storage"`
	Sync     SyncConfig     `toml:"sync"`
	UI       UIConfig       `toml:"ui"`
	Log      LogConfig      `toml:"log"`
}

// TimelineConfig holds the grid geometry.
type TimelineConfig struct {
	Year         int     `toml:"year"`          // 0 means the current year
	Zoom         float64 `toml:"zoom"`          // e.g., 1.5
	ColumnScale  float64 `toml:"column_scale"`  // multiplier on top of zoom
	CellWidth    int     `toml:"cell_width"`    // terminal columns per day at zoom 1
	CellHeight   int     `toml:"cell_height"`   // terminal rows per lane
	HiddenMonths []int   `toml:"hidden_months"` // 1..12
}

// LeaveConfig is the preset applied when a booking is drawn with the leave modifier.
type LeaveConfig struct {
	Title string `toml:"title"`
	Color string `toml:"color"`
}

// HistoryConfig holds undo/redo settings.
type HistoryConfig struct {
	MaxEntries int `toml:"max_entries"`
}

// StorageConfig holds database settings.
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// SyncConfig controls how often the TUI looks for changes made elsewhere.
type SyncConfig struct {
	PollInterval string `toml:"poll_interval"` // e.g., "2s"
}

// UIConfig holds TUI settings.
type UIConfig struct {
	Theme string `toml:"theme"` // "mocha", "macchiato", "frappe", "latte"
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
	File  string `toml:"file"`  // TUI log file; empty keeps the TUI silent
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Timeline: TimelineConfig{
			Year:        0,
			Zoom:        1,
			ColumnScale: 1,
			CellWidth:   3,
			CellHeight:  1,
		},
		Leave: LeaveConfig{
			Title: "Leave",
			Color: "#a6adc8",
		},
		History: HistoryConfig{
			MaxEntries: history.DefaultMaxEntries,
		},
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
		Sync: SyncConfig{
			PollInterval: "2s",
		},
		UI: UIConfig{
			Theme: "mocha",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// defaultDBPath returns the default database path.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "rota.db"
	}
	return filepath.Join(home, ".local", "share", "rota", "rota.db")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "rota", "config.toml")
}

// Load loads configuration from the default path, merging with defaults and env vars.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from the specified path.
// It starts with defaults, overlays file config if it exists, then applies env overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	// Try to load from file (not an error if it doesn't exist)
	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)
	cfg.Log.File = expandPath(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads config from a file if it exists.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, use defaults
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over file config.
func applyEnvOverrides(cfg *Config) error {
	// Timeline overrides
	if v := os.Getenv("ROTA_YEAR"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ROTA_YEAR: %w", err)
		}
		cfg.Timeline.Year = year
	}
	if v := os.Getenv("ROTA_ZOOM"); v != "" {
		zoom, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("ROTA_ZOOM: %w", err)
		}
		cfg.Timeline.Zoom = zoom
	}
	if v := os.Getenv("ROTA_HIDDEN_MONTHS"); v != "" {
		months, err := parseMonths(v)
		if err != nil {
			return fmt.Errorf("ROTA_HIDDEN_MONTHS: %w", err)
		}
		cfg.Timeline.HiddenMonths = months
	}

	if v := os.Getenv("ROTA_LEAVE_TITLE"); v != "" {
		cfg.Leave.Title = v
	}
	if v := os.Getenv("ROTA_LEAVE_COLOR"); v != "" {
		cfg.Leave.Color = v
	}

	// Storage overrides
	if v := os.Getenv("ROTA_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("ROTA_POLL_INTERVAL"); v != "" {
		cfg.Sync.PollInterval = v
	}

	// UI overrides
	if v := os.Getenv("ROTA_UI_THEME"); v != "" {
		cfg.UI.Theme = v
	}

	if v := os.Getenv("ROTA_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ROTA_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	return nil
}

// parseMonths parses a comma separated month list such as "1,2,12".
func parseMonths(s string) ([]int, error) {
	var months []int
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		m, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid month %q", part)
		}
		months = append(months, m)
	}
	return months, nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	tl := c.Timeline
	if tl.Year < 0 {
		return fmt.Errorf("year must be 0 or positive, got %d", tl.Year)
	}
	if tl.Zoom <= 0 {
		return fmt.Errorf("zoom must be positive, got %g", tl.Zoom)
	}
	if tl.ColumnScale <= 0 {
		return fmt.Errorf("column_scale must be positive, got %g", tl.ColumnScale)
	}
	if tl.CellWidth < 1 {
		return fmt.Errorf("cell_width must be at least 1, got %d", tl.CellWidth)
	}
	if tl.CellHeight < 1 {
		return fmt.Errorf("cell_height must be at least 1, got %d", tl.CellHeight)
	}
	for _, m := range tl.HiddenMonths {
		if m < 1 || m > 12 {
			return fmt.Errorf("hidden_months: invalid month %d", m)
		}
	}
	if len(tl.HiddenMonths) >= 12 && allMonths(tl.HiddenMonths) {
		return errors.New("hidden_months cannot hide every month")
	}

	if strings.TrimSpace(c.Leave.Title) == "" {
		return errors.New("leave title must be set")
	}
	if c.History.MaxEntries < 1 {
		return fmt.Errorf("max_entries must be at least 1, got %d", c.History.MaxEntries)
	}
	if c.Storage.DBPath == "" {
		return errors.New("db_path must be set")
	}
	if _, err := c.PollInterval(); err != nil {
		return err
	}
	if !theme.IsAvailable(c.UI.Theme) {
		return fmt.Errorf("unknown theme %q (available: %s)", c.UI.Theme, strings.Join(theme.Available(), ", "))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

func allMonths(months []int) bool {
	seen := make(map[int]bool, 12)
	for _, m := range months {
		seen[m] = true
	}
	return len(seen) == 12
}

// PollInterval returns the parsed sync interval.
func (c *Config) PollInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Sync.PollInterval)
	if err != nil {
		return 0, fmt.Errorf("poll_interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("poll_interval must be positive, got %s", d)
	}
	return d, nil
}

// TimelineYear returns the configured year, or the current one when unset.
func (c *Config) TimelineYear() int {
	if c.Timeline.Year != 0 {
		return c.Timeline.Year
	}
	return time.Now().Year()
}

// Engine returns the engine settings described by the configuration.
func (c *Config) Engine() engine.Config {
	return engine.Config{
		Year:         c.TimelineYear(),
		Zoom:         c.Timeline.Zoom,
		ColumnScale:  c.Timeline.ColumnScale,
		CellWidth:    float64(c.Timeline.CellWidth),
		CellHeight:   float64(c.Timeline.CellHeight),
		HiddenMonths: c.Timeline.HiddenMonths,
		LeaveTitle:   c.Leave.Title,
		LeaveColor:   c.Leave.Color,
		HistoryMax:   c.History.MaxEntries,
	}
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
