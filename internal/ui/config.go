package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/rota/internal/config"
	"github.com/javiermolinar/rota/internal/tui/theme"
)

func (a *App) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View or edit configuration",
		Long: `Interactive configuration management.

If no config file exists, creates one with default values.
Otherwise, displays current config and allows editing.`,
		Example: `  rota config
  rota config show`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInteractive(cmd.InOrStdin(), cmd.OutOrStdout(), a.configPath)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the configuration in use",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "Config file: %s\n\n", a.configPath)
			printConfig(cmd.OutOrStdout(), a.config)
			return nil
		},
	})
	return cmd
}

func runConfigInteractive(in io.Reader, out io.Writer, configPath string) error {
	fmt.Fprintf(out, "Config file: %s\n\n", configPath)

	// Load existing config or create defaults
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	_, fileErr := os.Stat(configPath)
	if os.IsNotExist(fileErr) {
		fmt.Fprintln(out, "No config file found. Creating with default values...")
		if err := cfg.SaveTo(configPath); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(out, "Created %s\n\n", configPath)
	}

	printConfig(out, cfg)

	reader := bufio.NewReader(in)
	if !promptYesNo(reader, out, "\nWould you like to edit the configuration?") {
		return nil
	}

	p := prompter{r: reader, w: out}
	cfg.Timeline.Year = p.integer("Year (0 for the current year)", cfg.Timeline.Year)
	cfg.Timeline.Zoom = p.decimal("Zoom", cfg.Timeline.Zoom)
	cfg.Timeline.ColumnScale = p.decimal("Column scale", cfg.Timeline.ColumnScale)
	cfg.Timeline.HiddenMonths = p.months("Hidden months (e.g. jul,aug; - for none)", cfg.Timeline.HiddenMonths)
	cfg.Leave.Title = p.value("Leave title", cfg.Leave.Title)
	cfg.Leave.Color = p.value("Leave color", cfg.Leave.Color)
	cfg.History.MaxEntries = p.integer("Undo history size", cfg.History.MaxEntries)
	cfg.Storage.DBPath = p.value("Database path", cfg.Storage.DBPath)
	cfg.Sync.PollInterval = p.value("Poll interval", cfg.Sync.PollInterval)
	cfg.UI.Theme = p.theme(cfg.UI.Theme)
	cfg.Log.Level = p.value("Log level (debug, info, warn, error)", cfg.Log.Level)
	cfg.Log.File = p.value("Log file (empty to disable)", cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.SaveTo(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintln(out, "\nConfiguration saved!")
	return nil
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "Current configuration:")
	fmt.Fprintln(w, "──────────────────────")
	fmt.Fprintln(w, "[timeline]")
	if cfg.Timeline.Year == 0 {
		fmt.Fprintf(w, "  year          = 0 (%d)\n", cfg.TimelineYear())
	} else {
		fmt.Fprintf(w, "  year          = %d\n", cfg.Timeline.Year)
	}
	fmt.Fprintf(w, "  zoom          = %g\n", cfg.Timeline.Zoom)
	fmt.Fprintf(w, "  column_scale  = %g\n", cfg.Timeline.ColumnScale)
	fmt.Fprintf(w, "  cell_width    = %d\n", cfg.Timeline.CellWidth)
	fmt.Fprintf(w, "  cell_height   = %d\n", cfg.Timeline.CellHeight)
	fmt.Fprintf(w, "  hidden_months = %s\n", monthNames(cfg.Timeline.HiddenMonths))
	fmt.Fprintln(w, "\n[leave]")
	fmt.Fprintf(w, "  title         = %s\n", cfg.Leave.Title)
	fmt.Fprintf(w, "  color         = %s\n", cfg.Leave.Color)
	fmt.Fprintln(w, "\n[history]")
	fmt.Fprintf(w, "  max_entries   = %d\n", cfg.History.MaxEntries)
	fmt.Fprintln(w, "\n[storage]")
	fmt.Fprintf(w, "  db_path       = %s\n", cfg.Storage.DBPath)
	fmt.Fprintln(w, "\n[sync]")
	fmt.Fprintf(w, "  poll_interval = %s\n", cfg.Sync.PollInterval)
	fmt.Fprintln(w, "\n[ui]")
	fmt.Fprintf(w, "  theme         = %s\n", cfg.UI.Theme)
	fmt.Fprintln(w, "\n[log]")
	fmt.Fprintf(w, "  level         = %s\n", cfg.Log.Level)
	fmt.Fprintf(w, "  file          = %s\n", cfg.Log.File)
}

func monthNames(months []int) string {
	if len(months) == 0 {
		return "none"
	}
	names := make([]string, len(months))
	for i, m := range months {
		names[i] = strconv.Itoa(m)
		if m >= 1 && m <= 12 {
			names[i] = time.Month(m).String()[:3]
		}
	}
	return strings.Join(names, ", ")
}

// prompter asks for config values, keeping the current one on empty input.
type prompter struct {
	r *bufio.Reader
	w io.Writer
}

func (p prompter) value(label, current string) string {
	if current == "" {
		fmt.Fprintf(p.w, "  %s: ", label)
	} else {
		fmt.Fprintf(p.w, "  %s [%s]: ", label, current)
	}
	input, _ := p.r.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return current
	}
	return input
}

func (p prompter) integer(label string, current int) int {
	for {
		value := p.value(label, strconv.Itoa(current))
		n, err := strconv.Atoi(value)
		if err == nil {
			return n
		}
		fmt.Fprintf(p.w, "  Not a number: %q\n", value)
	}
}

func (p prompter) decimal(label string, current float64) float64 {
	for {
		value := p.value(label, strconv.FormatFloat(current, 'g', -1, 64))
		f, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return f
		}
		fmt.Fprintf(p.w, "  Not a number: %q\n", value)
	}
}

func (p prompter) months(label string, current []int) []int {
	for {
		value := p.value(label, monthNames(current))
		if value == "-" || value == "none" {
			return nil
		}
		months, err := parseMonths(value)
		if err == nil {
			return months
		}
		fmt.Fprintf(p.w, "  %v\n", err)
	}
}

func (p prompter) theme(current string) string {
	options := strings.Join(theme.Available(), ", ")
	label := fmt.Sprintf("UI theme (%s)", options)
	for {
		value := strings.ToLower(p.value(label, current))
		if theme.IsAvailable(value) {
			return value
		}
		fmt.Fprintf(p.w, "  Invalid theme %q. Available: %s\n", value, options)
	}
}

func promptYesNo(reader *bufio.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}
