// Package theme provides color themes for the TUI.
package theme

import (
	"embed"
	"fmt"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed embedded/*.toml
var embeddedThemes embed.FS

// DefaultName is used when no theme is configured.
const DefaultName = "mocha"

// Theme holds all colors for a TUI theme.
type Theme struct {
	Name        string `toml:"name"`
	Bg          string `toml:"bg"`           // Base background
	BgHighlight string `toml:"bg_highlight"` // Alternate rows, month headers
	BgSelection string `toml:"bg_selection"` // Hovered booking, selection
	Fg          string `toml:"fg"`           // Primary foreground
	FgMuted     string `toml:"fg_muted"`     // Weekends, gridlines, help text
	Accent      string `toml:"accent"`       // Title, today marker, borders
	Booking     string `toml:"booking"`      // Bookings without a color of their own
	Shared      string `toml:"shared"`       // Shared track label and bookings
	Leave       string `toml:"leave"`        // Leave bookings without a color
	Collision   string `toml:"collision"`    // Draft or drag overlapping another booking
	Warning     string `toml:"warning"`      // Status line errors, pending writes
}

// Load loads a theme by name from embedded files.
// Falls back to mocha if the theme is not found.
func Load(name string) (*Theme, error) {
	if name == "" {
		name = DefaultName
	}
	name = strings.ToLower(name)

	data, err := embeddedThemes.ReadFile("embedded/" + name + ".toml")
	if err != nil {
		if name != DefaultName {
			return Load(DefaultName)
		}
		return nil, fmt.Errorf("loading theme %q: %w", name, err)
	}

	var t Theme
	if err := toml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing theme %q: %w", name, err)
	}
	t.applyDefaults()

	return &t, nil
}

func (t *Theme) applyDefaults() {
	t.BgHighlight = coalesce(t.BgHighlight, t.Bg)
	t.BgSelection = coalesce(t.BgSelection, t.BgHighlight)
	t.FgMuted = coalesce(t.FgMuted, t.Fg)
	t.Booking = coalesce(t.Booking, t.Accent)
	t.Shared = coalesce(t.Shared, t.Accent)
	t.Leave = coalesce(t.Leave, t.FgMuted)
	t.Collision = coalesce(t.Collision, t.Warning)
	t.Warning = coalesce(t.Warning, t.Collision, t.Accent)
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Available returns a list of available theme names.
func Available() []string {
	return []string{"mocha", "macchiato", "frappe", "latte"}
}

// IsAvailable reports whether a theme name is available.
func IsAvailable(name string) bool {
	return slices.Contains(Available(), strings.ToLower(name))
}
