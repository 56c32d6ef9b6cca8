package theme

import (
	"regexp"
	"testing"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func TestLoadEmbedded(t *testing.T) {
	seen := make(map[string]string)
	for _, name := range Available() {
		t.Run(name, func(t *testing.T) {
			th, err := Load(name)
			if err != nil {
				t.Fatalf("Load(%q): %v", name, err)
			}
			if th.Name != name {
				t.Errorf("Name = %q, want %q", th.Name, name)
			}
			roles := map[string]string{
				"bg":           th.Bg,
				"bg_highlight": th.BgHighlight,
				"bg_selection": th.BgSelection,
				"fg":           th.Fg,
				"fg_muted":     th.FgMuted,
				"accent":       th.Accent,
				"booking":      th.Booking,
				"shared":       th.Shared,
				"leave":        th.Leave,
				"collision":    th.Collision,
				"warning":      th.Warning,
			}
			for role, hex := range roles {
				if !hexColor.MatchString(hex) {
					t.Errorf("%s = %q, want #rrggbb", role, hex)
				}
			}
			// Drafts that collide must not look like ordinary bookings.
			if th.Collision == th.Booking || th.Collision == th.Shared {
				t.Errorf("collision color %s is reused by a booking role", th.Collision)
			}
			if other, dup := seen[th.Bg]; dup {
				t.Errorf("background %s shared with %s", th.Bg, other)
			}
			seen[th.Bg] = name
		})
	}
}

func TestLoadFallsBack(t *testing.T) {
	for _, name := range []string{"", "nonexistent", "MOCHA"} {
		th, err := Load(name)
		if err != nil {
			t.Fatalf("Load(%q): %v", name, err)
		}
		if th.Name != DefaultName {
			t.Errorf("Load(%q).Name = %q, want %q", name, th.Name, DefaultName)
		}
	}
}

func TestIsAvailable(t *testing.T) {
	tests := []struct {
		theme string
		want  bool
	}{
		{"latte", true},
		{"Frappe", true},
		{"dracula", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsAvailable(tt.theme); got != tt.want {
			t.Errorf("IsAvailable(%q) = %t, want %t", tt.theme, got, tt.want)
		}
	}
}

func TestApplyDefaults(t *testing.T) {
	tests := []struct {
		name  string
		theme Theme
		check func(t *testing.T, th Theme)
	}{
		{
			name:  "booking roles fall back to accent",
			theme: Theme{Bg: "#000000", Fg: "#ffffff", Accent: "#ff0000"},
			check: func(t *testing.T, th Theme) {
				if th.Booking != "#ff0000" || th.Shared != "#ff0000" {
					t.Errorf("booking/shared = %q/%q, want accent", th.Booking, th.Shared)
				}
				if th.Warning != "#ff0000" || th.Collision != "" {
					t.Errorf("warning/collision = %q/%q", th.Warning, th.Collision)
				}
			},
		},
		{
			name:  "leave falls back through fg_muted to fg",
			theme: Theme{Bg: "#000000", Fg: "#eeeeee"},
			check: func(t *testing.T, th Theme) {
				if th.Leave != "#eeeeee" {
					t.Errorf("leave = %q, want fg", th.Leave)
				}
			},
		},
		{
			name:  "collision and warning fill each other",
			theme: Theme{Bg: "#000000", Warning: "#ffff00"},
			check: func(t *testing.T, th Theme) {
				if th.Collision != "#ffff00" {
					t.Errorf("collision = %q, want warning", th.Collision)
				}
			},
		},
		{
			name:  "selection falls back to highlight then bg",
			theme: Theme{Bg: "#101010"},
			check: func(t *testing.T, th Theme) {
				if th.BgHighlight != "#101010" || th.BgSelection != "#101010" {
					t.Errorf("highlight/selection = %q/%q", th.BgHighlight, th.BgSelection)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := tt.theme
			th.applyDefaults()
			tt.check(t, th)
		})
	}
}
