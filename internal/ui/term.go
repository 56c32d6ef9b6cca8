package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Color definitions for consistent styling across the UI.
var (
	// Headers: bold
	colorHeader = color.New(color.Bold)

	// Muted: for secondary information
	colorMuted = color.New(color.FgWhite, color.Faint)

	// Shared track bookings: yellow to stand out from member rows
	colorShared = color.New(color.FgYellow)

	// Leave: dim green
	colorLeave = color.New(color.FgGreen, color.Faint)

	// Success messages
	colorOK = color.New(color.FgGreen)

	// Warnings: skipped imports, truncated output
	colorWarn = color.New(color.FgYellow, color.Bold)
)

// termWidth returns the terminal width, or a default if detection fails.
func termWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // sensible default
	}
	return width
}

// DisableColor disables all color output.
func DisableColor() {
	color.NoColor = true
}

// EnableColor enables color output (if terminal supports it).
func EnableColor() {
	color.NoColor = false
}

func formatHeader(s string) string {
	return colorHeader.Sprint(s)
}

func formatMuted(s string) string {
	return colorMuted.Sprint(s)
}

func formatOK(s string) string {
	return colorOK.Sprint(s)
}

func formatWarn(s string) string {
	return colorWarn.Sprint(s)
}

// hexColor returns a foreground color for a #rrggbb value, or nil when hex
// cannot be parsed.
func hexColor(hex string) *color.Color {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		return nil
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil
	}
	return color.RGB(int(v>>16&0xff), int(v>>8&0xff), int(v&0xff))
}

// paint renders s in the color of hex, falling back to fallback.
func paint(s, hex string, fallback *color.Color) string {
	if c := hexColor(hex); c != nil {
		return c.Sprint(s)
	}
	if fallback != nil {
		return fallback.Sprint(s)
	}
	return s
}
