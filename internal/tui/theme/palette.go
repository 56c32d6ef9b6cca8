package theme

import (
	"math"

	"github.com/charmbracelet/lipgloss"
)

// Palette holds precomputed colors derived from a Theme.
type Palette struct {
	Bg          lipgloss.Color
	BgHighlight lipgloss.Color
	BgSelection lipgloss.Color
	Fg          lipgloss.Color
	FgMuted     lipgloss.Color
	Accent      lipgloss.Color
	Shared      lipgloss.Color
	Collision   lipgloss.Color
	Warning     lipgloss.Color

	SharedBg    lipgloss.Color
	CollisionBg lipgloss.Color
	WeekendBg   lipgloss.Color

	TextOnAccent    lipgloss.Color
	TextOnWarning   lipgloss.Color
	TextOnCollision lipgloss.Color

	theme   *Theme
	isLight bool
}

// NewPalette derives a Palette from the provided Theme.
func NewPalette(t *Theme) *Palette {
	if t == nil {
		t, _ = Load(DefaultName)
	}

	isLight := isLightTheme(t.Bg)
	return &Palette{
		Bg:          lipgloss.Color(t.Bg),
		BgHighlight: lipgloss.Color(t.BgHighlight),
		BgSelection: lipgloss.Color(t.BgSelection),
		Fg:          lipgloss.Color(t.Fg),
		FgMuted:     lipgloss.Color(t.FgMuted),
		Accent:      lipgloss.Color(t.Accent),
		Shared:      lipgloss.Color(t.Shared),
		Collision:   lipgloss.Color(t.Collision),
		Warning:     lipgloss.Color(t.Warning),

		SharedBg:    lipgloss.Color(bookingBg(t.Shared, t.Bg, isLight)),
		CollisionBg: lipgloss.Color(bookingBg(t.Collision, t.Bg, isLight)),
		WeekendBg:   lipgloss.Color(blendColors(t.Bg, t.FgMuted, 0.12)),

		TextOnAccent:    lipgloss.Color(chooseTextColor(t.Accent, t.Bg, t.Fg)),
		TextOnWarning:   lipgloss.Color(chooseTextColor(t.Warning, t.Bg, t.Fg)),
		TextOnCollision: lipgloss.Color(chooseTextColor(t.Collision, t.Bg, t.Fg)),

		theme:   t,
		isLight: isLight,
	}
}

// BookingColors returns the background and text color of a booking bar.
// An empty hex falls back to the theme's booking (or leave) color. Pending
// bookings use the muted shade until the store confirms them.
func (p *Palette) BookingColors(hex string, leave, pending bool) (bg, fg lipgloss.Color) {
	if hex == "" {
		hex = p.theme.Booking
		if leave {
			hex = p.theme.Leave
		}
	}

	var bgHex string
	switch {
	case pending && p.isLight:
		bgHex = blendColors(hex, p.theme.Bg, 0.88)
	case pending:
		bgHex = muteColor(hex)
	default:
		bgHex = bookingBg(hex, p.theme.Bg, p.isLight)
	}
	return lipgloss.Color(bgHex), lipgloss.Color(chooseTextColor(bgHex, p.theme.Fg, p.theme.Bg))
}

// Highlight returns the shade used for the booking under the pointer.
func (p *Palette) Highlight(bg lipgloss.Color) lipgloss.Color {
	return lipgloss.Color(alternateShade(string(bg), p.isLight))
}

func isLightTheme(bg string) bool {
	return relativeLuminance(bg) > 0.55
}

func bookingBg(accent, bg string, isLight bool) string {
	if isLight {
		return blendColors(accent, bg, 0.75)
	}
	return darkenColor(accent)
}

// darkenColor creates a darker version of a hex color for backgrounds.
// It reduces the brightness by blending towards black, with a minimum floor
// to ensure visibility on dark themes.
func darkenColor(hex string) string {
	return scaleColor(hex, 0.50, 40)
}

// muteColor creates a more heavily muted version of a hex color for pending bookings.
func muteColor(hex string) string {
	return scaleColor(hex, 0.30, 30)
}

func scaleColor(hex string, factor float64, floor int) string {
	r, g, b, ok := splitHex(hex)
	if !ok {
		return hex
	}
	scale := func(c int) int {
		return max(int(float64(c)*factor), floor)
	}
	return formatHexColor(scale(r), scale(g), scale(b))
}

// alternateShade creates a subtle alternate shade for the hovered booking.
func alternateShade(hex string, isLight bool) string {
	if _, _, _, ok := splitHex(hex); !ok {
		return hex
	}
	if isLight {
		return blendColors(hex, "#000000", 0.10)
	}
	return blendColors(hex, "#ffffff", 0.30)
}

// splitHex parses a #rrggbb color.
func splitHex(hex string) (r, g, b int, ok bool) {
	if len(hex) != 7 || hex[0] != '#' {
		return 0, 0, 0, false
	}
	parseHex(hex[1:3], &r)
	parseHex(hex[3:5], &g)
	parseHex(hex[5:7], &b)
	return r, g, b, true
}

// parseHex parses a 2-character hex string into an integer.
func parseHex(s string, v *int) {
	var val int
	for i := 0; i < len(s); i++ {
		val *= 16
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			val += int(c - '0')
		case c >= 'a' && c <= 'f':
			val += int(c - 'a' + 10)
		case c >= 'A' && c <= 'F':
			val += int(c - 'A' + 10)
		}
	}
	*v = val
}

// formatHexColor formats RGB values as a hex color string.
func formatHexColor(r, g, b int) string {
	const hex = "0123456789abcdef"
	result := make([]byte, 7)
	result[0] = '#'
	result[1] = hex[r>>4]
	result[2] = hex[r&0xf]
	result[3] = hex[g>>4]
	result[4] = hex[g&0xf]
	result[5] = hex[b>>4]
	result[6] = hex[b&0xf]
	return string(result)
}

func chooseTextColor(bg, lightText, darkText string) string {
	lightContrast := contrastRatio(bg, lightText)
	darkContrast := contrastRatio(bg, darkText)
	if lightContrast >= darkContrast {
		return lightText
	}
	return darkText
}

func contrastRatio(a, b string) float64 {
	l1 := relativeLuminance(a)
	l2 := relativeLuminance(b)
	if l1 < l2 {
		l1, l2 = l2, l1
	}
	return (l1 + 0.05) / (l2 + 0.05)
}

func relativeLuminance(hex string) float64 {
	r, g, b, ok := splitHex(hex)
	if !ok {
		return 0
	}
	return 0.2126*srgbToLinear(r) + 0.7152*srgbToLinear(g) + 0.0722*srgbToLinear(b)
}

func srgbToLinear(c int) float64 {
	v := float64(c) / 255.0
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

func blendColors(a, b string, ratio float64) string {
	ar, ag, ab, okA := splitHex(a)
	br, bg, bb, okB := splitHex(b)
	if !okA || !okB {
		return a
	}
	ratio = min(max(ratio, 0), 1)

	r := int(float64(ar)*(1-ratio) + float64(br)*ratio)
	g := int(float64(ag)*(1-ratio) + float64(bg)*ratio)
	bv := int(float64(ab)*(1-ratio) + float64(bb)*ratio)

	return formatHexColor(r, g, bv)
}
