package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const (
	overlayMinWidth  = 24
	overlayMinHeight = 5
	overlayMaxWidth  = 56
	overlayMaxHeight = 12
)

// overlay draws an opaque box centred on top of already rendered content.
type overlay struct {
	bg lipgloss.Color
}

// render places content in a box over base, which is width x height cells.
func (o overlay) render(base string, width, height int, content string) string {
	if width <= 0 || height <= 0 {
		return base
	}
	contentLines := splitContent(content)
	contentW, contentH := blockSize(contentLines)

	boxW := min(max(width/2, overlayMinWidth, contentW+4), max(overlayMaxWidth, contentW+4), width)
	boxH := min(max(height/3, overlayMinHeight, contentH+2), max(overlayMaxHeight, contentH+2), height)
	top := (height - boxH) / 2
	left := (width - boxW) / 2

	box := o.box(boxW, boxH, contentLines, contentW)
	baseLines := normalizeLines(base, width, height)
	for i, line := range box {
		row := top + i
		baseLines[row] = ansi.Cut(baseLines[row], 0, left) + line + ansi.Cut(baseLines[row], left+boxW, width)
	}
	return strings.Join(baseLines, "\n")
}

// box renders the filled box with content centred in it.
func (o overlay) box(w, h int, content []string, contentW int) []string {
	bgSeq := ansi.Style{}.BackgroundColor(ansi.HexColor(string(o.bg))).String()
	blank := bgSeq + strings.Repeat(" ", w) + ansi.ResetStyle

	lines := make([]string, h)
	for i := range lines {
		lines[i] = blank
	}

	contentW = min(contentW, w)
	top := max((h-len(content))/2, 0)
	left := max((w-contentW)/2, 0)
	for i, line := range content {
		idx := top + i
		if idx >= h {
			break
		}
		if lw := lipgloss.Width(line); lw > contentW {
			line = ansi.Cut(line, 0, contentW)
		} else {
			line += strings.Repeat(" ", contentW-lw)
		}
		// Styled content resets the background; restore it after each reset.
		line = strings.ReplaceAll(line, ansi.ResetStyle, ansi.ResetStyle+bgSeq)
		line = strings.ReplaceAll(line, "\x1b[49m", "\x1b[49m"+bgSeq)
		right := max(w-left-contentW, 0)
		lines[idx] = bgSeq + strings.Repeat(" ", left) + line + bgSeq + strings.Repeat(" ", right) + ansi.ResetStyle
	}
	return lines
}

func splitContent(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(strings.TrimRight(content, "\n"), "\n")
}

func blockSize(lines []string) (int, int) {
	w := 0
	for _, line := range lines {
		w = max(w, lipgloss.Width(line))
	}
	return w, len(lines)
}

// normalizeLines pads or cuts base to exactly width x height cells.
func normalizeLines(base string, width, height int) []string {
	lines := strings.Split(base, "\n")
	for len(lines) < height {
		lines = append(lines, "")
	}
	lines = lines[:height]
	for i, line := range lines {
		lw := lipgloss.Width(line)
		switch {
		case lw > width:
			lines[i] = ansi.Cut(line, 0, width)
		case lw < width:
			lines[i] = line + strings.Repeat(" ", width-lw)
		}
	}
	return lines
}
