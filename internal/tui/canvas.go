package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// cell is one terminal cell of a canvas.
type cell struct {
	r     rune
	style int
	wide  bool // second half of a double width rune; not printed
}

// canvas is a fixed size grid of styled cells. Bars and labels are painted
// on top of each other, then each line is rendered as runs of equal style so
// that lipgloss is called once per run instead of once per cell.
type canvas struct {
	w, h   int
	cells  []cell
	styles []lipgloss.Style
}

func newCanvas(w, h int, base lipgloss.Style) *canvas {
	c := &canvas{w: max(w, 0), h: max(h, 0)}
	id := c.add(base)
	c.cells = make([]cell, c.w*c.h)
	for i := range c.cells {
		c.cells[i] = cell{r: ' ', style: id}
	}
	return c
}

// add registers a style and returns its id.
func (c *canvas) add(s lipgloss.Style) int {
	c.styles = append(c.styles, s)
	return len(c.styles) - 1
}

func (c *canvas) at(x, y int) *cell {
	if x < 0 || x >= c.w || y < 0 || y >= c.h {
		return nil
	}
	return &c.cells[y*c.w+x]
}

// set paints one cell.
func (c *canvas) set(x, y int, r rune, style int) {
	p := c.at(x, y)
	if p == nil {
		return
	}
	// Never leave half of a wide rune behind.
	if p.wide {
		if q := c.at(x-1, y); q != nil {
			q.r = ' '
		}
	}
	if next := c.at(x+1, y); next != nil && next.wide {
		*next = cell{r: ' ', style: next.style}
	}
	*p = cell{r: r, style: style}
}

// fill paints the columns [x0, x1) of line y with blanks in style.
func (c *canvas) fill(x0, x1, y int, style int) {
	for x := max(x0, 0); x < min(x1, c.w); x++ {
		c.set(x, y, ' ', style)
	}
}

// text writes s from column x, stopping before limit. It returns the column
// after the last rune written.
func (c *canvas) text(x, y int, s string, style, limit int) int {
	limit = min(limit, c.w)
	for _, r := range s {
		rw := ansi.StringWidth(string(r))
		if rw == 0 {
			continue
		}
		if x+rw > limit {
			break
		}
		c.set(x, y, r, style)
		if rw == 2 {
			if p := c.at(x+1, y); p != nil {
				*p = cell{style: style, wide: true}
			}
		}
		x += rw
	}
	return x
}

// line renders line y.
func (c *canvas) line(y int) string {
	if y < 0 || y >= c.h {
		return ""
	}
	var out, run strings.Builder
	row := c.cells[y*c.w : (y+1)*c.w]
	style := -1
	flush := func() {
		if run.Len() > 0 {
			out.WriteString(c.styles[style].Render(run.String()))
			run.Reset()
		}
	}
	for _, ce := range row {
		if ce.style != style {
			flush()
			style = ce.style
		}
		if !ce.wide {
			run.WriteRune(ce.r)
		}
	}
	flush()
	return out.String()
}
