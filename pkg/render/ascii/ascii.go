// Package ascii draws a layout result with box-drawing characters.
//
// The drawing is a grid of character cells; one cell covers CellWidth by
// CellHeight layout units. With the default 8x8 cells a block title measured
// by [layout.MonoMeasurer] fits its box exactly. Wires are rasterized into
// the grid and joined with the matching box-drawing glyphs, so crossings and
// corners come out right regardless of drawing order.
package ascii

import (
	"math"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/geom"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/layout"
)

// Options configures a [Canvas].
type Options struct {
	CellWidth  float64
	CellHeight float64
	// Selected is drawn with a double border.
	Selected string
}

func (o *Options) setDefaults() {
	if o.CellWidth <= 0 {
		o.CellWidth = 8
	}
	if o.CellHeight <= 0 {
		o.CellHeight = 8
	}
}

// direction bits for wire cells
const (
	up = 1 << iota
	down
	left
	right
)

var wireGlyphs = [16]rune{
	0:                        ' ',
	up:                       '│',
	down:                     '│',
	up | down:                '│',
	left:                     '─',
	right:                    '─',
	left | right:             '─',
	down | right:             '┌',
	down | left:              '┐',
	up | right:               '└',
	up | left:                '┘',
	up | down | right:        '├',
	up | down | left:         '┤',
	down | left | right:      '┬',
	up | left | right:        '┴',
	up | down | left | right: '┼',
}

// continuation marks the second cell of a wide rune.
const continuation = -1

// Canvas is a rendered character grid.
type Canvas struct {
	opts  Options
	cols  int
	rows  int
	wires []uint8
	cells []rune // 0 means "show the wire glyph"
}

// New draws res onto a fresh canvas.
func New(res *layout.Result, opts Options) *Canvas {
	opts.setDefaults()
	c := &Canvas{
		opts: opts,
		cols: int(math.Ceil(res.Bounds.Right/opts.CellWidth)) + 1,
		rows: int(math.Ceil(res.Bounds.Bottom/opts.CellHeight)) + 1,
	}
	c.wires = make([]uint8, c.cols*c.rows)
	c.cells = make([]rune, c.cols*c.rows)

	for _, e := range res.Edges {
		c.path(e.Path)
	}
	for _, n := range res.Nodes {
		c.block(n)
	}
	return c
}

// Render is a shorthand for New(res, opts).String().
func Render(res *layout.Result, opts Options) string {
	return New(res, opts).String()
}

// Size returns the canvas size in cells.
func (c *Canvas) Size() (cols, rows int) { return c.cols, c.rows }

// Cell maps a layout point to its cell.
func (c *Canvas) Cell(p geom.Point) (col, row int) {
	return int(math.Floor(p.X / c.opts.CellWidth)), int(math.Floor(p.Y / c.opts.CellHeight))
}

// Point maps a cell to the layout point at its center.
func (c *Canvas) Point(col, row int) geom.Point {
	return geom.Point{
		X: (float64(col) + 0.5) * c.opts.CellWidth,
		Y: (float64(row) + 0.5) * c.opts.CellHeight,
	}
}

// Lines returns the canvas as one string per row, with trailing blanks
// trimmed.
func (c *Canvas) Lines() []string {
	lines := make([]string, c.rows)
	var sb strings.Builder
	for r := 0; r < c.rows; r++ {
		sb.Reset()
		for col := 0; col < c.cols; col++ {
			i := r*c.cols + col
			switch ch := c.cells[i]; ch {
			case continuation:
			case 0:
				sb.WriteRune(wireGlyphs[c.wires[i]])
			default:
				sb.WriteRune(ch)
			}
		}
		lines[r] = strings.TrimRight(sb.String(), " ")
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// String returns the whole drawing.
func (c *Canvas) String() string {
	return strings.Join(c.Lines(), "\n") + "\n"
}

func (c *Canvas) in(col, row int) bool {
	return col >= 0 && col < c.cols && row >= 0 && row < c.rows
}

func (c *Canvas) mark(col, row int, bits uint8) {
	if c.in(col, row) {
		c.wires[row*c.cols+col] |= bits
	}
}

func (c *Canvas) set(col, row int, ch rune) {
	if c.in(col, row) {
		c.cells[row*c.cols+col] = ch
	}
}

// path rasterizes an orthogonal polyline.
func (c *Canvas) path(path []geom.Point) {
	for k := 0; k+1 < len(path); k++ {
		c0, r0 := c.Cell(path[k])
		c1, r1 := c.Cell(path[k+1])
		switch {
		case r0 == r1 && c0 != c1:
			lo, hi := min(c0, c1), max(c0, c1)
			for col := lo; col <= hi; col++ {
				var bits uint8
				if col > lo {
					bits |= left
				}
				if col < hi {
					bits |= right
				}
				c.mark(col, r0, bits)
			}
		case c0 == c1 && r0 != r1:
			lo, hi := min(r0, r1), max(r0, r1)
			for row := lo; row <= hi; row++ {
				var bits uint8
				if row > lo {
					bits |= up
				}
				if row < hi {
					bits |= down
				}
				c.mark(c0, row, bits)
			}
		}
	}
	if n := len(path); n >= 2 {
		col, row := c.Cell(path[n-1])
		c.set(col-1, row, '▶')
	}
}

func (c *Canvas) block(n layout.NodeLayout) {
	c0, r0 := c.Cell(geom.Point{X: n.Rect.Left, Y: n.Rect.Top})
	c1, r1 := c.Cell(geom.Point{X: n.Rect.Right - 1, Y: n.Rect.Bottom - 1})
	if c1-c0 < 1 || r1-r0 < 1 {
		c.set(c0, r0, '■')
		return
	}

	h, v, tl, tr, bl, br := '─', '│', '┌', '┐', '└', '┘'
	if n.ID == c.opts.Selected {
		h, v, tl, tr, bl, br = '═', '║', '╔', '╗', '╚', '╝'
	}
	for col := c0; col <= c1; col++ {
		for row := r0; row <= r1; row++ {
			ch := ' '
			switch {
			case row == r0 && col == c0:
				ch = tl
			case row == r0 && col == c1:
				ch = tr
			case row == r1 && col == c0:
				ch = bl
			case row == r1 && col == c1:
				ch = br
			case row == r0 || row == r1:
				ch = h
			case col == c0 || col == c1:
				ch = v
			}
			c.set(col, row, ch)
		}
	}

	inner := c1 - c0 - 1
	_, titleRow := c.Cell(geom.Point{Y: n.Rect.Top + c.opts.CellHeight})
	if titleRow >= r1 {
		titleRow = r0
	}
	c.text(c0+1, titleRow, inner, n.Label, true)

	for _, p := range n.Inputs {
		_, row := c.Cell(geom.Point{Y: p.Rect.CenterY()})
		if row > r0 && row < r1 {
			c.set(c0, row, '▷')
			c.text(c0+1, row, inner/2, p.Label, false)
		}
	}
	for _, p := range n.Outputs {
		_, row := c.Cell(geom.Point{Y: p.Rect.CenterY()})
		if row > r0 && row < r1 {
			c.set(c1, row, '▷')
			label := runewidth.Truncate(p.Label, inner/2, "…")
			w := runewidth.StringWidth(label)
			c.text(c1-w, row, w, label, false)
		}
	}
}

// text writes s starting at col, truncated to width cells. Centered text is
// placed in the middle of the width.
func (c *Canvas) text(col, row, width int, s string, center bool) {
	if width <= 0 {
		return
	}
	s = runewidth.Truncate(s, width, "…")
	if center {
		col += (width - runewidth.StringWidth(s)) / 2
	}
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		c.set(col, row, r)
		if w == 2 {
			c.set(col+1, row, continuation)
		}
		col += w
	}
}
