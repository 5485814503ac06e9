package layout

import (
	"math"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/geom"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/graph"
)

// Measurer is the text measurement service supplied by the host.
type Measurer interface {
	// Measure returns the width and height of text when drawn.
	Measure(text string) (w, h float64)
}

// MonoMeasurer measures text as a grid of fixed-size cells. Wide runes
// (CJK, emoji) take two cells.
type MonoMeasurer struct {
	CellWidth  float64
	CellHeight float64
}

// DefaultMeasurer approximates a 13px monospace UI font.
var DefaultMeasurer Measurer = MonoMeasurer{CellWidth: 8, CellHeight: 16}

// Measure implements [Measurer]. Each line of text is one cell high.
func (m MonoMeasurer) Measure(text string) (float64, float64) {
	lines := strings.Split(text, "\n")
	cols := 0
	for _, l := range lines {
		cols = max(cols, runewidth.StringWidth(l))
	}
	return float64(cols) * m.CellWidth, float64(len(lines)) * m.CellHeight
}

// Sizer turns a node's content into its bounding rectangle and port
// rectangles. The title sits on top; inputs stack down the left edge and
// outputs down the right edge.
type Sizer struct {
	Measurer Measurer
	Padding  float64
	PortGap  float64
}

// NewSizer returns a Sizer using m with default padding.
func NewSizer(m Measurer) Sizer {
	return Sizer{Measurer: m, Padding: 4, PortGap: 2}
}

// Size returns the node rectangle at the origin and the port rectangles
// relative to it.
func (s Sizer) Size(e graph.Entity) (geom.Rect, []Port, []Port) {
	pad := s.Padding
	tw, th := s.Measurer.Measure(e.Label())
	bodyTop := pad + th + pad

	inputs, inW, inBottom := s.stack(e.InputCount(), e.InputName, e.InputType, bodyTop)
	outputs, outW, outBottom := s.stack(e.OutputCount(), e.OutputName, e.OutputType, bodyTop)

	width := math.Max(tw+2*pad, inW+outW+2*pad)
	height := math.Max(bodyTop, math.Max(inBottom, outBottom)) + pad

	for i := range inputs {
		inputs[i].Rect.Right = inW
	}
	for i := range outputs {
		outputs[i].Rect.Left = width - outW
		outputs[i].Rect.Right = width
	}
	return geom.RectWH(0, 0, width, height), inputs, outputs
}

// stack lays out n ports top to bottom starting at y. It returns the ports
// (with Top/Bottom set), the widest port width, and the bottom of the stack.
func (s Sizer) stack(n int, name func(int) string, typ func(int) graph.PortType, y float64) ([]Port, float64, float64) {
	ports := make([]Port, n)
	width := 0.0
	for i := 0; i < n; i++ {
		label := name(i)
		w, h := s.Measurer.Measure(label)
		ports[i] = Port{
			Index: i,
			Label: label,
			Type:  typ(i),
			Rect:  geom.Rect{Top: y, Bottom: y + h + s.Padding},
		}
		width = math.Max(width, w+2*s.Padding)
		y += h + s.Padding + s.PortGap
	}
	if n > 0 {
		y -= s.PortGap
	}
	return ports, width, y
}
