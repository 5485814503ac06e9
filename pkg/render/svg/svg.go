// Package svg renders a layout result as a standalone SVG document.
//
// Blocks are drawn as rounded boxes with the title on top, input ports down
// the left edge and output ports down the right edge. Wires follow the
// routed paths exactly. Colors come from a [Theme]; each port type gets its
// own wire color so analog, digital and protocol nets are easy to tell
// apart.
package svg

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/geom"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/graph"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/layout"
)

// Theme is a color scheme.
type Theme struct {
	Name       string
	Background string
	Block      map[string]string // fill by entity kind
	Stroke     string
	Text       string
	Port       string
	Wire       map[string]string // stroke by port type; "" is the fallback
	Column     string
}

// Light is the default theme.
var Light = Theme{
	Name:       "light",
	Background: "#ffffff",
	Block: map[string]string{
		"channel": "#dbeafe",
		"filter":  "#f3f4f6",
		"trigger": "#fef3c7",
		"export":  "#dcfce7",
	},
	Stroke: "#374151",
	Text:   "#111827",
	Port:   "#6b7280",
	Wire: map[string]string{
		"":         "#2563eb",
		"analog":   "#2563eb",
		"digital":  "#16a34a",
		"protocol": "#9333ea",
		"scalar":   "#ea580c",
	},
	Column: "#f9fafb",
}

// Dark mirrors the editor's dark palette.
var Dark = Theme{
	Name:       "dark",
	Background: "#1f2937",
	Block: map[string]string{
		"channel": "#1e3a8a",
		"filter":  "#374151",
		"trigger": "#78350f",
		"export":  "#14532d",
	},
	Stroke: "#d1d5db",
	Text:   "#f9fafb",
	Port:   "#9ca3af",
	Wire: map[string]string{
		"":         "#60a5fa",
		"analog":   "#60a5fa",
		"digital":  "#4ade80",
		"protocol": "#c084fc",
		"scalar":   "#fb923c",
	},
	Column: "#111827",
}

// ThemeByName returns the named theme. Unknown names yield [Light] and false.
func ThemeByName(name string) (Theme, bool) {
	switch {
	case strings.EqualFold(name, Dark.Name):
		return Dark, true
	case strings.EqualFold(name, Light.Name):
		return Light, true
	}
	return Light, false
}

// Option configures rendering.
type Option func(*renderer)

type renderer struct {
	theme       Theme
	columns     bool
	interactive bool
	fontSize    float64
}

// WithTheme selects the color scheme.
func WithTheme(t Theme) Option { return func(r *renderer) { r.theme = t } }

// WithColumns shades the routing columns, which helps when tuning the
// routing options.
func WithColumns() Option { return func(r *renderer) { r.columns = true } }

// WithInteraction adds hover highlighting of blocks and their wires.
func WithInteraction() Option { return func(r *renderer) { r.interactive = true } }

// WithFontSize sets the label font size in layout units.
func WithFontSize(size float64) Option { return func(r *renderer) { r.fontSize = size } }

const interactionCSS = `
    .wire { transition: stroke-width 0.15s ease; }
    .wire.highlight { stroke-width: 3; }
    .block.highlight rect { stroke-width: 2.5; }`

const interactionJS = `
    function highlight(id) {
      document.querySelectorAll('.wire').forEach(w => w.classList.toggle('highlight', w.dataset.from === id || w.dataset.to === id));
      document.querySelectorAll('.block').forEach(b => b.classList.toggle('highlight', b.dataset.id === id));
    }
    document.querySelectorAll('.block').forEach(el => {
      el.addEventListener('mouseenter', () => highlight(el.dataset.id));
      el.addEventListener('mouseleave', () => highlight(null));
    });`

// Render draws res as SVG.
func Render(res *layout.Result, opts ...Option) []byte {
	r := renderer{theme: Light, fontSize: 12}
	for _, opt := range opts {
		opt(&r)
	}

	w, h := res.Bounds.Width(), res.Bounds.Height()
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f" font-family="monospace" font-size="%.0f">`+"\n",
		w, h, w, h, r.fontSize)
	fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", r.theme.Background)

	if r.columns {
		for _, c := range res.Columns {
			fmt.Fprintf(&buf, `  <rect class="routing-column" x="%.1f" y="0" width="%.1f" height="%.1f" fill="%s"/>`+"\n",
				c.Left, c.Right-c.Left, h, r.theme.Column)
		}
	}

	types := portTypes(res)
	for _, e := range res.Edges {
		r.wire(&buf, e, types[e.From])
	}
	for _, n := range res.Nodes {
		r.block(&buf, n)
	}

	if r.interactive {
		fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", interactionCSS)
		fmt.Fprintf(&buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", interactionJS)
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// portTypes maps every output to its port type, which picks the wire color.
func portTypes(res *layout.Result) map[graph.Source]string {
	m := make(map[graph.Source]string)
	for _, n := range res.Nodes {
		for _, p := range n.Outputs {
			m[graph.Source{Entity: n.ID, Port: p.Index}] = p.Type
		}
	}
	return m
}

func (r *renderer) wire(buf *bytes.Buffer, e layout.EdgeLayout, typ string) {
	color, ok := r.theme.Wire[typ]
	if !ok {
		color = r.theme.Wire[""]
	}
	fmt.Fprintf(buf, `  <polyline class="wire" data-from="%s" data-to="%s" points="%s" fill="none" stroke="%s" stroke-width="1.5"/>`+"\n",
		esc(e.From.Entity), esc(e.To.Entity), points(e.Path), color)
}

func (r *renderer) block(buf *bytes.Buffer, n layout.NodeLayout) {
	fill, ok := r.theme.Block[n.Kind]
	if !ok {
		fill = r.theme.Block["filter"]
	}
	rc := n.Rect
	fmt.Fprintf(buf, `  <g class="block" data-id="%s">`+"\n", esc(n.ID))
	fmt.Fprintf(buf, `    <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="3" fill="%s" stroke="%s"/>`+"\n",
		rc.Left, rc.Top, rc.Width(), rc.Height(), fill, r.theme.Stroke)
	fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="hanging" fill="%s">%s</text>`+"\n",
		rc.CenterX(), rc.Top+4, r.theme.Text, esc(n.Label))
	for _, p := range n.Inputs {
		fmt.Fprintf(buf, `    <text class="port" x="%.1f" y="%.1f" dominant-baseline="middle" fill="%s">%s</text>`+"\n",
			p.Rect.Left+4, p.Rect.CenterY(), r.theme.Port, esc(p.Label))
	}
	for _, p := range n.Outputs {
		fmt.Fprintf(buf, `    <text class="port" x="%.1f" y="%.1f" text-anchor="end" dominant-baseline="middle" fill="%s">%s</text>`+"\n",
			p.Rect.Right-4, p.Rect.CenterY(), r.theme.Port, esc(p.Label))
	}
	buf.WriteString("  </g>\n")
}

func points(path []geom.Point) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = fmt.Sprintf("%.1f,%.1f", p.X, p.Y)
	}
	return strings.Join(parts, " ")
}

func esc(s string) string { return html.EscapeString(s) }
