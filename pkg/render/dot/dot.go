package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/graph"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/layout"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/render"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/render/svg"
)

// Options configures DOT generation.
type Options struct {
	// Positions adds pos="x,y!" hints from the engine's placement.
	Positions bool
	// PortLabels shows port names inside the record. When false the fields
	// are left blank and only the title is shown.
	PortLabels bool
	// Theme supplies block fills and wire colors. Defaults to [svg.Light].
	Theme *svg.Theme
}

// pointsPerUnit converts layout units (pixels at 96 dpi) to points.
const pointsPerUnit = 0.75

// ToDOT converts a layout result to Graphviz DOT source.
func ToDOT(res *layout.Result, opts Options) string {
	theme := opts.Theme
	if theme == nil {
		theme = &svg.Light
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	fmt.Fprintf(&buf, "  bgcolor=%q;\n", theme.Background)
	buf.WriteString("  splines=ortho;\n")
	buf.WriteString("  node [shape=record, style=\"rounded,filled\", fontname=\"monospace\", fontsize=11];\n")
	fmt.Fprintf(&buf, "  node [color=%q, fontcolor=%q];\n", theme.Stroke, theme.Text)
	buf.WriteString("  edge [arrowsize=0.6];\n")
	buf.WriteString("\n")

	for _, n := range res.Nodes {
		attrs := []string{"label=" + quote(recordLabel(n, opts.PortLabels))}
		if fill, ok := theme.Block[n.Kind]; ok {
			attrs = append(attrs, fmt.Sprintf("fillcolor=%q", fill))
		}
		if opts.Positions {
			x := n.Rect.CenterX() * pointsPerUnit
			y := (res.Bounds.Bottom - n.Rect.CenterY()) * pointsPerUnit
			attrs = append(attrs, fmt.Sprintf("pos=\"%.1f,%.1f!\"", x, y))
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, col := range columns(res) {
		buf.WriteString("  { rank=same;")
		for _, id := range col {
			fmt.Fprintf(&buf, " %q;", id)
		}
		buf.WriteString(" }\n")
		// Invisible edges keep the engine's vertical order inside a rank.
		for i := 1; i < len(col); i++ {
			fmt.Fprintf(&buf, "  %q -> %q [style=invis];\n", col[i-1], col[i])
		}
	}

	buf.WriteString("\n")
	types := portTypes(res)
	for _, e := range res.Edges {
		attrs := ""
		if c, ok := theme.Wire[types[e.From]]; ok {
			attrs = fmt.Sprintf(" [color=%q]", c)
		}
		fmt.Fprintf(&buf, "  %q:o%d:e -> %q:i%d:w%s;\n", e.From.Entity, e.From.Port, e.To.Entity, e.To.Port, attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// recordLabel builds "{{inputs}|title|{outputs}}". The outer braces flip
// the record back to horizontal under rankdir=LR.
func recordLabel(n layout.NodeLayout, portLabels bool) string {
	field := func(prefix string, p layout.PortLayout) string {
		text := ""
		if portLabels {
			text = " " + escape(p.Label)
		}
		return fmt.Sprintf("<%s%d>%s", prefix, p.Index, text)
	}

	parts := make([]string, 0, 3)
	if len(n.Inputs) > 0 {
		fields := make([]string, len(n.Inputs))
		for i, p := range n.Inputs {
			fields[i] = field("i", p)
		}
		parts = append(parts, "{"+strings.Join(fields, "|")+"}")
	}
	parts = append(parts, escape(n.Label))
	if len(n.Outputs) > 0 {
		fields := make([]string, len(n.Outputs))
		for i, p := range n.Outputs {
			fields[i] = field("o", p)
		}
		parts = append(parts, "{"+strings.Join(fields, "|")+"}")
	}
	return "{" + strings.Join(parts, "|") + "}"
}

var recordSpecial = strings.NewReplacer(
	`\`, `\\`,
	`{`, `\{`,
	`}`, `\}`,
	`|`, `\|`,
	`<`, `\<`,
	`>`, `\>`,
)

// quote wraps s as a DOT string. Backslashes are passed through so record
// escapes survive; %q would double them.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// escape quotes the characters that have meaning in record labels.
func escape(s string) string {
	return recordSpecial.Replace(s)
}

// columns groups node IDs by column, top to bottom.
func columns(res *layout.Result) [][]string {
	byCol := map[int][]layout.NodeLayout{}
	maxCol := -1
	for _, n := range res.Nodes {
		byCol[n.Column] = append(byCol[n.Column], n)
		maxCol = max(maxCol, n.Column)
	}
	var out [][]string
	for c := 0; c <= maxCol; c++ {
		nodes := byCol[c]
		if len(nodes) == 0 {
			continue
		}
		slices.SortStableFunc(nodes, func(a, b layout.NodeLayout) int {
			switch {
			case a.Rect.Top < b.Rect.Top:
				return -1
			case a.Rect.Top > b.Rect.Top:
				return 1
			}
			return 0
		})
		ids := make([]string, len(nodes))
		for i, n := range nodes {
			ids[i] = n.ID
		}
		out = append(out, ids)
	}
	return out
}

func portTypes(res *layout.Result) map[graph.Source]string {
	m := make(map[graph.Source]string)
	for _, n := range res.Nodes {
		for _, p := range n.Outputs {
			m[graph.Source{Entity: n.ID, Port: p.Index}] = p.Type
		}
	}
	return m
}

// RenderSVG renders DOT source to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, src string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(src))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized svg tag with a unitless one.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders DOT source as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, src string) ([]byte, error) {
	svg, err := RenderSVG(ctx, src)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders DOT source as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, src string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, src)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
