package ascii

import (
	"context"
	"strings"
	"testing"

	"github.com/go-test/deep"

	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/geom"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/graph"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/layout"
)

func bounds(w, h float64) geom.Rect { return geom.Rect{Right: w, Bottom: h} }

func TestWireGlyphs(t *testing.T) {
	tests := []struct {
		name  string
		paths [][]geom.Point
		want  []string
	}{
		{
			name:  "corner",
			paths: [][]geom.Point{{{X: 4, Y: 4}, {X: 36, Y: 4}, {X: 36, Y: 36}}},
			want:  []string{"────┐", "    │", "    │", "    │", "   ▶│"},
		},
		{
			name: "crossing",
			paths: [][]geom.Point{
				{{X: 4, Y: 20}, {X: 36, Y: 20}},
				{{X: 20, Y: 4}, {X: 20, Y: 36}},
			},
			want: []string{"  │", "  │", "──┼▶─", "  │", " ▶│"},
		},
		{
			name: "tee",
			paths: [][]geom.Point{
				{{X: 4, Y: 4}, {X: 20, Y: 4}, {X: 20, Y: 20}},
				{{X: 4, Y: 4}, {X: 36, Y: 4}},
			},
			want: []string{"──┬▶─", "  │", " ▶│"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := &layout.Result{Bounds: bounds(40, 40)}
			for _, p := range tt.paths {
				res.Edges = append(res.Edges, layout.EdgeLayout{Path: p})
			}
			got := New(res, Options{}).Lines()
			if diff := deep.Equal(got, tt.want); diff != nil {
				t.Errorf("lines:\n%s\ndiff: %v", strings.Join(got, "\n"), diff)
			}
		})
	}
}

func TestBlock(t *testing.T) {
	node := func(label string) layout.NodeLayout {
		return layout.NodeLayout{ID: "n", Label: label, Rect: geom.Rect{Right: 48, Bottom: 32}}
	}
	tests := []struct {
		name     string
		node     layout.NodeLayout
		selected string
		want     []string
	}{
		{
			name: "plain",
			node: node("ab"),
			want: []string{"┌────┐", "│ ab │", "│    │", "└────┘"},
		},
		{
			name:     "selected",
			node:     node("ab"),
			selected: "n",
			want:     []string{"╔════╗", "║ ab ║", "║    ║", "╚════╝"},
		},
		{
			name: "truncated",
			node: node("abcdefgh"),
			want: []string{"┌────┐", "│abc…│", "│    │", "└────┘"},
		},
		{
			name: "wide runes",
			node: node("日本"),
			want: []string{"┌────┐", "│日本│", "│    │", "└────┘"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := &layout.Result{Bounds: bounds(48, 32), Nodes: []layout.NodeLayout{tt.node}}
			got := New(res, Options{Selected: tt.selected}).Lines()
			if diff := deep.Equal(got, tt.want); diff != nil {
				t.Errorf("lines:\n%s\ndiff: %v", strings.Join(got, "\n"), diff)
			}
		})
	}
}

func TestCellMapping(t *testing.T) {
	c := New(&layout.Result{Bounds: bounds(80, 40)}, Options{})
	if cols, rows := c.Size(); cols != 11 || rows != 6 {
		t.Errorf("Size() = %d,%d, want 11,6", cols, rows)
	}
	col, row := c.Cell(geom.Point{X: 17, Y: 9})
	if col != 2 || row != 1 {
		t.Errorf("Cell() = %d,%d, want 2,1", col, row)
	}
	if p := c.Point(2, 1); p != (geom.Point{X: 20, Y: 12}) {
		t.Errorf("Point() = %v, want 20,12", p)
	}
}

func TestRenderLayout(t *testing.T) {
	g := graph.New()
	ch := graph.NewBlock("CH1", graph.KindChannel).AddOutput("out", graph.PortAnalog)
	fft := graph.NewBlock("fft", graph.KindFilter).
		WithLabel("FFT").
		AddInput("in", graph.PortAnalog).
		AddOutput("mag", graph.PortAnalog)
	for _, b := range []*graph.Block{ch, fft} {
		if err := g.AddBlock(b); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.Connect("fft", 0, graph.Source{Entity: "CH1"}); err != nil {
		t.Fatal(err)
	}
	res, err := layout.New(g, layout.Options{}).Refresh(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	out := Render(res, Options{})
	for _, want := range []string{"CH1", "FFT", "▶", "┌", "┘"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("output should end with a newline")
	}
}
