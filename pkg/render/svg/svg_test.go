package svg

import (
	"context"
	"strings"
	"testing"

	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/graph"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/layout"
)

func sample(t *testing.T) *layout.Result {
	t.Helper()
	g := graph.New()
	ch := graph.NewBlock("CH1", graph.KindChannel).AddOutput("out", graph.PortAnalog)
	dec := graph.NewBlock("uart", graph.KindFilter).
		WithLabel("UART <rx>").
		AddInput("din", graph.PortAnalog).
		AddOutput("bytes", graph.PortProtocol)
	for _, b := range []*graph.Block{ch, dec} {
		if err := g.AddBlock(b); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.Connect("uart", 0, graph.Source{Entity: "CH1"}); err != nil {
		t.Fatal(err)
	}
	res, err := layout.New(g, layout.Options{}).Refresh(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestRender(t *testing.T) {
	out := string(Render(sample(t)))

	if !strings.HasPrefix(out, "<svg ") || !strings.HasSuffix(out, "</svg>\n") {
		t.Fatalf("not an SVG document:\n%s", out)
	}
	if got := strings.Count(out, `class="block"`); got != 2 {
		t.Errorf("got %d blocks, want 2", got)
	}
	if got := strings.Count(out, `class="wire"`); got != 1 {
		t.Errorf("got %d wires, want 1", got)
	}
	if !strings.Contains(out, "UART &lt;rx&gt;") {
		t.Error("label should be escaped")
	}
	if !strings.Contains(out, Light.Wire["analog"]) {
		t.Error("analog wire color missing")
	}
	if strings.Contains(out, "<script") {
		t.Error("script emitted without WithInteraction")
	}
}

func TestRenderOptions(t *testing.T) {
	out := string(Render(sample(t), WithTheme(Dark), WithColumns(), WithInteraction()))

	if !strings.Contains(out, Dark.Background) {
		t.Error("dark background missing")
	}
	if !strings.Contains(out, `class="routing-column"`) {
		t.Error("routing columns missing")
	}
	if !strings.Contains(out, "<script") {
		t.Error("interaction script missing")
	}
}

func TestThemeByName(t *testing.T) {
	if th, ok := ThemeByName("DARK"); !ok || th.Name != "dark" {
		t.Error("ThemeByName should be case-insensitive")
	}
	if th, ok := ThemeByName("solarized"); ok || th.Name != "light" {
		t.Error("unknown themes should fall back to light and report false")
	}
}
