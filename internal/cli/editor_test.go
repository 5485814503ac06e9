package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/geom"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/graph"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/layout"
)

// editorGraph has two channels, an unconnected FFT and a digital-only
// decoder.
func editorGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	blocks := []*graph.Block{
		graph.NewBlock("CH1", graph.KindChannel).AddOutput("out", graph.PortAnalog),
		graph.NewBlock("CH2", graph.KindChannel).AddOutput("out", graph.PortAnalog),
		graph.NewBlock("fft", graph.KindFilter).AddInput("in", graph.PortAnalog),
		graph.NewBlock("dec", graph.KindFilter).AddInput("bits", graph.PortDigital),
	}
	for _, b := range blocks {
		if err := g.AddBlock(b); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func newEditor(t *testing.T) (EditorModel, *graph.Graph) {
	t.Helper()
	g := editorGraph(t)
	m, err := NewEditorModel(t.Context(), g, t.TempDir()+"/g.json", layout.DefaultOptions())
	if err != nil {
		t.Fatalf("NewEditorModel() error = %v", err)
	}
	return m, g
}

func update(t *testing.T, m EditorModel, msg tea.Msg) EditorModel {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(EditorModel)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// cursorOnPort moves the cursor onto a port of node id.
func cursorOnPort(t *testing.T, m EditorModel, id string, output bool) EditorModel {
	t.Helper()
	nl, ok := m.Result().Node(id)
	if !ok {
		t.Fatalf("node %s not laid out", id)
	}
	ports := nl.Inputs
	if output {
		ports = nl.Outputs
	}
	if len(ports) == 0 {
		t.Fatalf("node %s has no such port", id)
	}
	m.CursorCol, m.CursorRow = m.canvas.Cell(centerOf(ports[0].Rect))
	return m
}

func TestEditorStartsOnFirstBlock(t *testing.T) {
	m, _ := newEditor(t)
	p := m.cursorPoint()
	id, ok := m.Result().HitTestNode(p.X, p.Y)
	if !ok || id != m.Result().Nodes[0].ID {
		t.Errorf("cursor on %q (%v), want first block %q", id, ok, m.Result().Nodes[0].ID)
	}
}

func TestEditorConnectAndDisconnect(t *testing.T) {
	m, g := newEditor(t)

	m = cursorOnPort(t, m, "CH2", true)
	m = update(t, m, key("enter"))
	if m.Pending == nil || m.Pending.Node != "CH2" || !m.Pending.Output {
		t.Fatalf("Pending = %+v, want CH2 output", m.Pending)
	}

	m = cursorOnPort(t, m, "fft", false)
	m = update(t, m, key("enter"))
	if m.Pending != nil {
		t.Error("Pending should clear after connecting")
	}
	if !m.Dirty {
		t.Error("Dirty should be set after connecting")
	}
	blk, _ := g.Block("fft")
	if src, ok := blk.Input(0); !ok || src != (graph.Source{Entity: "CH2", Port: 0}) {
		t.Errorf("fft input = %v, %v; want CH2.0", src, ok)
	}
	if got := len(m.Result().Edges); got != 1 {
		t.Fatalf("edges = %d, want 1", got)
	}

	m = cursorOnPort(t, m, "fft", false)
	m = update(t, m, key("d"))
	if _, ok := blk.Input(0); ok {
		t.Error("fft input should be disconnected")
	}
	if got := len(m.Result().Edges); got != 0 {
		t.Errorf("edges = %d, want 0", got)
	}
}

func TestEditorRejectsIncompatible(t *testing.T) {
	m, g := newEditor(t)
	before := m.Result()

	m = cursorOnPort(t, m, "CH1", true)
	m = update(t, m, key("enter"))
	m = cursorOnPort(t, m, "dec", false)
	m = update(t, m, key("enter"))

	if m.err == nil {
		t.Fatal("analog → digital should be rejected")
	}
	blk, _ := g.Block("dec")
	if _, ok := blk.Input(0); ok {
		t.Error("graph should be unchanged")
	}
	if m.Result() != before {
		t.Error("previous layout should be kept")
	}
	if !strings.Contains(m.View(), "cannot feed") {
		t.Error("view should show the rejection")
	}
}

func TestEditorPickInputWithoutSource(t *testing.T) {
	m, _ := newEditor(t)
	m = cursorOnPort(t, m, "fft", false)
	m = update(t, m, key("enter"))
	if m.Status != "pick an output port first" {
		t.Errorf("Status = %q", m.Status)
	}

	m = cursorOnPort(t, m, "CH1", true)
	m = update(t, m, key("enter"))
	m = update(t, m, key("esc"))
	if m.Pending != nil {
		t.Error("esc should clear the pending source")
	}
}

func TestEditorTabCyclesBlocks(t *testing.T) {
	m, _ := newEditor(t)
	seen := map[string]bool{}
	for range len(m.Result().Nodes) {
		p := m.cursorPoint()
		id, ok := m.Result().HitTestNode(p.X, p.Y)
		if !ok {
			t.Fatal("tab should land on a block")
		}
		seen[id] = true
		m = update(t, m, key("tab"))
	}
	if len(seen) != 4 {
		t.Errorf("visited %d blocks, want 4", len(seen))
	}
}

func TestEditorMoveClamps(t *testing.T) {
	m, _ := newEditor(t)
	m.CursorCol, m.CursorRow = 0, 0
	m = update(t, m, key("h"))
	m = update(t, m, key("k"))
	if m.CursorCol != 0 || m.CursorRow != 0 {
		t.Errorf("cursor = (%d,%d), want clamped at origin", m.CursorCol, m.CursorRow)
	}
	m = update(t, m, key("right"))
	if m.CursorCol != 1 {
		t.Errorf("CursorCol = %d, want 1", m.CursorCol)
	}
}

func TestEditorSave(t *testing.T) {
	m, _ := newEditor(t)
	m.Dirty = true
	m = update(t, m, key("s"))
	if m.err != nil {
		t.Fatalf("save error = %v", m.err)
	}
	if m.Dirty {
		t.Error("Dirty should clear after saving")
	}
	g, err := graph.ReadFile(m.path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if g.Len() != 4 {
		t.Errorf("saved %d blocks, want 4", g.Len())
	}
}

func TestEditorQuit(t *testing.T) {
	m, _ := newEditor(t)
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestNearestPort(t *testing.T) {
	nl := layout.NodeLayout{
		ID:      "mix",
		Rect:    geom.Rect{Left: 0, Top: 0, Right: 100, Bottom: 60},
		Inputs:  []layout.PortLayout{{Index: 0, Rect: geom.Rect{Left: 0, Top: 10, Right: 20, Bottom: 20}}, {Index: 1, Rect: geom.Rect{Left: 0, Top: 40, Right: 20, Bottom: 50}}},
		Outputs: []layout.PortLayout{{Index: 0, Rect: geom.Rect{Left: 80, Top: 25, Right: 100, Bottom: 35}}},
	}
	tests := []struct {
		p    geom.Point
		want layout.PortHit
	}{
		{geom.Point{X: 30, Y: 12}, layout.PortHit{Node: "mix", Port: 0}},
		{geom.Point{X: 30, Y: 48}, layout.PortHit{Node: "mix", Port: 1}},
		{geom.Point{X: 70, Y: 30}, layout.PortHit{Node: "mix", Port: 0, Output: true}},
	}
	for _, tt := range tests {
		got, ok := nearestPort(nl, tt.p)
		if !ok || got != tt.want {
			t.Errorf("nearestPort(%v) = %+v, %v; want %+v", tt.p, got, ok, tt.want)
		}
	}
	if _, ok := nearestPort(layout.NodeLayout{ID: "bare"}, geom.Point{}); ok {
		t.Error("a node without ports has no nearest port")
	}
}

func TestSliceCells(t *testing.T) {
	tests := []struct {
		s          string
		off, width int
		want       string
	}{
		{"abcdef", 0, 3, "abc"},
		{"abcdef", 2, 3, "cde"},
		{"abc", 1, 10, "bc"},
		{"日本語", 2, 2, "本"},
		{"日本語", 1, 3, "本"},
	}
	for _, tt := range tests {
		if got := sliceCells(tt.s, tt.off, tt.width); got != tt.want {
			t.Errorf("sliceCells(%q, %d, %d) = %q, want %q", tt.s, tt.off, tt.width, got, tt.want)
		}
	}
}

func TestOverlayCursorPads(t *testing.T) {
	got := overlayCursor("ab", 4)
	if !strings.HasPrefix(got, "ab  ") {
		t.Errorf("overlayCursor() = %q, want padding to the cursor", got)
	}
	if got := overlayCursor("ab", -1); got != "ab" {
		t.Errorf("negative column should leave the line alone, got %q", got)
	}
}
