package cli

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"

	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/errors"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/geom"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/graph"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/layout"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/render/ascii"
)

// Editor styles
var (
	editorCursorStyle  = lipgloss.NewStyle().Reverse(true)
	editorPendingStyle = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	editorErrorStyle   = lipgloss.NewStyle().Foreground(colorRed)
	editorHelpStyle    = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// EditorModel - Interactive graph rewiring
// =============================================================================

// EditorModel is the bubbletea model for `filtergraph edit`. It draws the
// routed graph as text and lets the user rewire inputs: pick an output
// port, then an input port, and the engine reroutes.
type EditorModel struct {
	ctx    context.Context
	graph  *graph.Graph
	engine *layout.Engine
	res    *layout.Result
	path   string

	canvas *ascii.Canvas
	cells  ascii.Options

	// Cursor position in canvas cells.
	CursorCol, CursorRow int
	// Viewport origin and size in cells.
	offCol, offRow int
	width, height  int

	// Pending is the output port chosen as the source of the next connection.
	Pending *layout.PortHit
	// Dirty is set once the graph differs from the file on disk.
	Dirty bool
	// Status is the message shown under the canvas.
	Status string
	err    error
}

// NewEditorModel lays out g and returns an editor positioned on the first
// block.
func NewEditorModel(ctx context.Context, g *graph.Graph, path string, opts layout.Options) (EditorModel, error) {
	eng := layout.New(g, opts)
	res, err := eng.Refresh(ctx)
	if err != nil {
		return EditorModel{}, err
	}
	m := EditorModel{
		ctx:    ctx,
		graph:  g,
		engine: eng,
		path:   path,
		width:  80,
		height: 24,
	}
	m.setResult(res)
	if len(res.Nodes) > 0 {
		m.CursorCol, m.CursorRow = m.canvas.Cell(centerOf(res.Nodes[0].Rect))
		m.redraw()
	}
	return m, nil
}

// Result returns the current layout.
func (m EditorModel) Result() *layout.Result { return m.res }

func (m *EditorModel) setResult(res *layout.Result) {
	m.res = res
	m.redraw()
}

func (m *EditorModel) redraw() {
	opts := m.cells
	opts.Selected, _ = m.res.HitTestNode(m.cursorPoint().X, m.cursorPoint().Y)
	m.canvas = ascii.New(m.res, opts)
}

func (m EditorModel) cursorPoint() geom.Point {
	if m.canvas == nil {
		return geom.Point{}
	}
	return m.canvas.Point(m.CursorCol, m.CursorRow)
}

func (m EditorModel) Init() tea.Cmd {
	return nil
}

func (m EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.err = nil
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			m.move(0, -1)
		case "down", "j":
			m.move(0, 1)
		case "left", "h":
			m.move(-1, 0)
		case "right", "l":
			m.move(1, 0)
		case "tab":
			m.jump(1)
		case "shift+tab":
			m.jump(-1)
		case "enter", " ":
			m.pick()
		case "d", "x":
			m.disconnect()
		case "esc":
			m.Pending = nil
			m.Status = ""
		case "r":
			m.refresh()
		case "s":
			m.save()
		}
		m.redraw()
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = max(msg.Height-4, 5)
		m.scroll()
	}
	return m, nil
}

func (m *EditorModel) move(dc, dr int) {
	cols, rows := m.canvas.Size()
	m.CursorCol = min(max(m.CursorCol+dc, 0), cols-1)
	m.CursorRow = min(max(m.CursorRow+dr, 0), rows-1)
	m.scroll()
}

// jump moves the cursor to the center of the next block in layout order.
func (m *EditorModel) jump(dir int) {
	n := len(m.res.Nodes)
	if n == 0 {
		return
	}
	p := m.cursorPoint()
	cur := -1
	if id, ok := m.res.HitTestNode(p.X, p.Y); ok {
		for i, nl := range m.res.Nodes {
			if nl.ID == id {
				cur = i
				break
			}
		}
	}
	next := (cur + dir + n) % n
	if cur < 0 && dir < 0 {
		next = n - 1
	}
	m.CursorCol, m.CursorRow = m.canvas.Cell(centerOf(m.res.Nodes[next].Rect))
	m.scroll()
}

// scroll keeps the cursor inside the viewport.
func (m *EditorModel) scroll() {
	if m.CursorCol < m.offCol {
		m.offCol = m.CursorCol
	}
	if m.CursorCol >= m.offCol+m.width {
		m.offCol = m.CursorCol - m.width + 1
	}
	if m.CursorRow < m.offRow {
		m.offRow = m.CursorRow
	}
	if m.CursorRow >= m.offRow+m.height {
		m.offRow = m.CursorRow - m.height + 1
	}
}

// portAtCursor returns the port under the cursor. A cell is coarser than a
// port label, so when the cursor is inside a block but not on a port the
// nearest port of that block is used.
func (m EditorModel) portAtCursor() (layout.PortHit, bool) {
	p := m.cursorPoint()
	if hit, ok := m.res.HitTestPort(p.X, p.Y); ok {
		return hit, true
	}
	id, ok := m.res.HitTestNode(p.X, p.Y)
	if !ok {
		return layout.PortHit{}, false
	}
	nl, _ := m.res.Node(id)
	return nearestPort(nl, p)
}

func nearestPort(nl layout.NodeLayout, p geom.Point) (layout.PortHit, bool) {
	best, bestDist := layout.PortHit{}, math.Inf(1)
	consider := func(ports []layout.PortLayout, output bool) {
		for _, port := range ports {
			c := centerOf(port.Rect)
			if d := math.Hypot(c.X-p.X, c.Y-p.Y); d < bestDist {
				best, bestDist = layout.PortHit{Node: nl.ID, Port: port.Index, Output: output}, d
			}
		}
	}
	consider(nl.Inputs, false)
	consider(nl.Outputs, true)
	return best, !math.IsInf(bestDist, 1)
}

// pick selects an output as the pending source, or connects the pending
// source to the input under the cursor.
func (m *EditorModel) pick() {
	hit, ok := m.portAtCursor()
	if !ok {
		m.Status = "no port here"
		return
	}
	if hit.Output {
		m.Pending = &hit
		m.Status = fmt.Sprintf("source %s.%d selected; pick an input", hit.Node, hit.Port)
		return
	}
	if m.Pending == nil {
		m.Status = "pick an output port first"
		return
	}
	src := graph.Source{Entity: m.Pending.Node, Port: m.Pending.Port}
	res, err := m.engine.Connect(m.ctx, hit.Node, hit.Port, src)
	if err != nil {
		m.fail(err)
		return
	}
	m.Pending = nil
	m.Dirty = true
	m.Status = fmt.Sprintf("connected %s → %s.%d", src, hit.Node, hit.Port)
	m.setResult(res)
}

func (m *EditorModel) disconnect() {
	hit, ok := m.portAtCursor()
	if !ok || hit.Output {
		m.Status = "move to an input port to disconnect it"
		return
	}
	res, err := m.engine.Disconnect(m.ctx, hit.Node, hit.Port)
	if err != nil {
		m.fail(err)
		return
	}
	m.Dirty = true
	m.Status = fmt.Sprintf("disconnected %s.%d", hit.Node, hit.Port)
	m.setResult(res)
}

func (m *EditorModel) refresh() {
	res, err := m.engine.Refresh(m.ctx)
	if err != nil {
		m.fail(err)
		return
	}
	m.Status = fmt.Sprintf("refreshed in %d attempt(s)", res.Attempts)
	m.setResult(res)
}

func (m *EditorModel) save() {
	if err := graph.WriteFile(m.graph, m.path); err != nil {
		m.fail(err)
		return
	}
	m.Dirty = false
	m.Status = "saved " + m.path
}

// fail reports err. The engine keeps its previous result on failure, so the
// canvas stays valid.
func (m *EditorModel) fail(err error) {
	m.err = err
	m.Status = ""
}

func (m EditorModel) View() string {
	var b strings.Builder

	title := "Edit " + m.path
	if m.Dirty {
		title += " *"
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")

	lines := m.canvas.Lines()
	for row := m.offRow; row < m.offRow+m.height; row++ {
		line := ""
		if row < len(lines) {
			line = lines[row]
		}
		line = sliceCells(line, m.offCol, m.width)
		if row == m.CursorRow {
			line = overlayCursor(line, m.CursorCol-m.offCol)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if info := m.blockInfo(); info != "" {
		b.WriteString(info)
		b.WriteString("\n")
	}

	switch {
	case m.err != nil:
		b.WriteString(editorErrorStyle.Render(iconError + " " + errors.UserMessage(m.err)))
	case m.Pending != nil:
		b.WriteString(editorPendingStyle.Render(m.Status))
	default:
		b.WriteString(StyleDim.Render(m.Status))
	}
	b.WriteString("\n")
	b.WriteString(editorHelpStyle.Render("←↑↓→ move  tab next block  ⏎ pick port  d disconnect  r refresh  s save  q quit"))
	return b.String()
}

// blockInfo tabulates the inputs of the block under the cursor.
func (m EditorModel) blockInfo() string {
	p := m.cursorPoint()
	id, ok := m.res.HitTestNode(p.X, p.Y)
	if !ok {
		return ""
	}
	blk, ok := m.graph.Block(id)
	if !ok || blk.InputCount() == 0 {
		return ""
	}
	rows := make([][]string, 0, blk.InputCount())
	for i := range blk.InputCount() {
		src := "-"
		if s, ok := blk.Input(i); ok {
			src = s.String()
		}
		rows = append(rows, []string{strconv.Itoa(i), blk.InputName(i), string(blk.InputType(i)), src})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(StyleDim).
		Headers("#", "INPUT", "TYPE", "SOURCE").
		Rows(rows...).
		Render()
}

// sliceCells returns width display cells of s starting at cell off.
func sliceCells(s string, off, width int) string {
	var b strings.Builder
	col := 0
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if col >= off && col+w <= off+width {
			b.WriteRune(r)
		}
		col += w
		if col >= off+width {
			break
		}
	}
	return b.String()
}

// overlayCursor highlights the rune at display cell col, padding the line
// when the cursor is past its end.
func overlayCursor(line string, col int) string {
	if col < 0 {
		return line
	}
	var b strings.Builder
	pos := 0
	done := false
	for _, r := range line {
		w := runewidth.RuneWidth(r)
		if !done && pos <= col && col < pos+w {
			b.WriteString(editorCursorStyle.Render(string(r)))
			done = true
		} else {
			b.WriteRune(r)
		}
		pos += w
	}
	if !done {
		b.WriteString(strings.Repeat(" ", col-pos))
		b.WriteString(editorCursorStyle.Render(" "))
	}
	return b.String()
}

func centerOf(r geom.Rect) geom.Point {
	return geom.Point{X: r.CenterX(), Y: r.CenterY()}
}
