package layout

import (
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/geom"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/graph"
)

// Handle is a stable index into the engine's node arena. Handles are never
// reused within one Engine, so a stale handle can only miss, never alias.
type Handle int

// Port is one input or output of a node.
type Port struct {
	Index int
	Label string
	Type  graph.PortType
	Rect  geom.Rect // relative to the node's top-left corner
}

// Node is the engine's record for one entity.
type Node struct {
	Handle Handle
	Entity graph.Entity

	// Column is meaningful only while Placed is true.
	Column int
	// Placed is the placement-valid flag: the node's column satisfies the
	// layering invariant and Rect.Top is its packed position.
	Placed bool
	// Rect is absolute.
	Rect geom.Rect

	Inputs  []Port
	Outputs []Port
}

// ID returns the entity ID.
func (n *Node) ID() string { return n.Entity.ID() }

// InputPoint returns the absolute left-center point of input port i.
func (n *Node) InputPoint(i int) geom.Point {
	if i < 0 || i >= len(n.Inputs) {
		return geom.Point{X: n.Rect.Left, Y: n.Rect.CenterY()}
	}
	r := n.Inputs[i].Rect
	return geom.Point{X: n.Rect.Left + r.Left, Y: n.Rect.Top + r.CenterY()}
}

// OutputPoint returns the absolute right-center point of output port i.
func (n *Node) OutputPoint(i int) geom.Point {
	if i < 0 || i >= len(n.Outputs) {
		return geom.Point{X: n.Rect.Right, Y: n.Rect.CenterY()}
	}
	r := n.Outputs[i].Rect
	return geom.Point{X: n.Rect.Left + r.Right, Y: n.Rect.Top + r.CenterY()}
}

// Signal identifies one output of one node. All edges with the same Signal
// form a net and share routing channels.
type Signal struct {
	Node Handle
	Port int
}

// EdgeKey identifies an edge by its destination: every input accepts at most
// one source.
type EdgeKey struct {
	Dst  Handle
	Port int
}

// Edge is one routed connection.
type Edge struct {
	Src     Handle
	SrcPort int
	Dst     Handle
	DstPort int
	Path    []geom.Point
}

// Key returns the edge's identity.
func (e *Edge) Key() EdgeKey { return EdgeKey{Dst: e.Dst, Port: e.DstPort} }

// Signal returns the net the edge belongs to.
func (e *Edge) Signal() Signal { return Signal{Node: e.Src, Port: e.SrcPort} }
