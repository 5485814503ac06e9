package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/geom"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/graph"
)

// Result is an immutable snapshot of a finished layout: everything a
// renderer or a hit-tester needs, and nothing tied to the engine.
type Result struct {
	Nodes   []NodeLayout   `json:"nodes" bson:"nodes"`
	Edges   []EdgeLayout   `json:"edges" bson:"edges"`
	Columns []ColumnLayout `json:"columns,omitempty" bson:"columns,omitempty"`

	Bounds       geom.Rect `json:"bounds" bson:"bounds"`
	RoutingWidth float64   `json:"routing_width" bson:"routing_width"`
	// Attempts is the number of place/route cycles the refresh needed.
	Attempts     int     `json:"attempts" bson:"attempts"`
	HitTolerance float64 `json:"hit_tolerance" bson:"hit_tolerance"`
}

// NodeLayout is one placed node with absolute port rectangles.
type NodeLayout struct {
	ID      string       `json:"id" bson:"id"`
	Label   string       `json:"label" bson:"label"`
	Kind    string       `json:"kind" bson:"kind"`
	Column  int          `json:"column" bson:"column"`
	Rect    geom.Rect    `json:"rect" bson:"rect"`
	Inputs  []PortLayout `json:"inputs,omitempty" bson:"inputs,omitempty"`
	Outputs []PortLayout `json:"outputs,omitempty" bson:"outputs,omitempty"`
}

// PortLayout is one port of a placed node.
type PortLayout struct {
	Index int       `json:"index" bson:"index"`
	Label string    `json:"label" bson:"label"`
	Type  string    `json:"type,omitempty" bson:"type,omitempty"`
	Rect  geom.Rect `json:"rect" bson:"rect"`
}

// EdgeLayout is one routed connection.
type EdgeLayout struct {
	From graph.Source `json:"from" bson:"from"`
	To   graph.Source `json:"to" bson:"to"`
	Path []geom.Point `json:"path" bson:"path"`
}

// ColumnLayout describes one routing strip.
type ColumnLayout struct {
	Index    int     `json:"index" bson:"index"`
	Left     float64 `json:"left" bson:"left"`
	Right    float64 `json:"right" bson:"right"`
	Used     int     `json:"used" bson:"used"`
	Capacity int     `json:"capacity" bson:"capacity"`
}

// PortHit is the result of [Result.HitTestPort].
type PortHit struct {
	Node   string
	Port   int
	Output bool
}

func (e *Engine) snapshot(attempts int, edges []Edge) *Result {
	res := &Result{
		RoutingWidth: e.routingWidth,
		Attempts:     attempts,
		HitTolerance: e.opts.HitTolerance,
	}

	var bounds geom.Rect
	for _, n := range e.live() {
		nl := NodeLayout{
			ID:      n.ID(),
			Label:   n.Entity.Label(),
			Kind:    n.Entity.Kind().String(),
			Column:  n.Column,
			Rect:    n.Rect,
			Inputs:  absPorts(n, n.Inputs),
			Outputs: absPorts(n, n.Outputs),
		}
		res.Nodes = append(res.Nodes, nl)
		bounds = bounds.Union(n.Rect)
	}

	for _, ed := range edges {
		src, dst := e.nodes[ed.Src], e.nodes[ed.Dst]
		path := append([]geom.Point(nil), ed.Path...)
		for _, p := range path {
			bounds = bounds.Union(geom.Rect{Left: p.X, Top: p.Y, Right: p.X, Bottom: p.Y})
		}
		res.Edges = append(res.Edges, EdgeLayout{
			From: graph.Source{Entity: src.ID(), Port: ed.SrcPort},
			To:   graph.Source{Entity: dst.ID(), Port: ed.DstPort},
			Path: path,
		})
	}

	for i, c := range e.columns {
		res.Columns = append(res.Columns, ColumnLayout{
			Index:    i,
			Left:     c.Left,
			Right:    c.Right,
			Used:     c.Allocated(),
			Capacity: c.Capacity(),
		})
	}

	if len(res.Nodes) > 0 {
		m := e.opts.Margin
		res.Bounds = geom.Rect{Left: 0, Top: 0, Right: bounds.Right + m, Bottom: bounds.Bottom + m}
	}
	return res
}

func absPorts(n *Node, ports []Port) []PortLayout {
	if len(ports) == 0 {
		return nil
	}
	out := make([]PortLayout, len(ports))
	for i, p := range ports {
		out[i] = PortLayout{
			Index: p.Index,
			Label: p.Label,
			Type:  string(p.Type),
			Rect:  p.Rect.Translate(n.Rect.Left, n.Rect.Top),
		}
	}
	return out
}

// Node returns the layout of the node with the given ID.
func (r *Result) Node(id string) (NodeLayout, bool) {
	for _, n := range r.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeLayout{}, false
}

// EdgesInto returns the edges ending at the given entity.
func (r *Result) EdgesInto(id string) []EdgeLayout {
	var out []EdgeLayout
	for _, e := range r.Edges {
		if e.To.Entity == id {
			out = append(out, e)
		}
	}
	return out
}

// HitTestNode returns the ID of the node containing (x, y). Nodes never
// overlap, so at most one matches.
func (r *Result) HitTestNode(x, y float64) (string, bool) {
	p := geom.Point{X: x, Y: y}
	for _, n := range r.Nodes {
		if n.Rect.Contains(p) {
			return n.ID, true
		}
	}
	return "", false
}

// HitTestPort returns the port under (x, y).
func (r *Result) HitTestPort(x, y float64) (PortHit, bool) {
	p := geom.Point{X: x, Y: y}
	for _, n := range r.Nodes {
		if !n.Rect.Contains(p) {
			continue
		}
		for _, port := range n.Inputs {
			if port.Rect.Contains(p) {
				return PortHit{Node: n.ID, Port: port.Index}, true
			}
		}
		for _, port := range n.Outputs {
			if port.Rect.Contains(p) {
				return PortHit{Node: n.ID, Port: port.Index, Output: true}, true
			}
		}
	}
	return PortHit{}, false
}

// HitTestPath returns the index into Edges of the path nearest to (x, y),
// provided it lies within HitTolerance.
func (r *Result) HitTestPath(x, y float64) (int, bool) {
	p := geom.Point{X: x, Y: y}
	best, bestDist := -1, math.Inf(1)
	for i, e := range r.Edges {
		for k := 0; k+1 < len(e.Path); k++ {
			if d := geom.SegmentDistance(p, e.Path[k], e.Path[k+1]); d < bestDist {
				best, bestDist = i, d
			}
		}
	}
	if best < 0 || bestDist > r.HitTolerance {
		return -1, false
	}
	return best, true
}

// Marshal encodes the result as indented JSON.
func (r *Result) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("encode layout: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a result produced by [Result.Marshal].
func Unmarshal(data []byte) (*Result, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}
	return &r, nil
}

// WriteFile writes the result as JSON to path.
func (r *Result) WriteFile(path string) error {
	data, err := r.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write layout %s: %w", path, err)
	}
	return nil
}

// ReadFile reads a result written by [Result.WriteFile].
func ReadFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout %s: %w", path, err)
	}
	return Unmarshal(data)
}
