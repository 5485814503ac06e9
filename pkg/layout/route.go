package layout

import (
	"fmt"
	"math"

	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/geom"
)

// route runs the ROUTE stage. Routing columns are rebuilt for the current
// geometry and every edge is routed from scratch into a fresh slice, so a
// failed pass never leaves a half-built path on a published edge.
func (e *Engine) route() ([]Edge, error) {
	e.columns = make([]*RoutingColumn, max(len(e.colLeft)-1, 0))
	for c := range e.columns {
		left := e.colLeft[c] + e.colWidth[c]
		e.columns[c] = NewRoutingColumn(left, e.colLeft[c+1], e.opts.ChannelStep)
	}

	byCol := make([][]*Node, len(e.colLeft))
	var edges []Edge
	for _, dst := range e.live() {
		byCol[dst.Column] = append(byCol[dst.Column], dst)
		for i := range dst.Inputs {
			src, port, ok := e.source(dst, i)
			if !ok {
				continue
			}
			edges = append(edges, Edge{Src: src.Handle, SrcPort: port, Dst: dst.Handle, DstPort: i})
		}
	}

	for i := range edges {
		path, err := e.routePath(&edges[i], byCol)
		if err != nil {
			return nil, err
		}
		edges[i].Path = path
	}
	return edges, nil
}

// routePath computes an orthogonal path for ed. The path leaves the source
// port to the right, takes the signal's channel in every routing column it
// crosses, jogs to a clear lane to pass through each intermediate node
// column, and enters the destination port from the left.
func (e *Engine) routePath(ed *Edge, byCol [][]*Node) ([]geom.Point, error) {
	src, dst := e.nodes[ed.Src], e.nodes[ed.Dst]
	if src.Column >= dst.Column {
		return nil, fmt.Errorf("%w: edge %s -> %s runs from column %d to %d",
			ErrInvariant, src.ID(), dst.ID(), src.Column, dst.Column)
	}

	sig := ed.Signal()
	start := src.OutputPoint(ed.SrcPort)
	end := dst.InputPoint(ed.DstPort)

	path := []geom.Point{start}
	y := start.Y
	for c := src.Column; c < dst.Column; c++ {
		x, ok := e.columns[c].Allocate(sig)
		if !ok {
			return nil, errNoChannel
		}
		path = append(path, geom.Point{X: x, Y: y})
		if c+1 < dst.Column {
			y = e.findLane(y, byCol[c+1])
		} else {
			y = end.Y
		}
		path = append(path, geom.Point{X: x, Y: y})
	}
	path = append(path, end)
	return simplify(path), nil
}

// findLane returns the first y at or below from, on the LaneStep grid
// anchored at from, that clears every node in column by LaneClearance. Each
// iteration jumps past the node blocking y, so the search ends after at most
// len(column) jumps.
func (e *Engine) findLane(from float64, column []*Node) float64 {
	cl, step := e.opts.LaneClearance, e.opts.LaneStep
	y := from
	for range len(column) + 1 {
		n := laneBlocker(y, column, cl)
		if n == nil {
			return y
		}
		bottom := n.Rect.Bottom + cl
		next := from + (math.Floor((bottom-from)/step)+1)*step
		if !(next > bottom) {
			next = math.Nextafter(bottom, math.Inf(1))
		}
		y = next
	}
	return y
}

func laneBlocker(y float64, column []*Node, cl float64) *Node {
	for _, n := range column {
		if y >= n.Rect.Top-cl && y <= n.Rect.Bottom+cl {
			return n
		}
	}
	return nil
}

// simplify drops repeated points and the middle point of collinear runs.
// The endpoints are always kept.
func simplify(path []geom.Point) []geom.Point {
	out := make([]geom.Point, 0, len(path))
	for _, p := range path {
		if n := len(out); n > 0 && out[n-1] == p {
			continue
		}
		if n := len(out); n >= 2 {
			a, b := out[n-2], out[n-1]
			if (a.X == b.X && b.X == p.X) || (a.Y == b.Y && b.Y == p.Y) {
				out[n-1] = p
				continue
			}
		}
		out = append(out, p)
	}
	return out
}
