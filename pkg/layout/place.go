package layout

// layoutColumns computes the x-extent of every node column from the widest
// member and the current routing width, and moves every node to its
// column's left edge. Vertical positions are left alone.
func (e *Engine) layoutColumns() {
	nodes := e.live()
	n := 0
	for _, nd := range nodes {
		n = max(n, nd.Column+1)
	}

	e.colWidth = make([]float64, n)
	e.colLeft = make([]float64, n)
	for _, nd := range nodes {
		e.colWidth[nd.Column] = max(e.colWidth[nd.Column], nd.Rect.Width())
	}
	x := e.opts.Margin
	for c := range e.colLeft {
		e.colLeft[c] = x
		x += e.colWidth[c] + e.routingWidth
	}

	for _, nd := range nodes {
		nd.Rect = nd.Rect.MoveTo(e.colLeft[nd.Column], nd.Rect.Top)
	}
}

// placeNodes packs every unplaced node into its column. Primary sources
// (hardware channels) are packed before derived nodes so they stay at the
// top of column 0. Each node starts at the top margin and is pushed below
// the first already-placed node it overlaps until it fits. Collisions are
// tested against every placed node in the graph; columns occupy disjoint
// x-ranges, so only same-column nodes hit in practice.
func (e *Engine) placeNodes() {
	nodes := e.live()
	byCol := make([][]*Node, len(e.colLeft))
	for _, nd := range nodes {
		byCol[nd.Column] = append(byCol[nd.Column], nd)
	}

	for _, members := range byCol {
		for pass := 0; pass < 2; pass++ {
			for _, nd := range members {
				if nd.Placed || nd.Entity.Kind().Primary() != (pass == 0) {
					continue
				}
				e.pack(nd, nodes)
			}
		}
	}
}

// pack finds the first free vertical slot for nd among the placed nodes in
// others. Every step moves below a distinct placed node, so the search ends
// after at most len(others) steps.
func (e *Engine) pack(nd *Node, others []*Node) {
	nd.Rect = nd.Rect.MoveTo(e.colLeft[nd.Column], e.opts.Margin)
	for range len(others) + 1 {
		hit := collide(nd, others)
		if hit == nil {
			break
		}
		nd.Rect = nd.Rect.MoveTo(nd.Rect.Left, hit.Rect.Bottom+e.opts.NodeSpacing)
	}
	nd.Placed = true
}

func collide(nd *Node, others []*Node) *Node {
	for _, o := range others {
		if o == nd || !o.Placed {
			continue
		}
		if nd.Rect.Intersects(o.Rect) {
			return o
		}
	}
	return nil
}
