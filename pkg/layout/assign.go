package layout

import (
	"fmt"
	"slices"
)

// unplaceMisplaced invalidates every placed node that has an unplaced input
// or an input in the same or a later column, repeating until nothing
// changes. Each productive pass unplaces at least one node, so the loop runs
// at most len(nodes)+1 times; the cap guards against that reasoning being
// wrong. It returns the number of nodes unplaced.
func (e *Engine) unplaceMisplaced() int {
	nodes := e.live()
	total := 0
	for pass := 0; pass <= len(nodes); pass++ {
		changed := 0
		for _, n := range nodes {
			if !n.Placed {
				continue
			}
			for i := range n.Inputs {
				src, _, ok := e.source(n, i)
				if !ok {
					continue
				}
				if !src.Placed || src.Column >= n.Column {
					n.Placed = false
					changed++
					break
				}
			}
		}
		total += changed
		if changed == 0 {
			break
		}
	}
	return total
}

// assignColumns gives a column to every unplaced node so that each node sits
// strictly right of all of its present inputs.
//
// Nodes without inputs and physically sourced nodes go to column 0. A
// physically sourced node whose host reports a connected input anyway is
// layered like any other node so the edge still runs left to right. The rest
// are layered: at step cur, every waiting node whose inputs are all assigned
// to columns before cur is assigned cur. A step in which no waiting node has
// all of its inputs assigned means the remaining nodes depend on each other,
// which is reported as [ErrCycle].
func (e *Engine) assignColumns() error {
	waiting := make(map[Handle]bool)
	var work []*Node
	maxCol := 0
	for _, n := range e.live() {
		switch {
		case n.Placed:
			maxCol = max(maxCol, n.Column)
		case n.Entity.InputCount() == 0,
			n.Entity.IsPhysicallySourced() && !e.hasInputs(n):
			n.Column = 0
		default:
			if n.Entity.IsPhysicallySourced() {
				e.logger.Warn("physically sourced entity has a connected input", "id", n.ID())
			}
			waiting[n.Handle] = true
			work = append(work, n)
		}
	}

	limit := len(work) + maxCol + 2
	for cur, step := 1, 0; len(work) > 0; cur, step = cur+1, step+1 {
		if step > limit {
			return e.stalled(work)
		}

		var next, picked []*Node
		ready := false
		for _, n := range work {
			col, ok := e.inputColumn(n, waiting)
			if !ok {
				next = append(next, n)
				continue
			}
			ready = true
			if col < cur {
				picked = append(picked, n)
			} else {
				next = append(next, n)
			}
		}
		if !ready {
			return e.stalled(work)
		}

		for _, n := range picked {
			n.Column = cur
			delete(waiting, n.Handle)
		}
		work = next
	}
	return nil
}

// inputColumn returns the highest column among n's present inputs, or -1 if
// it has none. It reports false if any present input is still waiting.
func (e *Engine) inputColumn(n *Node, waiting map[Handle]bool) (int, bool) {
	col := -1
	for i := range n.Inputs {
		src, _, ok := e.source(n, i)
		if !ok {
			continue
		}
		if waiting[src.Handle] {
			return 0, false
		}
		col = max(col, src.Column)
	}
	return col, true
}

func (e *Engine) hasInputs(n *Node) bool {
	for i := range n.Inputs {
		if _, _, ok := e.source(n, i); ok {
			return true
		}
	}
	return false
}

func (e *Engine) stalled(work []*Node) error {
	ids := make([]string, len(work))
	for i, n := range work {
		ids[i] = n.ID()
	}
	slices.Sort(ids)
	e.logger.Error("column assignment stalled", "remaining", len(ids), "entities", ids)
	return fmt.Errorf("%w: %d entities unresolved %v", ErrCycle, len(ids), ids)
}
