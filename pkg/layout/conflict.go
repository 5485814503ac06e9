package layout

import (
	"math"

	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/geom"
)

// segRef names the horizontal segment path[idx]..path[idx+1] of edges[edge].
type segRef struct {
	edge int
	idx  int
}

// resolveConflicts runs the RESOLVE stage. Horizontal segments of different
// signals that sit within ConflictTolerance of each other in y and overlap
// in x are separated by nudging one of them down by NudgeStep, at most
// MaxNudges times per segment. Giving up leaves the segments touching,
// which is cosmetic only. It returns the number of nudges kept.
func (e *Engine) resolveConflicts(edges []Edge) int {
	var segs []segRef
	for i := range edges {
		p := edges[i].Path
		for k := 0; k+1 < len(p); k++ {
			if p[k].Y == p[k+1].Y && p[k].X != p[k+1].X {
				segs = append(segs, segRef{edge: i, idx: k})
			}
		}
	}

	moved := 0
	for j := range segs {
		for range e.opts.MaxNudges {
			i := e.findConflict(edges, segs, j)
			if i < 0 {
				break
			}
			mover := -1
			switch {
			case e.movable(edges, segs[j]):
				mover = j
			case e.movable(edges, segs[i]):
				mover = i
			}
			if mover < 0 || !e.nudge(edges, segs[mover]) {
				break
			}
			moved++
		}
	}
	return moved
}

// findConflict returns the index of an earlier segment that collides with
// segs[j], or -1.
func (e *Engine) findConflict(edges []Edge, segs []segRef, j int) int {
	sj := segs[j]
	a1, a2 := segment(edges, sj)
	sig := edges[sj.edge].Signal()
	for i := 0; i < j; i++ {
		si := segs[i]
		if edges[si.edge].Signal() == sig {
			continue
		}
		b1, b2 := segment(edges, si)
		if math.Abs(a1.Y-b1.Y) > e.opts.ConflictTolerance {
			continue
		}
		if geom.Overlap(a1.X, a2.X, b1.X, b2.X) > 0 {
			return i
		}
	}
	return -1
}

func segment(edges []Edge, s segRef) (geom.Point, geom.Point) {
	p := edges[s.edge].Path
	return p[s.idx], p[s.idx+1]
}

// movable reports whether a segment may be nudged. The first segment is
// pinned to the source port. The last segment is pinned to the destination
// port unless it is long enough to take a dog-leg.
func (e *Engine) movable(edges []Edge, s segRef) bool {
	if s.idx == 0 {
		return false
	}
	p := edges[s.edge].Path
	if s.idx+2 < len(p) {
		return true
	}
	return math.Abs(p[s.idx+1].X-p[s.idx].X) > 2*e.opts.DogLeg
}

// nudge moves segment s down by NudgeStep. When s is the last segment the
// path gets a dog-leg so it still ends on the destination port. A nudge that
// would push the segment into a node or shrink a neighboring vertical to
// zero length is undone and reported as false.
func (e *Engine) nudge(edges []Edge, s segRef) bool {
	ed := &edges[s.edge]
	saved := append([]geom.Point(nil), ed.Path...)
	step := e.opts.NudgeStep

	last := s.idx+2 == len(ed.Path)
	if last {
		end := ed.Path[s.idx+1]
		jog := end.X - e.opts.DogLeg
		ed.Path[s.idx].Y += step
		ed.Path[s.idx+1] = geom.Point{X: jog, Y: end.Y + step}
		ed.Path = append(ed.Path, geom.Point{X: jog, Y: end.Y}, end)
	} else {
		ed.Path[s.idx].Y += step
		ed.Path[s.idx+1].Y += step
	}

	a, b := ed.Path[s.idx], ed.Path[s.idx+1]
	if e.crossesNode(a, b) || collapsed(ed.Path, s.idx) {
		ed.Path = saved
		return false
	}
	return true
}

// collapsed reports whether a vertical next to the horizontal segment at idx
// has zero length.
func collapsed(p []geom.Point, idx int) bool {
	if idx > 0 && p[idx-1] == p[idx] {
		return true
	}
	return idx+2 < len(p) && p[idx+1] == p[idx+2]
}

// crossesNode reports whether the horizontal segment a-b passes through the
// interior of any node.
func (e *Engine) crossesNode(a, b geom.Point) bool {
	for _, n := range e.live() {
		r := n.Rect
		if a.Y > r.Top && a.Y < r.Bottom && geom.Overlap(a.X, b.X, r.Left, r.Right) > 0 {
			return true
		}
	}
	return false
}
