package layout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/graph"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/observability"
)

var (
	// ErrCycle is returned by [Engine.Refresh] when column assignment stops
	// making progress, which happens only if the graph has a dependency cycle.
	ErrCycle = errors.New("column assignment stalled: graph contains a cycle")

	// ErrRetryLimit is returned by [Engine.Refresh] when the graph could not
	// be routed within Options.MaxAttempts widen cycles.
	ErrRetryLimit = errors.New("routing did not converge")

	// ErrReadOnly is returned by [Engine.Connect] and [Engine.Disconnect]
	// when the engine's view does not implement [graph.Editor].
	ErrReadOnly = errors.New("graph view is read-only")

	// ErrInvariant is returned when a routing precondition does not hold.
	// It indicates a bug in placement, not bad input.
	ErrInvariant = errors.New("layout invariant violated")
)

// errNoChannel is the recoverable capacity failure that triggers widening.
var errNoChannel = errors.New("routing column out of channels")

// Engine lays out and routes a graph view. It owns all layout state and is
// not safe for concurrent use; build one engine per goroutine.
//
// Each [Engine.Refresh] runs the cycle
//
//	PLACE -> ROUTE -> (out of channels ? widen and PLACE : RESOLVE) -> DONE
//
// and publishes an immutable [Result]. A failed refresh leaves the previous
// result in place.
type Engine struct {
	view   graph.View
	opts   Options
	sizer  Sizer
	logger *log.Logger

	nodes []*Node // arena; nil slots are removed nodes
	byID  map[string]Handle

	colLeft      []float64
	colWidth     []float64
	columns      []*RoutingColumn
	routingWidth float64

	result *Result
}

// New creates an engine for view. The view is only read during Refresh.
func New(view graph.View, opts Options) *Engine {
	opts.SetDefaults()
	return &Engine{
		view:         view,
		opts:         opts,
		sizer:        NewSizer(opts.Measurer),
		logger:       opts.Logger,
		byID:         make(map[string]Handle),
		routingWidth: opts.RoutingWidth,
	}
}

// Options returns the engine's effective options.
func (e *Engine) Options() Options { return e.opts }

// RoutingWidth returns the current width of the routing strips. It starts at
// Options.RoutingWidth and only grows.
func (e *Engine) RoutingWidth() float64 { return e.routingWidth }

// Result returns the last successfully published layout, or nil.
func (e *Engine) Result() *Result { return e.result }

// Node returns the live node for an entity ID.
func (e *Engine) Node(id string) (*Node, bool) {
	h, ok := e.byID[id]
	if !ok {
		return nil, false
	}
	return e.nodes[h], true
}

// Columns returns the routing columns of the last routing pass.
func (e *Engine) Columns() []*RoutingColumn { return e.columns }

// Refresh synchronizes with the view and recomputes the layout. The context
// is passed to observability hooks; a refresh is never interrupted.
func (e *Engine) Refresh(ctx context.Context) (*Result, error) {
	hooks := observability.Layout()
	hooks.OnRefreshStart(ctx, len(e.byID))
	start := time.Now()

	res, attempts, err := e.refresh(ctx)

	hooks.OnRefreshComplete(ctx, attempts, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("layout refreshed",
		"nodes", len(res.Nodes),
		"edges", len(res.Edges),
		"attempts", attempts,
		"routing_width", e.routingWidth,
		"duration", time.Since(start))
	return res, nil
}

func (e *Engine) refresh(ctx context.Context) (*Result, int, error) {
	if err := e.opts.Validate(); err != nil {
		return nil, 0, err
	}
	for attempt := 1; attempt <= e.opts.MaxAttempts; attempt++ {
		if err := e.place(); err != nil {
			return nil, attempt, err
		}

		edges, err := e.route()
		if errors.Is(err, errNoChannel) {
			e.routingWidth += e.opts.WidenStep
			e.logger.Debug("routing capacity exhausted, widening",
				"attempt", attempt, "routing_width", e.routingWidth)
			observability.Layout().OnWiden(ctx, attempt, e.routingWidth)
			continue
		}
		if err != nil {
			return nil, attempt, err
		}

		if moved := e.resolveConflicts(edges); moved > 0 {
			e.logger.Debug("nudged conflicting segments", "moved", moved)
		}
		e.result = e.snapshot(attempt, edges)
		return e.result, attempt, nil
	}
	e.logger.Error("routing did not converge",
		"attempts", e.opts.MaxAttempts, "routing_width", e.routingWidth)
	return nil, e.opts.MaxAttempts, fmt.Errorf("%w after %d attempts (routing width %.0f)",
		ErrRetryLimit, e.opts.MaxAttempts, e.routingWidth)
}

// place runs the PLACE stage: sync with the view, re-layer, re-pack.
func (e *Engine) place() error {
	e.sync()
	e.unplaceMisplaced()
	if err := e.assignColumns(); err != nil {
		return err
	}
	e.layoutColumns()
	e.placeNodes()
	return nil
}

// sync prunes nodes whose entity vanished, adds nodes for new entities, and
// re-measures every node. A node whose size changed loses its placement.
func (e *Engine) sync() {
	seen := make(map[string]bool, len(e.byID))
	for _, ent := range e.view.Entities() {
		id := ent.ID()
		if seen[id] {
			e.logger.Warn("duplicate entity ID ignored", "id", id)
			continue
		}
		seen[id] = true

		h, ok := e.byID[id]
		if !ok {
			h = Handle(len(e.nodes))
			e.nodes = append(e.nodes, &Node{Handle: h})
			e.byID[id] = h
		}
		n := e.nodes[h]
		n.Entity = ent

		size, inputs, outputs := e.sizer.Size(ent)
		if size.Width() != n.Rect.Width() || size.Height() != n.Rect.Height() {
			n.Placed = false
		}
		n.Rect = size.MoveTo(n.Rect.Left, n.Rect.Top)
		n.Inputs = inputs
		n.Outputs = outputs
	}

	for id, h := range e.byID {
		if !seen[id] {
			e.nodes[h] = nil
			delete(e.byID, id)
		}
	}
}

// live returns the live nodes in handle order.
func (e *Engine) live() []*Node {
	out := make([]*Node, 0, len(e.byID))
	for _, n := range e.nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// source resolves input i of n to its live source node. Inputs that are
// unconnected or point at an entity the view does not contain are absent.
func (e *Engine) source(n *Node, i int) (*Node, int, bool) {
	src, ok := n.Entity.Input(i)
	if !ok {
		return nil, 0, false
	}
	h, ok := e.byID[src.Entity]
	if !ok {
		return nil, 0, false
	}
	return e.nodes[h], src.Port, true
}

// Connect asks the host to feed input port of dst from src and refreshes.
// The host's [graph.Editor.CanConnect] check runs first; if it rejects the
// connection nothing changes.
func (e *Engine) Connect(ctx context.Context, dst string, port int, src graph.Source) (*Result, error) {
	ed, ok := e.view.(graph.Editor)
	if !ok {
		return nil, ErrReadOnly
	}
	if err := ed.CanConnect(dst, port, src); err != nil {
		return nil, err
	}
	if err := ed.Connect(dst, port, src); err != nil {
		return nil, err
	}
	return e.Refresh(ctx)
}

// Disconnect clears input port of dst and refreshes.
func (e *Engine) Disconnect(ctx context.Context, dst string, port int) (*Result, error) {
	ed, ok := e.view.(graph.Editor)
	if !ok {
		return nil, ErrReadOnly
	}
	if err := ed.Disconnect(dst, port); err != nil {
		return nil, err
	}
	return e.Refresh(ctx)
}
