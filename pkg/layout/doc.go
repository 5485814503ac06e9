// Package layout places the blocks of a filter graph on a grid of columns and
// routes orthogonal wires between them.
//
// # Overview
//
// An [Engine] wraps a [graph.View]. Each call to [Engine.Refresh]
// synchronizes the engine's node table with the view and then runs
//
//	PLACE -> ROUTE -> (out of channels ? widen and PLACE : RESOLVE) -> DONE
//
// PLACE assigns every node a column strictly right of all of its inputs
// (physical channels and input-less blocks go to column 0), then packs each
// column top to bottom without overlap. Nodes whose placement is still valid
// keep their vertical position across refreshes, so the picture does not
// jump around while the user edits.
//
// ROUTE walks every edge from its source column to its destination column.
// Between two node columns lies a [RoutingColumn] whose vertical channels are
// handed out one per signal; every wire carrying the same signal shares the
// same channel. When a routing column runs out of channels the engine widens
// all routing columns and starts over.
//
// RESOLVE nudges apart horizontal segments of different signals that would
// be drawn on top of each other.
//
// # Results
//
// A successful refresh publishes a [Result], a self-contained snapshot with
// node rectangles, port rectangles and wire paths. Results support hit
// testing ([Result.HitTestNode], [Result.HitTestPort], [Result.HitTestPath])
// and serialize to JSON.
//
// # Errors
//
// A dependency cycle makes column assignment stall; Refresh reports
// [ErrCycle]. A graph that cannot be routed within Options.MaxAttempts
// widen cycles reports [ErrRetryLimit]. In both cases the previously
// published result stays available through [Engine.Result].
//
// # Concurrency
//
// An Engine is not safe for concurrent use. Results are immutable and may be
// shared freely.
package layout
