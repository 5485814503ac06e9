// Package pkg provides the core libraries for filtergraph, the layout and
// routing engine of a signal-processing filter graph editor.
//
// # Overview
//
// A filter graph is a set of blocks (oscilloscope channels, filters,
// protocol decoders, triggers, exports) whose inputs consume the outputs of
// other blocks. filtergraph places the blocks into columns so that every
// block sits strictly right of everything it depends on, packs each column
// vertically, and routes every connection as an orthogonal wire through the
// strips between columns. All wires carrying the same signal share one
// vertical track.
//
// # Architecture
//
// The typical data flow:
//
//	graph file (JSON / TOML)
//	         ↓
//	    [graph] package (blocks, ports, sources)
//	         ↓
//	    [layout] package (columns → placement → routing → conflict nudging)
//	         ↓
//	    [layout.Result] (rectangles, wire polylines, hit testing)
//	         ↓
//	    [render] packages (SVG, PNG, PDF, DOT, text)
//
// # Quick Start
//
// Lay out a two-block graph and render it:
//
//	import (
//	    "context"
//	    "github.com/ngscopeclient/scopehal-apps-sub003/pkg/graph"
//	    "github.com/ngscopeclient/scopehal-apps-sub003/pkg/layout"
//	    "github.com/ngscopeclient/scopehal-apps-sub003/pkg/render/svg"
//	)
//
//	g := graph.New()
//	g.AddBlock(graph.NewBlock("CH1", graph.KindChannel).AddOutput("out", graph.PortAnalog))
//	g.AddBlock(graph.NewBlock("fft", graph.KindFilter).AddInput("in", graph.PortAnalog))
//	g.Connect("fft", 0, graph.Source{Entity: "CH1", Port: 0})
//
//	eng := layout.New(g, layout.DefaultOptions())
//	res, _ := eng.Refresh(context.Background())
//	data := svg.Render(res)
//
// # Main Packages
//
// [graph] - The entity protocol the engine reads ([graph.View]) and
// rewires ([graph.Editor]), plus an in-memory implementation with JSON and
// TOML file formats, port type compatibility and cycle checks.
//
// [layout] - The engine. Keeps a node arena across refreshes, so blocks
// whose dependencies did not move keep their column and position.
//
// [geom] - Rectangles, points and segment distance.
//
// [render] - Output: [render/svg], [render/ascii] and [render/dot], plus
// SVG to PDF/PNG conversion.
//
// ## Infrastructure
//
// [pipeline] - load → layout → render with caching, shared by the CLI and
// the HTTP server.
//
// [cache] - Layout and artifact cache with file, Redis and MongoDB backends.
//
// [config] - The TOML configuration file.
//
// [server] - HTTP API for layout, rendering and hit testing.
//
// [errors] - Coded errors for the CLI and API surfaces.
//
// [observability] - Hooks for layout, pipeline, cache and HTTP events.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/layout/...   # Specific package
//	go test -run Example       # Examples only
//
// [graph]: https://pkg.go.dev/github.com/ngscopeclient/scopehal-apps-sub003/pkg/graph
// [graph.View]: https://pkg.go.dev/github.com/ngscopeclient/scopehal-apps-sub003/pkg/graph#View
// [graph.Editor]: https://pkg.go.dev/github.com/ngscopeclient/scopehal-apps-sub003/pkg/graph#Editor
// [layout]: https://pkg.go.dev/github.com/ngscopeclient/scopehal-apps-sub003/pkg/layout
// [layout.Result]: https://pkg.go.dev/github.com/ngscopeclient/scopehal-apps-sub003/pkg/layout#Result
// [geom]: https://pkg.go.dev/github.com/ngscopeclient/scopehal-apps-sub003/pkg/geom
// [render]: https://pkg.go.dev/github.com/ngscopeclient/scopehal-apps-sub003/pkg/render
// [render/svg]: https://pkg.go.dev/github.com/ngscopeclient/scopehal-apps-sub003/pkg/render/svg
// [render/ascii]: https://pkg.go.dev/github.com/ngscopeclient/scopehal-apps-sub003/pkg/render/ascii
// [render/dot]: https://pkg.go.dev/github.com/ngscopeclient/scopehal-apps-sub003/pkg/render/dot
// [pipeline]: https://pkg.go.dev/github.com/ngscopeclient/scopehal-apps-sub003/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/ngscopeclient/scopehal-apps-sub003/pkg/cache
// [config]: https://pkg.go.dev/github.com/ngscopeclient/scopehal-apps-sub003/pkg/config
// [server]: https://pkg.go.dev/github.com/ngscopeclient/scopehal-apps-sub003/pkg/server
// [errors]: https://pkg.go.dev/github.com/ngscopeclient/scopehal-apps-sub003/pkg/errors
// [observability]: https://pkg.go.dev/github.com/ngscopeclient/scopehal-apps-sub003/pkg/observability
package pkg
