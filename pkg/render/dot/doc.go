// Package dot renders filter graphs as Graphviz diagrams.
//
// # Overview
//
// This package is an alternative to the native SVG renderer for cases where
// a stock Graphviz diagram is preferred, or where the DOT source is fed to
// other tooling. Each block becomes a record node whose fields are the
// block's ports, so wires attach to the correct port the same way they do in
// the native renderer.
//
// # Usage
//
// Convert a layout result to DOT, then render it:
//
//	src := dot.ToDOT(res, dot.Options{})
//	svg, err := dot.RenderSVG(ctx, src)
//
// For PDF or PNG output:
//
//	pdf, err := dot.RenderPDF(ctx, src)
//	png, err := dot.RenderPNG(ctx, src, 2.0)  // 2x scale
//
// # Columns
//
// Graphviz computes its own coordinates, but the column assignment of the
// layout engine is kept: every column becomes a rank (rank=same), ranks run
// left to right, and blocks within a rank keep the engine's top-to-bottom
// order. With [Options.Positions] set, each node also carries a pos hint
// taken from the engine's placement, for use with neato -n.
//
// # Dependencies
//
// SVG rendering uses the go-graphviz library (github.com/goccy/go-graphviz),
// which embeds Graphviz via WebAssembly. PDF and PNG conversion additionally
// require librsvg; see [render.ToPDF].
package dot
