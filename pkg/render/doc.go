// Package render turns a finished [layout.Result] into pictures.
//
// # Overview
//
// The layout engine decides where every block and wire goes; the
// subpackages here only draw:
//
//   - [svg]: standalone SVG with port labels and orthogonal wires
//   - [ascii]: a character-cell drawing for terminals and the editor
//   - [dot]: Graphviz DOT export with pinned positions, plus a Graphviz
//     rendered preview
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG to other formats using the external
// rsvg-convert tool (from librsvg):
//
//	data := svg.Render(res)
//	png, err := render.ToPNG(ctx, data, 2.0) // 2x scale
//
// [layout.Result]: github.com/ngscopeclient/scopehal-apps-sub003/pkg/layout#Result
// [svg]: github.com/ngscopeclient/scopehal-apps-sub003/pkg/render/svg
// [ascii]: github.com/ngscopeclient/scopehal-apps-sub003/pkg/render/ascii
// [dot]: github.com/ngscopeclient/scopehal-apps-sub003/pkg/render/dot
package render
