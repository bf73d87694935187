// Package render turns layout snapshots into visual outputs.
//
// # Overview
//
//   - Radial SVG: the native visualization, drawn directly from a layout
//     snapshot ([RenderSVG]).
//   - Node-link diagrams: Graphviz twopi rendering of the raw tree
//     topology (in the [nodelink] subpackage).
//   - Generic format conversion (SVG to PDF/PNG) via rsvg-convert.
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG using the external rsvg-convert
// tool (from librsvg). Both renderers share them.
//
//	svg := render.RenderSVG(snapshot, render.WithTree(t))
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// [nodelink]: github.com/treescope/treescope/pkg/render/nodelink
package render
