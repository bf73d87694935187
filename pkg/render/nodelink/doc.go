// Package nodelink exports the tree as a Graphviz node-link diagram.
//
// The export path is DOT text first, then optional rendering through the
// Graphviz twopi engine, which lays trees out radially and makes a good
// cross-check against the native radial renderer:
//
//	dot := nodelink.ToDOT(t, nodelink.Options{MaxDepth: 4, Labeled: true})
//	svg, err := nodelink.RenderSVG(dot)
//
// PDF and PNG output goes through SVG conversion and requires librsvg.
package nodelink
