package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/treescope/treescope/pkg/render"
	"github.com/treescope/treescope/pkg/tree"
)

// Options configures node-link diagram export.
type Options struct {
	// MaxDepth limits the exported tree to the given number of levels
	// below the root. Zero exports everything; the full tree makes
	// Graphviz crawl, so the CLI defaults to a shallow cut.
	MaxDepth int

	// Labeled adds node names as labels. When false nodes render as
	// anonymous dots, which stays readable at high node counts.
	Labeled bool
}

// ToDOT converts the tree to Graphviz DOT for node-link visualization.
// The graph carries layout=twopi so the radial engine is selected even
// when the DOT string is fed to plain Graphviz tooling. The result can
// be rendered with [RenderSVG], [RenderPDF], or [RenderPNG].
func ToDOT(t *tree.Tree, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("graph tree {\n")
	buf.WriteString("  layout=twopi;\n")
	fmt.Fprintf(&buf, "  root=%q;\n", strconv.Itoa(tree.RootID))
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  ranksep=1.5;\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fixedsize=true, width=0.25, fontsize=10];\n")
	buf.WriteString("\n")

	include := func(id int) bool {
		return opts.MaxDepth <= 0 || t.Level(id) <= opts.MaxDepth
	}

	for _, id := range t.IDs() {
		if !include(id) {
			continue
		}
		n, _ := t.Node(id)
		fmt.Fprintf(&buf, "  %q [%s];\n", strconv.Itoa(id), fmtAttrs(n, opts.Labeled))
	}

	buf.WriteString("\n")
	for _, id := range t.IDs() {
		if !include(id) {
			continue
		}
		for _, c := range t.Children(id) {
			if !include(c) {
				continue
			}
			fmt.Fprintf(&buf, "  %q -- %q;\n", strconv.Itoa(id), strconv.Itoa(c))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtAttrs(n tree.Node, labeled bool) string {
	label := ""
	if labeled {
		label = n.Name
	}
	attrs := fmt.Sprintf("label=%q", label)
	if n.Extinct {
		attrs += ", fillcolor=lightgrey"
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz with the twopi
// engine. Returns SVG bytes ready for display or conversion with
// [render.ToPDF] or [render.ToPNG].
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.TWOPI)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the Graphviz svg header to a zero-origin
// viewBox with explicit pixel dimensions so browsers scale it sanely.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
// This is a convenience wrapper around [RenderSVG] and [render.ToPDF].
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// This is a convenience wrapper around [RenderSVG] and [render.ToPNG].
//
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
