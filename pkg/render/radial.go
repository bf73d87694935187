package render

import (
	"bytes"
	"fmt"

	"github.com/treescope/treescope/pkg/layout"
	"github.com/treescope/treescope/pkg/tree"
)

// Node colors keyed by payload: placement confidence and extinction.
const (
	colorConfident   = "#2f7d4f"
	colorProblematic = "#c98a1b"
	colorUnspecified = "#5a7d9a"
	colorExtinct     = "#8a8a8a"
	colorEdge        = "#c9c9c9"
	colorCluster     = "#2f5d7d"
)

const nodeInteractionCSS = `
    .node { transition: stroke-width 0.15s ease; stroke: #fff; stroke-width: 1; }
    .node.highlight { stroke: #222; stroke-width: 3; }
    .node-label { font-family: sans-serif; pointer-events: none; }`

const nodeInteractionJS = `
    document.querySelectorAll('.node').forEach(el => {
      el.addEventListener('mouseenter', () => el.classList.add('highlight'));
      el.addEventListener('mouseleave', () => el.classList.remove('highlight'));
    });`

// SVGOption configures the radial renderer.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	tree       *tree.Tree
	labelDepth int
	margin     float64
}

// WithTree supplies the tree index. Without it the renderer still draws
// positioned markers, but edges, labels, payload colors, and collapsed
// cluster rings all need topology and are skipped.
func WithTree(t *tree.Tree) SVGOption { return func(r *svgRenderer) { r.tree = t } }

// WithLabelDepth sets the deepest level that still gets a text label.
func WithLabelDepth(level int) SVGOption { return func(r *svgRenderer) { r.labelDepth = level } }

// WithMargin sets the blank border around the drawing, in world units.
func WithMargin(m float64) SVGOption { return func(r *svgRenderer) { r.margin = m } }

// RenderSVG draws a layout snapshot as a standalone SVG. Output is
// deterministic: placements are already id-sorted in the snapshot.
func RenderSVG(s layout.Snapshot, opts ...SVGOption) []byte {
	r := svgRenderer{labelDepth: 2, margin: 60}
	for _, opt := range opts {
		opt(&r)
	}

	minX, minY, maxX, maxY := bounds(s, r.margin)
	w, h := maxX-minX, maxY-minY

	positions, _ := s.Maps()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.1f %.1f %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		minX, minY, w, h, w, h)

	if r.tree != nil {
		renderEdges(&buf, r.tree, positions)
	}
	for _, p := range s.Placed {
		r.renderNode(&buf, p, positions)
	}
	if r.tree != nil {
		r.renderLabels(&buf, s)
	}

	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", nodeInteractionCSS)
	fmt.Fprintf(&buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", nodeInteractionJS)
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func bounds(s layout.Snapshot, margin float64) (minX, minY, maxX, maxY float64) {
	pad := margin + layout.NodeDiameter
	minX, minY = -pad, -pad
	maxX, maxY = pad, pad
	for _, p := range s.Placed {
		minX = min(minX, p.X-pad)
		minY = min(minY, p.Y-pad)
		maxX = max(maxX, p.X+pad)
		maxY = max(maxY, p.Y+pad)
	}
	return minX, minY, maxX, maxY
}

func renderEdges(buf *bytes.Buffer, t *tree.Tree, positions map[int]layout.Point) {
	for _, id := range t.IDs() {
		child, ok := positions[id]
		if !ok {
			continue
		}
		pid, ok := t.Parent(id)
		if !ok {
			continue
		}
		parent, ok := positions[pid]
		if !ok {
			continue
		}
		fmt.Fprintf(buf, `  <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="1"/>`+"\n",
			parent.X, parent.Y, child.X, child.Y, colorEdge)
	}
}

func (r *svgRenderer) renderNode(buf *bytes.Buffer, p layout.Placement, positions map[int]layout.Point) {
	radius := layout.NodeDiameter / 2

	// A positioned node whose children are all absent from the snapshot
	// is a collapsed cluster; it gets a ring and a heavier fill.
	if r.tree != nil && collapsedCluster(r.tree, p.ID, positions) {
		fmt.Fprintf(buf, `  <circle cx="%.1f" cy="%.1f" r="%.1f" fill="none" stroke="%s" stroke-width="2"/>`+"\n",
			p.X, p.Y, radius+5, colorCluster)
		fmt.Fprintf(buf, `  <circle id="node-%d" class="node" cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>`+"\n",
			p.ID, p.X, p.Y, radius, colorCluster)
		return
	}

	fmt.Fprintf(buf, `  <circle id="node-%d" class="node" cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>`+"\n",
		p.ID, p.X, p.Y, radius, r.fillColor(p.ID))
}

func collapsedCluster(t *tree.Tree, id int, positions map[int]layout.Point) bool {
	kids := t.Children(id)
	if len(kids) == 0 {
		return false
	}
	for _, c := range kids {
		if _, ok := positions[c]; ok {
			return false
		}
	}
	return true
}

func (r *svgRenderer) fillColor(id int) string {
	if r.tree == nil {
		return colorUnspecified
	}
	n, ok := r.tree.Node(id)
	if !ok {
		return colorUnspecified
	}
	switch {
	case n.Extinct:
		return colorExtinct
	case n.Confidence == tree.ConfidenceProblematic:
		return colorProblematic
	case n.Confidence == tree.ConfidenceUnspecified:
		return colorUnspecified
	default:
		return colorConfident
	}
}

func (r *svgRenderer) renderLabels(buf *bytes.Buffer, s layout.Snapshot) {
	for _, p := range s.Placed {
		if p.Level > r.labelDepth {
			continue
		}
		n, ok := r.tree.Node(p.ID)
		if !ok || n.Name == "" {
			continue
		}
		fmt.Fprintf(buf, `  <text class="node-label" x="%.1f" y="%.1f" font-size="14" text-anchor="middle">%s</text>`+"\n",
			p.X, p.Y-layout.NodeDiameter, escapeText(n.Name))
	}
}

func escapeText(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
