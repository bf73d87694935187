// Package scene wires the tree index, cluster manager, layout engine,
// spatial index, and viewport into a single interaction controller.
//
// All mutable visualization state lives on the Controller and nowhere
// else, so the core stays testable without any UI framework. Events run
// synchronously to completion on the caller's goroutine: there is exactly
// one writer and one reader of the shared state, and no locking.
//
// Layout recompute and quadtree rebuild are O(visible nodes) and happen
// only when cluster-expansion membership actually changes, never on a
// plain zoom tick. That is the latency control that keeps a 36k-node
// tree interactive.
package scene

import (
	"github.com/treescope/treescope/pkg/cluster"
	"github.com/treescope/treescope/pkg/layout"
	"github.com/treescope/treescope/pkg/spatial"
	"github.com/treescope/treescope/pkg/tree"
	"github.com/treescope/treescope/pkg/viewport"
)

// zoomStep is the zoom factor multiplier per wheel notch.
const zoomStep = 1.1

// NoNode is returned by hit tests that land on empty space.
const NoNode = -1

// Controller owns the mutable visualization state for one explore
// session. The zero value is not usable - use NewController.
type Controller struct {
	tree     *tree.Tree
	clusters *cluster.Manager
	engine   *layout.Engine
	view     *viewport.Viewport

	positions map[int]layout.Point
	levels    map[int]int
	index     *spatial.Index

	hovered int

	// ancestry memoizes IsDescendantOf results per (node, ancestor)
	// pair. It lives for the controller lifetime and is only correct
	// while the tree is immutable, which it is after load.
	ancestry map[[2]int]bool
}

// NewController builds a controller over the tree with every cluster
// collapsed and computes the initial layout.
func NewController(t *tree.Tree) *Controller {
	c := &Controller{
		tree:     t,
		clusters: cluster.NewManager(t),
		engine:   layout.NewEngine(),
		view:     viewport.New(),
		hovered:  NoNode,
		ancestry: make(map[[2]int]bool),
	}
	c.recompute()
	return c
}

// Tree returns the underlying tree index.
func (c *Controller) Tree() *tree.Tree { return c.tree }

// Clusters returns the cluster manager.
func (c *Controller) Clusters() *cluster.Manager { return c.clusters }

// View returns the viewport state.
func (c *Controller) View() *viewport.Viewport { return c.view }

// Position returns the world position of id if it is visible under the
// current expansion state.
func (c *Controller) Position(id int) (layout.Point, bool) {
	p, ok := c.positions[id]
	return p, ok
}

// Level returns the depth of id in the current layout, or -1 if the node
// is not visible.
func (c *Controller) Level(id int) int {
	if l, ok := c.levels[id]; ok {
		return l
	}
	return -1
}

// VisibleCount returns the number of nodes with positions in the current
// layout.
func (c *Controller) VisibleCount() int { return len(c.positions) }

// Positions returns the current position map. The map is owned by the
// controller; treat it as read-only.
func (c *Controller) Positions() map[int]layout.Point { return c.positions }

// Levels returns the current level map. Read-only, like Positions.
func (c *Controller) Levels() map[int]int { return c.levels }

// Hovered returns the node currently under the pointer, or NoNode.
func (c *Controller) Hovered() int { return c.hovered }

// HitTest converts a screen point to world space and queries the spatial
// index. Returns NoNode when the point lands on empty space.
func (c *Controller) HitTest(screenX, screenY float64) int {
	wx, wy := c.view.ScreenToWorld(screenX, screenY)
	if id, ok := c.index.Query(wx, wy); ok {
		return id
	}
	return NoNode
}

// PointerMoved updates the hover state from a new pointer position and
// reports whether the hovered node changed.
func (c *Controller) PointerMoved(screenX, screenY float64) bool {
	id := c.HitTest(screenX, screenY)
	if id == c.hovered {
		return false
	}
	c.hovered = id
	return true
}

// Wheel applies notches of zoom centered on the given screen cursor.
// Positive notches zoom in. Cluster expansion thresholds are evaluated
// against the new zoom factor; the layout is recomputed only if the
// expanded set changed.
func (c *Controller) Wheel(notches int, cursorX, cursorY float64) {
	if notches == 0 {
		return
	}
	oldZoom := c.view.Zoom()
	factor := 1.0
	for i := 0; i < notches; i++ {
		factor *= zoomStep
	}
	for i := 0; i > notches; i-- {
		factor /= zoomStep
	}
	c.view.ZoomAt(cursorX, cursorY, oldZoom*factor)

	if c.clusters.ApplyZoom(oldZoom, c.view.Zoom(), c.hovered) {
		c.recompute()
	}
}

// Click toggles the cluster under the given screen point, if any, and
// returns the clicked node (or NoNode). Toggles that change the expanded
// set trigger a layout recompute; clicks on leaves and empty space do
// not.
func (c *Controller) Click(screenX, screenY float64) int {
	id := c.HitTest(screenX, screenY)
	if id == NoNode {
		return NoNode
	}
	if c.clusters.IsCluster(id) && c.clusters.Toggle(id) {
		c.recompute()
	}
	return id
}

// ToggleNode toggles a cluster by id, bypassing hit-testing. Used by
// non-pointer frontends such as the terminal explorer.
func (c *Controller) ToggleNode(id int) bool {
	if !c.clusters.Toggle(id) {
		return false
	}
	c.recompute()
	return true
}

// Reset collapses every cluster, clears the position cache, and restores
// the default viewport.
func (c *Controller) Reset() {
	c.clusters.Reset()
	c.engine.Invalidate()
	c.view.Reset()
	c.hovered = NoNode
	c.recompute()
}

// IsDescendantOf reports whether id sits anywhere below ancestor. The
// parent walk is memoized per (id, ancestor) pair; repeated highlight
// queries within one redraw cost one map lookup each.
func (c *Controller) IsDescendantOf(id, ancestor int) bool {
	key := [2]int{id, ancestor}
	if v, ok := c.ancestry[key]; ok {
		return v
	}

	result := false
	for cur := id; ; {
		p, ok := c.tree.Parent(cur)
		if !ok {
			break
		}
		if p == ancestor {
			result = true
			break
		}
		cur = p
	}
	c.ancestry[key] = result
	return result
}

// VisibleNodes returns the ids of positioned nodes whose hit rectangles
// intersect the world rect for a screen viewport of the given size.
func (c *Controller) VisibleNodes(screenW, screenH, margin float64) []int {
	cull := c.view.VisibleWorld(screenW, screenH, margin)
	half := layout.NodeDiameter / 2

	var ids []int
	for id, p := range c.positions {
		hit := viewport.Rect{MinX: p.X - half, MinY: p.Y - half, MaxX: p.X + half, MaxY: p.Y + half}
		if cull.Intersects(hit) {
			ids = append(ids, id)
		}
	}
	return ids
}

// recompute runs the layout engine and rebuilds the spatial index from
// the fresh position map. Incremental patching of the index is not
// worth the stale-entry risk; a full rebuild is linear in visible nodes.
func (c *Controller) recompute() {
	c.positions, c.levels = c.engine.Compute(c.tree, c.clusters)

	c.index = spatial.New()
	for id, p := range c.positions {
		c.index.Insert(id, p.X, p.Y)
	}
}

// Snapshot exports the current layout for rendering or storage.
func (c *Controller) Snapshot() layout.Snapshot {
	return layout.NewSnapshot(c.positions, c.levels, c.clusters.ExpandedIDs())
}
