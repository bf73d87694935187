// Package layout converts tree topology into 2D world positions with a
// recursive angular subdivision algorithm.
//
// The root sits at the world origin. Its direct children (the main
// branches) partition the full circle, each guaranteed a minimum angular
// quota so that small branches stay visible next to enormous ones. Below
// the first ring every positioned node subdivides its allocated span
// equally among its (reordered) children, subject to a chord-derived
// minimum step that keeps dense rings from overlapping.
//
// Collapsed clusters receive a position but no descent: the engine is a
// function of the tree index and the cluster manager's expanded set, and
// recomputes only when that set changes.
package layout

import (
	"math"

	"github.com/treescope/treescope/pkg/cluster"
	"github.com/treescope/treescope/pkg/tree"
)

const (
	fullCircle = 360.0

	// Minimum angular quotas for main branches, in degrees. Significant
	// branches hold structure worth keeping readable and get the larger
	// reserve.
	branchQuota      = 36.0
	significantQuota = 54.0

	// The structural window for branch weighting: only nodes between
	// these absolute depths contribute to a branch's weighted size.
	windowMinLevel = 2
	windowMaxLevel = 10

	// A branch is significant if the window holds a node with at least
	// significantChildren direct children; a node is structurally dense
	// if it has more than denseChildren.
	significantChildren = 10
	denseChildren       = 8

	// Radius ladder: rings step by radiusStep up to deepLevel, then by
	// deepRadiusStep so deep subtrees keep spreading apart.
	baseRadius     = 300.0
	radiusStep     = 100.0
	deepRadiusStep = 200.0
	deepLevel      = 6

	// NodeDiameter is the visual diameter of a node marker in world
	// units; minArcSeparation is the arc distance two siblings need to
	// stay legible.
	NodeDiameter     = 20.0
	minArcSeparation = 24.0
)

// Point is a position in world coordinates.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Engine computes and caches node positions. Positions from earlier
// passes are reused verbatim for the same id, so expanding one cluster
// does not shuffle the rest of the picture, and recomputes stay cheap.
//
// The zero value is not usable - use NewEngine.
type Engine struct {
	cache map[int]Point
}

// NewEngine creates an engine with an empty position cache.
func NewEngine() *Engine {
	return &Engine{cache: make(map[int]Point)}
}

// Invalidate drops all cached positions. The next Compute lays the whole
// visible tree out from scratch.
func (e *Engine) Invalidate() {
	e.cache = make(map[int]Point)
}

// frame is one pending subdivision: a positioned node together with its
// allocated angular interval [start, end) in degrees.
type frame struct {
	id         int
	level      int
	start, end float64
}

// Compute lays out every node visible under the current expansion state
// and returns its world position and depth level. Nodes inside collapsed
// clusters are absent from both maps.
//
// The traversal is iterative with an explicit stack; tree depth never
// translates into call depth.
func (e *Engine) Compute(t *tree.Tree, cm *cluster.Manager) (map[int]Point, map[int]int) {
	positions := make(map[int]Point)
	levels := make(map[int]int)

	root := tree.RootID
	positions[root] = e.placed(root, 0, 0)
	levels[root] = 0

	stack := make([]frame, 0, 64)
	for _, f := range allocateBranches(t) {
		positions[f.id] = e.placed(f.id, f.level, midpoint(f.start, f.end))
		levels[f.id] = f.level
		stack = append(stack, f)
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if cm.IsCluster(f.id) && !cm.IsExpanded(f.id) {
			continue
		}
		children := t.Children(f.id)
		if len(children) == 0 {
			continue
		}

		ordered := reorder(t, cm, children)
		childLevel := f.level + 1
		step := math.Max((f.end-f.start)/float64(len(ordered)), minAngle(ringRadius(childLevel)))

		for i, c := range ordered {
			slotStart := f.start + float64(i)*step
			positions[c] = e.placed(c, childLevel, slotStart+step/2)
			levels[c] = childLevel
			stack = append(stack, frame{id: c, level: childLevel, start: slotStart, end: slotStart + step})
		}
	}

	return positions, levels
}

// placed returns the cached position for id, or computes and caches one
// on the ring for its level at the given angle.
func (e *Engine) placed(id, level int, angleDeg float64) Point {
	if p, ok := e.cache[id]; ok {
		return p
	}
	r := ringRadius(level)
	rad := angleDeg * math.Pi / 180
	p := Point{X: r * math.Cos(rad), Y: r * math.Sin(rad)}
	e.cache[id] = p
	return p
}

// ringRadius returns the distance from the origin for a given depth.
// The root ring is the origin itself.
func ringRadius(level int) float64 {
	if level <= 0 {
		return 0
	}
	if level < deepLevel {
		return baseRadius + radiusStep*float64(level)
	}
	inner := baseRadius + radiusStep*float64(deepLevel-1)
	return inner + deepRadiusStep*float64(level-deepLevel+1)
}

// minAngle returns the smallest angular step, in degrees, that keeps two
// adjacent markers at radius r at least minArcSeparation apart, from the
// chord relation theta = 2*asin(D / 2r). A zero radius yields zero, and
// radii too small for the separation saturate at a half turn.
func minAngle(r float64) float64 {
	if r <= 0 {
		return 0
	}
	x := minArcSeparation / (2 * r)
	if x >= 1 {
		return 180
	}
	return 2 * math.Asin(x) * 180 / math.Pi
}

func midpoint(start, end float64) float64 { return (start + end) / 2 }
