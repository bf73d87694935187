// Package spatial provides a region quadtree for point hit-testing over
// positioned nodes.
//
// The tree covers a fixed oversized world square; entries are (id,
// position) pairs and queries test a fixed hit rectangle centered on
// each entry. The index is a snapshot of one layout pass: whenever
// positions are regenerated it must be rebuilt from scratch, because a
// stale entry would shadow a node that moved.
package spatial

// World and query geometry, in world units.
const (
	// WorldExtent is the half-width of the indexed square, generously
	// oversized so every radial ring fits.
	WorldExtent = 10000.0

	// HitSize is the edge length of the square hit rectangle centered
	// on each entry.
	HitSize = 20.0

	// leafCapacity is how many entries a node holds before subdividing.
	leafCapacity = 4
)

// Bounds is an axis-aligned rectangle.
type Bounds struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

func (b Bounds) contains(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

type entry struct {
	id   int
	x, y float64
}

// Index is a region quadtree of node positions. The zero value is not
// usable - use New.
type Index struct {
	bounds   Bounds
	entries  []entry
	divided  bool
	children [4]*Index // NW, NE, SW, SE
	size     int
}

// New creates an empty index over the default world bounds.
func New() *Index {
	return newNode(Bounds{MinX: -WorldExtent, MinY: -WorldExtent, MaxX: WorldExtent, MaxY: WorldExtent})
}

func newNode(b Bounds) *Index {
	return &Index{bounds: b, entries: make([]entry, 0, leafCapacity)}
}

// Len returns the number of entries in the index.
func (ix *Index) Len() int { return ix.size }

// Insert adds an (id, position) pair. Positions outside the world bounds
// are dropped; the bounds are oversized enough that this only happens on
// corrupt input.
func (ix *Index) Insert(id int, x, y float64) bool {
	if !ix.bounds.contains(x, y) {
		return false
	}
	if ix.insert(entry{id: id, x: x, y: y}) {
		ix.size++
		return true
	}
	return false
}

func (ix *Index) insert(e entry) bool {
	if !ix.bounds.contains(e.x, e.y) {
		return false
	}

	if !ix.divided {
		if len(ix.entries) < leafCapacity {
			ix.entries = append(ix.entries, e)
			return true
		}
		ix.subdivide()
	}
	return ix.childFor(e.x, e.y).insert(e)
}

// subdivide splits the node into four equal quadrants and pushes every
// held entry down into whichever quadrant contains it.
func (ix *Index) subdivide() {
	midX := (ix.bounds.MinX + ix.bounds.MaxX) / 2
	midY := (ix.bounds.MinY + ix.bounds.MaxY) / 2

	ix.children[0] = newNode(Bounds{MinX: ix.bounds.MinX, MinY: midY, MaxX: midX, MaxY: ix.bounds.MaxY})
	ix.children[1] = newNode(Bounds{MinX: midX, MinY: midY, MaxX: ix.bounds.MaxX, MaxY: ix.bounds.MaxY})
	ix.children[2] = newNode(Bounds{MinX: ix.bounds.MinX, MinY: ix.bounds.MinY, MaxX: midX, MaxY: midY})
	ix.children[3] = newNode(Bounds{MinX: midX, MinY: ix.bounds.MinY, MaxX: ix.bounds.MaxX, MaxY: midY})
	ix.divided = true

	for _, e := range ix.entries {
		ix.childFor(e.x, e.y).insert(e)
	}
	ix.entries = nil
}

func (ix *Index) childFor(x, y float64) *Index {
	midX := (ix.bounds.MinX + ix.bounds.MaxX) / 2
	midY := (ix.bounds.MinY + ix.bounds.MaxY) / 2

	i := 0
	if x > midX {
		i = 1
	}
	if y <= midY {
		i += 2
	}
	return ix.children[i]
}

// Query returns the id of the first entry whose hit rectangle contains
// the world point, walking local entries before descending.
func (ix *Index) Query(x, y float64) (int, bool) {
	for _, e := range ix.entries {
		half := HitSize / 2
		if x >= e.x-half && x <= e.x+half && y >= e.y-half && y <= e.y+half {
			return e.id, true
		}
	}
	if ix.divided {
		for _, c := range ix.children {
			// Widen the child bounds by the hit radius: an entry can sit
			// in one quadrant while its rectangle straddles the split.
			half := HitSize / 2
			widened := Bounds{
				MinX: c.bounds.MinX - half, MinY: c.bounds.MinY - half,
				MaxX: c.bounds.MaxX + half, MaxY: c.bounds.MaxY + half,
			}
			if !widened.contains(x, y) {
				continue
			}
			if id, ok := c.Query(x, y); ok {
				return id, true
			}
		}
	}
	return 0, false
}
