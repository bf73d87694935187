// Package tree provides the in-memory index for a rooted tree of named
// nodes. It is the exclusive owner of node records and parent/child
// edges; all other packages reference nodes by integer id only.
//
// The index is built once at load time and never mutated afterwards.
// Descendant counts are memoized and computed by a single bottom-up
// traversal with an explicit stack, so arbitrarily deep trees do not
// exhaust the goroutine stack.
package tree

import (
	"slices"

	"github.com/treescope/treescope/pkg/errors"
)

// RootID is the fixed id of the tree root.
const RootID = 1

// Confidence describes how certain a node's placement is.
type Confidence int

const (
	ConfidenceConfident Confidence = iota
	ConfidenceProblematic
	ConfidenceUnspecified
)

// Phylesis describes the monophyly status of a group.
type Phylesis int

const (
	PhylesisMonophyletic Phylesis = iota
	PhylesisUncertain
	PhylesisNotMonophyletic
)

// Node is a single record in the tree. ID is stable and assigned at
// load. Everything except ID is display payload, not structure.
type Node struct {
	ID         int        `json:"id" bson:"id"`
	Name       string     `json:"name" bson:"name"`
	TolURL     string     `json:"tol_url,omitempty" bson:"tol_url,omitempty"`
	HasPage    bool       `json:"has_page,omitempty" bson:"has_page,omitempty"`
	Extinct    bool       `json:"extinct,omitempty" bson:"extinct,omitempty"`
	Confidence Confidence `json:"confidence" bson:"confidence"`
	Phylesis   Phylesis   `json:"phylesis" bson:"phylesis"`
}

// Tree is an id-keyed index over nodes and edges. The zero value is not
// usable - use Build or Load.
//
// Tree is not safe for concurrent mutation, but after Build returns it
// is never mutated, so concurrent reads are fine.
type Tree struct {
	nodes    map[int]Node
	children map[int][]int
	parent   map[int]int
	counts   map[int]int // memoized descendant counts, -1 = uncomputed
	levels   map[int]int
}

// Build constructs a tree index from node records and (parent, child)
// edges. It verifies that every edge endpoint exists, that no node has
// two parents, and that the edge set is acyclic (a cycle would make the
// layout and ancestor walks recurse without bound). Descendant counts
// and depth levels are computed eagerly.
func Build(nodes []Node, edges [][2]int) (*Tree, error) {
	t := &Tree{
		nodes:    make(map[int]Node, len(nodes)),
		children: make(map[int][]int),
		parent:   make(map[int]int),
		counts:   make(map[int]int, len(nodes)),
		levels:   make(map[int]int, len(nodes)),
	}

	for _, n := range nodes {
		if _, dup := t.nodes[n.ID]; dup {
			return nil, errors.New(errors.ErrCodeInvalidRow, "duplicate node id %d", n.ID)
		}
		t.nodes[n.ID] = n
		t.counts[n.ID] = -1
	}
	if _, ok := t.nodes[RootID]; !ok {
		return nil, errors.New(errors.ErrCodeInvalidRow, "root node %d missing", RootID)
	}

	for _, e := range edges {
		p, c := e[0], e[1]
		if _, ok := t.nodes[p]; !ok {
			return nil, errors.New(errors.ErrCodeInvalidEdge, "edge references unknown parent %d", p)
		}
		if _, ok := t.nodes[c]; !ok {
			return nil, errors.New(errors.ErrCodeInvalidEdge, "edge references unknown child %d", c)
		}
		if c == RootID {
			return nil, errors.New(errors.ErrCodeInvalidEdge, "root %d must not have a parent", RootID)
		}
		if prev, ok := t.parent[c]; ok {
			return nil, errors.New(errors.ErrCodeInvalidEdge, "node %d has two parents (%d and %d)", c, prev, p)
		}
		t.parent[c] = p
		t.children[p] = append(t.children[p], c)
	}

	if err := t.computeCounts(); err != nil {
		return nil, err
	}
	t.computeLevels()
	return t, nil
}

// Len returns the total number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the node record for id.
func (t *Tree) Node(id int) (Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Children returns the child ids of id in load order. The returned
// slice is a read-only view; callers that reorder it must copy first.
func (t *Tree) Children(id int) []int { return t.children[id] }

// Parent returns the parent of id. The root (and any unknown id) has no
// parent, so ancestor walks terminate cleanly without a failure path.
func (t *Tree) Parent(id int) (int, bool) {
	p, ok := t.parent[id]
	return p, ok
}

// DescendantCount returns the memoized number of descendants below id,
// or 0 for an unknown id.
func (t *Tree) DescendantCount(id int) int {
	c, ok := t.counts[id]
	if !ok || c < 0 {
		return 0
	}
	return c
}

// Level returns the depth of id below the root (root = 0).
func (t *Tree) Level(id int) int { return t.levels[id] }

// IDs returns all node ids in ascending order.
func (t *Tree) IDs() []int {
	ids := make([]int, 0, len(t.nodes))
	for id := range t.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// computeCounts fills the descendant-count memo with one iterative
// post-order pass from the root. Nodes seen twice on the way down mean
// the edge set has a cycle, which is reported instead of looping.
func (t *Tree) computeCounts() error {
	type frame struct {
		id       int
		expanded bool
	}

	onPath := make(map[int]bool, len(t.nodes))
	stack := []frame{{id: RootID}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.expanded {
			onPath[f.id] = false
			total := 0
			for _, c := range t.children[f.id] {
				total += t.counts[c] + 1
			}
			t.counts[f.id] = total
			continue
		}

		if onPath[f.id] {
			return errors.New(errors.ErrCodeCycleDetected, "cycle through node %d", f.id)
		}
		onPath[f.id] = true

		stack = append(stack, frame{id: f.id, expanded: true})
		for _, c := range t.children[f.id] {
			stack = append(stack, frame{id: c})
		}
	}

	// Nodes not reachable from the root keep count -1; DescendantCount
	// reports 0 for them and the layout never visits them.
	return nil
}

// computeLevels assigns depth-from-root with a breadth-first walk.
func (t *Tree) computeLevels() {
	queue := []int{RootID}
	t.levels[RootID] = 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, c := range t.children[id] {
			t.levels[c] = t.levels[id] + 1
			queue = append(queue, c)
		}
	}
}
