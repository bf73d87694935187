package layout

import (
	"math"
	"slices"
	"testing"

	"github.com/treescope/treescope/pkg/cluster"
	"github.com/treescope/treescope/pkg/tree"
)

const angleTol = 1e-9

// buildTree constructs a tree from edges, creating bare node records for
// every id mentioned.
func buildTree(t *testing.T, edges [][2]int) *tree.Tree {
	t.Helper()
	seen := map[int]bool{tree.RootID: true}
	for _, e := range edges {
		seen[e[0]] = true
		seen[e[1]] = true
	}
	nodes := make([]tree.Node, 0, len(seen))
	for id := range seen {
		nodes = append(nodes, tree.Node{ID: id})
	}
	tr, err := tree.Build(nodes, edges)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tr
}

// fanEdges appends count leaf children under parent, numbering new nodes
// from *next.
func fanEdges(edges [][2]int, parent, count int, next *int) [][2]int {
	for i := 0; i < count; i++ {
		edges = append(edges, [2]int{parent, *next})
		*next++
	}
	return edges
}

func TestRingRadius(t *testing.T) {
	tests := []struct {
		level int
		want  float64
	}{
		{0, 0},
		{1, 400},
		{5, 800},
		{6, 1000},
		{7, 1200},
	}
	for _, tt := range tests {
		if got := ringRadius(tt.level); got != tt.want {
			t.Errorf("ringRadius(%d) = %g, want %g", tt.level, got, tt.want)
		}
	}
}

func TestMinAngle(t *testing.T) {
	if got := minAngle(0); got != 0 {
		t.Errorf("minAngle(0) = %g, want 0 (division guard)", got)
	}
	if got := minAngle(-5); got != 0 {
		t.Errorf("minAngle(-5) = %g, want 0", got)
	}
	if got := minAngle(minArcSeparation / 4); got != 180 {
		t.Errorf("tiny radius should saturate at 180, got %g", got)
	}

	// Chord relation at a comfortable radius.
	r := 400.0
	want := 2 * math.Asin(minArcSeparation/(2*r)) * 180 / math.Pi
	if got := minAngle(r); math.Abs(got-want) > angleTol {
		t.Errorf("minAngle(%g) = %g, want %g", r, got, want)
	}
}

func TestBranchAllocationProportional(t *testing.T) {
	// Two main branches, weighted sizes 3 and 7, neither significant.
	// Weight nodes get exactly 9 children: more than denseChildren (8),
	// below significantChildren (10).
	next := 100
	edges := [][2]int{{1, 2}, {1, 3}}
	for i := 0; i < 3; i++ {
		hub := next
		next++
		edges = append(edges, [2]int{2, hub})
		edges = fanEdges(edges, hub, 9, &next)
	}
	for i := 0; i < 7; i++ {
		hub := next
		next++
		edges = append(edges, [2]int{3, hub})
		edges = fanEdges(edges, hub, 9, &next)
	}
	tr := buildTree(t, edges)

	frames := allocateBranches(tr)
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}

	remaining := fullCircle - 2*branchQuota
	wantA := branchQuota + 0.3*remaining
	wantB := branchQuota + 0.7*remaining

	spanA := frames[0].end - frames[0].start
	spanB := frames[1].end - frames[1].start
	if math.Abs(spanA-wantA) > angleTol {
		t.Errorf("branch A span = %g, want %g", spanA, wantA)
	}
	if math.Abs(spanB-wantB) > angleTol {
		t.Errorf("branch B span = %g, want %g", spanB, wantB)
	}
	if math.Abs(spanA+spanB-fullCircle) > angleTol {
		t.Errorf("spans sum to %g, want %g", spanA+spanB, fullCircle)
	}
}

func TestBranchAllocationSignificant(t *testing.T) {
	// Branch 2 holds a node with significantChildren children inside the
	// window and earns the larger quota; branch 3 is a bare leaf and
	// keeps the small quota with no proportional share.
	next := 100
	edges := [][2]int{{1, 2}, {1, 3}}
	hub := next
	next++
	edges = append(edges, [2]int{2, hub})
	edges = fanEdges(edges, hub, significantChildren, &next)
	tr := buildTree(t, edges)

	frames := allocateBranches(tr)
	remaining := fullCircle - significantQuota - branchQuota

	spanSig := frames[0].end - frames[0].start
	spanLeaf := frames[1].end - frames[1].start
	if math.Abs(spanSig-(significantQuota+remaining)) > angleTol {
		t.Errorf("significant branch span = %g, want %g", spanSig, significantQuota+remaining)
	}
	if math.Abs(spanLeaf-branchQuota) > angleTol {
		t.Errorf("zero-weight branch span = %g, want quota %g", spanLeaf, branchQuota)
	}
}

func TestBranchWindowExcludesShallowAndDeep(t *testing.T) {
	// A branch node with many direct children contributes nothing: its
	// children counts are read at level 1, outside the 2..10 window.
	next := 100
	edges := [][2]int{{1, 2}, {1, 3}}
	edges = fanEdges(edges, 2, 12, &next)
	edges = fanEdges(edges, 3, 12, &next)
	tr := buildTree(t, edges)

	frames := allocateBranches(tr)
	for i, f := range frames {
		span := f.end - f.start
		if math.Abs(span-fullCircle/2) > angleTol {
			t.Errorf("frame %d span = %g, want even split %g", i, span, fullCircle/2)
		}
	}
}

func TestAngleConservation(t *testing.T) {
	// A parent with four children and a span comfortably above the
	// chord minimum: the four slots must tile the parent span exactly.
	next := 100
	edges := [][2]int{{1, 2}}
	edges = fanEdges(edges, 2, 4, &next)
	tr := buildTree(t, edges)
	cm := cluster.NewManager(tr)

	e := NewEngine()
	positions, levels := e.Compute(tr, cm)

	kids := tr.Children(2)
	if len(kids) != 4 {
		t.Fatalf("children = %d", len(kids))
	}
	for _, k := range kids {
		if _, ok := positions[k]; !ok {
			t.Fatalf("child %d not positioned", k)
		}
		if levels[k] != 2 {
			t.Errorf("child %d level = %d, want 2", k, levels[k])
		}
	}

	// Node 2 is the sole branch and owns the full circle. Four slots of
	// 90 degrees put the children at the slot midpoints on the level-2
	// ring; check the angles as a set since siblings get reordered.
	angles := make([]float64, 0, len(kids))
	for _, k := range kids {
		p := positions[k]
		if r := math.Hypot(p.X, p.Y); math.Abs(r-ringRadius(2)) > 1e-9 {
			t.Errorf("child %d radius = %g, want %g", k, r, ringRadius(2))
		}
		deg := math.Atan2(p.Y, p.X) * 180 / math.Pi
		if deg < 0 {
			deg += fullCircle
		}
		angles = append(angles, deg)
	}
	slices.Sort(angles)
	want := []float64{45, 135, 225, 315}
	for i, a := range angles {
		if math.Abs(a-want[i]) > 1e-6 {
			t.Errorf("child angles = %v, want %v", angles, want)
			break
		}
	}
}

func TestCollapsedClusterStopsDescent(t *testing.T) {
	// Node 2 has exactly five descendants: a cluster, collapsed by
	// default. It gets a position; nothing below it does.
	edges := [][2]int{{1, 2}, {2, 3}, {2, 4}, {2, 5}, {4, 6}, {4, 7}}
	tr := buildTree(t, edges)
	cm := cluster.NewManager(tr)

	e := NewEngine()
	positions, _ := e.Compute(tr, cm)

	if _, ok := positions[2]; !ok {
		t.Fatal("collapsed cluster must still be positioned")
	}
	for _, id := range []int{3, 4, 5, 6, 7} {
		if _, ok := positions[id]; ok {
			t.Errorf("node %d inside collapsed cluster should have no position", id)
		}
	}

	// Expanding and recomputing positions the children.
	cm.Toggle(2)
	positions, _ = e.Compute(tr, cm)
	for _, id := range []int{3, 4, 5} {
		if _, ok := positions[id]; !ok {
			t.Errorf("node %d should be positioned after expansion", id)
		}
	}
}

func TestPositionStability(t *testing.T) {
	edges := [][2]int{{1, 2}, {1, 3}, {2, 4}, {2, 5}, {2, 6}, {2, 7}, {2, 8}}
	tr := buildTree(t, edges)
	cm := cluster.NewManager(tr)

	e := NewEngine()
	before, _ := e.Compute(tr, cm)

	cm.Toggle(2)
	after, _ := e.Compute(tr, cm)

	for _, id := range []int{1, 2, 3} {
		if before[id] != after[id] {
			t.Errorf("node %d moved across recompute: %v -> %v", id, before[id], after[id])
		}
	}

	// Invalidate drops the cache; a fresh pass may move nodes.
	e.Invalidate()
	fresh, _ := e.Compute(tr, cm)
	if len(fresh) != len(after) {
		t.Errorf("fresh layout has %d nodes, want %d", len(fresh), len(after))
	}
}

func TestRootAtOrigin(t *testing.T) {
	tr := buildTree(t, [][2]int{{1, 2}})
	cm := cluster.NewManager(tr)

	positions, levels := NewEngine().Compute(tr, cm)
	if p := positions[1]; p.X != 0 || p.Y != 0 {
		t.Errorf("root at %v, want origin", p)
	}
	if levels[1] != 0 {
		t.Errorf("root level = %d", levels[1])
	}

	// Level-1 nodes sit on the level-1 ring.
	p := positions[2]
	if r := math.Hypot(p.X, p.Y); math.Abs(r-ringRadius(1)) > 1e-9 {
		t.Errorf("branch radius = %g, want %g", r, ringRadius(1))
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	tr := buildTree(t, [][2]int{{1, 2}, {1, 3}})
	cm := cluster.NewManager(tr)
	positions, levels := NewEngine().Compute(tr, cm)

	s := NewSnapshot(positions, levels, []int{42})
	data, err := MarshalSnapshot(s)
	if err != nil {
		t.Fatalf("MarshalSnapshot: %v", err)
	}

	back, err := UnmarshalSnapshot(data)
	if err != nil {
		t.Fatalf("UnmarshalSnapshot: %v", err)
	}
	gotPos, gotLevels := back.Maps()
	if len(gotPos) != len(positions) {
		t.Fatalf("positions = %d, want %d", len(gotPos), len(positions))
	}
	for id, p := range positions {
		if gotPos[id] != p {
			t.Errorf("node %d position %v, want %v", id, gotPos[id], p)
		}
		if gotLevels[id] != levels[id] {
			t.Errorf("node %d level %d, want %d", id, gotLevels[id], levels[id])
		}
	}

	if _, err := UnmarshalSnapshot([]byte(`{"placed":[]}`)); err == nil {
		t.Error("empty snapshot should fail validation")
	}
}
