package cluster

import (
	"math"
	"testing"

	"github.com/treescope/treescope/pkg/tree"
)

// chainAndFan builds a tree where node 2 is a cluster (exactly
// MinDescendants descendants) and node 9 is a leaf under the root.
//
//	1 -> 2 -> {3,4,5}, 4 -> {6,7}
//	1 -> 9
func chainAndFan(t *testing.T) *tree.Tree {
	t.Helper()
	nodes := []tree.Node{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}, {ID: 5}, {ID: 6}, {ID: 7}, {ID: 9}}
	edges := [][2]int{{1, 2}, {2, 3}, {2, 4}, {2, 5}, {4, 6}, {4, 7}, {1, 9}}
	tr, err := tree.Build(nodes, edges)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tr
}

func TestIsCluster(t *testing.T) {
	tr := chainAndFan(t)
	m := NewManager(tr)

	tests := []struct {
		id   int
		want bool
	}{
		{1, false}, // root is never a cluster regardless of size
		{2, true},  // exactly MinDescendants descendants
		{4, false}, // two descendants
		{9, false}, // leaf
	}
	for _, tt := range tests {
		if got := m.IsCluster(tt.id); got != tt.want {
			t.Errorf("IsCluster(%d) = %v, want %v", tt.id, got, tt.want)
		}
	}

	// The predicate is pure: asking twice with unchanged topology gives
	// identical answers.
	for _, tt := range tests {
		if got := m.IsCluster(tt.id); got != tt.want {
			t.Errorf("second IsCluster(%d) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestToggle(t *testing.T) {
	m := NewManager(chainAndFan(t))

	if m.IsExpanded(2) {
		t.Fatal("clusters start collapsed")
	}
	if !m.Toggle(2) {
		t.Fatal("toggling a cluster should change membership")
	}
	if !m.IsExpanded(2) {
		t.Error("cluster should be expanded after toggle")
	}
	if !m.Toggle(2) {
		t.Fatal("toggling back should change membership")
	}
	if m.IsExpanded(2) {
		t.Error("cluster should be collapsed after second toggle")
	}

	if m.Toggle(9) {
		t.Error("toggling a leaf should be a no-op")
	}
	if m.Toggle(1) {
		t.Error("toggling the root should be a no-op")
	}
}

func TestExpandCollapseReport(t *testing.T) {
	m := NewManager(chainAndFan(t))

	if !m.Expand(2) {
		t.Error("first expand should report a change")
	}
	if m.Expand(2) {
		t.Error("second expand should report no change")
	}
	if !m.Collapse(2) {
		t.Error("collapse of expanded cluster should report a change")
	}
	if m.Collapse(2) {
		t.Error("collapse of collapsed cluster should report no change")
	}
}

func TestReset(t *testing.T) {
	m := NewManager(chainAndFan(t))

	if m.Reset() {
		t.Error("reset of empty set should report no change")
	}
	m.Expand(2)
	if !m.Reset() {
		t.Error("reset should report a change")
	}
	if m.ExpandedCount() != 0 {
		t.Errorf("ExpandedCount = %d after reset", m.ExpandedCount())
	}
}

func TestThresholds(t *testing.T) {
	m := NewManager(chainAndFan(t))

	for level := 0; level <= maxThresholdLevel; level++ {
		want := thresholdBase * math.Pow(thresholdStep, float64(level))
		if got := m.Threshold(level); math.Abs(got-want) > 1e-12 {
			t.Errorf("Threshold(%d) = %g, want %g", level, got, want)
		}
	}

	if m.Threshold(-1) != m.Threshold(0) {
		t.Error("negative levels clamp to level 0")
	}
	if m.Threshold(99) != m.Threshold(maxThresholdLevel) {
		t.Error("deep levels clamp to the ladder end")
	}
}

func TestApplyZoomThresholdCrossing(t *testing.T) {
	m := NewManager(chainAndFan(t))

	// Node 2 sits at level 1; its threshold is 0.8 * 1.2 = 0.96.
	th := m.Threshold(1)

	if m.ApplyZoom(th-0.1, th-0.05, -1) {
		t.Error("no threshold crossed, no change expected")
	}
	if !m.ApplyZoom(th-0.1, th+0.1, -1) {
		t.Error("crossing the level-1 threshold upward should expand")
	}
	if !m.IsExpanded(2) {
		t.Error("cluster 2 should be expanded")
	}
	if !m.ApplyZoom(th+0.1, th-0.1, -1) {
		t.Error("crossing downward should collapse")
	}
	if m.IsExpanded(2) {
		t.Error("cluster 2 should be collapsed")
	}
}

func TestApplyZoomHoverPolicy(t *testing.T) {
	m := NewManager(chainAndFan(t))

	// Hovering a cluster confines toggling to that cluster's depth, even
	// though the zoom change crosses no threshold.
	if !m.ApplyZoom(1.0, 1.01, 2) {
		t.Error("zoom-in over a cluster should expand its depth")
	}
	if !m.IsExpanded(2) {
		t.Error("cluster 2 should be expanded")
	}
	if !m.ApplyZoom(1.01, 1.0, 2) {
		t.Error("zoom-out over a cluster should collapse its depth")
	}
	if m.IsExpanded(2) {
		t.Error("cluster 2 should be collapsed")
	}

	// Hovering a non-cluster falls back to the threshold policy.
	if m.ApplyZoom(1.0, 1.01, 9) {
		t.Error("leaf hover with no crossing should change nothing")
	}

	if m.ApplyZoom(1.0, 1.0, 2) {
		t.Error("unchanged zoom should change nothing")
	}
}
