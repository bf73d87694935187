// Package cluster decides which subtrees are shown collapsed.
//
// A cluster is any non-root node with at least MinDescendants descendants.
// Whether a cluster is drawn collapsed (a single marker) or expanded (its
// children positioned) is tracked by the Manager's expanded set. The set is
// driven either by direct interaction with a cluster node or by zoom
// crossings of precomputed per-depth thresholds.
package cluster

import (
	"math"

	"github.com/treescope/treescope/pkg/tree"
)

const (
	// MinDescendants is the descendant count at which a node becomes a
	// cluster and is eligible for collapsing.
	MinDescendants = 5

	// thresholdBase and thresholdStep define the geometric zoom threshold
	// ladder: threshold(level) = base * step^level.
	thresholdBase = 0.8
	thresholdStep = 1.2

	// maxThresholdLevel is the deepest level with its own zoom threshold.
	maxThresholdLevel = 20
)

// Manager owns the collapse policy and the mutable set of currently
// expanded cluster nodes. It reads topology from the tree index but never
// mutates it.
type Manager struct {
	t          *tree.Tree
	expanded   map[int]bool
	thresholds [maxThresholdLevel + 1]float64
}

// NewManager creates a manager with an empty expanded set, so every
// cluster starts collapsed.
func NewManager(t *tree.Tree) *Manager {
	m := &Manager{
		t:        t,
		expanded: make(map[int]bool),
	}
	for level := 0; level <= maxThresholdLevel; level++ {
		m.thresholds[level] = thresholdBase * math.Pow(thresholdStep, float64(level))
	}
	return m
}

// IsCluster reports whether id is collapsible. The predicate is pure: it
// depends only on the id and the memoized descendant count.
func (m *Manager) IsCluster(id int) bool {
	return id != tree.RootID && m.t.DescendantCount(id) >= MinDescendants
}

// IsExpanded reports whether the cluster id is currently shown expanded.
// Non-cluster ids are never in the set.
func (m *Manager) IsExpanded(id int) bool { return m.expanded[id] }

// ExpandedCount returns the number of currently expanded clusters.
func (m *Manager) ExpandedCount() int { return len(m.expanded) }

// ExpandedIDs returns the ids of all currently expanded clusters.
func (m *Manager) ExpandedIDs() []int {
	ids := make([]int, 0, len(m.expanded))
	for id := range m.expanded {
		ids = append(ids, id)
	}
	return ids
}

// Toggle flips the expanded state of id and reports whether membership
// changed. Toggling a non-cluster id is a no-op.
func (m *Manager) Toggle(id int) bool {
	if !m.IsCluster(id) {
		return false
	}
	if m.expanded[id] {
		delete(m.expanded, id)
	} else {
		m.expanded[id] = true
	}
	return true
}

// Expand adds id to the expanded set and reports whether membership
// changed.
func (m *Manager) Expand(id int) bool {
	if !m.IsCluster(id) || m.expanded[id] {
		return false
	}
	m.expanded[id] = true
	return true
}

// Collapse removes id from the expanded set and reports whether
// membership changed.
func (m *Manager) Collapse(id int) bool {
	if !m.expanded[id] {
		return false
	}
	delete(m.expanded, id)
	return true
}

// ExpandAtLevel expands every cluster at the given depth and reports
// whether any membership changed.
func (m *Manager) ExpandAtLevel(level int) bool {
	changed := false
	for _, id := range m.t.IDs() {
		if m.t.Level(id) == level && m.Expand(id) {
			changed = true
		}
	}
	return changed
}

// CollapseAtLevel collapses every cluster at the given depth and reports
// whether any membership changed.
func (m *Manager) CollapseAtLevel(level int) bool {
	changed := false
	for id := range m.expanded {
		if m.t.Level(id) == level {
			delete(m.expanded, id)
			changed = true
		}
	}
	return changed
}

// Reset clears the expanded set, returning every cluster to its
// collapsed default. Reports whether anything was expanded.
func (m *Manager) Reset() bool {
	if len(m.expanded) == 0 {
		return false
	}
	m.expanded = make(map[int]bool)
	return true
}

// Threshold returns the zoom factor at which clusters at the given depth
// auto-expand. Levels beyond the ladder share the deepest threshold.
func (m *Manager) Threshold(level int) float64 {
	if level < 0 {
		level = 0
	}
	if level > maxThresholdLevel {
		level = maxThresholdLevel
	}
	return m.thresholds[level]
}

// ApplyZoom adjusts the expanded set for a zoom change from oldZoom to
// newZoom and reports whether membership changed.
//
// Two policies apply. If the pointer sits over a cluster node (hover >= 0
// and a cluster), only clusters at that node's depth are toggled: expanded
// on zoom-in, collapsed on zoom-out. Otherwise every depth whose threshold
// lies between the two zoom factors is toggled en masse.
func (m *Manager) ApplyZoom(oldZoom, newZoom float64, hover int) bool {
	if newZoom == oldZoom {
		return false
	}

	if hover >= 0 && m.IsCluster(hover) {
		level := m.t.Level(hover)
		if newZoom > oldZoom {
			return m.ExpandAtLevel(level)
		}
		return m.CollapseAtLevel(level)
	}

	changed := false
	for level := 0; level <= maxThresholdLevel; level++ {
		th := m.thresholds[level]
		switch {
		case oldZoom < th && newZoom >= th:
			if m.ExpandAtLevel(level) {
				changed = true
			}
		case oldZoom >= th && newZoom < th:
			if m.CollapseAtLevel(level) {
				changed = true
			}
		}
	}
	return changed
}
