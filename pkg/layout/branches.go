package layout

import "github.com/treescope/treescope/pkg/tree"

// branchProfile summarizes the structural window of one main branch.
type branchProfile struct {
	id          int
	weight      int  // nodes in the window with more than denseChildren children
	significant bool // window holds a node with >= significantChildren children
}

// allocateBranches partitions the full circle among the root's direct
// children. Every branch receives its minimum quota first; the angle
// left over is distributed proportionally to weighted size, so branches
// that are structurally dense - many many-children nodes near the top -
// get room, while raw descendant count alone buys nothing extra.
func allocateBranches(t *tree.Tree) []frame {
	branches := t.Children(tree.RootID)
	if len(branches) == 0 {
		return nil
	}

	profiles := make([]branchProfile, len(branches))
	quotaSum, weightSum := 0.0, 0
	for i, id := range branches {
		profiles[i] = profileBranch(t, id)
		if profiles[i].significant {
			quotaSum += significantQuota
		} else {
			quotaSum += branchQuota
		}
		weightSum += profiles[i].weight
	}

	remaining := fullCircle - quotaSum
	if remaining < 0 {
		remaining = 0
	}

	frames := make([]frame, len(branches))
	cursor := 0.0
	for i, p := range profiles {
		span := branchQuota
		if p.significant {
			span = significantQuota
		}
		if weightSum > 0 {
			span += remaining * float64(p.weight) / float64(weightSum)
		} else {
			// No branch carries structural weight; split evenly so the
			// circle is still fully used.
			span += remaining / float64(len(profiles))
		}
		frames[i] = frame{id: p.id, level: 1, start: cursor, end: cursor + span}
		cursor += span
	}
	return frames
}

// profileBranch walks the branch breadth-first through the structural
// window (absolute levels windowMinLevel..windowMaxLevel; the branch
// node itself sits at level 1) and collects weight and significance.
func profileBranch(t *tree.Tree, branch int) branchProfile {
	p := branchProfile{id: branch}

	type item struct {
		id    int
		level int
	}
	queue := []item{{id: branch, level: 1}}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]

		kids := t.Children(it.id)
		if it.level >= windowMinLevel && it.level <= windowMaxLevel {
			if len(kids) >= significantChildren {
				p.significant = true
			}
			if len(kids) > denseChildren {
				p.weight++
			}
		}
		if it.level < windowMaxLevel {
			for _, c := range kids {
				queue = append(queue, item{id: c, level: it.level + 1})
			}
		}
	}
	return p
}
