package nodelink

import (
	"strings"
	"testing"

	"github.com/treescope/treescope/pkg/tree"
)

func sampleTree(t *testing.T) *tree.Tree {
	t.Helper()
	nodes := []tree.Node{
		{ID: 1, Name: "Life on Earth"},
		{ID: 2, Name: "Eubacteria"},
		{ID: 3, Name: "Trilobita", Extinct: true},
		{ID: 4, Name: "Proteobacteria"},
	}
	edges := [][2]int{{1, 2}, {1, 3}, {2, 4}}
	tr, err := tree.Build(nodes, edges)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tr
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sampleTree(t), Options{Labeled: true})

	for _, want := range []string{
		"graph tree {",
		"layout=twopi;",
		`root="1";`,
		`"1" -- "2";`,
		`"1" -- "3";`,
		`"2" -- "4";`,
		`label="Life on Earth"`,
		"fillcolor=lightgrey", // extinct node
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTUnlabeled(t *testing.T) {
	dot := ToDOT(sampleTree(t), Options{})
	if strings.Contains(dot, "Life on Earth") {
		t.Error("unlabeled export should not contain node names")
	}
	if !strings.Contains(dot, `label=""`) {
		t.Error("unlabeled nodes should carry empty labels")
	}
}

func TestToDOTMaxDepth(t *testing.T) {
	dot := ToDOT(sampleTree(t), Options{MaxDepth: 1})

	if !strings.Contains(dot, `"1" -- "2";`) {
		t.Error("depth-1 edge missing")
	}
	if strings.Contains(dot, `"2" -- "4";`) {
		t.Error("edge below MaxDepth should be cut")
	}
	if strings.Contains(dot, `"4" [`) {
		t.Error("node below MaxDepth should be cut")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="8pt" height="6pt" viewBox="0.00 0.00 100.50 200.00">body</svg>`)
	out := string(normalizeViewBox(in))

	if !strings.Contains(out, `viewBox="0 0 100.50 200.00"`) {
		t.Errorf("viewBox not normalized: %s", out)
	}
	if !strings.Contains(out, `width="101"`) && !strings.Contains(out, `width="100"`) {
		t.Errorf("pixel width missing: %s", out)
	}

	// SVGs without a viewBox pass through untouched.
	plain := []byte(`<svg>x</svg>`)
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("missing viewBox should pass through")
	}
}
