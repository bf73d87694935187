package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/treescope/treescope/pkg/cache"
	"github.com/treescope/treescope/pkg/tree"
)

func writeTreeDoc(t *testing.T) string {
	t.Helper()
	nodes := []tree.Node{
		{ID: 1, Name: "Life on Earth"},
		{ID: 2, Name: "Eubacteria"},
		{ID: 3, Name: "A"}, {ID: 4, Name: "B"}, {ID: 5, Name: "C"},
		{ID: 6, Name: "D"}, {ID: 7, Name: "E"},
	}
	// Node 2 carries five descendants, so it starts as a collapsed
	// cluster and only expands when the depth option reaches level 1.
	edges := [][2]int{{1, 2}, {2, 3}, {2, 4}, {2, 5}, {2, 6}, {2, 7}}
	tr, err := tree.Build(nodes, edges)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	path := filepath.Join(t.TempDir(), "tree.json")
	if err := tr.ExportJSON(path); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	return path
}

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	r := NewRunner(c, nil, nil)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestValidateFormat(t *testing.T) {
	for _, f := range []string{FormatSVG, FormatPNG, FormatPDF, FormatDOT, FormatJSON} {
		if err := ValidateFormat(f); err != nil {
			t.Errorf("ValidateFormat(%q) = %v", f, err)
		}
	}
	if err := ValidateFormat("gif"); err == nil {
		t.Error("unknown format should be rejected")
	}
}

func TestValidateKind(t *testing.T) {
	if err := ValidateKind(KindRadial); err != nil {
		t.Errorf("radial: %v", err)
	}
	if err := ValidateKind(KindNodelink); err != nil {
		t.Errorf("nodelink: %v", err)
	}
	if err := ValidateKind("sunburst"); err == nil {
		t.Error("unknown kind should be rejected")
	}
}

func TestValidateForLoad(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"no input", Options{}, true},
		{"nodes without edges", Options{NodesPath: "n.csv"}, true},
		{"tree path", Options{TreePath: "tree.json"}, false},
		{"csv pair", Options{NodesPath: "n.csv", EdgesPath: "e.csv"}, false},
		{"both inputs", Options{TreePath: "tree.json", NodesPath: "n.csv", EdgesPath: "e.csv"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateForLoad()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateForLoad() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && tt.opts.Logger == nil {
				t.Error("logger should be defaulted")
			}
		})
	}
}

func TestSetRenderDefaults(t *testing.T) {
	var opts Options
	opts.SetRenderDefaults()

	if opts.Kind != KindRadial {
		t.Errorf("Kind = %q, want radial", opts.Kind)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats = %v, want [svg]", opts.Formats)
	}
	if opts.LabelDepth != DefaultLabelDepth {
		t.Errorf("LabelDepth = %d", opts.LabelDepth)
	}
	if opts.MaxDepth != DefaultNodelinkDepth {
		t.Errorf("MaxDepth = %d", opts.MaxDepth)
	}
	if opts.PNGScale != 2.0 {
		t.Errorf("PNGScale = %v", opts.PNGScale)
	}
}

func TestValidateForRenderDotNeedsNodelink(t *testing.T) {
	opts := Options{Kind: KindRadial, Formats: []string{FormatDOT}}
	if err := opts.ValidateForRender(); err == nil {
		t.Error("dot with kind=radial should be rejected")
	}

	opts = Options{Kind: KindNodelink, Formats: []string{FormatDOT}}
	if err := opts.ValidateForRender(); err != nil {
		t.Errorf("dot with kind=nodelink: %v", err)
	}
}

func TestComputeLayout(t *testing.T) {
	path := writeTreeDoc(t)
	tr, err := tree.ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}

	collapsed := ComputeLayout(tr, 0)
	if collapsed.NodeCount != 2 {
		t.Errorf("collapsed NodeCount = %d, want 2", collapsed.NodeCount)
	}

	expanded := ComputeLayout(tr, 1)
	if expanded.NodeCount != 7 {
		t.Errorf("expanded NodeCount = %d, want 7", expanded.NodeCount)
	}
	if len(expanded.Expanded) != 1 || expanded.Expanded[0] != 2 {
		t.Errorf("Expanded = %v, want [2]", expanded.Expanded)
	}
}

func TestExecute(t *testing.T) {
	runner := newTestRunner(t)
	opts := Options{
		TreePath: writeTreeDoc(t),
		Formats:  []string{FormatSVG, FormatJSON},
	}

	result, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Stats.NodeCount != 7 {
		t.Errorf("NodeCount = %d, want 7", result.Stats.NodeCount)
	}
	if result.Stats.VisibleCount != 7 {
		t.Errorf("VisibleCount = %d, want 7", result.Stats.VisibleCount)
	}
	if result.TreeHash == "" {
		t.Error("TreeHash empty")
	}
	for _, format := range opts.Formats {
		if len(result.Artifacts[format]) == 0 {
			t.Errorf("artifact %q empty", format)
		}
	}
	if result.CacheInfo.LoadHit || result.CacheInfo.LayoutHit || result.CacheInfo.RenderHit {
		t.Errorf("first run should miss everywhere: %+v", result.CacheInfo)
	}

	// Second run hits every stage and reproduces the artifacts.
	again, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute (cached): %v", err)
	}
	if !again.CacheInfo.LoadHit || !again.CacheInfo.LayoutHit || !again.CacheInfo.RenderHit {
		t.Errorf("second run should hit everywhere: %+v", again.CacheInfo)
	}
	for _, format := range opts.Formats {
		if string(again.Artifacts[format]) != string(result.Artifacts[format]) {
			t.Errorf("cached artifact %q differs", format)
		}
	}
}

func TestExecuteRefresh(t *testing.T) {
	runner := newTestRunner(t)
	opts := Options{TreePath: writeTreeDoc(t), Formats: []string{FormatJSON}}

	if _, err := runner.Execute(context.Background(), opts); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	opts.Refresh = true
	result, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute (refresh): %v", err)
	}
	if result.CacheInfo.LoadHit {
		t.Error("refresh should bypass the load cache")
	}
}

func TestExecuteCSVPair(t *testing.T) {
	dir := t.TempDir()
	nodesPath := filepath.Join(dir, "nodes.csv")
	edgesPath := filepath.Join(dir, "edges.csv")

	nodes := "" +
		"1,Life on Earth,,1,,0,0.0,0\n" +
		"2,Eubacteria,,1,,0,0.0,0\n" +
		"3,Trilobita,,0,,1,1.0,0\n"
	edges := "1,2\n1,3\n"
	if err := os.WriteFile(nodesPath, []byte(nodes), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(edgesPath, []byte(edges), 0644); err != nil {
		t.Fatal(err)
	}

	runner := newTestRunner(t)
	result, err := runner.Execute(context.Background(), Options{
		NodesPath: nodesPath,
		EdgesPath: edgesPath,
		Formats:   []string{FormatJSON},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Stats.NodeCount != 3 {
		t.Errorf("NodeCount = %d, want 3", result.Stats.NodeCount)
	}
}

func TestExecuteNodelinkDOT(t *testing.T) {
	runner := newTestRunner(t)
	result, err := runner.Execute(context.Background(), Options{
		TreePath: writeTreeDoc(t),
		Kind:     KindNodelink,
		Formats:  []string{FormatDOT},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	dot := string(result.Artifacts[FormatDOT])
	if dot == "" {
		t.Fatal("dot artifact empty")
	}
	if want := "layout=twopi;"; !strings.Contains(dot, want) {
		t.Errorf("dot missing %q", want)
	}
}
