package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/treescope/treescope/pkg/cache"
	"github.com/treescope/treescope/pkg/layout"
	"github.com/treescope/treescope/pkg/tree"
)

// newTestStore connects to the Mongo named by TREESCOPE_TEST_MONGO_URI,
// skipping when the variable is unset so the suite runs without a
// database.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("TREESCOPE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TREESCOPE_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := New(ctx, uri, "treescope_test")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func testTree(t *testing.T) *tree.Tree {
	t.Helper()
	nodes := []tree.Node{
		{ID: 1, Name: "Life on Earth"},
		{ID: 2, Name: "Eubacteria"},
		{ID: 3, Name: "Eukaryotes"},
	}
	tr, err := tree.Build(nodes, [][2]int{{1, 2}, {1, 3}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tr
}

func TestTreeRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tr := testTree(t)
	hash := cache.Hash([]byte("tree-round-trip"))

	if err := s.SaveTree(ctx, hash, "test tree", tr); err != nil {
		t.Fatalf("SaveTree: %v", err)
	}
	t.Cleanup(func() { _ = s.DeleteTree(ctx, hash) })

	got, err := s.LoadTree(ctx, hash)
	if err != nil {
		t.Fatalf("LoadTree: %v", err)
	}
	if got.Len() != tr.Len() {
		t.Errorf("Len = %d, want %d", got.Len(), tr.Len())
	}
	if n, _ := got.Node(2); n.Name != "Eubacteria" {
		t.Errorf("node 2 = %q", n.Name)
	}

	infos, err := s.ListTrees(ctx)
	if err != nil {
		t.Fatalf("ListTrees: %v", err)
	}
	found := false
	for _, info := range infos {
		if info.Hash == hash {
			found = true
			if info.NodeCount != 3 {
				t.Errorf("NodeCount = %d, want 3", info.NodeCount)
			}
		}
	}
	if !found {
		t.Error("stored tree missing from catalog")
	}
}

func TestLoadTreeNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.LoadTree(context.Background(), "no-such-hash"); err == nil {
		t.Error("missing tree should error")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	snap := layout.NewSnapshot(
		map[int]layout.Point{1: {X: 0, Y: 0}, 2: {X: 0, Y: 400}},
		map[int]int{1: 0, 2: 1},
		nil,
	)

	if err := s.SaveSnapshot(ctx, "test-snapshot", "hash-a", snap); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	t.Cleanup(func() { _ = s.DeleteSnapshot(ctx, "test-snapshot") })

	got, err := s.LoadSnapshot(ctx, "test-snapshot")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if got.NodeCount != 2 || len(got.Placed) != 2 {
		t.Errorf("snapshot = %+v", got)
	}

	infos, err := s.ListSnapshots(ctx, "hash-a")
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(infos) == 0 || infos[0].TreeHash != "hash-a" {
		t.Errorf("catalog = %+v", infos)
	}
}
