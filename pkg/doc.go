// Package pkg provides the core libraries for TreeScope tree visualization.
//
// # Overview
//
// TreeScope renders large rooted trees (tens of thousands of nodes) as
// radial diagrams that stay readable by collapsing dense subtrees into
// clusters and expanding them on demand. The pkg directory is organized
// around the data flow:
//
//	CSV node/edge files or a JSON document
//	         ↓
//	    [tree] package (parse, validate, index)
//	         ↓
//	    [cluster] + [layout] packages (visible set + radial placement)
//	         ↓
//	    [render] package (SVG, node-link DOT, PDF/PNG conversion)
//
// # Main Packages
//
// [tree] - The immutable rooted tree: CSV and JSON loading, parent and
// children indexes, per-node level and descendant counts.
//
// [cluster] - The cluster manager deciding which nodes are drawn. A
// cluster is a node with enough descendants to collapse; expansion state
// is the only mutable part of a scene.
//
// [layout] - Radial placement: concentric level rings, angular branch
// quotas at the root, recursive sector subdivision, and serializable
// layout snapshots.
//
// [scene] - Single-owner interactive controller combining a tree, a
// cluster manager, a [viewport] camera, and a [spatial] hit-test index.
// Both the terminal explorer and HTTP sessions drive it with pointer
// events.
//
// [render] - Visual output. The native radial SVG renderer plus a
// Graphviz node-link exporter in [render/nodelink]; PDF and PNG go
// through SVG conversion.
//
// [pipeline] - The load, layout, render orchestration shared by the CLI
// and the server, with content-addressed caching between stages.
//
// [cache] - Cache backends behind one interface: file-based for the
// CLI, Redis for server deployments, null for tests.
//
// [store] - MongoDB catalog for named trees and layout snapshots.
//
// [spatial], [viewport] - Geometry support: a quadtree point index and
// the zoom/pan screen transform.
//
// [errors] - Coded errors shared across packages.
//
// # Quick Start
//
// Load a tree and render it:
//
//	import (
//	    "context"
//	    "github.com/treescope/treescope/pkg/pipeline"
//	)
//
//	r := pipeline.NewRunner(nil, nil, nil)
//	res, err := r.Execute(context.Background(), pipeline.Options{
//	    TreePath: "tree.json",
//	    Kind:     pipeline.KindRadial,
//	    Formats:  []string{"svg"},
//	})
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                 # All tests
//	go test ./pkg/layout/...          # Specific package
//
// Store tests need TREESCOPE_TEST_MONGO_URI pointing at a live MongoDB.
//
// [tree]: https://pkg.go.dev/github.com/treescope/treescope/pkg/tree
// [cluster]: https://pkg.go.dev/github.com/treescope/treescope/pkg/cluster
// [layout]: https://pkg.go.dev/github.com/treescope/treescope/pkg/layout
// [scene]: https://pkg.go.dev/github.com/treescope/treescope/pkg/scene
// [render]: https://pkg.go.dev/github.com/treescope/treescope/pkg/render
// [render/nodelink]: https://pkg.go.dev/github.com/treescope/treescope/pkg/render/nodelink
// [pipeline]: https://pkg.go.dev/github.com/treescope/treescope/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/treescope/treescope/pkg/cache
// [store]: https://pkg.go.dev/github.com/treescope/treescope/pkg/store
// [spatial]: https://pkg.go.dev/github.com/treescope/treescope/pkg/spatial
// [viewport]: https://pkg.go.dev/github.com/treescope/treescope/pkg/viewport
// [errors]: https://pkg.go.dev/github.com/treescope/treescope/pkg/errors
package pkg
