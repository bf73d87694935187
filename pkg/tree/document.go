package tree

import (
	"encoding/json"
	"io"
	"os"

	"github.com/treescope/treescope/pkg/errors"
)

// Edge is one parent/child relation in a serialized tree document.
type Edge struct {
	Parent int `json:"parent" bson:"parent"`
	Child  int `json:"child" bson:"child"`
}

// Document is the JSON interchange form of a tree:
//
//	{
//	  "nodes": [{"id": 1, "name": "Life on Earth"}, ...],
//	  "edges": [{"parent": 1, "child": 2}, ...]
//	}
//
// It is what `import` writes, every later pipeline stage reads, and the
// Mongo store persists (the bson tags mirror the json ones).
type Document struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// ToDocument flattens the index back into interchange form. Nodes are
// listed in ascending id order and edges in parent load order, so equal
// trees produce byte-equal documents.
func (t *Tree) ToDocument() Document {
	doc := Document{
		Nodes: make([]Node, 0, len(t.nodes)),
		Edges: make([]Edge, 0, len(t.parent)),
	}
	for _, id := range t.IDs() {
		doc.Nodes = append(doc.Nodes, t.nodes[id])
	}
	for _, id := range t.IDs() {
		for _, c := range t.children[id] {
			doc.Edges = append(doc.Edges, Edge{Parent: id, Child: c})
		}
	}
	return doc
}

// FromDocument rebuilds the index from interchange form, running the same
// validation as Build.
func FromDocument(doc Document) (*Tree, error) {
	edges := make([][2]int, len(doc.Edges))
	for i, e := range doc.Edges {
		edges[i] = [2]int{e.Parent, e.Child}
	}
	return Build(doc.Nodes, edges)
}

// ReadJSON decodes a tree document from r and builds the index.
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (*Tree, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode tree document")
	}
	return FromDocument(doc)
}

// WriteJSON encodes the tree as an indented document on w. The output
// round-trips through ReadJSON.
func (t *Tree) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t.ToDocument()); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode tree document")
	}
	return nil
}

// ImportJSON reads a tree document file at path and builds the index.
func ImportJSON(path string) (*Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()
	return ReadJSON(f)
}

// ExportJSON writes the tree document to a file at path.
func (t *Tree) ExportJSON(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", path)
	}
	defer f.Close()
	return t.WriteJSON(f)
}
