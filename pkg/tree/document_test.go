package tree

import (
	"bytes"
	"strings"
	"testing"

	"github.com/treescope/treescope/pkg/errors"
)

func TestDocumentRoundTrip(t *testing.T) {
	tr := build(t, [2]int{1, 2}, [2]int{1, 3}, [2]int{3, 4})

	var buf bytes.Buffer
	if err := tr.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	back, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}

	if back.Len() != tr.Len() {
		t.Fatalf("Len = %d, want %d", back.Len(), tr.Len())
	}
	for _, id := range tr.IDs() {
		if back.DescendantCount(id) != tr.DescendantCount(id) {
			t.Errorf("node %d count = %d, want %d", id, back.DescendantCount(id), tr.DescendantCount(id))
		}
		if p, ok := tr.Parent(id); ok {
			if bp, bok := back.Parent(id); !bok || bp != p {
				t.Errorf("node %d parent = %d, %v, want %d", id, bp, bok, p)
			}
		}
	}
}

func TestDocumentDeterministic(t *testing.T) {
	tr := build(t, [2]int{1, 2}, [2]int{2, 3}, [2]int{1, 4})

	var a, b bytes.Buffer
	if err := tr.WriteJSON(&a); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if err := tr.WriteJSON(&b); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("document encoding should be deterministic")
	}
}

func TestReadJSONErrors(t *testing.T) {
	if _, err := ReadJSON(strings.NewReader("{not json")); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("malformed JSON code = %s", errors.GetCode(err))
	}

	// Structurally valid JSON that fails tree validation.
	doc := `{"nodes":[{"id":1},{"id":2}],"edges":[{"parent":1,"child":9}]}`
	if _, err := ReadJSON(strings.NewReader(doc)); !errors.Is(err, errors.ErrCodeInvalidEdge) {
		t.Errorf("unknown edge endpoint code = %s", errors.GetCode(err))
	}
}
