package tree

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/treescope/treescope/pkg/errors"
)

// Expected column counts for the two tabular inputs.
const (
	nodeColumns = 8 // id, name, parent placeholder, link flag, tol url, extinct, confidence, phylesis
	edgeColumns = 2 // parent id, child id
)

// Load reads the node and edge tables from the given paths and builds
// the tree index. Any malformed row is fatal: the tables are consumed
// exactly once at startup and a partial tree is worse than no tree.
func Load(nodePath, edgePath string) (*Tree, error) {
	nf, err := os.Open(nodePath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open node table")
	}
	defer nf.Close()

	ef, err := os.Open(edgePath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open edge table")
	}
	defer ef.Close()

	return Read(nf, ef)
}

// Read parses the node and edge tables from the given readers and
// builds the tree index.
func Read(nodeTable, edgeTable io.Reader) (*Tree, error) {
	nodes, err := readNodes(nodeTable)
	if err != nil {
		return nil, err
	}
	edges, err := readEdges(edgeTable)
	if err != nil {
		return nil, err
	}
	return Build(nodes, edges)
}

func readNodes(r io.Reader) ([]Node, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = nodeColumns

	var nodes []Node
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidRow, err, "node table line %d", line)
		}

		n, err := parseNode(rec)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidRow, err, "node table line %d", line)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func parseNode(rec []string) (Node, error) {
	id, err := strconv.Atoi(strings.TrimSpace(rec[0]))
	if err != nil {
		return Node{}, errors.New(errors.ErrCodeInvalidRow, "bad id %q", rec[0])
	}

	extinct, err := parseFlag(rec[5])
	if err != nil {
		return Node{}, errors.New(errors.ErrCodeInvalidRow, "bad extinct flag %q", rec[5])
	}
	hasPage, err := parseFlag(rec[3])
	if err != nil {
		return Node{}, errors.New(errors.ErrCodeInvalidRow, "bad link flag %q", rec[3])
	}

	// Confidence arrives as a float-formatted enum (0, 1 or 2).
	conf, err := strconv.ParseFloat(strings.TrimSpace(rec[6]), 64)
	if err != nil || conf < 0 || conf > 2 {
		return Node{}, errors.New(errors.ErrCodeInvalidRow, "bad confidence %q", rec[6])
	}

	phylesis, err := strconv.Atoi(strings.TrimSpace(rec[7]))
	if err != nil || phylesis < 0 || phylesis > 2 {
		return Node{}, errors.New(errors.ErrCodeInvalidRow, "bad phylesis %q", rec[7])
	}

	return Node{
		ID:         id,
		Name:       rec[1],
		TolURL:     rec[4],
		HasPage:    hasPage,
		Extinct:    extinct,
		Confidence: Confidence(int(conf)),
		Phylesis:   Phylesis(phylesis),
	}, nil
}

func parseFlag(s string) (bool, error) {
	switch strings.TrimSpace(s) {
	case "0", "":
		return false, nil
	case "1":
		return true, nil
	}
	return false, errors.New(errors.ErrCodeInvalidRow, "flag must be 0 or 1")
}

func readEdges(r io.Reader) ([][2]int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = edgeColumns

	var edges [][2]int
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidEdge, err, "edge table line %d", line)
		}

		p, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, errors.New(errors.ErrCodeInvalidEdge, "edge table line %d: bad parent id %q", line, rec[0])
		}
		c, err := strconv.Atoi(strings.TrimSpace(rec[1]))
		if err != nil {
			return nil, errors.New(errors.ErrCodeInvalidEdge, "edge table line %d: bad child id %q", line, rec[1])
		}
		edges = append(edges, [2]int{p, c})
	}
	return edges, nil
}
