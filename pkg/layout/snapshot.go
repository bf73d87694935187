package layout

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"time"
)

// Placement is one positioned node in a serialized layout.
type Placement struct {
	ID    int     `json:"id" bson:"id"`
	X     float64 `json:"x" bson:"x"`
	Y     float64 `json:"y" bson:"y"`
	Level int     `json:"level" bson:"level"`
}

// Snapshot is the serialization format for a computed layout: every
// visible node's position and level plus the cluster expansion that
// produced it. Snapshots are export artifacts for rendering and
// inspection; the interactive controller never restores its state from
// one.
type Snapshot struct {
	Name      string      `json:"name,omitempty" bson:"name,omitempty"`
	CreatedAt time.Time   `json:"created_at" bson:"created_at"`
	NodeCount int         `json:"node_count" bson:"node_count"`
	Expanded  []int       `json:"expanded,omitempty" bson:"expanded,omitempty"`
	Placed    []Placement `json:"placed" bson:"placed"`
}

// NewSnapshot builds a snapshot from the engine's output maps. Placements
// are sorted by id for deterministic output.
func NewSnapshot(positions map[int]Point, levels map[int]int, expanded []int) Snapshot {
	placed := make([]Placement, 0, len(positions))
	for id, p := range positions {
		placed = append(placed, Placement{ID: id, X: p.X, Y: p.Y, Level: levels[id]})
	}
	slices.SortFunc(placed, func(a, b Placement) int { return a.ID - b.ID })

	exp := slices.Clone(expanded)
	slices.Sort(exp)

	return Snapshot{
		CreatedAt: time.Now().UTC(),
		NodeCount: len(placed),
		Expanded:  exp,
		Placed:    placed,
	}
}

// Maps converts the snapshot back into the engine's map form.
func (s Snapshot) Maps() (map[int]Point, map[int]int) {
	positions := make(map[int]Point, len(s.Placed))
	levels := make(map[int]int, len(s.Placed))
	for _, p := range s.Placed {
		positions[p.ID] = Point{X: p.X, Y: p.Y}
		levels[p.ID] = p.Level
	}
	return positions, levels
}

// MarshalSnapshot serializes a snapshot to pretty-printed JSON bytes.
func MarshalSnapshot(s Snapshot) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// UnmarshalSnapshot deserializes JSON bytes into a Snapshot.
func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if len(s.Placed) == 0 {
		return Snapshot{}, fmt.Errorf("snapshot contains no placements")
	}
	return s, nil
}

// WriteSnapshotFile writes a snapshot to a JSON file.
func WriteSnapshotFile(s Snapshot, path string) error {
	data, err := MarshalSnapshot(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadSnapshotFile reads a snapshot from a JSON file.
func ReadSnapshotFile(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalSnapshot(data)
}
