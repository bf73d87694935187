package spatial

import "testing"

func TestInsertAndQuery(t *testing.T) {
	ix := New()
	if !ix.Insert(1, 100, 100) {
		t.Fatal("insert in bounds failed")
	}
	if !ix.Insert(2, -300, 450) {
		t.Fatal("insert in bounds failed")
	}

	if id, ok := ix.Query(100, 100); !ok || id != 1 {
		t.Errorf("Query(100,100) = %d, %v", id, ok)
	}
	if id, ok := ix.Query(-300, 450); !ok || id != 2 {
		t.Errorf("Query(-300,450) = %d, %v", id, ok)
	}

	// Hits anywhere inside the centered rectangle, misses just outside.
	half := HitSize / 2
	if _, ok := ix.Query(100+half, 100-half); !ok {
		t.Error("corner of hit rect should hit")
	}
	if _, ok := ix.Query(100+half+1, 100); ok {
		t.Error("point outside hit rect should miss")
	}
	if _, ok := ix.Query(5000, 5000); ok {
		t.Error("empty space should miss")
	}
}

func TestInsertOutOfBounds(t *testing.T) {
	ix := New()
	if ix.Insert(1, WorldExtent+1, 0) {
		t.Error("insert outside world bounds should be dropped")
	}
	if ix.Len() != 0 {
		t.Errorf("Len = %d after dropped insert", ix.Len())
	}
}

func TestSubdivision(t *testing.T) {
	ix := New()

	// Five entries in one quadrant exceed the leaf capacity and force a
	// split; every entry must survive the push-down.
	points := [][2]float64{{100, 100}, {200, 200}, {300, 300}, {400, 400}, {500, 500}}
	for i, p := range points {
		if !ix.Insert(i+1, p[0], p[1]) {
			t.Fatalf("insert %d failed", i+1)
		}
	}

	if !ix.divided {
		t.Fatal("root should have subdivided after exceeding leaf capacity")
	}
	if ix.entries != nil {
		t.Error("subdivided node should hold no local entries")
	}
	if ix.Len() != len(points) {
		t.Errorf("Len = %d, want %d", ix.Len(), len(points))
	}

	for i, p := range points {
		id, ok := ix.Query(p[0], p[1])
		if !ok || id != i+1 {
			t.Errorf("Query(%g,%g) = %d, %v, want %d", p[0], p[1], id, ok, i+1)
		}
	}
}

func TestQueryAcrossQuadrantBoundary(t *testing.T) {
	ix := New()

	// Force a subdivision, then place an entry right next to the x=0
	// split line. A query from the other side of the line, still inside
	// the entry's hit rectangle, must find it.
	for i := 0; i < leafCapacity; i++ {
		ix.Insert(i+1, 1000+float64(i)*100, 1000)
	}
	ix.Insert(10, 1, 500)

	if id, ok := ix.Query(-2, 500); !ok || id != 10 {
		t.Errorf("query across split line = %d, %v, want 10", id, ok)
	}
}

func TestFirstMatchWins(t *testing.T) {
	ix := New()
	ix.Insert(1, 0, 0)
	ix.Insert(2, 4, 0)

	// Both hit rectangles cover the probe point; the earlier entry is
	// returned.
	if id, ok := ix.Query(2, 0); !ok || id != 1 {
		t.Errorf("Query(2,0) = %d, %v, want first inserted", id, ok)
	}
}
