package dendro

import (
	"strconv"
	"strings"
	"testing"
)

func TestEdgeCase_SingleLeaf(t *testing.T) {
	data, _ := ArrayFrom([]float64{1, 2, 3}, 3)
	labels, _ := ArrayFrom([]int32{1, 1, 1}, 3)

	d, err := Decode(1, "(1:2.0):", labels, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.Trunk) != 1 || !d.Trunk[0].IsLeaf() {
		t.Fatalf("expected a single root leaf")
	}
	if d.Trunk[0].NPix() != 3 {
		t.Errorf("leaf owns %d pixels, want 3", d.Trunk[0].NPix())
	}
}

func TestEdgeCase_DeepNesting(t *testing.T) {
	// A left-leaning chain 40 branches deep: each branch merges the one
	// below it with a fresh leaf. Exercises the per-depth span resolution
	// far past typical nesting.
	const depth = 40
	newick := "1:1.0"
	labelRow := []int32{1}
	nextID := 2
	for i := 0; i < depth; i++ {
		leaf := nextID
		branch := nextID + 1
		nextID += 2
		newick = "(" + newick + "," + strconv.Itoa(leaf) + ":1.0):" +
			strconv.Itoa(branch) + ":" + strconv.Itoa(i+2) + ".0"
		labelRow = append(labelRow, int32(leaf))
	}
	newick = "(" + newick + "):"

	values := make([]float64, len(labelRow))
	for i := range values {
		values[i] = 1
	}
	data, _ := ArrayFrom(values, len(values))
	labels, _ := ArrayFrom(labelRow, len(labelRow))

	d, err := Decode(1, newick, labels, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.Trunk) != 1 {
		t.Fatalf("expected 1 root, got %d", len(d.Trunk))
	}
	deepest := d.Structure(1)
	if deepest == nil {
		t.Fatal("leaf 1 missing from index")
	}
	if got := deepest.Level(); got != depth {
		t.Errorf("deepest leaf level: got %d, want %d", got, depth)
	}
	if got := d.Trunk[0].NPixTotal(); got != depth+1 {
		t.Errorf("root subtree owns %d pixels, want %d", got, depth+1)
	}
	if got := d.ToNewick(); got != newick {
		t.Errorf("deep chain did not round-trip:\ngot  %q\nwant %q", got, newick)
	}
}

func TestEdgeCase_LargeIdentities(t *testing.T) {
	data, _ := ArrayFrom([]float64{1, 2}, 2)
	labels, _ := ArrayFrom([]int32{1000000, 2000001}, 2)

	d, err := Decode(1, "(1000000:2.0,2000001:3.0):", labels, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Structure(2000001) == nil {
		t.Error("large identity missing from index")
	}
}

func TestEdgeCase_NegativeHeights(t *testing.T) {
	// Heights are arbitrary scalars; fields with negative intensities
	// produce negative merge levels.
	data, _ := ArrayFrom([]float64{-1, -2, -3, -4}, 4)
	labels, _ := ArrayFrom([]int32{1, 1, 2, 2}, 4)

	d, err := Decode(1, "((1:-2.0,2:-1.5):3:-0.5):", labels, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := d.Structure(3).Height; got != -0.5 {
		t.Errorf("merge height: got %v, want -0.5", got)
	}
	if got := d.ToNewick(); !strings.Contains(got, "1:-2.0") {
		t.Errorf("negative height did not round-trip: %q", got)
	}
}

func TestEdgeCase_SurroundingWhitespace(t *testing.T) {
	data, _ := ArrayFrom([]float64{1, 2}, 2)
	labels, _ := ArrayFrom([]int32{1, 2}, 2)

	d, err := Decode(1, "  (1:2.0,2:3.0):  ", labels, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Len() != 2 {
		t.Errorf("expected 2 structures, got %d", d.Len())
	}
}

func TestEdgeCase_HandBuiltTreeLevels(t *testing.T) {
	// Levels of structures assembled directly (not via Decode) are derived
	// by walking to the root and memoized.
	leaf := &Structure{ID: 1, Coords: [][]int{{0}}, Values: []float64{1}, level: -1}
	mid := &Structure{ID: 2, Children: []*Structure{leaf}, level: -1}
	leaf.parent = mid
	root := &Structure{ID: 3, Children: []*Structure{mid}, level: -1}
	mid.parent = root

	if got := leaf.Level(); got != 2 {
		t.Errorf("leaf level: got %d, want 2", got)
	}
	// Second call hits the cache.
	if got := leaf.Level(); got != 2 {
		t.Errorf("memoized leaf level: got %d, want 2", got)
	}
	if got := root.Level(); got != 0 {
		t.Errorf("root level: got %d, want 0", got)
	}
}

func TestEdgeCase_DescendantsOrder(t *testing.T) {
	data, _ := ArrayFrom([]float64{1, 2, 3, 4, 5, 6}, 6)
	labels, _ := ArrayFrom([]int32{1, 1, 2, 2, 4, 4}, 6)

	d, err := Decode(1, "(((1:1.0,2:1.5):3:2.5,4:3.0):5:4.0):", labels, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var ids []int
	for _, s := range d.Structure(5).Descendants() {
		ids = append(ids, s.ID)
	}
	want := []int{3, 1, 2, 4}
	if len(ids) != len(want) {
		t.Fatalf("descendants: got %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("descendants: got %v, want %v", ids, want)
		}
	}
}
