package dendro

// Structure is a single node of a dendrogram: either a leaf that directly
// owns pixels, or a branch that merges two or more children at a height.
// Identity is the sole addressing key and is stable across encode/decode
// round-trips. Topology is immutable once built; only the cached level is
// backfilled afterwards.
type Structure struct {
	// ID is the identity of this structure, unique across the whole tree.
	// Label-image values refer to leaf IDs.
	ID int

	// Coords holds the pixel coordinates directly owned by this structure,
	// in the deterministic order they were aggregated from the label image.
	// Non-empty only for leaves.
	Coords [][]int

	// Values holds the field values parallel to Coords: Values[i] is the
	// data value at Coords[i].
	Values []float64

	// Children are the structures merged into this one, in encoded order.
	// Empty for leaves.
	Children []*Structure

	// Height is the scalar recorded for this structure in the topology.
	// For a branch it is the merge height at which the children join; for a
	// leaf it is the height carried by its topology entry.
	Height float64

	parent *Structure
	// level is the cached depth from the nearest root, or -1 if not yet
	// computed. Root-adjacent structures are pre-cached at 0 after decode.
	level int
}

// IsLeaf reports whether s directly owns pixels (has no children).
func (s *Structure) IsLeaf() bool {
	return len(s.Children) == 0
}

// IsBranch reports whether s is a merge of child structures.
func (s *Structure) IsBranch() bool {
	return len(s.Children) > 0
}

// Parent returns the structure that merged s, or nil for a root.
func (s *Structure) Parent() *Structure {
	return s.parent
}

// Level returns the depth of s from its root; roots are level 0.
// The result is memoized, so repeated calls after the first walk are O(1).
func (s *Structure) Level() int {
	if s.level < 0 {
		if s.parent == nil {
			s.level = 0
		} else {
			s.level = s.parent.Level() + 1
		}
	}
	return s.level
}

// NPix returns the number of pixels directly owned by s.
// Zero for every branch.
func (s *Structure) NPix() int {
	return len(s.Coords)
}

// NPixTotal returns the number of pixels owned by s and all its descendants.
func (s *Structure) NPixTotal() int {
	n := len(s.Coords)
	for _, c := range s.Children {
		n += c.NPixTotal()
	}
	return n
}

// ValueSum returns the sum of the field values directly owned by s.
func (s *Structure) ValueSum() float64 {
	sum := 0.0
	for _, v := range s.Values {
		sum += v
	}
	return sum
}

// Descendants returns every structure below s, depth-first in child order.
// The order is deterministic for a given topology.
func (s *Structure) Descendants() []*Structure {
	var out []*Structure
	for _, c := range s.Children {
		out = append(out, c)
		out = append(out, c.Descendants()...)
	}
	return out
}
