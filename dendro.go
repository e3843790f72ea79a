package dendro

import "sort"

// Dendrogram is a fully linked segmentation tree bound to its field data and
// label image.
type Dendrogram struct {
	// NDim is the number of axes of the field.
	NDim int

	// Data is the scalar field the dendrogram was computed over.
	Data *Array[float64]

	// Labels maps each pixel to the identity of its owning leaf, or zero if
	// the pixel is unlabeled. Same shape as Data.
	Labels *Array[int32]

	// Trunk is the ordered forest of top-level structures.
	Trunk []*Structure

	index map[int]*Structure
}

// Decode reconstructs a dendrogram from its persisted components: the
// dimensionality attribute, the flat topology text, the label image, and the
// data array. It either returns a fully linked, validated dendrogram or an
// error; no partially linked tree is ever exposed.
//
// Errors are *FormatError (topology grammar), *ReferenceError (topology that
// does not link into one forest), or *ConsistencyError (topology and label
// image disagree, or array shapes mismatch).
func Decode(ndim int, newick string, labels *Array[int32], data *Array[float64]) (*Dendrogram, error) {
	if data.NDim() != ndim {
		return nil, &ConsistencyError{
			Msg: "data array dimensionality does not match the recorded dimensionality",
		}
	}

	groups, err := AggregateLabels(data, labels)
	if err != nil {
		return nil, err
	}

	topo, err := ParseNewick(newick)
	if err != nil {
		return nil, err
	}

	index := make(map[int]*Structure)
	trunk, err := BuildTree(topo, groups, index)
	if err != nil {
		return nil, err
	}

	// Coverage in the other direction: every labeled identity must be a
	// leaf of the decoded topology.
	for id := range groups {
		s, ok := index[id]
		if !ok {
			return nil, &ConsistencyError{
				ID:  id,
				Msg: "labeled pixels have no structure in topology",
			}
		}
		if s.IsBranch() {
			return nil, &ConsistencyError{
				ID:  id,
				Msg: "labeled pixels belong to a branch, not a leaf",
			}
		}
	}

	// Top-level structures never need to walk upward to learn their depth.
	for _, s := range trunk {
		s.level = 0
	}

	return &Dendrogram{
		NDim:   ndim,
		Data:   data,
		Labels: labels,
		Trunk:  trunk,
		index:  index,
	}, nil
}

// Structure returns the structure with the given identity, or nil if the
// dendrogram has none. Lookup is O(1).
func (d *Dendrogram) Structure(id int) *Structure {
	return d.index[id]
}

// Len returns the total number of structures, leaves and branches combined.
func (d *Dendrogram) Len() int {
	return len(d.index)
}

// Structures returns every structure ordered by identity.
func (d *Dendrogram) Structures() []*Structure {
	out := make([]*Structure, 0, len(d.index))
	for _, s := range d.index {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Leaves returns every leaf structure ordered by identity.
func (d *Dendrogram) Leaves() []*Structure {
	var out []*Structure
	for _, s := range d.index {
		if s.IsLeaf() {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ToNewick encodes the dendrogram's topology as the flat text form, the
// structural inverse of Decode: decoding the result against the same label
// image reproduces the same identities, topology, heights, and per-leaf
// pixel sets.
func (d *Dendrogram) ToNewick() string {
	return FormatNewick(d.Trunk)
}
