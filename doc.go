// Package dendro persists and reconstructs hierarchical segmentation trees
// (dendrograms) computed over n-dimensional scalar fields, such as
// astronomical intensity cubes.
//
// A dendrogram partitions a field's pixels into nested regions: leaf
// structures own disjoint sets of pixels, and branch structures represent the
// merge of their children at a given intensity threshold (the merge height).
// The tree topology is stored as a single flat text string in a newick-like
// format; pixel ownership is stored as a label image parallel to the data
// array, where each positive value is the identity of the owning leaf and
// zero means unlabeled.
//
// Basic usage:
//
//	d, err := dendro.Load("field.dnd")
//	// d.Trunk is the forest of top-level structures
//	// d.Structure(id) looks up any structure by identity
//	s := d.Structure(42)
//	stat := dendro.NewSubtreeStatistic(s)
//	// stat.Centroid(), stat.PrincipalAxes(), ...
//
// To reconstruct a dendrogram from already-loaded components:
//
//	d, err := dendro.Decode(ndim, newick, labels, data)
//
// and to obtain the flat text form of a dendrogram's topology:
//
//	s := d.ToNewick()
//
// Decode and ToNewick are exact structural inverses: any dendrogram decoded,
// re-encoded, and decoded again has the same identities, topology, merge
// heights, and per-leaf pixel sets.
//
// File persistence lives in the companion package
// [github.com/TrevorS/dendro/dfile], a self-describing single-file container
// of named datasets and attributes with optional compression and checksums.
package dendro
