package dendro

// BuildTree fuses a decoded topology with aggregated pixel groups into live
// structures, bottom-up. Each leaf entry takes its coordinates and values
// from the group with its identity; each branch entry is built from its
// recursively constructed children and owns no pixels directly. Every
// structure, leaf and branch alike, is registered in index as it is built.
//
// Returns a *ConsistencyError if a leaf identity owns no labeled pixels or
// an identity appears twice in the topology. The caller is responsible for
// the reverse check (groups whose identity never appears as a leaf) and for
// caching level 0 on the returned top-level structures.
func BuildTree(topo *Topology, groups map[int]*PixelGroup, index map[int]*Structure) ([]*Structure, error) {
	structures := make([]*Structure, 0, len(topo.Entries))
	for _, entry := range topo.Entries {
		var s *Structure
		if entry.Sub == nil {
			g, ok := groups[entry.ID]
			if !ok {
				return nil, &ConsistencyError{
					ID:  entry.ID,
					Msg: "leaf has no labeled pixels",
				}
			}
			s = &Structure{
				ID:     entry.ID,
				Coords: g.Coords,
				Values: g.Values,
				Height: entry.Height,
				level:  -1,
			}
		} else {
			children, err := BuildTree(entry.Sub, groups, index)
			if err != nil {
				return nil, err
			}
			s = &Structure{
				ID:       entry.ID,
				Children: children,
				Height:   entry.Height,
				level:    -1,
			}
			for _, c := range children {
				c.parent = s
			}
		}
		if _, dup := index[entry.ID]; dup {
			return nil, &ConsistencyError{
				ID:  entry.ID,
				Msg: "identity appears more than once in topology",
			}
		}
		index[entry.ID] = s
		structures = append(structures, s)
	}
	return structures, nil
}
