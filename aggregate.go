package dendro

// PixelGroup accumulates the pixels owned by one leaf identity: coordinates
// and the parallel field values, in the order they were visited.
type PixelGroup struct {
	Coords [][]int
	Values []float64
}

// AggregateLabels groups pixel coordinates and field values by leaf identity
// in a single row-major pass over the label image. Pixels labeled zero are
// skipped. The traversal order is fixed (first axis slowest), so identical
// inputs always yield identical per-group ordering.
//
// Returns a *ConsistencyError if data and labels differ in shape.
func AggregateLabels(data *Array[float64], labels *Array[int32]) (map[int]*PixelGroup, error) {
	if !shapeEqual(data.Shape, labels.Shape) {
		return nil, &ConsistencyError{
			Msg: "data and label arrays differ in shape",
		}
	}

	groups := make(map[int]*PixelGroup)
	for offset, label := range labels.Data {
		if label == 0 {
			continue
		}
		if label < 0 {
			return nil, &ConsistencyError{
				ID:  int(label),
				Msg: "negative value in label image",
			}
		}
		id := int(label)
		g := groups[id]
		if g == nil {
			g = &PixelGroup{}
			groups[id] = g
		}
		g.Coords = append(g.Coords, labels.CoordOf(offset))
		g.Values = append(g.Values, data.Data[offset])
	}
	return groups, nil
}
