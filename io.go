package dendro

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/TrevorS/dendro/dfile"
)

// On-disk names of the persisted components. index_map is the historical
// name of the label image.
const (
	attrNDim      = "n_dim"
	datasetNewick = "newick"
	datasetLabels = "index_map"
	datasetData   = "data"
)

// fileFormat is one registered persistence format: a cheap identification
// probe plus a loader. Formats are tried in registration order.
type fileFormat struct {
	name     string
	identify func(path string) bool
	load     func(path string) (*Dendrogram, error)
}

var fileFormats = []fileFormat{
	{name: "dfile", identify: dfile.Identify, load: loadDFile},
}

// Load reads a dendrogram from a container file, identifying the format
// automatically, and reconstructs the full tree via Decode.
func Load(path string) (*Dendrogram, error) {
	for _, f := range fileFormats {
		if f.identify(path) {
			return f.load(path)
		}
	}
	names := make([]string, len(fileFormats))
	for i, f := range fileFormats {
		names[i] = f.name
	}
	return nil, fmt.Errorf("dendro: could not identify the format of %s (known formats: %s)",
		path, strings.Join(names, ", "))
}

// Save writes d to a container file at path with default write options.
func Save(d *Dendrogram, path string) error {
	return SaveWithOptions(d, path, dfile.DefaultWriteOptions())
}

// SaveWithOptions writes d to a container file at path: the dimensionality
// attribute, the topology text, and the label and data arrays with their
// value ranges recorded as storage hints.
func SaveWithOptions(d *Dendrogram, path string, opts dfile.WriteOptions) error {
	labels := dfile.NewIntDataset(datasetLabels, d.Labels.Shape, d.Labels.Data)
	if len(d.Labels.Data) > 0 {
		lo, hi := intRange(d.Labels.Data)
		labels.WithRange(float64(lo), float64(hi))
	}
	data := dfile.NewFloatDataset(datasetData, d.Data.Shape, d.Data.Data)
	if len(d.Data.Data) > 0 {
		data.WithRange(floats.Min(d.Data.Data), floats.Max(d.Data.Data))
	}

	f := &dfile.File{
		Attrs: map[string]int64{attrNDim: int64(d.NDim)},
		Datasets: []*dfile.Dataset{
			dfile.NewTextDataset(datasetNewick, d.ToNewick()),
			labels,
			data,
		},
	}
	return dfile.Write(path, f, opts)
}

// loadDFile pulls the four persisted components out of a dfile container and
// hands them to Decode.
func loadDFile(path string) (*Dendrogram, error) {
	f, err := dfile.Read(path)
	if err != nil {
		return nil, err
	}

	ndim, ok := f.Attrs[attrNDim]
	if !ok {
		return nil, fmt.Errorf("dendro: %s has no %s attribute", path, attrNDim)
	}
	newick, err := requireDataset(f, path, datasetNewick, dfile.KindText)
	if err != nil {
		return nil, err
	}
	labelsDS, err := requireDataset(f, path, datasetLabels, dfile.KindInt32)
	if err != nil {
		return nil, err
	}
	dataDS, err := requireDataset(f, path, datasetData, dfile.KindFloat64)
	if err != nil {
		return nil, err
	}

	labels, err := ArrayFrom(labelsDS.Ints, labelsDS.Shape...)
	if err != nil {
		return nil, err
	}
	data, err := ArrayFrom(dataDS.Floats, dataDS.Shape...)
	if err != nil {
		return nil, err
	}
	return Decode(int(ndim), newick.Text, labels, data)
}

// requireDataset returns the named dataset, insisting on its element kind.
func requireDataset(f *dfile.File, path, name string, kind dfile.Kind) (*dfile.Dataset, error) {
	ds := f.Dataset(name)
	if ds == nil {
		return nil, fmt.Errorf("dendro: %s has no %s dataset", path, name)
	}
	if ds.Kind != kind {
		return nil, fmt.Errorf("dendro: %s dataset %s is %s, want %s", path, name, ds.Kind, kind)
	}
	return ds, nil
}

// intRange returns the smallest and largest values in a label slice.
func intRange(data []int32) (lo, hi int32) {
	lo, hi = data[0], data[0]
	for _, v := range data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
