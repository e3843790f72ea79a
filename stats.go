package dendro

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// ErrNoSamples reports a statistic built over zero samples, as NewStatistic
// produces for a branch, which owns no pixels of its own. The 0th moment of
// an empty statistic is zero; the higher moments are undefined.
var ErrNoSamples = errors.New("dendro: statistic has no samples")

// ScalarStatistic computes intensity-weighted statistics of a scalar field
// sampled at specific pixel locations: moments, centroid, covariance, and
// principal axes. NaN values are ignored, matching how masked field pixels
// are conventionally encoded.
type ScalarStatistic struct {
	Values []float64
	Coords [][]int
}

// NewStatistic builds a statistic over the pixels directly owned by s.
// Branches own no pixels; use NewSubtreeStatistic for them.
func NewStatistic(s *Structure) *ScalarStatistic {
	return &ScalarStatistic{Values: s.Values, Coords: s.Coords}
}

// NewSubtreeStatistic builds a statistic over every pixel owned by s or any
// of its descendants, in deterministic traversal order.
func NewSubtreeStatistic(s *Structure) *ScalarStatistic {
	st := &ScalarStatistic{
		Values: append([]float64(nil), s.Values...),
		Coords: append([][]int(nil), s.Coords...),
	}
	for _, c := range s.Descendants() {
		st.Values = append(st.Values, c.Values...)
		st.Coords = append(st.Coords, c.Coords...)
	}
	return st
}

// Count returns the number of samples.
func (st *ScalarStatistic) Count() int {
	return len(st.Values)
}

// ndim returns the positional dimensionality, or 0 with no samples.
func (st *ScalarStatistic) ndim() int {
	if len(st.Coords) == 0 {
		return 0
	}
	return len(st.Coords[0])
}

// Sum returns the 0th moment: the sum of the values, ignoring NaNs.
func (st *ScalarStatistic) Sum() float64 {
	sum := 0.0
	for _, v := range st.Values {
		if !math.IsNaN(v) {
			sum += v
		}
	}
	return sum
}

// Centroid returns the 1st moment: the intensity-weighted mean position,
// one component per axis.
func (st *ScalarStatistic) Centroid() []float64 {
	m0 := st.Sum()
	mean := make([]float64, st.ndim())
	for i, coord := range st.Coords {
		v := st.Values[i]
		if math.IsNaN(v) {
			continue
		}
		for axis, c := range coord {
			mean[axis] += float64(c) * v
		}
	}
	for axis := range mean {
		mean[axis] /= m0
	}
	return mean
}

// Covariance returns the 2nd moment: the intensity-weighted covariance of
// position about the centroid, as a symmetric ndim x ndim matrix. It returns
// ErrNoSamples for an empty statistic.
func (st *ScalarStatistic) Covariance() (*mat.SymDense, error) {
	nd := st.ndim()
	if nd == 0 {
		return nil, ErrNoSamples
	}
	m0 := st.Sum()
	mean := st.Centroid()

	cov := mat.NewSymDense(nd, nil)
	delta := make([]float64, nd)
	for i, coord := range st.Coords {
		v := st.Values[i]
		if math.IsNaN(v) {
			continue
		}
		w := v / m0
		for axis, c := range coord {
			delta[axis] = float64(c) - mean[axis]
		}
		for a := 0; a < nd; a++ {
			for b := a; b < nd; b++ {
				cov.SetSym(a, b, cov.At(a, b)+w*delta[a]*delta[b])
			}
		}
	}
	return cov, nil
}

// VarianceAlong returns the intensity-weighted variance of position along
// the given direction vector, which need not be normalized but must have
// nonzero magnitude.
func (st *ScalarStatistic) VarianceAlong(direction []float64) (float64, error) {
	cov, err := st.Covariance()
	if err != nil {
		return 0, err
	}
	v := mat.NewVecDense(len(direction), append([]float64(nil), direction...))
	norm := mat.Norm(v, 2)
	if norm == 0 {
		return 0, errors.New("dendro: direction vector has zero magnitude")
	}
	v.ScaleVec(1/norm, v)
	return mat.Inner(v, cov, v), nil
}

// PrincipalAxes returns the normalized eigenvectors of the covariance
// matrix, ordered by decreasing elongation of the data.
func (st *ScalarStatistic) PrincipalAxes() ([][]float64, error) {
	cov, err := st.Covariance()
	if err != nil {
		return nil, err
	}
	nd := cov.SymmetricDim()

	var eig mat.EigenSym
	if !eig.Factorize(cov, true) {
		return nil, errors.New("dendro: covariance eigendecomposition failed")
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	order := make([]int, nd)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return values[order[i]] > values[order[j]] })

	axes := make([][]float64, nd)
	for i, col := range order {
		axis := make([]float64, nd)
		mat.Col(axis, col, &vectors)
		axes[i] = axis
	}
	return axes, nil
}
