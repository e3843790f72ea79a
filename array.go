package dendro

import "fmt"

// Scalar is the set of element types an Array can hold: int32 for label
// images, float64 for field data.
type Scalar interface {
	~int32 | ~float64
}

// Array is an n-dimensional array backed by a flat slice in row-major order
// (first axis slowest). Shape and Data are exported so callers can fill
// arrays directly; Len(Shape) must equal len(Data).
type Array[T Scalar] struct {
	Shape []int
	Data  []T
}

// NewArray allocates a zero-filled array with the given shape.
func NewArray[T Scalar](shape ...int) *Array[T] {
	return &Array[T]{
		Shape: shape,
		Data:  make([]T, shapeLen(shape)),
	}
}

// ArrayFrom wraps an existing flat row-major slice as an n-dimensional array.
// Returns an error if the slice length does not match the shape.
func ArrayFrom[T Scalar](data []T, shape ...int) (*Array[T], error) {
	if n := shapeLen(shape); n != len(data) {
		return nil, fmt.Errorf("dendro: data length %d does not match shape %v (need %d)", len(data), shape, n)
	}
	return &Array[T]{Shape: shape, Data: data}, nil
}

// NDim returns the number of axes.
func (a *Array[T]) NDim() int {
	return len(a.Shape)
}

// Len returns the total number of elements.
func (a *Array[T]) Len() int {
	return len(a.Data)
}

// At returns the element at the given coordinate.
func (a *Array[T]) At(coord ...int) T {
	return a.Data[a.OffsetOf(coord)]
}

// Set stores v at the given coordinate.
func (a *Array[T]) Set(v T, coord ...int) {
	a.Data[a.OffsetOf(coord)] = v
}

// OffsetOf converts a coordinate to its flat row-major offset.
// Panics if the coordinate has the wrong dimensionality or is out of bounds,
// matching slice indexing behavior.
func (a *Array[T]) OffsetOf(coord []int) int {
	if len(coord) != len(a.Shape) {
		panic(fmt.Sprintf("dendro: coordinate %v has wrong dimensionality for shape %v", coord, a.Shape))
	}
	offset := 0
	for i, c := range coord {
		if c < 0 || c >= a.Shape[i] {
			panic(fmt.Sprintf("dendro: coordinate %v out of bounds for shape %v", coord, a.Shape))
		}
		offset = offset*a.Shape[i] + c
	}
	return offset
}

// CoordOf converts a flat row-major offset back to a coordinate.
func (a *Array[T]) CoordOf(offset int) []int {
	coord := make([]int, len(a.Shape))
	for i := len(a.Shape) - 1; i >= 0; i-- {
		coord[i] = offset % a.Shape[i]
		offset /= a.Shape[i]
	}
	return coord
}

// shapeLen returns the number of elements implied by a shape. An empty shape
// describes a scalar and has length 1.
func shapeLen(shape []int) int {
	n := 1
	for _, dim := range shape {
		n *= dim
	}
	return n
}

// shapeEqual reports whether two shapes are identical axis by axis.
func shapeEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
