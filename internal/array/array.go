// Package array provides the float64 N-dimensional arrays the linearization
// engine computes with: variable values, derivative seeds, and Jacobian
// blocks. Engineering residuals are double precision throughout, so the
// package carries a single dtype and keeps the data as a flat row-major
// slice that views can share without copying.
package array

import (
	"fmt"
	"math"
)

// Array is a float64 N-dimensional array with row-major layout.
// The backing slice may be shared between arrays (see FromData and Reshape);
// Clone breaks the sharing.
type Array struct {
	data   []float64
	shape  Shape
	stride []int
}

// New allocates a zero-filled array with the given shape.
func New(shape Shape) (*Array, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	return &Array{
		data:   make([]float64, shape.NumElements()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
	}, nil
}

// FromSlice creates an array that copies data. Panics if data does not
// fill the shape.
func FromSlice(data []float64, shape Shape) *Array {
	if shape.NumElements() != len(data) {
		panic(fmt.Sprintf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data)))
	}
	a := Zeros(shape)
	copy(a.data, data)
	return a
}

// FromData creates an array view over data without copying. Writes
// through the array are visible to the owner of data and vice versa.
// Panics if data does not fill the shape.
func FromData(data []float64, shape Shape) *Array {
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("invalid shape: %v", err))
	}
	if shape.NumElements() != len(data) {
		panic(fmt.Sprintf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data)))
	}
	return &Array{data: data, shape: shape.Clone(), stride: shape.ComputeStrides()}
}

// Shape returns the array's shape.
func (a *Array) Shape() Shape {
	return a.shape
}

// Size returns the total number of elements.
func (a *Array) Size() int {
	return len(a.data)
}

// Data returns the flat backing slice (zero-copy).
//
// WARNING: modifications to the returned slice modify the array.
func (a *Array) Data() []float64 {
	return a.data
}

// At returns the element at the given indices.
// Panics if indices are out of bounds.
func (a *Array) At(indices ...int) float64 {
	return a.data[a.offset(indices)]
}

// Set sets the element at the given indices.
// Panics if indices are out of bounds.
func (a *Array) Set(value float64, indices ...int) {
	a.data[a.offset(indices)] = value
}

func (a *Array) offset(indices []int) int {
	if len(indices) != len(a.shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(a.shape), len(indices)))
	}
	offset := 0
	for i, idx := range indices {
		if idx < 0 || idx >= a.shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, a.shape[i]))
		}
		offset += idx * a.stride[i]
	}
	return offset
}

// Item returns the scalar value of a size-1 array.
// Panics if the array holds more than one element.
func (a *Array) Item() float64 {
	if len(a.data) != 1 {
		panic(fmt.Sprintf("Item() only works for scalar arrays, got shape %v", a.shape))
	}
	return a.data[0]
}

// Clone creates a deep copy of the array.
func (a *Array) Clone() *Array {
	data := make([]float64, len(a.data))
	copy(data, a.data)
	return &Array{data: data, shape: a.shape.Clone(), stride: a.shape.ComputeStrides()}
}

// Reshape returns a view with a new shape over the same data.
// Panics if the new shape does not hold the same number of elements.
func (a *Array) Reshape(shape Shape) *Array {
	if shape.NumElements() != len(a.data) {
		panic(fmt.Sprintf("cannot reshape %v (%d elements) to %v (%d elements)",
			a.shape, len(a.data), shape, shape.NumElements()))
	}
	return &Array{data: a.data, shape: shape.Clone(), stride: shape.ComputeStrides()}
}

// Flatten returns a 1-D view over the same data.
func (a *Array) Flatten() *Array {
	return a.Reshape(Shape{len(a.data)})
}

// Fill sets every element to value.
func (a *Array) Fill(value float64) {
	for i := range a.data {
		a.data[i] = value
	}
}

// Zero sets every element to zero.
func (a *Array) Zero() {
	clear(a.data)
}

// CopyFrom copies src's elements into a.
// Panics if the sizes differ; shapes may differ (flat copy).
func (a *Array) CopyFrom(src *Array) {
	if len(src.data) != len(a.data) {
		panic(fmt.Sprintf("copy: size mismatch %d vs %d", len(src.data), len(a.data)))
	}
	copy(a.data, src.data)
}

// MaxAbs returns the largest absolute element, or 0 for an empty array.
func (a *Array) MaxAbs() float64 {
	m := 0.0
	for _, v := range a.data {
		if av := math.Abs(v); av > m {
			m = av
		}
	}
	return m
}

// String returns a human-readable representation of the array.
func (a *Array) String() string {
	return fmt.Sprintf("Array%v%v", a.shape, a.data)
}
