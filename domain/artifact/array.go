package artifact

import (
	"gaussapprox/internal/errors"
)

// Dtype is the element type of a persisted array.
type Dtype string

const (
	Float64 Dtype = "float64"
	Bool    Dtype = "bool"
)

// Array is an n-dimensional, C-ordered array destined for the artifact tree.
// Exactly one of Float or Bool holds the data, depending on Dtype.
type Array struct {
	Dtype Dtype
	Shape []int
	Float []float64
	Bool  []bool
}

// Scalar is a 0-d float array.
func Scalar(v float64) Array {
	return Array{Dtype: Float64, Shape: []int{}, Float: []float64{v}}
}

// Vector is a 1-d float array.
func Vector(v []float64) Array {
	return Array{Dtype: Float64, Shape: []int{len(v)}, Float: v}
}

// Shaped is a float array with an explicit shape. It panics if the shape
// does not describe len(v) elements, since that is a programming error.
func Shaped(shape []int, v []float64) Array {
	if Size(shape) != len(v) {
		panic(errors.ShapeMismatch("shape %v holds %d elements, got %d", shape, Size(shape), len(v)))
	}
	return Array{Dtype: Float64, Shape: append([]int(nil), shape...), Float: v}
}

// Mask is a bool array with an explicit shape.
func Mask(shape []int, v []bool) Array {
	if Size(shape) != len(v) {
		panic(errors.ShapeMismatch("shape %v holds %d elements, got %d", shape, Size(shape), len(v)))
	}
	return Array{Dtype: Bool, Shape: append([]int(nil), shape...), Bool: v}
}

// Len returns the number of elements.
func (a Array) Len() int {
	if a.Dtype == Bool {
		return len(a.Bool)
	}
	return len(a.Float)
}

// Size returns the number of elements described by shape.
func Size(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
