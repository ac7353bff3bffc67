// Package reshape compacts the spatial axis of row-major arrays down to the
// active (non-degenerate) grid points and expands it back.
package reshape

import (
	"gaussapprox/internal/errors"
)

// Reshaper holds a fixed boolean mask over the flattened spatial axis.
// It is immutable after construction; Reshape and InverseReshape are pure.
type Reshaper struct {
	mask    []bool
	indices []int // positions of the active coordinates in the full axis
}

// New builds a Reshaper from an explicit active mask.
func New(active []bool) *Reshaper {
	mask := append([]bool(nil), active...)
	indices := make([]int, 0, len(mask))
	for i, on := range mask {
		if on {
			indices = append(indices, i)
		}
	}
	return &Reshaper{mask: mask, indices: indices}
}

// FromStd marks a coordinate active when its standard deviation is non-zero.
func FromStd(std []float64) *Reshaper {
	active := make([]bool, len(std))
	for i, s := range std {
		active[i] = s != 0
	}
	return New(active)
}

// Size is the length of the full spatial axis.
func (r *Reshaper) Size() int { return len(r.mask) }

// Active is the number of retained coordinates.
func (r *Reshaper) Active() int { return len(r.indices) }

// Mask returns a copy of the active mask.
func (r *Reshaper) Mask() []bool { return append([]bool(nil), r.mask...) }

// Reshape keeps only the active coordinates of every row of x. x is
// row-major with a last axis of length Size(); any number of leading rows
// (including a single vector) is allowed.
func (r *Reshaper) Reshape(x []float64) ([]float64, error) {
	rows, err := r.Rows(len(x))
	if err != nil {
		return nil, err
	}
	p, q := r.Size(), r.Active()
	out := make([]float64, rows*q)
	for i := 0; i < rows; i++ {
		src := x[i*p : (i+1)*p]
		dst := out[i*q : (i+1)*q]
		for j, idx := range r.indices {
			dst[j] = src[idx]
		}
	}
	return out, nil
}

// InverseReshape scatters rows compacted rows back onto the full spatial
// axis, filling inactive coordinates with zero. The row count is explicit so
// that an all-false mask still restores every row.
func (r *Reshaper) InverseReshape(x []float64, rows int) ([]float64, error) {
	p, q := r.Size(), r.Active()
	if rows < 1 {
		return nil, errors.ShapeMismatch("inverse reshape: %d rows requested", rows)
	}
	if len(x) != rows*q {
		return nil, errors.ShapeMismatch("inverse reshape: %d values do not fill %d rows of %d active coordinates", len(x), rows, q)
	}
	out := make([]float64, rows*p)
	for i := 0; i < rows; i++ {
		src := x[i*q : (i+1)*q]
		dst := out[i*p : (i+1)*p]
		for j, idx := range r.indices {
			dst[idx] = src[j]
		}
	}
	return out, nil
}

// Rows is the number of leading rows in a full-width array of n values.
func (r *Reshaper) Rows(n int) (int, error) {
	return rowCount(n, r.Size(), "reshape")
}

// Coordinate maps the j-th active column to its position on the full axis.
func (r *Reshaper) Coordinate(j int) int { return r.indices[j] }

func rowCount(n, width int, op string) (int, error) {
	if width == 0 {
		if n != 0 {
			return 0, errors.ShapeMismatch("%s: empty spatial axis but %d values given", op, n)
		}
		return 0, nil
	}
	if n == 0 || n%width != 0 {
		return 0, errors.ShapeMismatch("%s: %d values do not tile a last axis of %d", op, n, width)
	}
	return n / width, nil
}
