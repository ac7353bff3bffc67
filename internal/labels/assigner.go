package labels

import (
	"gaussapprox/domain/climate"
	"gaussapprox/internal/errors"
)

// Assigner pairs a gridded field with its area-integrated index and serves
// both to the composite engine.
type Assigner struct {
	field *climate.Field
	index *climate.Index
}

// NewAssigner checks that field and index cover the same years and days.
func NewAssigner(field *climate.Field, index *climate.Index) (*Assigner, error) {
	if err := field.Validate(); err != nil {
		return nil, err
	}
	if err := index.Validate(); err != nil {
		return nil, err
	}
	if field.Years != index.Years || field.DaysPerYear != index.DaysPerYear {
		return nil, errors.ShapeMismatch("field %q is %dx%d (years x days) but index %q is %dx%d",
			field.Name, field.Years, field.DaysPerYear, index.Name, index.Years, index.DaysPerYear)
	}
	return &Assigner{field: field, index: index}, nil
}

// Grid returns the latitude and longitude vectors of the field.
func (a *Assigner) Grid() (lat, lon []float64) {
	return a.field.Lat, a.field.Lon
}

// SpatialShape returns (lat, lon).
func (a *Assigner) SpatialShape() []int {
	return a.field.SpatialShape()
}

// Target returns the running-mean index for T.
func (a *Assigner) Target(window climate.Window, T int) (*climate.Target, error) {
	return TimeAverage(a.index, window, T)
}

// Design returns the lagged field for (T, tau).
func (a *Assigner) Design(window climate.Window, T, tau int) (*climate.Design, error) {
	return Lagged(a.field, window, T, tau)
}
