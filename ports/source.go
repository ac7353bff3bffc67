package ports

import (
	"gaussapprox/domain/climate"
)

// Source supplies the composite engine with its inputs: the grid, the
// per-horizon scalar index A and the lagged design matrix X.
type Source interface {
	// Grid returns the latitude and longitude coordinate vectors.
	Grid() (lat, lon []float64)
	// SpatialShape returns the shape of one map, e.g. (lat, lon).
	SpatialShape() []int
	// Target returns A for the window and horizon T.
	Target(window climate.Window, T int) (*climate.Target, error)
	// Design returns X for the window, horizon T and lag tau, aligned with Target.
	Design(window climate.Window, T, tau int) (*climate.Design, error)
}
