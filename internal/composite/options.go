package composite

import (
	"fmt"

	"gaussapprox/domain/climate"
	"gaussapprox/internal/errors"
)

// Options fixes the parameter grid of a sweep.
type Options struct {
	Window   climate.Window
	Ts       []int
	Taus     []int
	Percents []float64
	// Workers bounds how many horizons are computed at once. 1 keeps the
	// strictly sequential T, tau, percent order.
	Workers int
	// RunID tags every result row; a random one is assigned when empty.
	RunID string
}

// DefaultOptions is the ERA5 summer sweep: June 1 to September 1 inside a
// May-August year, five horizons, look-back lags 0..30 days, seven tails.
func DefaultOptions() Options {
	taus := make([]int, 31)
	for i := range taus {
		taus[i] = -i
	}
	return Options{
		Window:   climate.Window{Start: 31, End: 123},
		Ts:       []int{1, 3, 7, 14, 30},
		Taus:     taus,
		Percents: []float64{50, 25, 10, 5, 3, 2, 1},
		Workers:  1,
	}
}

// Validate rejects grids the sweep cannot run.
func (o Options) Validate() error {
	if len(o.Ts) == 0 || len(o.Taus) == 0 || len(o.Percents) == 0 {
		return errors.ConfigInvalid("sweep needs at least one T, one tau and one percent")
	}
	if o.Window.Start < 0 || o.Window.End <= o.Window.Start {
		return errors.ConfigInvalid(fmt.Sprintf("invalid window [%d, %d)", o.Window.Start, o.Window.End))
	}
	for _, T := range o.Ts {
		if T < 1 {
			return errors.ConfigInvalid(fmt.Sprintf("horizon T must be >= 1, got %d", T))
		}
		if o.Window.Days(T) < 1 {
			return errors.ConfigInvalid(fmt.Sprintf("window [%d, %d) is shorter than T=%d", o.Window.Start, o.Window.End, T))
		}
	}
	for _, tau := range o.Taus {
		if o.Window.Start+tau < 0 {
			return errors.ConfigInvalid(fmt.Sprintf("lag tau=%d reaches before day 0 of the year", tau))
		}
	}
	for _, p := range o.Percents {
		if !(p > 0 && p <= 100) {
			return errors.ConfigInvalid(fmt.Sprintf("percent must be in (0, 100], got %g", p))
		}
	}
	if o.Workers < 1 {
		return errors.ConfigInvalid(fmt.Sprintf("workers must be >= 1, got %d", o.Workers))
	}
	return nil
}
