// Package labels turns a daily field and its scalar index into the arrays the
// composite engine consumes: the running-mean index A for a horizon T, the
// lagged design matrix X and the upper-tail exceedance mask.
package labels

import (
	"fmt"
	"math"
	"sort"

	"gaussapprox/domain/climate"
	"gaussapprox/internal/errors"

	"gonum.org/v1/gonum/floats"
)

// TimeAverage computes A[y, d] = mean(a[y, Start+d : Start+d+T]) for
// d in [0, window.Days(T)), i.e. a "valid" running mean inside the window.
func TimeAverage(idx *climate.Index, window climate.Window, T int) (*climate.Target, error) {
	if err := idx.Validate(); err != nil {
		return nil, err
	}
	if err := checkWindow(window, T, idx.DaysPerYear); err != nil {
		return nil, err
	}

	days := window.Days(T)
	out := &climate.Target{Years: idx.Years, Days: days, Values: make([]float64, idx.Years*days)}
	for y := 0; y < idx.Years; y++ {
		series := idx.Values[y*idx.DaysPerYear : (y+1)*idx.DaysPerYear]
		for d := 0; d < days; d++ {
			start := window.Start + d
			out.Values[y*days+d] = floats.Sum(series[start:start+T]) / float64(T)
		}
	}
	return out, nil
}

// Lagged builds X[y, d] = field[y, Start+d+tau] for d in [0, window.Days(T)),
// so that row (y, d) of X lines up with A[y, d]. Negative tau looks back.
func Lagged(field *climate.Field, window climate.Window, T, tau int) (*climate.Design, error) {
	if err := field.Validate(); err != nil {
		return nil, err
	}
	if err := checkWindow(window, T, field.DaysPerYear); err != nil {
		return nil, err
	}

	days := window.Days(T)
	first, last := window.Start+tau, window.Start+days-1+tau
	if first < 0 || last >= field.DaysPerYear {
		return nil, errors.ShapeMismatch("lag tau=%d reaches day %d..%d outside [0, %d)", tau, first, last, field.DaysPerYear)
	}

	p := field.SpatialSize()
	out := &climate.Design{Years: field.Years, Days: days, Spatial: p, Values: make([]float64, field.Years*days*p)}
	for y := 0; y < field.Years; y++ {
		for d := 0; d < days; d++ {
			copy(out.Row(y*days+d), field.At(y, first+d))
		}
	}
	return out, nil
}

// OverThreshold marks the upper percent% of a. With k = round(n*percent/100)
// clamped to [1, n], the threshold is the k-th largest value and the mask is
// a >= threshold, so ties at the threshold are all included.
func OverThreshold(a []float64, percent float64) ([]bool, float64, error) {
	if len(a) == 0 {
		return nil, 0, errors.Degenerate("threshold of an empty series")
	}
	if !(percent > 0 && percent <= 100) {
		return nil, 0, errors.InvalidInput(fmt.Sprintf("percent must be in (0, 100], got %g", percent))
	}
	if floats.HasNaN(a) {
		return nil, 0, errors.Degenerate("threshold of a series containing NaN")
	}

	k := int(math.Round(float64(len(a)) * percent / 100))
	if k < 1 {
		k = 1
	}
	if k > len(a) {
		k = len(a)
	}

	sorted := append([]float64(nil), a...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	threshold := sorted[k-1]

	mask := make([]bool, len(a))
	for i, v := range a {
		mask[i] = v >= threshold
	}
	return mask, threshold, nil
}

func checkWindow(window climate.Window, T, daysPerYear int) error {
	if T < 1 {
		return errors.InvalidInput(fmt.Sprintf("horizon T must be >= 1, got %d", T))
	}
	if window.Start < 0 || window.End > daysPerYear || window.Start >= window.End {
		return errors.ShapeMismatch("window [%d, %d) does not fit %d days per year", window.Start, window.End, daysPerYear)
	}
	if window.Days(T) < 1 {
		return errors.ShapeMismatch("window [%d, %d) is shorter than T=%d", window.Start, window.End, T)
	}
	return nil
}
