package testkit

import (
	"math/rand/v2"

	"gaussapprox/domain/climate"

	"gonum.org/v1/gonum/stat/distuv"
)

// GaussianConfig describes a synthetic field that satisfies the Gaussian
// approximation exactly: the daily index a is i.i.d. N(0, 1) and every
// grid point is X_j = Beta_j * a + Noise * eps_j with independent eps_j.
type GaussianConfig struct {
	Years       int
	DaysPerYear int
	NLat        int
	NLon        int
	Noise       float64
	// Beta holds one coupling per grid point; when empty a ramp in [0.5, 1.5] is used.
	Beta []float64
	// Masked grid points are held at zero, like land-sea masked cells.
	Masked []int
	Seed   uint64
}

// DefaultGaussianConfig is large enough for the approximation error to be
// well below 10% at the 5% threshold.
func DefaultGaussianConfig() GaussianConfig {
	return GaussianConfig{
		Years:       200,
		DaysPerYear: 60,
		NLat:        3,
		NLon:        4,
		Noise:       1,
		Masked:      []int{0, 7},
		Seed:        42,
	}
}

// GaussianField generates a field and its index under cfg.
func GaussianField(cfg GaussianConfig) (*climate.Field, *climate.Index) {
	p := cfg.NLat * cfg.NLon
	beta := cfg.Beta
	if len(beta) == 0 {
		beta = make([]float64, p)
		for j := range beta {
			beta[j] = 0.5
			if p > 1 {
				beta[j] += float64(j) / float64(p-1)
			}
		}
	}
	masked := make(map[int]bool, len(cfg.Masked))
	for _, j := range cfg.Masked {
		masked[j] = true
	}

	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)}

	n := cfg.Years * cfg.DaysPerYear
	index := &climate.Index{Name: "synthetic_index", Years: cfg.Years, DaysPerYear: cfg.DaysPerYear, Values: make([]float64, n)}
	field := &climate.Field{
		Name:        "synthetic_field",
		Lat:         axis(cfg.NLat, 60, -5),
		Lon:         axis(cfg.NLon, -10, 5),
		Years:       cfg.Years,
		DaysPerYear: cfg.DaysPerYear,
		Values:      make([]float64, n*p),
	}

	for i := 0; i < n; i++ {
		a := norm.Rand()
		index.Values[i] = a
		row := field.Values[i*p : (i+1)*p]
		for j := range row {
			if masked[j] {
				continue
			}
			row[j] = beta[j]*a + cfg.Noise*norm.Rand()
		}
	}
	return field, index
}

func axis(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}
