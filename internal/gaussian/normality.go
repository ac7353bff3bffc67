package gaussian

import (
	"gaussapprox/internal/errors"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Shape summarises how far a sample is from a Gaussian. The composite
// approximation is exact only for jointly Gaussian data, so a heavy tail
// in the index shows up here before it shows up in norm_ratio.
type Shape struct {
	Mean           float64
	Std            float64
	Skewness       float64
	ExcessKurtosis float64
	// JarqueBera is n/6 * (S^2 + K^2/4), asymptotically chi-squared with 2 dof.
	JarqueBera float64
	PValue     float64
}

// Normal reports whether the Jarque-Bera test keeps normality at level alpha.
func (s Shape) Normal(alpha float64) bool {
	return s.PValue > alpha
}

// Normality computes the moment-based shape of x.
func Normality(x []float64) (Shape, error) {
	n := float64(len(x))
	if len(x) < 4 {
		return Shape{}, errors.Degenerate("normality needs at least 4 samples, got %d", len(x))
	}
	mean, std := stat.MeanStdDev(x, nil)
	if std == 0 {
		return Shape{}, errors.Degenerate("normality of a constant sample")
	}

	s := Shape{
		Mean:           mean,
		Std:            std,
		Skewness:       stat.Skew(x, nil),
		ExcessKurtosis: stat.ExKurtosis(x, nil),
	}
	s.JarqueBera = n / 6 * (s.Skewness*s.Skewness + s.ExcessKurtosis*s.ExcessKurtosis/4)
	s.PValue = distuv.ChiSquared{K: 2}.Survival(s.JarqueBera)
	return s, nil
}
