// Package gaussian holds the closed-form Gaussian approximation of an
// extreme-event composite and the error measure used to validate it.
package gaussian

import (
	"math"

	"gaussapprox/internal/errors"

	"gonum.org/v1/gonum/floats"
)

// Eta converts a Gaussian tail exceedance into the expected-value-above-
// threshold factor:
//
//	eta(x) = sqrt(2/pi) * exp(-x^2) / erfc(x)
//
// The formula is evaluated as written. For large x both exp(-x^2) and
// erfc(x) underflow; any non-finite result is returned as a
// NUMERICAL_OVERFLOW error instead of leaking NaN or Inf downstream.
func Eta(x float64) (float64, error) {
	den := math.Erfc(x)
	if den == 0 {
		return 0, errors.NumericalOverflow("eta(%g): erfc underflows to zero", x)
	}
	v := math.Sqrt(2/math.Pi) * math.Exp(-x*x) / den
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.NumericalOverflow("eta(%g) is not finite", x)
	}
	return v, nil
}

// L2 is the Euclidean norm sqrt(sum(v^2)).
func L2(v []float64) float64 {
	return floats.Norm(v, 2)
}

// Composite is the Gaussian-approximation composite
//
//	Sigma_XA * eta(threshold / sqrt(2 Sigma_AA)) / sqrt(Sigma_AA)
//
// evaluated elementwise over the active coordinates.
func Composite(sigmaXA []float64, threshold, sigmaAA float64) ([]float64, error) {
	if !(sigmaAA > 0) {
		return nil, errors.Degenerate("Sigma_AA must be positive, got %g", sigmaAA)
	}
	e, err := Eta(threshold / math.Sqrt(2*sigmaAA))
	if err != nil {
		return nil, errors.Wrapf(err, "gaussian composite at threshold %g", threshold)
	}
	return floats.ScaleTo(make([]float64, len(sigmaXA)), e/math.Sqrt(sigmaAA), sigmaXA), nil
}

// NormRatio is |approx - empirical| / |empirical| in the L2 norm.
func NormRatio(approx, empirical []float64) (float64, error) {
	if len(approx) != len(empirical) {
		return 0, errors.ShapeMismatch("norm ratio: %d vs %d coordinates", len(approx), len(empirical))
	}
	den := L2(empirical)
	if den == 0 {
		return 0, errors.Degenerate("norm ratio: empirical composite has zero norm")
	}
	diff := floats.SubTo(make([]float64, len(approx)), approx, empirical)
	return L2(diff) / den, nil
}
