package gaussian

import (
	"math"
	"testing"

	"gaussapprox/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestEta_AtZero(t *testing.T) {
	v, err := Eta(0)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(2/math.Pi), v, 1e-15)
}

// eta is a scaled Gaussian hazard rate: it grows with x and approaches sqrt(2)*x.
func TestEta_IncreasingOnPositiveAxis(t *testing.T) {
	prev, err := Eta(0)
	require.NoError(t, err)
	for x := 0.05; x <= 5; x += 0.05 {
		v, err := Eta(x)
		require.NoError(t, err)
		assert.Greater(t, v, prev, "eta should increase at x=%.2f", x)
		prev = v
	}

	v, err := Eta(20)
	require.NoError(t, err)
	assert.InEpsilon(t, math.Sqrt2*20, v, 0.01)
}

// erfc(x) = 2 * P(Z > x*sqrt(2)) for a unit normal Z.
func TestEta_MatchesNormalSurvival(t *testing.T) {
	for _, x := range []float64{-1.5, -0.3, 0.4, 1.1, 2.7} {
		v, err := Eta(x)
		require.NoError(t, err)
		want := math.Sqrt(2/math.Pi) * math.Exp(-x*x) / (2 * distuv.UnitNormal.Survival(x*math.Sqrt2))
		assert.InEpsilon(t, want, v, 1e-9, "x=%g", x)
	}
}

func TestEta_OverflowSurfaces(t *testing.T) {
	_, err := Eta(40)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeNumericalOverflow))
}

func TestComposite(t *testing.T) {
	sigmaXA := []float64{0.5, -0.25, 0}
	got, err := Composite(sigmaXA, 0, 4)
	require.NoError(t, err)

	scale := math.Sqrt(2/math.Pi) / 2
	assert.InDeltaSlice(t, []float64{0.5 * scale, -0.25 * scale, 0}, got, 1e-12)

	_, err = Composite(sigmaXA, 1, 0)
	assert.True(t, errors.HasCode(err, errors.CodeDegenerate))

	_, err = Composite(sigmaXA, 100, 1)
	assert.True(t, errors.HasCode(err, errors.CodeNumericalOverflow))
}

func TestNormRatio(t *testing.T) {
	r, err := NormRatio([]float64{3, 4}, []float64{3, 0})
	require.NoError(t, err)
	assert.InDelta(t, 4.0/3.0, r, 1e-12)

	r, err = NormRatio([]float64{1, 2}, []float64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 0.0, r)

	_, err = NormRatio([]float64{1}, []float64{0})
	assert.True(t, errors.HasCode(err, errors.CodeDegenerate))

	_, err = NormRatio([]float64{1}, []float64{1, 2})
	assert.True(t, errors.HasCode(err, errors.CodeShapeMismatch))
}

func TestL2(t *testing.T) {
	assert.Equal(t, 5.0, L2([]float64{3, 4}))
	assert.Equal(t, 0.0, L2(nil))
}
