package gaussian

import (
	"math"
	"math/rand/v2"
	"testing"

	"gaussapprox/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestNormality_GaussianSample(t *testing.T) {
	norm := distuv.Normal{Mu: 2, Sigma: 3, Src: rand.NewPCG(1, 2)}
	x := make([]float64, 20000)
	for i := range x {
		x[i] = norm.Rand()
	}

	s, err := Normality(x)
	require.NoError(t, err)
	assert.InDelta(t, 2, s.Mean, 0.1)
	assert.InDelta(t, 3, s.Std, 0.1)
	assert.InDelta(t, 0, s.Skewness, 0.1)
	assert.InDelta(t, 0, s.ExcessKurtosis, 0.2)
	assert.True(t, s.Normal(0.001))
}

func TestNormality_SkewedSample(t *testing.T) {
	exp := distuv.Exponential{Rate: 1, Src: rand.NewPCG(3, 4)}
	x := make([]float64, 5000)
	for i := range x {
		x[i] = exp.Rand()
	}

	s, err := Normality(x)
	require.NoError(t, err)
	assert.InDelta(t, 2, s.Skewness, 0.4)
	assert.False(t, s.Normal(0.05))
	assert.Less(t, s.PValue, 1e-6)
	assert.False(t, math.IsNaN(s.JarqueBera))
}

func TestNormality_Degenerate(t *testing.T) {
	_, err := Normality([]float64{1, 2})
	assert.Equal(t, errors.CodeDegenerate, errors.GetCode(err))

	_, err = Normality([]float64{4, 4, 4, 4, 4})
	assert.Equal(t, errors.CodeDegenerate, errors.GetCode(err))
}
