package npy

import (
	"bytes"
	"testing"

	"gaussapprox/domain/artifact"

	"github.com/sbinet/npyio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, arr artifact.Array) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, arr))
	return buf.Bytes()
}

func TestWrite_HeaderAlignment(t *testing.T) {
	for _, arr := range []artifact.Array{
		artifact.Scalar(1.5),
		artifact.Vector([]float64{1, 2, 3}),
		artifact.Shaped([]int{2, 3}, []float64{1, 2, 3, 4, 5, 6}),
		artifact.Mask([]int{2, 2}, []bool{true, false, false, true}),
	} {
		b := encode(t, arr)
		hlen := int(b[8]) | int(b[9])<<8
		assert.Equal(t, 0, (10+hlen)%64, "shape %v", arr.Shape)
		assert.Equal(t, byte('\n'), b[10+hlen-1])
	}
}

func TestWrite_ShapeLiterals(t *testing.T) {
	assert.Contains(t, string(encode(t, artifact.Scalar(0))), "'shape': ()")
	assert.Contains(t, string(encode(t, artifact.Vector([]float64{1}))), "'shape': (1,)")
	assert.Contains(t, string(encode(t, artifact.Shaped([]int{1, 2}, []float64{1, 2}))), "'shape': (1, 2)")
	assert.Contains(t, string(encode(t, artifact.Mask([]int{1}, []bool{true}))), "'descr': '|b1'")
}

func TestRoundTrip(t *testing.T) {
	in := artifact.Shaped([]int{2, 2}, []float64{1.25, -3, 0, 1e-300})
	out, err := Read(bytes.NewReader(encode(t, in)))
	require.NoError(t, err)
	assert.Equal(t, in.Shape, out.Shape)
	assert.Equal(t, in.Float, out.Float)

	mask := artifact.Mask([]int{3}, []bool{false, true, true})
	out, err = Read(bytes.NewReader(encode(t, mask)))
	require.NoError(t, err)
	assert.Equal(t, artifact.Bool, out.Dtype)
	assert.Equal(t, mask.Bool, out.Bool)

	out, err = Read(bytes.NewReader(encode(t, artifact.Scalar(2.5))))
	require.NoError(t, err)
	assert.Equal(t, []int{}, out.Shape)
	assert.Equal(t, []float64{2.5}, out.Float)
}

func TestWrite_Deterministic(t *testing.T) {
	arr := artifact.Shaped([]int{3, 1}, []float64{0.1, 0.2, 0.3})
	assert.Equal(t, encode(t, arr), encode(t, arr))
}

func TestWrite_RejectsBadShape(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, artifact.Array{Dtype: artifact.Float64, Shape: []int{4}, Float: []float64{1}})
	assert.Error(t, err)
}

func TestRead_RejectsGarbage(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("not a numpy file at all")))
	assert.Error(t, err)
}

// Files must be readable by a stock NumPy-format reader.
func TestInterop_Npyio(t *testing.T) {
	in := artifact.Shaped([]int{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	r, err := npyio.NewReader(bytes.NewReader(encode(t, in)))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, r.Header.Descr.Shape)
	assert.False(t, r.Header.Descr.Fortran)

	var got []float64
	require.NoError(t, r.Read(&got))
	assert.Equal(t, in.Float, got)

	mask := artifact.Mask([]int{2, 2}, []bool{true, false, true, true})
	var bools []bool
	require.NoError(t, npyio.Read(bytes.NewReader(encode(t, mask)), &bools))
	assert.Equal(t, mask.Bool, bools)
}
