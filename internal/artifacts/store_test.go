package artifacts

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"gaussapprox/domain/artifact"
	"gaussapprox/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	arr := artifact.Shaped([]int{2, 2}, []float64{1, 2, 3, 4})
	require.NoError(t, store.Save(ctx, "T7/tau3/X_mean", arr))

	_, err = os.Stat(filepath.Join(store.Root(), "T7", "tau3", "X_mean.npy"))
	require.NoError(t, err)

	got, err := store.Load(ctx, "T7/tau3/X_mean")
	require.NoError(t, err)
	assert.Equal(t, arr.Shape, got.Shape)
	assert.Equal(t, arr.Float, got.Float)

	ok, err := store.Exists(ctx, "T7/tau3/X_mean")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Exists(ctx, "T7/tau3/X_std")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalStore_OverwriteIsByteIdentical(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	arr := artifact.Vector([]float64{0.1, 0.2})
	require.NoError(t, store.Save(ctx, "lon", arr))
	first, err := os.ReadFile(filepath.Join(store.Root(), "lon.npy"))
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "lon", arr))
	second, err := os.ReadFile(filepath.Join(store.Root(), "lon.npy"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLocalStore_List(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"T1/A", "T1/Sigma_AA", "T3/A", "lat"} {
		require.NoError(t, store.Save(ctx, key, artifact.Scalar(1)))
	}

	keys, err := store.List(ctx, "T1/")
	require.NoError(t, err)
	assert.Equal(t, []string{"T1/A", "T1/Sigma_AA"}, keys)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestLocalStore_MissingKey(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "T1/A")
	assert.True(t, errors.HasCode(err, errors.CodeMissingInput))
}

func TestLocalStore_WriteFailure(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root)
	require.NoError(t, err)

	// A regular file where a directory is needed.
	require.NoError(t, os.WriteFile(filepath.Join(root, "T1"), []byte("x"), 0644))
	err = store.Save(context.Background(), "T1/A", artifact.Scalar(1))
	assert.True(t, errors.HasCode(err, errors.CodeWriteFailure))
}
