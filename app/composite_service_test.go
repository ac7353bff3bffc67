package app

import (
	"context"
	"path/filepath"
	"testing"

	"gaussapprox/adapters/excel"
	"gaussapprox/adapters/ledger"
	"gaussapprox/domain/climate"
	"gaussapprox/internal/artifacts"
	"gaussapprox/internal/composite"
	"gaussapprox/internal/errors"
	"gaussapprox/internal/labels"
	"gaussapprox/internal/logger"
	"gaussapprox/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompositeService_RunSweep(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	field, index := testkit.GaussianField(testkit.DefaultGaussianConfig())
	src, err := labels.NewAssigner(field, index)
	require.NoError(t, err)
	store, err := artifacts.NewLocalStore(filepath.Join(dir, "out"))
	require.NoError(t, err)
	l, err := ledger.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer l.Close()
	require.NoError(t, l.Migrate(ctx))

	svc := NewCompositeService(store, l, logger.NewNop())
	report := filepath.Join(dir, "summary.xlsx")
	res, err := svc.RunSweep(ctx, SweepRequest{
		Source: src,
		Options: composite.Options{
			Window:   climate.Window{Start: 5, End: 55},
			Ts:       []int{1, 3},
			Taus:     []int{0, -5},
			Percents: []float64{10, 5},
			Workers:  2,
			RunID:    "svc-run",
		},
		ReportFile: report,
	})
	require.NoError(t, err)
	assert.Equal(t, "svc-run", res.RunID)
	assert.Len(t, res.Results, 8)

	stored, err := l.List(ctx, ledger.Filter{RunID: "svc-run"})
	require.NoError(t, err)
	assert.Equal(t, res.Results, stored)

	summary, err := excel.ReadSummary(report)
	require.NoError(t, err)
	assert.Equal(t, res.Results, summary)
}

func TestCompositeService_InvalidOptions(t *testing.T) {
	field, index := testkit.GaussianField(testkit.DefaultGaussianConfig())
	src, err := labels.NewAssigner(field, index)
	require.NoError(t, err)
	store, err := artifacts.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	svc := NewCompositeService(store, nil, nil)
	_, err = svc.RunSweep(context.Background(), SweepRequest{Source: src, Options: composite.Options{}})
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}
