package ledger

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"gaussapprox/domain/climate"
	"gaussapprox/internal/errors"
	"gaussapprox/ports"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.ResultSink = (*Ledger)(nil)

func openMemory(t *testing.T) *Ledger {
	t.Helper()
	ctx := context.Background()
	l, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	require.NoError(t, l.Migrate(ctx))
	return l
}

func result(T, tau int, percent, ratio float64) climate.Result {
	return climate.Result{
		RunID:       "run-1",
		T:           T,
		Tau:         tau,
		Percent:     percent,
		Threshold:   1.5,
		Exceedances: 40,
		Samples:     800,
		SigmaAA:     0.9,
		NormRatio:   ratio,
	}
}

func TestParseDSN(t *testing.T) {
	tests := []struct {
		dsn, driver, source string
	}{
		{"postgres://u:p@localhost/ga?sslmode=disable", "postgres", "postgres://u:p@localhost/ga?sslmode=disable"},
		{"postgresql://localhost/ga", "postgres", "postgresql://localhost/ga"},
		{"sqlite://ERA5/y83/ledger.db", "sqlite", "ERA5/y83/ledger.db"},
		{":memory:", "sqlite", ":memory:"},
		{"ledger.db", "sqlite", "ledger.db"},
	}
	for _, tt := range tests {
		driver, source, err := parseDSN(tt.dsn)
		require.NoError(t, err, tt.dsn)
		assert.Equal(t, tt.driver, driver, tt.dsn)
		assert.Equal(t, tt.source, source, tt.dsn)
	}

	for _, bad := range []string{"", "mysql://localhost/ga"} {
		_, _, err := parseDSN(bad)
		assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err), bad)
	}
}

func TestLedger_RecordAndList(t *testing.T) {
	ctx := context.Background()
	l := openMemory(t)

	in := []climate.Result{
		result(3, 0, 5, 0.2),
		result(1, -1, 50, 0.05),
		result(1, 0, 5, 0.1),
		result(1, 0, 50, 0.03),
	}
	for _, r := range in {
		require.NoError(t, l.Record(ctx, r))
	}

	got, err := l.List(ctx, Filter{})
	require.NoError(t, err)
	want := []climate.Result{in[3], in[2], in[1], in[0]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("List mismatch (-want +got):\n%s", diff)
	}

	got, err = l.List(ctx, Filter{Ts: []int{3}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].T)

	got, err = l.List(ctx, Filter{RunID: "other"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLedger_RecordOverwrites(t *testing.T) {
	ctx := context.Background()
	l := openMemory(t)

	require.NoError(t, l.Record(ctx, result(7, -3, 10, 0.4)))
	rerun := result(7, -3, 10, 0.25)
	rerun.RunID = "run-2"
	require.NoError(t, l.Record(ctx, rerun))

	got, err := l.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rerun, got[0])
}

func TestLedger_Worst(t *testing.T) {
	ctx := context.Background()
	l := openMemory(t)
	for i, ratio := range []float64{0.1, 0.7, 0.3, 0.5} {
		require.NoError(t, l.Record(ctx, result(1, -i, 5, ratio)))
	}

	got, err := l.Worst(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 0.7, got[0].NormRatio)
	assert.Equal(t, 0.5, got[1].NormRatio)

	_, err = l.Worst(ctx, 0)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestLedger_ConcurrentRecord(t *testing.T) {
	ctx := context.Background()
	l := openMemory(t)

	var wg sync.WaitGroup
	for T := 1; T <= 4; T++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tau := 0; tau > -5; tau-- {
				assert.NoError(t, l.Record(ctx, result(T, tau, 10, 0.1)))
			}
		}()
	}
	wg.Wait()

	got, err := l.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 20)
}

func TestLedger_FileDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	l, err := Open(ctx, "sqlite://"+path)
	require.NoError(t, err)
	require.NoError(t, l.Migrate(ctx))
	require.NoError(t, l.Migrate(ctx))
	require.NoError(t, l.Record(ctx, result(14, -30, 1, 0.9)))
	require.NoError(t, l.Close())

	reopened, err := Open(ctx, "sqlite://"+path)
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 14, got[0].T)
}

func TestMigrationRunner_Version(t *testing.T) {
	assert.Equal(t, "1.0.0", NewRunner().Version())
}
