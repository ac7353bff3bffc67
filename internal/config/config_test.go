package config

import (
	"os"
	"path/filepath"
	"testing"

	"gaussapprox/domain/climate"
	"gaussapprox/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"GA_OUTPUT_ROOT", "GA_WORKERS", "GA_LOG_LEVEL", "GA_SWEEP_FILE", "GA_YEAR_FROM", "GA_YEAR_TO"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ERA5/y83", cfg.Paths.OutputRoot)
	assert.Equal(t, "z", cfg.Paths.FieldVar)
	assert.Equal(t, climate.Window{Start: 31, End: 123}, cfg.Sweep.Window)
	assert.Equal(t, []int{1, 3, 7, 14, 30}, cfg.Sweep.Ts)
	assert.Len(t, cfg.Sweep.Taus, 31)
	assert.Equal(t, -30, cfg.Sweep.Taus[30])
	assert.Equal(t, []float64{50, 25, 10, 5, 3, 2, 1}, cfg.Sweep.Percents)
	assert.Equal(t, 1, cfg.Runtime.Workers)
	assert.Equal(t, 1940, cfg.Reduce.YearFrom)
	assert.Equal(t, 2022, cfg.Reduce.YearTo)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("GA_OUTPUT_ROOT", "/tmp/out")
	t.Setenv("GA_WORKERS", "4")
	t.Setenv("GA_LOG_LEVEL", "debug")
	t.Setenv("GA_LEDGER_DSN", ":memory:")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out", cfg.Paths.OutputRoot)
	assert.Equal(t, 4, cfg.Options().Workers)
	assert.Equal(t, "debug", cfg.Runtime.LogLevel)
	assert.Equal(t, ":memory:", cfg.Paths.LedgerDSN)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"GA_WORKERS":   "many",
		"GA_LOG_LEVEL": "verbose",
		"GA_YEAR_TO":   "1900",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}

	t.Run("zero workers", func(t *testing.T) {
		t.Setenv("GA_WORKERS", "0")
		_, err := Load()
		assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
	})
}

func TestLoadSweepFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
time_start: 10
time_end: 50
Ts: [1, 3]
taus: [0, -1, -2]
`), 0o644))

	sweep, err := LoadSweepFile(path)
	require.NoError(t, err)
	assert.Equal(t, climate.Window{Start: 10, End: 50}, sweep.Window)
	assert.Equal(t, []int{1, 3}, sweep.Ts)
	assert.Equal(t, []int{0, -1, -2}, sweep.Taus)
	assert.Equal(t, []float64{50, 25, 10, 5, 3, 2, 1}, sweep.Percents)

	t.Setenv("GA_SWEEP_FILE", path)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Options().Window.Start)
}

func TestLoadSweepFile_Errors(t *testing.T) {
	_, err := LoadSweepFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Equal(t, errors.CodeMissingInput, errors.GetCode(err))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Ts: [one]\n"), 0o644))
	_, err = LoadSweepFile(path)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))

	// A window too short for T=30 is rejected by Load.
	short := filepath.Join(t.TempDir(), "short.yaml")
	require.NoError(t, os.WriteFile(short, []byte("time_start: 31\ntime_end: 40\n"), 0o644))
	t.Setenv("GA_SWEEP_FILE", short)
	_, err = Load()
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}
