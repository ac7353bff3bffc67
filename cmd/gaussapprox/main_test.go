package main

import (
	"os"
	"path/filepath"
	"testing"

	"gaussapprox/adapters/excel"
	"gaussapprox/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSweep(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "sweep.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
time_start: 10
time_end: 40
Ts: [1]
taus: [0, -2]
percents: [10]
`), 0o644))
	return path
}

func TestSynthCommand_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	report := filepath.Join(dir, "summary.xlsx")

	cmd := newRootCmd()
	cmd.SetArgs([]string{
		"synth",
		"--output", dir,
		"--sweep", writeSweep(t, dir),
		"--ledger", "sqlite://" + filepath.Join(dir, "ledger.db"),
		"--report", report,
		"--log-level", "error",
		"--years", "30",
		"--nlat", "2",
		"--nlon", "3",
	})
	require.NoError(t, cmd.Execute())

	for _, key := range []string{"lat", "lon", "T1/A", "T1/tau2/X_std", "T1/tau0/percent10/norm_ratio"} {
		_, err := os.Stat(filepath.Join(dir, "synth", "artifacts", key+".npy"))
		assert.NoError(t, err, key)
	}

	results, err := excel.ReadSummary(report)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Less(t, r.NormRatio, 0.5)
	}

	reportCmd := newRootCmd()
	rebuilt := filepath.Join(dir, "rebuilt.xlsx")
	reportCmd.SetArgs([]string{
		"report",
		"--ledger", "sqlite://" + filepath.Join(dir, "ledger.db"),
		"--report", rebuilt,
		"--log-level", "error",
		"--worst", "1",
	})
	require.NoError(t, reportCmd.Execute())
	again, err := excel.ReadSummary(rebuilt)
	require.NoError(t, err)
	assert.Equal(t, results, again)
}

func TestRootCommand_InvalidFlags(t *testing.T) {
	t.Chdir(t.TempDir())

	cmd := newRootCmd()
	cmd.SetArgs([]string{"report", "--workers", "0"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))

	cmd = newRootCmd()
	cmd.SetArgs([]string{"report", "--log-level", "error"})
	t.Setenv("GA_LEDGER_DSN", "")
	err = cmd.Execute()
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}
