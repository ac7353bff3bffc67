package excel

import (
	"path/filepath"
	"strconv"
	"testing"

	"gaussapprox/domain/climate"
	"gaussapprox/internal/errors"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleResults() []climate.Result {
	var out []climate.Result
	for _, T := range []int{1, 7} {
		for _, tau := range []int{0, -1} {
			for _, p := range []float64{50, 2.5} {
				out = append(out, climate.Result{
					RunID: "run-1", T: T, Tau: tau, Percent: p,
					Threshold: 1.25, Exceedances: 10, Samples: 400, SigmaAA: 0.5,
					NormRatio: float64(T) + float64(-tau)/10 + p/1000,
				})
			}
		}
	}
	return out
}

func TestWriteSummary_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.xlsx")
	in := sampleResults()
	require.NoError(t, WriteSummary(path, in))

	got, err := ReadSummary(path)
	require.NoError(t, err)
	if diff := cmp.Diff(in, got); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteSummary_PivotSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.xlsx")
	require.NoError(t, WriteSummary(path, sampleResults()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"results", "T1", "T7"}, f.GetSheetList())

	rows, err := f.GetRows("T7", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"tau \\ percent", "50", "2.5"}, rows[0])
	assert.Equal(t, "0", rows[1][0])
	assert.Equal(t, "-1", rows[2][0])
	v, err := strconv.ParseFloat(rows[1][1], 64)
	require.NoError(t, err)
	assert.InDelta(t, 7.05, v, 1e-12)
}

func TestWriteSummary_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.xlsx")
	require.NoError(t, WriteSummary(path, sampleResults()))
	require.NoError(t, WriteSummary(path, sampleResults()[:1]))

	got, err := ReadSummary(path)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestReadSummary_Missing(t *testing.T) {
	_, err := ReadSummary(filepath.Join(t.TempDir(), "absent.xlsx"))
	assert.Equal(t, errors.CodeMissingInput, errors.GetCode(err))
}
