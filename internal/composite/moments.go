package composite

import (
	"strconv"

	"gaussapprox/internal/errors"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// columnMoments returns the per-column population mean and standard
// deviation (ddof=0) of a rows x cols row-major matrix.
func columnMoments(values []float64, rows, cols int) (mean, std []float64, err error) {
	if rows < 1 || cols < 1 || len(values) != rows*cols {
		return nil, nil, errors.ShapeMismatch("moments of a %dx%d matrix holding %d values", rows, cols, len(values))
	}
	m := mat.NewDense(rows, cols, values)
	mean = make([]float64, cols)
	std = make([]float64, cols)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, m)
		mean[j], std[j] = stat.PopMeanStdDev(col, nil)
	}
	return mean, std, nil
}

// standardize rewrites x in place as (x - mean) / std per column. coord
// maps a column back to its grid point for error reporting.
func standardize(x []float64, mean, std []float64, coord func(int) int) error {
	q := len(mean)
	for j, s := range std {
		if s == 0 {
			return errors.Degenerate("grid point %d (active column %d) has zero standard deviation; the degeneracy pattern differs from the one the reshaper was built on", coord(j), j)
		}
	}
	for i := 0; i < len(x); i += q {
		row := x[i : i+q]
		for j := range row {
			row[j] = (row[j] - mean[j]) / std[j]
		}
	}
	return nil
}

// crossCovariance is Sigma_XA[j] = mean_i(X[i, j] * A[i]) with A taken raw.
func crossCovariance(x []float64, rows, cols int, a []float64) []float64 {
	xm := mat.NewDense(rows, cols, x)
	var out mat.VecDense
	out.MulVec(xm.T(), mat.NewVecDense(rows, a))
	out.ScaleVec(1/float64(rows), &out)
	return out.RawVector().Data
}

// selectRows copies the rows of x flagged in mask.
func selectRows(x []float64, cols int, mask []bool) ([]float64, int) {
	var out []float64
	n := 0
	for i, keep := range mask {
		if keep {
			out = append(out, x[i*cols:(i+1)*cols]...)
			n++
		}
	}
	return out, n
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
