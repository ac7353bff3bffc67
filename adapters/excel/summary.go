package excel

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"strconv"

	"gaussapprox/domain/climate"
	"gaussapprox/internal/errors"

	"github.com/xuri/excelize/v2"
)

// ResultsSheet holds one row per composite.
const ResultsSheet = "results"

var resultHeader = []interface{}{
	"run_id", "T", "tau", "percent", "threshold", "exceedances", "samples", "Sigma_AA", "norm_ratio",
}

// WriteSummary writes the results sheet plus one pivot sheet per horizon
// (rows tau, columns percent, cells norm_ratio) to path.
func WriteSummary(path string, results []climate.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ResultsSheet); err != nil {
		return errors.WriteFailure(path, err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.WriteFailure(path, err)
	}

	if err := f.SetSheetRow(ResultsSheet, "A1", &resultHeader); err != nil {
		return errors.WriteFailure(path, err)
	}
	for i, r := range results {
		row := []interface{}{r.RunID, r.T, r.Tau, r.Percent, r.Threshold, r.Exceedances, r.Samples, r.SigmaAA, r.NormRatio}
		if err := f.SetSheetRow(ResultsSheet, "A"+strconv.Itoa(i+2), &row); err != nil {
			return errors.WriteFailure(path, err)
		}
	}
	if err := f.SetRowStyle(ResultsSheet, 1, 1, bold); err != nil {
		return errors.WriteFailure(path, err)
	}

	for _, p := range pivots(results) {
		if err := p.write(f, bold); err != nil {
			return errors.WriteFailure(path, err)
		}
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.WriteFailure(path, err)
	}
	if err := f.SaveAs(path); err != nil {
		return errors.WriteFailure(path, err)
	}
	return nil
}

// pivot is the tau x percent norm_ratio table of one horizon.
type pivot struct {
	T        int
	taus     []int
	percents []float64
	ratio    map[climate.Key]float64
}

func pivots(results []climate.Result) []*pivot {
	byT := map[int]*pivot{}
	var order []int
	for _, r := range results {
		p, ok := byT[r.T]
		if !ok {
			p = &pivot{T: r.T, ratio: map[climate.Key]float64{}}
			byT[r.T] = p
			order = append(order, r.T)
		}
		if !slices.Contains(p.taus, r.Tau) {
			p.taus = append(p.taus, r.Tau)
		}
		if !slices.Contains(p.percents, r.Percent) {
			p.percents = append(p.percents, r.Percent)
		}
		p.ratio[r.Key()] = r.NormRatio
	}

	sort.Ints(order)
	out := make([]*pivot, 0, len(order))
	for _, T := range order {
		p := byT[T]
		sort.Sort(sort.Reverse(sort.IntSlice(p.taus)))
		sort.Sort(sort.Reverse(sort.Float64Slice(p.percents)))
		out = append(out, p)
	}
	return out
}

func (p *pivot) sheet() string {
	return climate.Key{T: p.T}.HorizonDir()
}

func (p *pivot) write(f *excelize.File, headerStyle int) error {
	sheet := p.sheet()
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	header := []interface{}{"tau \\ percent"}
	for _, pc := range p.percents {
		header = append(header, climate.FormatPercent(pc))
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return err
	}

	for i, tau := range p.taus {
		row := []interface{}{tau}
		for _, pc := range p.percents {
			if v, ok := p.ratio[climate.Key{T: p.T, Tau: tau, Percent: pc}]; ok {
				row = append(row, v)
			} else {
				row = append(row, nil)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// ReadSummary reads the results sheet back.
func ReadSummary(path string) ([]climate.Result, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.MissingInput(path, err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	rows, err := f.GetRows(ResultsSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %s", ResultsSheet)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	results := make([]climate.Result, 0, len(rows)-1)
	for i, row := range rows[1:] {
		r, err := parseRow(row)
		if err != nil {
			return nil, errors.WithCode(errors.CodeInvalidInput, errors.Wrapf(err, "row %d", i+2))
		}
		results = append(results, r)
	}
	return results, nil
}

func parseRow(row []string) (climate.Result, error) {
	if len(row) < len(resultHeader) {
		return climate.Result{}, fmt.Errorf("expected %d cells, got %d", len(resultHeader), len(row))
	}
	var (
		r    climate.Result
		errs []error
	)
	atoi := func(s string) int {
		v, err := strconv.Atoi(s)
		errs = append(errs, err)
		return v
	}
	atof := func(s string) float64 {
		v, err := strconv.ParseFloat(s, 64)
		errs = append(errs, err)
		return v
	}
	r.RunID = row[0]
	r.T = atoi(row[1])
	r.Tau = atoi(row[2])
	r.Percent = atof(row[3])
	r.Threshold = atof(row[4])
	r.Exceedances = atoi(row[5])
	r.Samples = atoi(row[6])
	r.SigmaAA = atof(row[7])
	r.NormRatio = atof(row[8])
	for _, err := range errs {
		if err != nil {
			return climate.Result{}, err
		}
	}
	return r, nil
}
