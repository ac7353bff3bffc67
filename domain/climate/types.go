package climate

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"gaussapprox/internal/errors"
)

// Window is a seasonal window of day-of-window indices [Start, End).
type Window struct {
	Start int `yaml:"time_start"`
	End   int `yaml:"time_end"`
}

// Days returns how many running means of length T fit in the window.
func (w Window) Days(T int) int {
	return w.End - w.Start - T + 1
}

// Field is a gridded daily field partitioned into years.
// Values are laid out (year, day, lat, lon) in row-major order.
type Field struct {
	Name        string
	Lat         []float64
	Lon         []float64
	Years       int
	DaysPerYear int
	Values      []float64
}

// SpatialShape returns the (lat, lon) shape of one daily map.
func (f *Field) SpatialShape() []int {
	return []int{len(f.Lat), len(f.Lon)}
}

// SpatialSize returns the number of grid points in one daily map.
func (f *Field) SpatialSize() int {
	return len(f.Lat) * len(f.Lon)
}

// At returns the daily map for (year, day). The slice aliases Values.
func (f *Field) At(year, day int) []float64 {
	p := f.SpatialSize()
	off := (year*f.DaysPerYear + day) * p
	return f.Values[off : off+p]
}

// Validate checks that Values matches the declared dimensions.
func (f *Field) Validate() error {
	if f.Years < 1 || f.DaysPerYear < 1 || f.SpatialSize() < 1 {
		return errors.ShapeMismatch("field %q has empty dimensions (years=%d days=%d grid=%dx%d)",
			f.Name, f.Years, f.DaysPerYear, len(f.Lat), len(f.Lon))
	}
	want := f.Years * f.DaysPerYear * f.SpatialSize()
	if len(f.Values) != want {
		return errors.ShapeMismatch("field %q holds %d values, expected %d", f.Name, len(f.Values), want)
	}
	return nil
}

// Index is the area-integrated scalar series, laid out (year, day).
type Index struct {
	Name        string
	Years       int
	DaysPerYear int
	Values      []float64
}

// Validate checks that Values matches the declared dimensions.
func (x *Index) Validate() error {
	if x.Years < 1 || x.DaysPerYear < 1 {
		return errors.ShapeMismatch("index %q has empty dimensions", x.Name)
	}
	if len(x.Values) != x.Years*x.DaysPerYear {
		return errors.ShapeMismatch("index %q holds %d values, expected %d",
			x.Name, len(x.Values), x.Years*x.DaysPerYear)
	}
	return nil
}

// Target is the per-horizon scalar index A, laid out (year, day).
type Target struct {
	Years  int
	Days   int
	Values []float64
}

// Samples returns years*days.
func (t *Target) Samples() int {
	return t.Years * t.Days
}

// Design is a lagged design matrix with the sample axes flattened:
// (years*days) rows by Spatial columns, row-major.
type Design struct {
	Years   int
	Days    int
	Spatial int
	Values  []float64
}

// Samples returns the number of rows.
func (d *Design) Samples() int {
	return d.Years * d.Days
}

// Row returns sample i. The slice aliases Values.
func (d *Design) Row(i int) []float64 {
	return d.Values[i*d.Spatial : (i+1)*d.Spatial]
}

// Key identifies one cell of the parameter sweep.
type Key struct {
	T       int
	Tau     int
	Percent float64
}

// HorizonDir is the artifact directory for T.
func (k Key) HorizonDir() string {
	return "T" + strconv.Itoa(k.T)
}

// LagDir is the artifact directory for (T, tau). Lags are stored by their
// look-back distance, so tau=-3 lives under tau3.
func (k Key) LagDir() string {
	return path.Join(k.HorizonDir(), "tau"+strconv.Itoa(-k.Tau))
}

// PercentDir is the artifact directory for (T, tau, percent).
func (k Key) PercentDir() string {
	return path.Join(k.LagDir(), "percent"+FormatPercent(k.Percent))
}

func (k Key) String() string {
	return fmt.Sprintf("T=%d tau=%d percent=%s", k.T, k.Tau, FormatPercent(k.Percent))
}

// FormatPercent renders a percentage without trailing zeros (5 -> "5", 2.5 -> "2.5").
func FormatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// Result summarises one (T, tau, percent) composite.
type Result struct {
	RunID       string  `db:"run_id" json:"run_id"`
	T           int     `db:"t" json:"t"`
	Tau         int     `db:"tau" json:"tau"`
	Percent     float64 `db:"percent" json:"percent"`
	Threshold   float64 `db:"threshold" json:"threshold"`
	Exceedances int     `db:"exceedances" json:"exceedances"`
	Samples     int     `db:"samples" json:"samples"`
	SigmaAA     float64 `db:"sigma_aa" json:"sigma_aa"`
	NormRatio   float64 `db:"norm_ratio" json:"norm_ratio"`
}

// Key returns the sweep key of the result.
func (r Result) Key() Key {
	return Key{T: r.T, Tau: r.Tau, Percent: r.Percent}
}

// ParsePercentDir is the inverse of Key.PercentDir.
func ParsePercentDir(dir string) (Key, error) {
	parts := strings.Split(strings.Trim(dir, "/"), "/")
	if len(parts) != 3 ||
		!strings.HasPrefix(parts[0], "T") ||
		!strings.HasPrefix(parts[1], "tau") ||
		!strings.HasPrefix(parts[2], "percent") {
		return Key{}, errors.InvalidInput(fmt.Sprintf("%q is not a T{T}/tau{lag}/percent{p} directory", dir))
	}
	T, err1 := strconv.Atoi(parts[0][len("T"):])
	lag, err2 := strconv.Atoi(parts[1][len("tau"):])
	p, err3 := strconv.ParseFloat(parts[2][len("percent"):], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return Key{}, errors.InvalidInput(fmt.Sprintf("%q is not a T{T}/tau{lag}/percent{p} directory", dir))
	}
	return Key{T: T, Tau: -lag, Percent: p}, nil
}
