// Package era5 reads and writes ERA5-style netCDF files: a packed
// (time, latitude, longitude) variable with CF time units.
package era5

import (
	"fmt"
	"math"
	"os"
	"time"

	"gaussapprox/domain/climate"
	"gaussapprox/internal/errors"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

var (
	timeNames = []string{"time", "valid_time"}
	latNames  = []string{"latitude", "lat"}
	lonNames  = []string{"longitude", "lon"}
)

// Series is one variable on a regular grid. Values are laid out
// (time, lat, lon) row-major; a scalar series has empty Lat and Lon.
type Series struct {
	Variable string
	Times    []time.Time
	Lat      []float64
	Lon      []float64
	Values   []float64
	// Filled counts values that were _FillValue or missing_value in the file.
	Filled int
	// Missing flags those values (stored as 0); nil when none were filled.
	Missing []bool
}

// SpatialSize is the number of grid points per time step (1 for a scalar series).
func (s *Series) SpatialSize() int {
	if len(s.Lat) == 0 && len(s.Lon) == 0 {
		return 1
	}
	return len(s.Lat) * len(s.Lon)
}

// MissingAt returns the fill flags for time step i, or nil when the series
// has none.
func (s *Series) MissingAt(i int) []bool {
	if s.Missing == nil {
		return nil
	}
	p := s.SpatialSize()
	return s.Missing[i*p : (i+1)*p]
}

// At returns the values for time step i. The slice aliases Values.
func (s *Series) At(i int) []float64 {
	p := s.SpatialSize()
	return s.Values[i*p : (i+1)*p]
}

// YearPath is the per-year raw file name convention {prefix}{year}.nc.
func YearPath(prefix string, year int) string {
	return fmt.Sprintf("%s%d.nc", prefix, year)
}

// ReadYear reads variable from {prefix}{year}.nc.
func ReadYear(prefix string, year int, variable string) (*Series, error) {
	return ReadSeries(YearPath(prefix, year), variable)
}

// ReadSeries reads a time series of maps, or a scalar time series, from path.
func ReadSeries(path, variable string) (*Series, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.MissingInput(path, err)
	}
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer nc.Close()

	v, err := nc.GetVariable(variable)
	if err != nil {
		return nil, errors.MissingInput(fmt.Sprintf("variable %q in %s", variable, path), err)
	}
	values, err := flatten(v.Values)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, errors.Wrapf(err, "variable %q", variable))
	}
	s := &Series{Variable: variable, Values: values}
	s.Missing = packingOf(v.Attributes).unpack(s.Values)
	s.Filled = countTrue(s.Missing)

	switch len(v.Dimensions) {
	case 1:
	case 3:
		if s.Lat, err = coordinate(nc, v.Dimensions[1], latNames); err != nil {
			return nil, err
		}
		if s.Lon, err = coordinate(nc, v.Dimensions[2], lonNames); err != nil {
			return nil, err
		}
	default:
		return nil, errors.ShapeMismatch("variable %q has dimensions %v, expected (time) or (time, latitude, longitude)",
			variable, v.Dimensions)
	}

	if s.Times, err = readTimes(nc, v.Dimensions[0]); err != nil {
		return nil, err
	}
	if want := len(s.Times) * s.SpatialSize(); len(s.Values) != want {
		return nil, errors.ShapeMismatch("variable %q holds %d values, expected %d", variable, len(s.Values), want)
	}
	return s, nil
}

func coordinate(nc api.Group, dim string, fallbacks []string) ([]float64, error) {
	for _, name := range append([]string{dim}, fallbacks...) {
		v, err := nc.GetVariable(name)
		if err != nil {
			continue
		}
		out, err := flatten(v.Values)
		if err != nil {
			return nil, errors.WithCode(errors.CodeInvalidInput, errors.Wrapf(err, "coordinate %q", name))
		}
		return out, nil
	}
	return nil, errors.MissingInput(fmt.Sprintf("coordinate variable %q", dim), nil)
}

func readTimes(nc api.Group, dim string) ([]time.Time, error) {
	for _, name := range append([]string{dim}, timeNames...) {
		v, err := nc.GetVariable(name)
		if err != nil {
			continue
		}
		units, ok := attrString(v.Attributes, "units")
		if !ok {
			return nil, errors.InvalidInput(fmt.Sprintf("time variable %q has no units", name))
		}
		tu, err := ParseUnits(units)
		if err != nil {
			return nil, err
		}
		offsets, err := flatten(v.Values)
		if err != nil {
			return nil, errors.WithCode(errors.CodeInvalidInput, errors.Wrapf(err, "time variable %q", name))
		}
		return tu.Decode(offsets), nil
	}
	return nil, errors.MissingInput(fmt.Sprintf("time coordinate %q", dim), nil)
}

// yearSpans splits strictly increasing timestamps by calendar year and
// requires every year to hold the same number of steps.
func yearSpans(times []time.Time) (years, perYear int, err error) {
	if len(times) == 0 {
		return 0, 0, errors.ShapeMismatch("series has no time steps")
	}
	counts := []int{0}
	for i, t := range times {
		if i > 0 {
			if !t.After(times[i-1]) {
				return 0, 0, errors.InvalidInput(fmt.Sprintf("time axis is not increasing at step %d", i))
			}
			if t.Year() != times[i-1].Year() {
				counts = append(counts, 0)
			}
		}
		counts[len(counts)-1]++
	}
	for i, c := range counts {
		if c != counts[0] {
			return 0, 0, errors.ShapeMismatch("year %d has %d days, year %d has %d",
				times[0].Year(), counts[0], times[0].Year()+i, c)
		}
	}
	return len(counts), counts[0], nil
}

// LoadField reads a daily (time, latitude, longitude) file as a Field
// partitioned by calendar year.
func LoadField(path, variable string) (*climate.Field, error) {
	s, err := ReadSeries(path, variable)
	if err != nil {
		return nil, err
	}
	if len(s.Lat) == 0 {
		return nil, errors.ShapeMismatch("variable %q in %s is not gridded", variable, path)
	}
	return s.Field()
}

// Field converts a gridded series to a Field.
func (s *Series) Field() (*climate.Field, error) {
	years, perYear, err := yearSpans(s.Times)
	if err != nil {
		return nil, err
	}
	f := &climate.Field{
		Name:        s.Variable,
		Lat:         s.Lat,
		Lon:         s.Lon,
		Years:       years,
		DaysPerYear: perYear,
		Values:      s.Values,
	}
	return f, f.Validate()
}

// LoadIndex reads the scalar index. A gridded variable is reduced to its
// cos(latitude)-weighted area mean over the grid.
func LoadIndex(path, variable string) (*climate.Index, error) {
	s, err := ReadSeries(path, variable)
	if err != nil {
		return nil, err
	}
	return s.Index()
}

// Index converts the series to an Index, area-averaging gridded data.
func (s *Series) Index() (*climate.Index, error) {
	years, perYear, err := yearSpans(s.Times)
	if err != nil {
		return nil, err
	}
	values := s.Values
	if len(s.Lat) > 0 {
		values = AreaMean(s)
	}
	x := &climate.Index{Name: s.Variable, Years: years, DaysPerYear: perYear, Values: values}
	return x, x.Validate()
}

// AreaMean returns the cos(latitude)-weighted mean of every time step.
func AreaMean(s *Series) []float64 {
	weights := make([]float64, len(s.Lat))
	var total float64
	for i, lat := range s.Lat {
		weights[i] = math.Max(math.Cos(lat*math.Pi/180), 0)
		total += weights[i] * float64(len(s.Lon))
	}
	out := make([]float64, len(s.Times))
	if total == 0 {
		return out
	}
	for t := range s.Times {
		m := s.At(t)
		var sum float64
		for i, w := range weights {
			for j := range s.Lon {
				sum += w * m[i*len(s.Lon)+j]
			}
		}
		out[t] = sum / total
	}
	return out
}
