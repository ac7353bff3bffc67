package era5

import (
	"os"

	"gaussapprox/internal/errors"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"
)

type namedVar struct {
	name string
	v    api.Variable
}

// WriteDaily writes s as a classic CDF file with dims (time, latitude,
// longitude) and time encoded as hours since 1900-01-01. An existing file
// at path is replaced.
func WriteDaily(path string, s *Series) error {
	if len(s.Values) != len(s.Times)*s.SpatialSize() {
		return errors.ShapeMismatch("series %q holds %d values, expected %d",
			s.Variable, len(s.Values), len(s.Times)*s.SpatialSize())
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.WriteFailure(path, err)
	}

	cw, err := cdf.OpenWriter(path)
	if err != nil {
		return errors.WriteFailure(path, err)
	}

	vars, err := variables(s)
	if err != nil {
		cw.Close()
		return errors.Wrap(err, "netCDF attributes")
	}
	for _, nv := range vars {
		if err := cw.AddVar(nv.name, nv.v); err != nil {
			cw.Close()
			return errors.WriteFailure(path+":"+nv.name, err)
		}
	}
	if err := cw.Close(); err != nil {
		return errors.WriteFailure(path, err)
	}
	return nil
}

func variables(s *Series) ([]namedVar, error) {
	tu, _ := ParseUnits(HoursSince1900)
	timeAttrs, err := attributes("units", HoursSince1900, "calendar", "gregorian", "long_name", "time")
	if err != nil {
		return nil, err
	}
	valueAttrs, err := attributes("long_name", s.Variable)
	if err != nil {
		return nil, err
	}
	vars := []namedVar{
		{"time", api.Variable{Values: tu.Encode(s.Times), Dimensions: []string{"time"}, Attributes: timeAttrs}},
	}
	if len(s.Lat) == 0 {
		return append(vars, namedVar{s.Variable, api.Variable{Values: s.Values, Dimensions: []string{"time"}, Attributes: valueAttrs}}), nil
	}

	latAttrs, err := attributes("units", "degrees_north", "long_name", "latitude")
	if err != nil {
		return nil, err
	}
	lonAttrs, err := attributes("units", "degrees_east", "long_name", "longitude")
	if err != nil {
		return nil, err
	}
	return append(vars,
		namedVar{"latitude", api.Variable{Values: s.Lat, Dimensions: []string{"latitude"}, Attributes: latAttrs}},
		namedVar{"longitude", api.Variable{Values: s.Lon, Dimensions: []string{"longitude"}, Attributes: lonAttrs}},
		namedVar{s.Variable, api.Variable{Values: cube(s), Dimensions: []string{"time", "latitude", "longitude"}, Attributes: valueAttrs}},
	), nil
}

// attributes builds an ordered attribute map from key, value pairs.
func attributes(kv ...string) (api.AttributeMap, error) {
	keys := make([]string, 0, len(kv)/2)
	vals := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		keys = append(keys, kv[i])
		vals[kv[i]] = kv[i+1]
	}
	m, err := util.NewOrderedMap(keys, vals)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// cube reshapes the flat values into the nested slices the writer expects.
func cube(s *Series) [][][]float64 {
	nlat, nlon := len(s.Lat), len(s.Lon)
	out := make([][][]float64, len(s.Times))
	for t := range out {
		m := s.At(t)
		out[t] = make([][]float64, nlat)
		for i := range out[t] {
			out[t][i] = m[i*nlon : (i+1)*nlon]
		}
	}
	return out
}
