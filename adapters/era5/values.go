package era5

import (
	"fmt"
	"math"
	"reflect"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// flatten copies a (possibly nested) numeric slice returned by the netCDF
// reader into a row-major float64 slice.
func flatten(v interface{}) ([]float64, error) {
	var out []float64
	if err := appendValues(&out, reflect.ValueOf(v)); err != nil {
		return nil, err
	}
	return out, nil
}

func appendValues(out *[]float64, v reflect.Value) error {
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := appendValues(out, v.Index(i)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Interface, reflect.Ptr:
		if v.IsNil() {
			return fmt.Errorf("nil value in variable data")
		}
		return appendValues(out, v.Elem())
	}
	f, ok := number(v)
	if !ok {
		return fmt.Errorf("unsupported variable element type %s", v.Type())
	}
	*out = append(*out, f)
	return nil
}

func number(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	}
	return 0, false
}

// attrFloat reads a numeric attribute. Single-element arrays are accepted.
func attrFloat(attrs api.AttributeMap, key string) (float64, bool) {
	if attrs == nil {
		return 0, false
	}
	raw, has := attrs.Get(key)
	if !has {
		return 0, false
	}
	v := reflect.ValueOf(raw)
	if (v.Kind() == reflect.Slice || v.Kind() == reflect.Array) && v.Len() > 0 {
		v = v.Index(0)
	}
	return number(v)
}

func attrString(attrs api.AttributeMap, key string) (string, bool) {
	if attrs == nil {
		return "", false
	}
	raw, has := attrs.Get(key)
	if !has {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}

// packing holds the CF packing attributes of a variable.
type packing struct {
	scale, offset float64
	fill          []float64
}

func packingOf(attrs api.AttributeMap) packing {
	p := packing{scale: 1}
	if v, ok := attrFloat(attrs, "scale_factor"); ok {
		p.scale = v
	}
	if v, ok := attrFloat(attrs, "add_offset"); ok {
		p.offset = v
	}
	for _, key := range []string{"_FillValue", "missing_value"} {
		if v, ok := attrFloat(attrs, key); ok {
			p.fill = append(p.fill, v)
		}
	}
	return p
}

// unpack applies scale and offset in place and maps fill values to 0. It
// returns which values were filled, or nil when none were.
func (p packing) unpack(values []float64) []bool {
	var missing []bool
	for i, v := range values {
		if p.isFill(v) {
			if missing == nil {
				missing = make([]bool, len(values))
			}
			missing[i] = true
			values[i] = 0
			continue
		}
		values[i] = v*p.scale + p.offset
	}
	return missing
}

func countTrue(flags []bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

func (p packing) isFill(v float64) bool {
	if math.IsNaN(v) {
		return true
	}
	for _, f := range p.fill {
		if v == f {
			return true
		}
	}
	return false
}
