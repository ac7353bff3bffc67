// Package npy reads and writes NumPy .npy files (format 1.0, C order,
// little-endian float64 and bool).
package npy

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gaussapprox/domain/artifact"
	"gaussapprox/internal/errors"
)

var magic = []byte("\x93NUMPY")

const (
	descrFloat64 = "<f8"
	descrBool    = "|b1"
	headerAlign  = 64
)

// Write encodes arr as a version 1.0 .npy stream. The output depends only
// on the array, so rewriting the same array yields identical bytes.
func Write(w io.Writer, arr artifact.Array) error {
	descr, err := descrOf(arr)
	if err != nil {
		return err
	}
	if artifact.Size(arr.Shape) != arr.Len() {
		return errors.ShapeMismatch("npy: shape %v holds %d elements, array has %d", arr.Shape, artifact.Size(arr.Shape), arr.Len())
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(header(descr, arr.Shape)); err != nil {
		return err
	}

	var buf [8]byte
	switch arr.Dtype {
	case artifact.Bool:
		for _, v := range arr.Bool {
			b := byte(0)
			if v {
				b = 1
			}
			if err := bw.WriteByte(b); err != nil {
				return err
			}
		}
	default:
		for _, v := range arr.Float {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			if _, err := bw.Write(buf[:]); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

func descrOf(arr artifact.Array) (string, error) {
	switch arr.Dtype {
	case artifact.Float64, "":
		return descrFloat64, nil
	case artifact.Bool:
		return descrBool, nil
	default:
		return "", errors.InvalidInput(fmt.Sprintf("npy: unsupported dtype %q", arr.Dtype))
	}
}

// header renders magic, version, length and the python-literal dict,
// space padded so the data starts on a 64-byte boundary.
func header(descr string, shape []int) []byte {
	dict := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': %s, }", descr, shapeLiteral(shape))
	pre := len(magic) + 2 + 2
	total := pre + len(dict) + 1
	if rem := total % headerAlign; rem != 0 {
		total += headerAlign - rem
	}
	hlen := total - pre

	var b bytes.Buffer
	b.Write(magic)
	b.Write([]byte{1, 0})
	var n [2]byte
	binary.LittleEndian.PutUint16(n[:], uint16(hlen))
	b.Write(n[:])
	b.WriteString(dict)
	b.WriteString(strings.Repeat(" ", hlen-len(dict)-1))
	b.WriteByte('\n')
	return b.Bytes()
}

func shapeLiteral(shape []int) string {
	switch len(shape) {
	case 0:
		return "()"
	case 1:
		return "(" + strconv.Itoa(shape[0]) + ",)"
	}
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.Itoa(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Read decodes a .npy stream holding little-endian float64 or bool data in
// C order. Versions 1.0 and 2.0 are accepted.
func Read(r io.Reader) (artifact.Array, error) {
	br := bufio.NewReader(r)
	pre := make([]byte, len(magic)+2)
	if _, err := io.ReadFull(br, pre); err != nil {
		return artifact.Array{}, errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "npy: short header"))
	}
	if !bytes.Equal(pre[:len(magic)], magic) {
		return artifact.Array{}, errors.InvalidInput("npy: bad magic")
	}

	var hlen int
	switch pre[len(magic)] {
	case 1:
		var n [2]byte
		if _, err := io.ReadFull(br, n[:]); err != nil {
			return artifact.Array{}, err
		}
		hlen = int(binary.LittleEndian.Uint16(n[:]))
	case 2, 3:
		var n [4]byte
		if _, err := io.ReadFull(br, n[:]); err != nil {
			return artifact.Array{}, err
		}
		hlen = int(binary.LittleEndian.Uint32(n[:]))
	default:
		return artifact.Array{}, errors.InvalidInput(fmt.Sprintf("npy: unsupported version %d", pre[len(magic)]))
	}

	raw := make([]byte, hlen)
	if _, err := io.ReadFull(br, raw); err != nil {
		return artifact.Array{}, err
	}
	descr, fortran, shape, err := parseHeader(string(raw))
	if err != nil {
		return artifact.Array{}, err
	}
	if fortran {
		return artifact.Array{}, errors.InvalidInput("npy: fortran order is not supported")
	}

	n := artifact.Size(shape)
	switch descr {
	case descrFloat64:
		data := make([]byte, 8*n)
		if _, err := io.ReadFull(br, data); err != nil {
			return artifact.Array{}, errors.ShapeMismatch("npy: expected %d float64 values", n)
		}
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[8*i:]))
		}
		return artifact.Array{Dtype: artifact.Float64, Shape: shape, Float: vals}, nil
	case descrBool:
		data := make([]byte, n)
		if _, err := io.ReadFull(br, data); err != nil {
			return artifact.Array{}, errors.ShapeMismatch("npy: expected %d bool values", n)
		}
		vals := make([]bool, n)
		for i, b := range data {
			vals[i] = b != 0
		}
		return artifact.Array{Dtype: artifact.Bool, Shape: shape, Bool: vals}, nil
	default:
		return artifact.Array{}, errors.InvalidInput(fmt.Sprintf("npy: unsupported descr %q", descr))
	}
}

func parseHeader(h string) (descr string, fortran bool, shape []int, err error) {
	descr, err = dictValue(h, "descr")
	if err != nil {
		return
	}
	descr = strings.Trim(descr, "'\"")

	fo, err := dictValue(h, "fortran_order")
	if err != nil {
		return
	}
	fortran = fo == "True"

	sh, err := dictValue(h, "shape")
	if err != nil {
		return
	}
	sh = strings.Trim(sh, "()")
	shape = []int{}
	for _, part := range strings.Split(sh, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, convErr := strconv.Atoi(part)
		if convErr != nil {
			err = errors.InvalidInput(fmt.Sprintf("npy: bad shape %q", sh))
			return
		}
		shape = append(shape, d)
	}
	return
}

// dictValue extracts the literal after 'key': up to the next top-level comma.
func dictValue(h, key string) (string, error) {
	i := strings.Index(h, "'"+key+"'")
	if i < 0 {
		return "", errors.InvalidInput(fmt.Sprintf("npy: header has no %s", key))
	}
	rest := strings.TrimSpace(h[i+len(key)+2:])
	rest = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
	depth := 0
	for j, c := range rest {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
		case ',', '}':
			if depth == 0 {
				return strings.TrimSpace(rest[:j]), nil
			}
		}
	}
	return "", errors.InvalidInput(fmt.Sprintf("npy: unterminated %s", key))
}
