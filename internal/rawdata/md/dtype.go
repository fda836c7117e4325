package md

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/postproc/internal/rawdata"
)

// DType is the element type of an MD bin file.
type DType int

const (
	Int32 DType = iota
	Int64
	Float32
	Float64
)

func (d DType) String() string {
	switch d {
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	}
	return fmt.Sprintf("DType(%d)", int(d))
}

// Size is the width of one element in bytes.
func (d DType) Size() int {
	switch d {
	case Int32, Float32:
		return 4
	case Int64, Float64:
		return 8
	}
	return 0
}

// ParseDType accepts the single-letter codes used by the MD code ("i" for
// integer, "d" for double) as well as Go type names.
func ParseDType(s string) (DType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "i", "int", "int32", "integer":
		return Int32, nil
	case "l", "int64":
		return Int64, nil
	case "f", "float32", "single":
		return Float32, nil
	case "d", "float64", "double", "real":
		return Float64, nil
	}
	return 0, fmt.Errorf("%w: data type %q", rawdata.ErrUnsupportedFormat, s)
}

func (d DType) valid() bool {
	return d >= Int32 && d <= Float64
}

// decode converts little-endian bytes to float64 values.
func (d DType) decode(b []byte) []float64 {
	n := len(b) / d.Size()
	out := make([]float64, n)
	for i := range out {
		p := b[i*d.Size():]
		switch d {
		case Int32:
			out[i] = float64(int32(binary.LittleEndian.Uint32(p)))
		case Int64:
			out[i] = float64(int64(binary.LittleEndian.Uint64(p)))
		case Float32:
			out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(p)))
		case Float64:
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(p))
		}
	}
	return out
}

func (d DType) encode(v []float64) []byte {
	out := make([]byte, len(v)*d.Size())
	for i, x := range v {
		p := out[i*d.Size():]
		switch d {
		case Int32:
			binary.LittleEndian.PutUint32(p, uint32(int32(x)))
		case Int64:
			binary.LittleEndian.PutUint64(p, uint64(int64(x)))
		case Float32:
			binary.LittleEndian.PutUint32(p, math.Float32bits(float32(x)))
		case Float64:
			binary.LittleEndian.PutUint64(p, math.Float64bits(x))
		}
	}
	return out
}
