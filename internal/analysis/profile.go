package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/postproc/internal/field"
)

var ErrAxis = errors.New("analysis: invalid axis or component")

// Profile averages component comp of a over records and every spatial axis
// except axis.
func Profile(a *field.Array, axis, comp int) ([]float64, error) {
	s := a.Shape()
	if axis < 0 || axis > 2 || comp < 0 || comp >= s[4] {
		return nil, fmt.Errorf("%w: axis %d, component %d of %d", ErrAxis, axis, comp, s[4])
	}
	sum := make([]float64, s[axis])
	for i := 0; i < s[0]; i++ {
		for j := 0; j < s[1]; j++ {
			for k := 0; k < s[2]; k++ {
				idx := [3]int{i, j, k}[axis]
				for r := 0; r < s[3]; r++ {
					sum[idx] += a.At(i, j, k, r, comp)
				}
			}
		}
	}
	n := s[0] * s[1] * s[2] * s[3] / s[axis]
	if n > 0 {
		floats.Scale(1/float64(n), sum)
	}
	return sum, nil
}

// TimeSeries returns the spatial mean of component comp for every record.
func TimeSeries(a *field.Array, comp int) ([]float64, error) {
	s := a.Shape()
	if comp < 0 || comp >= s[4] {
		return nil, fmt.Errorf("%w: component %d of %d", ErrAxis, comp, s[4])
	}
	out := make([]float64, s[3])
	bin := make([]float64, 0, s[0]*s[1]*s[2])
	for r := range out {
		bin = bin[:0]
		for i := 0; i < s[0]; i++ {
			for j := 0; j < s[1]; j++ {
				for k := 0; k < s[2]; k++ {
					bin = append(bin, a.At(i, j, k, r, comp))
				}
			}
		}
		out[r] = stat.Mean(bin, nil)
	}
	return out, nil
}

// PerVolume divides every value of a by the volume of its bin. vol is the
// [nx, ny, nz, 1] array of grid.Volumes over the same bins.
func PerVolume(a *field.Array, vol *sparse.DenseArray) (*field.Array, error) {
	s := a.Shape()
	if len(vol.Shape) != 4 || vol.Shape[0] != s[0] || vol.Shape[1] != s[1] || vol.Shape[2] != s[2] {
		return nil, fmt.Errorf("%w: volumes %v for bins %v", field.ErrShape, vol.Shape, s[:3])
	}
	out := a.Clone()
	for i := 0; i < s[0]; i++ {
		for j := 0; j < s[1]; j++ {
			for k := 0; k < s[2]; k++ {
				v := vol.Get(i, j, k, 0)
				for r := 0; r < s[3]; r++ {
					for c := 0; c < s[4]; c++ {
						out.Set(a.At(i, j, k, r, c)/v, i, j, k, r, c)
					}
				}
			}
		}
	}
	return out, nil
}

// Ratio divides every component of num by the single component of den,
// bin by bin and record by record. Bins where den is zero become zero.
func Ratio(num, den *field.Array) (*field.Array, error) {
	s, d := num.Shape(), den.Shape()
	if s[0] != d[0] || s[1] != d[1] || s[2] != d[2] || s[3] != d[3] || d[4] != 1 {
		return nil, fmt.Errorf("%w: %v / %v", field.ErrShape, s, d)
	}
	out := num.Clone()
	for i := 0; i < s[0]; i++ {
		for j := 0; j < s[1]; j++ {
			for k := 0; k < s[2]; k++ {
				for r := 0; r < s[3]; r++ {
					q := den.At(i, j, k, r, 0)
					for c := 0; c < s[4]; c++ {
						v := 0.0
						if q != 0 {
							v = num.At(i, j, k, r, c) / q
						}
						out.Set(v, i, j, k, r, c)
					}
				}
			}
		}
	}
	return out, nil
}

// Magnitude returns the Euclidean norm over components as a one-component
// array.
func Magnitude(a *field.Array) *field.Array {
	s := a.Shape()
	out := field.New(s[0], s[1], s[2], s[3], 1)
	_ = out.SetRecords(a.Records())
	comp := make([]float64, s[4])
	for i := 0; i < s[0]; i++ {
		for j := 0; j < s[1]; j++ {
			for k := 0; k < s[2]; k++ {
				for r := 0; r < s[3]; r++ {
					for c := range comp {
						comp[c] = a.At(i, j, k, r, c)
					}
					out.Set(floats.Norm(comp, 2), i, j, k, r, 0)
				}
			}
		}
	}
	return out
}

type Summary struct {
	Min, Max, Mean, StdDev float64
}

// Summarize returns statistics of component comp over every bin and record.
func Summarize(a *field.Array, comp int) (Summary, error) {
	s := a.Shape()
	if comp < 0 || comp >= s[4] {
		return Summary{}, fmt.Errorf("%w: component %d of %d", ErrAxis, comp, s[4])
	}
	v := make([]float64, 0, s[0]*s[1]*s[2]*s[3])
	for i := 0; i < s[0]; i++ {
		for j := 0; j < s[1]; j++ {
			for k := 0; k < s[2]; k++ {
				for r := 0; r < s[3]; r++ {
					v = append(v, a.At(i, j, k, r, comp))
				}
			}
		}
	}
	if len(v) == 0 {
		return Summary{Min: math.NaN(), Max: math.NaN(), Mean: math.NaN(), StdDev: math.NaN()}, nil
	}
	mean, std := stat.MeanStdDev(v, nil)
	if len(v) == 1 {
		std = 0
	}
	return Summary{Min: floats.Min(v), Max: floats.Max(v), Mean: mean, StdDev: std}, nil
}
