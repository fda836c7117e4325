// Package field holds the canonical in-memory form of binned simulation
// output: a five-axis array indexed (x, y, z, record, component), whatever the
// layout of the files it was read from.
package field

import (
	"errors"
	"fmt"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

var ErrShape = errors.New("field: shape mismatch")

// Array is a [nx, ny, nz, nrec, ncomponents] array. Records reports, for each
// position along the record axis, the record index it was read from.
type Array struct {
	data    *sparse.DenseArray
	records []int
}

// New returns a zeroed array whose record slots are numbered 0..nrec-1.
func New(nx, ny, nz, nrec, ncomp int) *Array {
	a := &Array{data: sparse.ZerosDense(nx, ny, nz, nrec, ncomp)}
	a.records = make([]int, nrec)
	for r := range a.records {
		a.records[r] = r
	}
	return a
}

// FromDense wraps a five-axis dense array.
func FromDense(d *sparse.DenseArray) (*Array, error) {
	if len(d.Shape) != 5 {
		return nil, fmt.Errorf("%w: need 5 axes, got %v", ErrShape, d.Shape)
	}
	a := &Array{data: d, records: make([]int, d.Shape[3])}
	for r := range a.records {
		a.records[r] = r
	}
	return a, nil
}

func (a *Array) Shape() [5]int {
	s := a.data.Shape
	return [5]int{s[0], s[1], s[2], s[3], s[4]}
}

func (a *Array) NumRecords() int    { return a.data.Shape[3] }
func (a *Array) NumComponents() int { return a.data.Shape[4] }

func (a *Array) At(i, j, k, rec, c int) float64 {
	return a.data.Get(i, j, k, rec, c)
}

func (a *Array) Set(v float64, i, j, k, rec, c int) {
	a.data.Set(v, i, j, k, rec, c)
}

// Dense exposes the backing array. Callers must not change its shape.
func (a *Array) Dense() *sparse.DenseArray { return a.data }

// Records returns a copy of the source record index of every record slot.
func (a *Array) Records() []int {
	return append([]int(nil), a.records...)
}

// SetRecords labels the record slots. len(idx) must equal NumRecords.
func (a *Array) SetRecords(idx []int) error {
	if len(idx) != a.NumRecords() {
		return fmt.Errorf("%w: %d record labels for %d records", ErrShape, len(idx), a.NumRecords())
	}
	a.records = append(a.records[:0], idx...)
	return nil
}

func (a *Array) Clone() *Array {
	s := a.Shape()
	out := New(s[0], s[1], s[2], s[3], s[4])
	copy(out.data.Elements, a.data.Elements)
	copy(out.records, a.records)
	return out
}

// Equal reports whether a and b have the same shape, record labels and
// bit-identical values.
func (a *Array) Equal(b *Array) bool {
	if a.Shape() != b.Shape() {
		return false
	}
	for i := range a.records {
		if a.records[i] != b.records[i] {
			return false
		}
	}
	return floats.Equal(a.data.Elements, b.data.Elements)
}

// Record copies one record slot out as an [nx, ny, nz, 1, ncomp] array.
func (a *Array) Record(slot int) *Array {
	s := a.Shape()
	out := New(s[0], s[1], s[2], 1, s[4])
	out.records[0] = a.records[slot]
	for i := 0; i < s[0]; i++ {
		for j := 0; j < s[1]; j++ {
			for k := 0; k < s[2]; k++ {
				for c := 0; c < s[4]; c++ {
					out.Set(a.At(i, j, k, slot, c), i, j, k, 0, c)
				}
			}
		}
	}
	return out
}

// IsZeroRecord reports whether every value in a record slot is zero.
func (a *Array) IsZeroRecord(slot int) bool {
	s := a.Shape()
	for i := 0; i < s[0]; i++ {
		for j := 0; j < s[1]; j++ {
			for k := 0; k < s[2]; k++ {
				for c := 0; c < s[4]; c++ {
					if a.At(i, j, k, slot, c) != 0 {
						return false
					}
				}
			}
		}
	}
	return true
}
