package field

import (
	"fmt"
	"strings"
)

// Axis names a position in the canonical (x, y, z, record, component) layout.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
	AxisRecord
	AxisComponent
)

var axisNames = [...]string{"x", "y", "z", "rec", "comp"}

func (a Axis) String() string {
	if a < 0 || int(a) >= len(axisNames) {
		return fmt.Sprintf("Axis(%d)", int(a))
	}
	return axisNames[a]
}

// AxisOrder lists the five axes of a flat source buffer from fastest to
// slowest varying. Every reader declares the order of its files.
type AxisOrder [5]Axis

var (
	// FortranOrder is the MD binary layout: x fastest, then y, z, component,
	// with the record axis slowest.
	FortranOrder = AxisOrder{AxisX, AxisY, AxisZ, AxisComponent, AxisRecord}

	// InterleavedOrder stores all components of one bin together, bins in
	// x-fastest order (VTK cell data, OpenFOAM cell lists).
	InterleavedOrder = AxisOrder{AxisComponent, AxisX, AxisY, AxisZ, AxisRecord}

	// InterleavedCOrder is InterleavedOrder with z varying fastest among the
	// spatial axes.
	InterleavedCOrder = AxisOrder{AxisComponent, AxisZ, AxisY, AxisX, AxisRecord}
)

func (o AxisOrder) Validate() error {
	var seen [5]bool
	for _, ax := range o {
		if ax < 0 || ax > AxisComponent || seen[ax] {
			return fmt.Errorf("field: axis order %v is not a permutation", o)
		}
		seen[ax] = true
	}
	return nil
}

func (o AxisOrder) String() string {
	names := make([]string, len(o))
	for i, ax := range o {
		names[i] = ax.String()
	}
	return "(" + strings.Join(names, ",") + ")"
}

// Reshape interprets flat as a buffer laid out in order o whose canonical
// shape is [nx, ny, nz, nrec, ncomp], and returns it as a canonical Array.
func Reshape(flat []float64, shape [5]int, o AxisOrder) (*Array, error) {
	out := New(shape[0], shape[1], shape[2], shape[3], shape[4])
	if err := Place(out, flat, 0, o); err != nil {
		return nil, err
	}
	return out, nil
}

// Place copies flat into dst starting at record slot first. flat holds
// len(flat)/(nbins*ncomp) whole records laid out in order o.
func Place(dst *Array, flat []float64, first int, o AxisOrder) error {
	if err := o.Validate(); err != nil {
		return err
	}
	s := dst.Shape()
	perRec := s[0] * s[1] * s[2] * s[4]
	if perRec == 0 {
		return nil
	}
	if len(flat)%perRec != 0 {
		return fmt.Errorf("%w: %d values is not a whole number of %d-value records", ErrShape, len(flat), perRec)
	}
	nrec := len(flat) / perRec
	if first < 0 || first+nrec > s[3] {
		return fmt.Errorf("%w: %d records at slot %d exceed %d slots", ErrShape, nrec, first, s[3])
	}

	dims := s
	dims[AxisRecord] = nrec
	var idx [5]int
	for _, v := range flat {
		dst.Set(v, idx[0], idx[1], idx[2], first+idx[3], idx[4])
		for _, ax := range o {
			idx[ax]++
			if idx[ax] < dims[ax] {
				break
			}
			idx[ax] = 0
		}
	}
	return nil
}

// Flatten is the inverse of Reshape: it writes a in order o.
func Flatten(a *Array, o AxisOrder) ([]float64, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	s := a.Shape()
	out := make([]float64, s[0]*s[1]*s[2]*s[3]*s[4])
	var idx [5]int
	for n := range out {
		out[n] = a.At(idx[0], idx[1], idx[2], idx[3], idx[4])
		for _, ax := range o {
			idx[ax]++
			if idx[ax] < s[ax] {
				break
			}
			idx[ax] = 0
		}
	}
	return out, nil
}
