// Package rawdata is the record-oriented reading engine shared by every
// simulation output format. A format reader resolves its grid and record
// layout once, when it is opened, and afterwards only reads: each Read opens
// and closes its own files and returns a freshly allocated array, so a reader
// may be shared between goroutines.
//
// Adding a format means implementing [Backend]; the md, vtk, openfoam and
// lammps subpackages are the current implementations.
package rawdata

import (
	"fmt"

	"github.com/ctessum/sparse"

	"github.com/san-kum/postproc/internal/field"
	"github.com/san-kum/postproc/internal/grid"
)

type Backend interface {
	Topology() *grid.Topology
	Layout() Layout
	Components() field.Components
	MaxRec() int

	// Read returns records start..end (inclusive) as an
	// [nx, ny, nz, nrec, ncomp] array restricted to limits.
	Read(start, end int, limits grid.BinLimits, missing MissingPolicy) (*field.Array, error)

	// Volumes returns the [nx, ny, nz, 1] bin volumes restricted to limits.
	Volumes(limits grid.BinLimits) (*sparse.DenseArray, error)
}

// Base holds the state every reader computes at construction. It is never
// modified afterwards.
type Base struct {
	top    *grid.Topology
	layout Layout
	comps  field.Components
}

func NewBase(top *grid.Topology, layout Layout, comps field.Components) Base {
	return Base{top: top, layout: layout, comps: comps}
}

func (b *Base) Topology() *grid.Topology     { return b.top }
func (b *Base) Layout() Layout               { return b.layout }
func (b *Base) Components() field.Components { return b.comps }
func (b *Base) MaxRec() int                  { return b.layout.MaxRec }

func (b *Base) Volumes(limits grid.BinLimits) (*sparse.DenseArray, error) {
	v, err := grid.Volumes(b.top, limits)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	return v, nil
}

// CheckRequest validates a record range and bin limits before any file is
// touched.
func (b *Base) CheckRequest(start, end int, limits grid.BinLimits) error {
	if err := CheckRange(start, end, b.layout.MaxRec); err != nil {
		return err
	}
	if _, _, err := limits.Resolve(b.top.Counts()); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	return nil
}
