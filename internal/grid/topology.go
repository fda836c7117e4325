// Package grid describes the spatial discretisation of a results directory:
// bin counts, bin-centre coordinates and sizes along each axis, and the
// geometric volume of every bin.
//
// Cartesian grids centre the domain on the origin. Cylindrical-polar grids
// store radial centres measured from the inner radius (first bin centre at
// dr/2) and angular centres on [0, 2π); [Topology.Radii] returns the radial
// centres with the inner radius added.
package grid

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

type CoordSystem int

const (
	Cartesian CoordSystem = iota
	CylindricalPolar
)

func (c CoordSystem) String() string {
	switch c {
	case Cartesian:
		return "cartesian"
	case CylindricalPolar:
		return "cylindrical-polar"
	}
	return fmt.Sprintf("CoordSystem(%d)", int(c))
}

var (
	ErrInvalidGrid   = errors.New("grid: invalid topology")
	ErrInvalidLimits = errors.New("grid: invalid bin limits")
)

// Topology is immutable after construction; accessors return copies.
type Topology struct {
	counts      [3]int
	centers     [3][]float64
	sizes       [3]float64
	extent      [3]float64
	system      CoordSystem
	innerRadius float64
}

// NewCartesian builds an evenly spaced grid of counts[i] bins over a domain of
// length extent[i] centred on the origin.
func NewCartesian(counts [3]int, extent [3]float64) (*Topology, error) {
	t := &Topology{counts: counts, extent: extent, system: Cartesian}
	for ax := 0; ax < 3; ax++ {
		if counts[ax] <= 0 || !(extent[ax] > 0) {
			return nil, fmt.Errorf("%w: axis %d has %d bins over %g", ErrInvalidGrid, ax, counts[ax], extent[ax])
		}
		t.sizes[ax] = extent[ax] / float64(counts[ax])
		t.centers[ax] = linspace(-extent[ax]/2+t.sizes[ax]/2, extent[ax]/2-t.sizes[ax]/2, counts[ax])
	}
	return t, nil
}

// NewCylindrical builds a (r, θ, z) grid over the annulus rInner..rOuter of
// axial length lz.
func NewCylindrical(counts [3]int, rInner, rOuter, lz float64) (*Topology, error) {
	if rInner < 0 || !(rOuter > rInner) {
		return nil, fmt.Errorf("%w: radii %g..%g", ErrInvalidGrid, rInner, rOuter)
	}
	extent := [3]float64{rOuter - rInner, 2 * math.Pi, lz}
	t, err := NewCartesian(counts, extent)
	if err != nil {
		return nil, err
	}
	t.system = CylindricalPolar
	t.innerRadius = rInner
	for ax := 0; ax < 2; ax++ {
		t.centers[ax] = linspace(t.sizes[ax]/2, extent[ax]-t.sizes[ax]/2, counts[ax])
	}
	return t, nil
}

// FromPoints builds a structured Cartesian grid from the raw grid-point
// coordinates along each axis. Bin centres are midpoints of consecutive
// points. The domain extent is the distance from first to last point.
func FromPoints(points [3][]float64) (*Topology, error) {
	t := &Topology{system: Cartesian}
	for ax := 0; ax < 3; ax++ {
		p := points[ax]
		if len(p) < 2 {
			return nil, fmt.Errorf("%w: axis %d has %d grid points", ErrInvalidGrid, ax, len(p))
		}
		if !monotonic(p) {
			return nil, fmt.Errorf("%w: axis %d points are not strictly increasing", ErrInvalidGrid, ax)
		}
		t.counts[ax] = len(p) - 1
		t.extent[ax] = p[len(p)-1] - p[0]
		c := make([]float64, len(p)-1)
		for i := range c {
			c[i] = 0.5 * (p[i] + p[i+1])
		}
		t.centers[ax] = c
		t.sizes[ax] = spacing(c, t.extent[ax])
	}
	return t, nil
}

// FromCenters builds a Cartesian grid from known bin centres. extent is used
// for any axis whose size cannot be derived from the centres (one bin); a zero
// extent entry means "count times spacing".
func FromCenters(centers [3][]float64, extent [3]float64) (*Topology, error) {
	t := &Topology{system: Cartesian}
	for ax := 0; ax < 3; ax++ {
		c := append([]float64(nil), centers[ax]...)
		if len(c) == 0 {
			return nil, fmt.Errorf("%w: axis %d has no bins", ErrInvalidGrid, ax)
		}
		sort.Float64s(c)
		if !monotonic(c) {
			return nil, fmt.Errorf("%w: axis %d has repeated centres", ErrInvalidGrid, ax)
		}
		t.counts[ax] = len(c)
		t.centers[ax] = c
		t.sizes[ax] = spacing(c, extent[ax])
		t.extent[ax] = extent[ax]
		if t.extent[ax] == 0 {
			t.extent[ax] = t.sizes[ax] * float64(len(c))
		}
		if !(t.sizes[ax] > 0) {
			return nil, fmt.Errorf("%w: axis %d size cannot be derived", ErrInvalidGrid, ax)
		}
	}
	return t, nil
}

func (t *Topology) Counts() [3]int       { return t.counts }
func (t *Topology) Sizes() [3]float64    { return t.sizes }
func (t *Topology) Extent() [3]float64   { return t.extent }
func (t *Topology) System() CoordSystem  { return t.system }
func (t *Topology) InnerRadius() float64 { return t.innerRadius }

func (t *Topology) NumBins() int {
	return t.counts[0] * t.counts[1] * t.counts[2]
}

// Centers returns a copy of the bin centres along axis.
func (t *Topology) Centers(axis int) []float64 {
	return append([]float64(nil), t.centers[axis]...)
}

// Radii returns the radial bin centres including the inner radius offset.
// For Cartesian grids it returns the axis-0 centres unchanged.
func (t *Topology) Radii() []float64 {
	r := t.Centers(0)
	for i := range r {
		r[i] += t.innerRadius
	}
	return r
}

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

func spacing(centers []float64, fallback float64) float64 {
	if len(centers) < 2 {
		return fallback
	}
	return centers[1] - centers[0]
}

func monotonic(v []float64) bool {
	for i := 1; i < len(v); i++ {
		if !(v[i] > v[i-1]) {
			return false
		}
	}
	return true
}
