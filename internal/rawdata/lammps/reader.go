// Package lammps reads the ASCII output of LAMMPS fix ave/chunk over a
// chunk/atom bin/3d compute. Every timestep block of the file is one record;
// the requested columns (vx vy vz, Ncount, ...) become the components.
package lammps

import (
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/san-kum/postproc/internal/field"
	"github.com/san-kum/postproc/internal/grid"
	"github.com/san-kum/postproc/internal/logging"
	"github.com/san-kum/postproc/internal/rawdata"
)

var logger = logging.Default()

type Reader struct {
	rawdata.Base

	names    []string
	cols     []int
	offsets  []int64
	steps    []int
	nchunks  int
	order    field.AxisOrder
	plotFreq int
}

var _ rawdata.Backend = (*Reader)(nil)

// Open reads the columns names of dir/fname. An empty fname is looked up in
// log.lammps.
func Open(dir, fname string, names ...string) (*Reader, error) {
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return nil, rawdata.NotAvailable(fmt.Sprintf("results directory %s", dir), err)
	}
	if fname == "" {
		fname = FindFile(dir)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no columns requested", rawdata.ErrUnsupportedFormat)
	}
	layout := rawdata.Layout{Mode: rawdata.Monolithic, Dir: dir, Base: fname}

	ix, err := scanChunks(layout.Path())
	if err != nil {
		return nil, err
	}
	cols := make([]int, len(names))
	for i, n := range names {
		if cols[i] = ix.column(n); cols[i] < 0 {
			return nil, rawdata.NotAvailable(fmt.Sprintf("%s: no %s column in %v", fname, n, ix.columns), nil)
		}
	}
	comps, err := field.ClassifyComponents(len(names))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rawdata.ErrUnsupportedFormat, err)
	}

	box, _ := BoxExtent(dir)
	top, order, err := chunkGrid(ix, box)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}

	r := &Reader{
		names:   append([]string(nil), names...),
		cols:    cols,
		offsets: ix.offsets,
		steps:   ix.steps,
		nchunks: ix.nchunks,
		order:   order,
	}
	if len(ix.steps) > 1 {
		r.plotFreq = ix.steps[1] - ix.steps[0]
	}
	layout.MaxRec = len(ix.offsets) - 1
	r.Base = rawdata.NewBase(top, layout, comps)
	logger.Infof("lammps: %s: %v bins, %d records, columns %v, order %s", fname, top.Counts(), len(ix.offsets), names, order)
	return r, nil
}

// chunkGrid derives the bin grid from the chunk coordinates of the first
// block and works out which coordinate varies fastest. box holds the
// simulation box lengths, zero where unknown.
func chunkGrid(ix *chunkIndex, box [3]float64) (*grid.Topology, field.AxisOrder, error) {
	var centers [3][]float64
	var extent [3]float64
	for ax := 0; ax < 3; ax++ {
		centers[ax] = unique(ix.coords[ax])
		if len(centers[ax]) > 1 {
			continue
		}
		extent[ax] = box[ax]
		// without a box, a single bin is assumed to start at the origin
		if extent[ax] <= 0 {
			extent[ax] = 2 * math.Abs(centers[ax][0])
		}
	}
	top, err := grid.FromCenters(centers, extent)
	if err != nil {
		return nil, field.AxisOrder{}, rawdata.NotAvailable("chunk grid", err)
	}
	n := top.Counts()
	if n[0]*n[1]*n[2] != ix.nchunks {
		return nil, field.AxisOrder{}, fmt.Errorf("%w: %d chunks do not fill a %v grid", rawdata.ErrUnsupportedFormat, ix.nchunks, n)
	}

	// bin/3d numbers chunks with the third coordinate fastest; x-fastest
	// files are accepted too.
	for _, order := range []field.AxisOrder{field.InterleavedCOrder, field.InterleavedOrder} {
		if onGrid(ix, centers, order) {
			return top, order, nil
		}
	}
	return nil, field.AxisOrder{}, fmt.Errorf("%w: chunks are not ordered on a regular grid", rawdata.ErrUnsupportedFormat)
}

// onGrid reports whether every chunk sits where order puts it.
func onGrid(ix *chunkIndex, centers [3][]float64, order field.AxisOrder) bool {
	var dims, idx [5]int
	for ax := 0; ax < 3; ax++ {
		dims[ax] = len(centers[ax])
	}
	dims[field.AxisRecord], dims[field.AxisComponent] = 1, 1
	for row := 0; row < ix.nchunks; row++ {
		for ax := 0; ax < 3; ax++ {
			if ix.coords[ax][row] != centers[ax][idx[ax]] {
				return false
			}
		}
		for _, ax := range order {
			idx[ax]++
			if idx[ax] < dims[ax] {
				break
			}
			idx[ax] = 0
		}
	}
	return true
}

func unique(v []float64) []float64 {
	s := append([]float64(nil), v...)
	sort.Float64s(s)
	out := s[:0]
	for i, x := range s {
		if i == 0 || x != s[i-1] {
			out = append(out, x)
		}
	}
	return out
}

func (r *Reader) PlotFreq() int          { return r.plotFreq }
func (r *Reader) Columns() []string      { return append([]string(nil), r.names...) }
func (r *Reader) Order() field.AxisOrder { return r.order }

// Steps returns the timestep of every record.
func (r *Reader) Steps() []int {
	return append([]int(nil), r.steps...)
}

func (r *Reader) Read(start, end int, limits grid.BinLimits, missing rawdata.MissingPolicy) (*field.Array, error) {
	if err := r.CheckRequest(start, end, limits); err != nil {
		return nil, err
	}
	path := r.Layout().Path()
	f, openErr := os.Open(path)
	if openErr != nil {
		openErr = rawdata.NotAvailable(path, openErr)
	} else {
		defer f.Close()
	}

	a, err := rawdata.ReadRecords(r.Topology().Counts(), len(r.cols), r.order, start, end, missing,
		func(rec int) ([]float64, error) {
			if openErr != nil {
				return nil, openErr
			}
			v, err := readBlock(f, r.offsets[rec], r.nchunks, r.cols)
			if err != nil {
				return nil, fmt.Errorf("%s: step %d: %w", path, r.steps[rec], err)
			}
			return v, nil
		})
	if err != nil {
		return nil, err
	}
	return rawdata.Restrict(a, limits)
}
