// Package openfoam reads fields from a serial OpenFOAM case meshed with a
// single blockMesh hex block. Every time directory after the initial one is a
// record; the field is the internalField entry of <time>/<field>.
package openfoam

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/san-kum/postproc/internal/field"
	"github.com/san-kum/postproc/internal/grid"
	"github.com/san-kum/postproc/internal/logging"
	"github.com/san-kum/postproc/internal/rawdata"
)

// Entry is the field file entry holding cell values.
const Entry = "internalField"

var logger = logging.Default()

type Reader struct {
	rawdata.Base

	fname string
	times []string
	nu    float64
}

var _ rawdata.Backend = (*Reader)(nil)

func Open(dir, fname string) (*Reader, error) {
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return nil, rawdata.NotAvailable(fmt.Sprintf("case directory %s", dir), err)
	}
	mesh := filepath.Join(dir, "constant", "polyMesh")
	cells, err := blockCounts(filepath.Join(mesh, "blockMeshDict"))
	if err != nil {
		return nil, err
	}
	pts, err := gridPoints(filepath.Join(mesh, "points"), cells)
	if err != nil {
		return nil, err
	}
	top, err := grid.FromPoints(pts)
	if err != nil {
		return nil, rawdata.NotAvailable("mesh", err)
	}

	times, err := timeDirs(dir)
	if err != nil {
		return nil, err
	}
	if len(times) == 0 {
		return nil, rawdata.NotAvailable(fmt.Sprintf("%s: no time directories after the initial one", dir), nil)
	}
	paths := make([]string, len(times))
	for i, t := range times {
		paths[i] = filepath.Join(dir, t, fname)
	}

	first, err := readList(paths[0])
	if err != nil {
		return nil, err
	}
	comps, err := field.ClassifyComponents(first.width(), 1, 3, 6, 9)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", rawdata.ErrUnsupportedFormat, paths[0], err)
	}

	nu, err := viscosity(filepath.Join(dir, "constant", "transportProperties"))
	if err != nil {
		logger.Infof("openfoam: viscosity not available: %v", err)
		nu = math.NaN()
	}

	layout := rawdata.Layout{
		Mode:   rawdata.PerRecordFile,
		MaxRec: len(paths) - 1,
		Dir:    dir,
		Base:   fname,
		Paths:  paths,
	}
	logger.Infof("openfoam: %s: %v cells, %s, %d records", fname, cells, comps, len(paths))
	return &Reader{
		Base:  rawdata.NewBase(top, layout, comps),
		fname: fname,
		times: times,
		nu:    nu,
	}, nil
}

func readList(path string) (*cellList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, rawdata.NotAvailable(path, err)
	}
	defer f.Close()
	return readField(f, path, Entry)
}

// Nu is the kinematic viscosity from constant/transportProperties, or NaN
// when the case does not define one.
func (r *Reader) Nu() float64 { return r.nu }

// Times returns the time directory of every record.
func (r *Reader) Times() []string {
	return append([]string(nil), r.times...)
}

func (r *Reader) Read(start, end int, limits grid.BinLimits, missing rawdata.MissingPolicy) (*field.Array, error) {
	if err := r.CheckRequest(start, end, limits); err != nil {
		return nil, err
	}
	ncells := r.Topology().NumBins()
	ncomp := r.Components().N
	a, err := rawdata.ReadRecords(r.Topology().Counts(), ncomp, field.InterleavedOrder, start, end, missing,
		func(rec int) ([]float64, error) {
			path := r.Layout().RecordPath(rec)
			l, err := readList(path)
			if err != nil {
				return nil, err
			}
			flat, err := l.flatten(ncells, ncomp)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			return flat, nil
		})
	if err != nil {
		return nil, err
	}
	return rawdata.Restrict(a, limits)
}
