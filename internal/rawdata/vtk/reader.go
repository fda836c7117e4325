// Package vtk reads series of XML rectilinear-grid files (fname.<step>.vtr)
// with one cell data array each, as written by the LAMMPS grid output. The
// grid is taken from the first file of the series and assumed to hold for
// every record.
package vtk

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/postproc/internal/field"
	"github.com/san-kum/postproc/internal/grid"
	"github.com/san-kum/postproc/internal/logging"
	"github.com/san-kum/postproc/internal/rawdata"
)

const (
	Ext         = ".vtr"
	SuffixWidth = 8
)

var logger = logging.Default()

type Reader struct {
	rawdata.Base

	fname    string
	array    string
	plotFreq int
	steps    []int
}

var _ rawdata.Backend = (*Reader)(nil)

func Open(dir, fname string) (*Reader, error) {
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return nil, rawdata.NotAvailable(fmt.Sprintf("results directory %s", dir), err)
	}
	files, steps, err := series(dir, fname)
	if err != nil {
		return nil, err
	}
	if len(files) < 2 {
		return nil, rawdata.NotAvailable(fmt.Sprintf("%s: %d files, at least two are needed to find the plot frequency", fname, len(files)), nil)
	}
	freq := steps[1] - steps[0]
	if freq <= 0 {
		return nil, rawdata.NotAvailable(fmt.Sprintf("%s: plot frequency %d", fname, freq), nil)
	}

	f, err := readFile(files[0])
	if err != nil {
		return nil, err
	}
	pts, err := f.coordinates()
	if err != nil {
		return nil, err
	}
	top, err := grid.FromPoints(pts)
	if err != nil {
		return nil, rawdata.NotAvailable(files[0], err)
	}
	da, err := f.cellArray("")
	if err != nil {
		return nil, err
	}
	comps, err := field.ClassifyComponents(da.components(), 1, 3)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", rawdata.ErrUnsupportedFormat, files[0], err)
	}

	layout := rawdata.Layout{
		Mode:       rawdata.PerRecordFile,
		MaxRec:     len(files) - 1,
		Dir:        dir,
		Base:       fname,
		Width:      SuffixWidth,
		Multiplier: freq,
		Ext:        Ext,
	}
	logger.Infof("vtk: %s: %d files every %d steps, %s %q", fname, len(files), freq, comps, da.Name)
	return &Reader{
		Base:     rawdata.NewBase(top, layout, comps),
		fname:    fname,
		array:    da.Name,
		plotFreq: freq,
		steps:    steps,
	}, nil
}

// series lists the files of a series in suffix order with their step
// numbers. Files whose step cannot be parsed are logged and left out.
func series(dir, fname string) ([]string, []int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, fname+".*"+Ext))
	if err != nil {
		return nil, nil, err
	}
	sort.Strings(matches)
	var files []string
	var steps []int
	for _, m := range matches {
		s := strings.TrimSuffix(filepath.Base(m), Ext)
		n, err := strconv.Atoi(s[strings.LastIndex(s, ".")+1:])
		if err != nil {
			logger.Warnf("vtk: skipping %s: %v", m, err)
			continue
		}
		files = append(files, m)
		steps = append(steps, n)
	}
	return files, steps, nil
}

func readFile(path string) (*vtkFile, error) {
	fobj, err := os.Open(path)
	if err != nil {
		return nil, rawdata.NotAvailable(path, err)
	}
	defer fobj.Close()
	f, err := parseFile(fobj)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

func (r *Reader) PlotFreq() int     { return r.plotFreq }
func (r *Reader) ArrayName() string { return r.array }

// Steps returns the step numbers found when the reader was opened.
func (r *Reader) Steps() []int {
	return append([]int(nil), r.steps...)
}

// Read returns records start..end inclusive. Record n is the file with step
// n times the plot frequency.
func (r *Reader) Read(start, end int, limits grid.BinLimits, missing rawdata.MissingPolicy) (*field.Array, error) {
	if err := r.CheckRequest(start, end, limits); err != nil {
		return nil, err
	}
	ncomp := r.Components().N
	want := r.Topology().NumBins() * ncomp
	a, err := rawdata.ReadRecords(r.Topology().Counts(), ncomp, field.InterleavedOrder, start, end, missing,
		func(rec int) ([]float64, error) {
			path := r.Layout().RecordPath(rec)
			f, err := readFile(path)
			if err != nil {
				return nil, err
			}
			da, err := f.cellArray(r.array)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			v, err := f.decode(da)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			if len(v) != want {
				return nil, rawdata.Corrupt("%s: %d values, expected %d", path, len(v), want)
			}
			return v, nil
		})
	if err != nil {
		return nil, err
	}
	return rawdata.Restrict(a, limits)
}
