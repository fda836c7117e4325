// Package md reads the binary bin files written by the molecular dynamics
// code. Every file in a results directory shares the grid described by its
// simulation_header; a field is either one growing file (fname) or one file
// per record (fname.0000000, fname.0000001, ...). Values are little-endian
// and each record is laid out x fastest, then y, z and component.
package md

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/san-kum/postproc/internal/field"
	"github.com/san-kum/postproc/internal/grid"
	"github.com/san-kum/postproc/internal/header"
	"github.com/san-kum/postproc/internal/logging"
	"github.com/san-kum/postproc/internal/rawdata"
)

const (
	// SuffixWidth is the zero padding of per-record file suffixes.
	SuffixWidth = 7
)

var logger = logging.Default()

type Reader struct {
	rawdata.Base

	dir      string
	fname    string
	dtype    DType
	nperbin  int
	header   *header.Header
	plotFreq int
}

var _ rawdata.Backend = (*Reader)(nil)

// Open builds a reader for dir/fname holding nperbin values of type dtype in
// every bin.
func Open(dir, fname string, dtype DType, nperbin int) (*Reader, error) {
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return nil, rawdata.NotAvailable(fmt.Sprintf("results directory %s", dir), err)
	}
	if !dtype.valid() {
		return nil, fmt.Errorf("%w: data type %v", rawdata.ErrUnsupportedFormat, dtype)
	}
	comps, err := field.ClassifyComponents(nperbin)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rawdata.ErrUnsupportedFormat, err)
	}

	h, err := header.Read(dir)
	if err != nil {
		return nil, rawdata.NotAvailable("simulation header", err)
	}
	top, err := TopologyFromHeader(h)
	if err != nil {
		return nil, err
	}

	nbins := top.NumBins()
	stride := int64(nbins * nperbin * dtype.Size())
	layout, err := rawdata.Resolve(dir, fname, stride, SuffixWidth, 1)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		Base:     rawdata.NewBase(top, layout, comps),
		dir:      dir,
		fname:    fname,
		dtype:    dtype,
		nperbin:  nperbin,
		header:   h,
		plotFreq: 1,
	}
	if h.Has("tplot") {
		if r.plotFreq, err = h.Int("tplot"); err != nil {
			return nil, rawdata.NotAvailable("plot frequency", err)
		}
	}
	logger.Infof("md: %s: %v bins, %s, %s layout, maxrec %d", fname, top.Counts(), comps, layout.Mode, layout.MaxRec)
	return r, nil
}

// TopologyFromHeader builds the bin grid described by a simulation header.
// Cylindrical-polar bins are used when cpol_bins is set, with the annulus
// r_oi..r_io and the axial length globaldomain3.
func TopologyFromHeader(h *header.Header) (*grid.Topology, error) {
	var counts [3]int
	var extent [3]float64
	for ax := 0; ax < 3; ax++ {
		n, err := h.Int(fmt.Sprintf("gnbins%d", ax+1))
		if err != nil {
			return nil, rawdata.NotAvailable("bin counts", err)
		}
		d, err := h.Float(fmt.Sprintf("globaldomain%d", ax+1))
		if err != nil {
			return nil, rawdata.NotAvailable("domain size", err)
		}
		counts[ax], extent[ax] = n, d
	}

	cpol := false
	if h.Has("cpol_bins") {
		var err error
		if cpol, err = h.Bool("cpol_bins"); err != nil {
			return nil, rawdata.NotAvailable("coordinate system flag", err)
		}
	}

	var top *grid.Topology
	var err error
	if cpol {
		rin, ierr := h.Float("r_oi")
		rout, oerr := h.Float("r_io")
		if err := errors.Join(ierr, oerr); err != nil {
			return nil, rawdata.NotAvailable("cylindrical radii", err)
		}
		top, err = grid.NewCylindrical(counts, rin, rout, extent[2])
	} else {
		top, err = grid.NewCartesian(counts, extent)
	}
	if err != nil {
		return nil, rawdata.NotAvailable("bin topology", err)
	}
	return top, nil
}

func (r *Reader) DType() DType           { return r.dtype }
func (r *Reader) PerBin() int            { return r.nperbin }
func (r *Reader) Header() *header.Header { return r.header }
func (r *Reader) PlotFreq() int          { return r.plotFreq }
func (r *Reader) Name() string           { return r.fname }
func (r *Reader) Dir() string            { return r.dir }

func (r *Reader) recordBytes() int64 {
	return int64(r.Topology().NumBins() * r.nperbin * r.dtype.Size())
}

// Rescan returns a reader whose record layout reflects the files currently
// on disk. The receiver is unchanged.
func (r *Reader) Rescan() (*Reader, error) {
	layout, err := rawdata.Resolve(r.dir, r.fname, r.recordBytes(), SuffixWidth, 1)
	if err != nil {
		return nil, err
	}
	out := *r
	out.Base = rawdata.NewBase(r.Topology(), layout, r.Components())
	return &out, nil
}

// Read returns records start..end inclusive.
func (r *Reader) Read(start, end int, limits grid.BinLimits, missing rawdata.MissingPolicy) (*field.Array, error) {
	if err := r.CheckRequest(start, end, limits); err != nil {
		return nil, err
	}
	var read rawdata.RecordFunc
	if r.Layout().Mode == rawdata.Monolithic {
		buf, err := r.readBlock(start, end)
		if err != nil && !errors.Is(err, rawdata.ErrDataNotAvailable) {
			return nil, err
		}
		read = func(rec int) ([]float64, error) {
			if err != nil {
				return nil, err
			}
			off := int64(rec-start) * r.recordBytes()
			return r.dtype.decode(buf[off : off+r.recordBytes()]), nil
		}
	} else {
		read = r.readRecordFile
	}

	a, err := rawdata.ReadRecords(r.Topology().Counts(), r.nperbin, field.FortranOrder, start, end, missing, read)
	if err != nil {
		return nil, err
	}
	return rawdata.Restrict(a, limits)
}

// readBlock reads records start..end of the monolithic file in one go.
func (r *Reader) readBlock(start, end int) ([]byte, error) {
	f, err := os.Open(r.Layout().Path())
	if err != nil {
		return nil, rawdata.NotAvailable(r.Layout().Path(), err)
	}
	defer f.Close()

	buf := make([]byte, int64(end-start+1)*r.recordBytes())
	n, err := f.ReadAt(buf, int64(start)*r.recordBytes())
	if err != nil && !(errors.Is(err, io.EOF) && n == len(buf)) {
		return nil, rawdata.Corrupt("%s: read %d of %d bytes at record %d: %v", r.Layout().Path(), n, len(buf), start, err)
	}
	return buf, nil
}

func (r *Reader) readRecordFile(rec int) ([]float64, error) {
	path := r.Layout().RecordPath(rec)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, rawdata.NotAvailable(path, err)
	}
	if int64(len(b)) != r.recordBytes() {
		return nil, rawdata.Corrupt("%s: %d bytes, expected %d", path, len(b), r.recordBytes())
	}
	return r.dtype.decode(b), nil
}
