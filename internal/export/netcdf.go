package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/ctessum/cdf"

	"github.com/san-kum/postproc/internal/field"
	"github.com/san-kum/postproc/internal/grid"
)

// ReadWriterAt is what the netCDF writer needs from its output; *os.File
// satisfies it.
type ReadWriterAt interface {
	io.ReaderAt
	io.WriterAt
}

var ncDims = []string{"x", "y", "z", "rec", "comp"}

// WriteNetCDF stores a as variable name with dimensions (x, y, z, rec, comp),
// plus coordinate variables x, y and z holding the bin centres of top within
// limits and rec holding the source record indices. attrs become global
// attributes.
func WriteNetCDF(w ReadWriterAt, name string, a *field.Array, top *grid.Topology, limits grid.BinLimits, attrs map[string]string) error {
	s := a.Shape()
	lo, hi, err := limits.Resolve(top.Counts())
	if err != nil {
		return err
	}
	for ax := 0; ax < 3; ax++ {
		if hi[ax]-lo[ax] != s[ax] {
			return fmt.Errorf("%w: array has %d bins along axis %d, window has %d", field.ErrShape, s[ax], ax, hi[ax]-lo[ax])
		}
	}
	if name == "" || name == "x" || name == "y" || name == "z" || name == "rec" {
		return fmt.Errorf("netcdf: bad variable name %q", name)
	}

	h := cdf.NewHeader(ncDims, s[:])
	h.AddAttribute("", "comment", "binned simulation output")
	h.AddAttribute("", "coordinate_system", top.System().String())
	sizes := top.Sizes()
	h.AddAttribute("", "bin_size", sizes[:])
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.AddAttribute("", k, attrs[k])
	}

	for ax := 0; ax < 3; ax++ {
		h.AddVariable(ncDims[ax], ncDims[ax:ax+1], []float64{0})
	}
	h.AddVariable("rec", []string{"rec"}, []int32{0})
	h.AddVariable(name, ncDims, []float64{0})
	h.AddAttribute(name, "description", name)
	h.Define()

	f, err := cdf.Create(w, h)
	if err != nil {
		return err
	}

	coords := [3][]float64{top.Centers(0), top.Centers(1), top.Centers(2)}
	if top.System() == grid.CylindricalPolar {
		coords[0] = top.Radii()
	}
	for ax := 0; ax < 3; ax++ {
		if err := writeVar(f, ncDims[ax], coords[ax][lo[ax]:hi[ax]]); err != nil {
			return err
		}
	}
	recs := make([]int32, s[3])
	for i, r := range a.Records() {
		recs[i] = int32(r)
	}
	if err := writeVar(f, "rec", recs); err != nil {
		return err
	}
	// the dense array is row-major over (x, y, z, rec, comp), as netCDF is
	if err := writeVar(f, name, a.Dense().Elements); err != nil {
		return err
	}
	return nil
}

func writeVar(f *cdf.File, name string, data interface{}) error {
	end := f.Header.Lengths(name)
	start := make([]int, len(end))
	if _, err := f.Writer(name, start, end).Write(data); err != nil {
		return fmt.Errorf("netcdf: writing variable %s: %v", name, err)
	}
	return nil
}
