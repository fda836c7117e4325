package vtk

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/postproc/internal/field"
	"github.com/san-kum/postproc/internal/grid"
	"github.com/san-kum/postproc/internal/rawdata"
)

var points = [3][]float64{{0, 1, 2, 3}, {0, 2, 4}, {0, 0.5, 1}}

type encoding int

const (
	ascii encoding = iota
	binaryJoined
	binarySplit
)

// value is the expected content of bin (i, j, k), component c of record r.
func value(i, j, k, r, c int) float64 {
	return float64(1000*r + 100*c + 10*k + 3*j + i)
}

func encode(enc encoding, v []float64) (string, string) {
	if enc == ascii {
		s := make([]string, len(v))
		for i, x := range v {
			s[i] = fmt.Sprint(x)
		}
		return "ascii", strings.Join(s, " ")
	}
	var payload bytes.Buffer
	binary.Write(&payload, binary.LittleEndian, v)
	hdr := make([]byte, 4)
	binary.LittleEndian.PutUint32(hdr, uint32(payload.Len()))
	if enc == binaryJoined {
		return "binary", base64.StdEncoding.EncodeToString(append(hdr, payload.Bytes()...))
	}
	return "binary", base64.StdEncoding.EncodeToString(hdr) + base64.StdEncoding.EncodeToString(payload.Bytes())
}

func writeVTR(t *testing.T, path string, enc encoding, ncomp, rec int, extra string) {
	t.Helper()
	n := [3]int{len(points[0]) - 1, len(points[1]) - 1, len(points[2]) - 1}
	var cells []float64
	for k := 0; k < n[2]; k++ {
		for j := 0; j < n[1]; j++ {
			for i := 0; i < n[0]; i++ {
				for c := 0; c < ncomp; c++ {
					cells = append(cells, value(i, j, k, rec, c))
				}
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<?xml version=\"1.0\"?>\n<VTKFile type=\"RectilinearGrid\" version=\"1.0\" byte_order=\"LittleEndian\" header_type=\"UInt32\"%s>\n", extra)
	fmt.Fprintf(&b, "<RectilinearGrid WholeExtent=\"0 %d 0 %d 0 %d\">\n<Piece Extent=\"0 %d 0 %d 0 %d\">\n", n[0], n[1], n[2], n[0], n[1], n[2])
	format, data := encode(enc, cells)
	fmt.Fprintf(&b, "<CellData>\n<DataArray type=\"Float64\" Name=\"Vector\" NumberOfComponents=\"%d\" format=\"%s\">\n%s\n</DataArray>\n</CellData>\n", ncomp, format, data)
	b.WriteString("<Coordinates>\n")
	for ax, name := range []string{"x", "y", "z"} {
		format, data := encode(enc, points[ax])
		fmt.Fprintf(&b, "<DataArray type=\"Float64\" Name=\"%s\" format=\"%s\">%s</DataArray>\n", name, format, data)
	}
	b.WriteString("</Coordinates>\n</Piece>\n</RectilinearGrid>\n</VTKFile>\n")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
}

func writeSeries(t *testing.T, enc encoding, ncomp int, steps ...int) string {
	t.Helper()
	dir := t.TempDir()
	for rec, step := range steps {
		writeVTR(t, filepath.Join(dir, fmt.Sprintf("grid.%08d.vtr", step)), enc, ncomp, rec, "")
	}
	return dir
}

func TestOpen(t *testing.T) {
	dir := writeSeries(t, ascii, 3, 0, 100, 200)
	r, err := Open(dir, "grid")
	require.NoError(t, err)

	require.Equal(t, 100, r.PlotFreq())
	require.Equal(t, 2, r.MaxRec())
	require.Equal(t, []int{0, 100, 200}, r.Steps())
	require.Equal(t, "Vector", r.ArrayName())
	require.Equal(t, field.Vector, r.Components().Kind)

	top := r.Topology()
	require.Equal(t, [3]int{3, 2, 2}, top.Counts())
	require.Equal(t, [3]float64{1, 2, 0.5}, top.Sizes())
	require.Equal(t, [3]float64{3, 4, 1}, top.Extent())
	require.Equal(t, []float64{0.5, 1.5, 2.5}, top.Centers(0))

	v, err := r.Volumes(nil)
	require.NoError(t, err)
	require.InDelta(t, 12.0, floats.Sum(v.Elements), 1e-12)
	require.Equal(t, "grid.00000200.vtr", filepath.Base(r.Layout().RecordPath(2)))
}

func TestReadEncodings(t *testing.T) {
	for name, enc := range map[string]encoding{"ascii": ascii, "joined": binaryJoined, "split": binarySplit} {
		t.Run(name, func(t *testing.T) {
			dir := writeSeries(t, enc, 3, 0, 50, 100)
			r, err := Open(dir, "grid")
			require.NoError(t, err)

			a, err := r.Read(0, 2, nil, rawdata.Raise)
			require.NoError(t, err)
			require.Equal(t, [5]int{3, 2, 2, 3, 3}, a.Shape())
			for i := 0; i < 3; i++ {
				for j := 0; j < 2; j++ {
					for k := 0; k < 2; k++ {
						for rec := 0; rec < 3; rec++ {
							for c := 0; c < 3; c++ {
								require.Equal(t, value(i, j, k, rec, c), a.At(i, j, k, rec, c))
							}
						}
					}
				}
			}
		})
	}
}

func TestScalarSeries(t *testing.T) {
	dir := writeSeries(t, binaryJoined, 1, 10, 20)
	r, err := Open(dir, "grid")
	require.NoError(t, err)
	require.Equal(t, field.Scalar, r.Components().Kind)
	require.Equal(t, 10, r.PlotFreq())

	// steps start at 10, so record 1 is step 10 and record 0 has no file
	a, err := r.Read(1, 1, nil, rawdata.Raise)
	require.NoError(t, err)
	require.Equal(t, value(2, 1, 1, 0, 0), a.At(2, 1, 1, 0, 0))

	_, err = r.Read(0, 1, nil, rawdata.Raise)
	require.ErrorIs(t, err, rawdata.ErrDataNotAvailable)
}

func TestMissingRecord(t *testing.T) {
	dir := writeSeries(t, ascii, 3, 0, 100, 200, 300)
	require.NoError(t, os.Remove(filepath.Join(dir, "grid.00000200.vtr")))
	r, err := Open(dir, "grid")
	require.NoError(t, err)
	require.Equal(t, 2, r.MaxRec())

	_, err = r.Read(0, 2, nil, rawdata.Raise)
	require.ErrorIs(t, err, rawdata.ErrDataNotAvailable)

	a, err := r.Read(0, 2, nil, rawdata.Skip)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1}, a.Records())

	a, err = r.Read(0, 2, nil, rawdata.ReturnZeros)
	require.NoError(t, err)
	require.True(t, a.IsZeroRecord(2))
}

func TestBinLimitsCompose(t *testing.T) {
	dir := writeSeries(t, binarySplit, 3, 0, 1)
	r, err := Open(dir, "grid")
	require.NoError(t, err)

	limits := grid.BinLimits{grid.Span(1, 2), grid.Span(0, 1), nil}
	full, err := r.Read(0, 1, nil, rawdata.Raise)
	require.NoError(t, err)
	want, err := field.Slice(full, limits)
	require.NoError(t, err)
	got, err := r.Read(0, 1, limits, rawdata.Raise)
	require.NoError(t, err)
	require.True(t, want.Equal(got))
}

func TestOpenFailures(t *testing.T) {
	t.Run("single file", func(t *testing.T) {
		dir := writeSeries(t, ascii, 3, 0)
		_, err := Open(dir, "grid")
		require.ErrorIs(t, err, rawdata.ErrDataNotAvailable)
	})
	t.Run("no files", func(t *testing.T) {
		_, err := Open(t.TempDir(), "grid")
		require.ErrorIs(t, err, rawdata.ErrDataNotAvailable)
	})
	t.Run("tensor", func(t *testing.T) {
		dir := writeSeries(t, ascii, 9, 0, 1)
		_, err := Open(dir, "grid")
		require.ErrorIs(t, err, rawdata.ErrUnsupportedFormat)
	})
	t.Run("compressed", func(t *testing.T) {
		dir := t.TempDir()
		for rec, step := range []int{0, 1} {
			writeVTR(t, filepath.Join(dir, fmt.Sprintf("grid.%08d.vtr", step)), binaryJoined, 1, rec,
				` compressor="vtkZLibDataCompressor"`)
		}
		_, err := Open(dir, "grid")
		require.ErrorIs(t, err, rawdata.ErrUnsupportedFormat)
	})
	t.Run("not xml", func(t *testing.T) {
		dir := t.TempDir()
		for _, step := range []int{0, 1} {
			path := filepath.Join(dir, fmt.Sprintf("grid.%08d.vtr", step))
			require.NoError(t, os.WriteFile(path, []byte("# vtk DataFile Version 3.0\n"), 0644))
		}
		_, err := Open(dir, "grid")
		require.ErrorIs(t, err, rawdata.ErrCorruptRecord)
	})
}

func TestTruncatedRecord(t *testing.T) {
	dir := writeSeries(t, ascii, 3, 0, 1)
	path := filepath.Join(dir, "grid.00000001.vtr")
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	// drop the last cell value
	s := string(b)
	i := strings.Index(s, "\n</DataArray>")
	j := strings.LastIndex(s[:i], " ")
	require.NoError(t, os.WriteFile(path, []byte(s[:j]+s[i:]), 0644))

	r, err := Open(dir, "grid")
	require.NoError(t, err)
	_, err = r.Read(0, 1, nil, rawdata.Raise)
	require.ErrorIs(t, err, rawdata.ErrCorruptRecord)
}
