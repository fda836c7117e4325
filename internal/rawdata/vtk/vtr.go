package vtk

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/san-kum/postproc/internal/rawdata"
)

// vtkFile covers the parts of a serial XML RectilinearGrid file the reader
// needs: one piece, its coordinates and its cell data.
type vtkFile struct {
	XMLName    xml.Name        `xml:"VTKFile"`
	Type       string          `xml:"type,attr"`
	ByteOrder  string          `xml:"byte_order,attr"`
	HeaderType string          `xml:"header_type,attr"`
	Compressor string          `xml:"compressor,attr"`
	Grid       rectilinearGrid `xml:"RectilinearGrid"`
}

type rectilinearGrid struct {
	WholeExtent string  `xml:"WholeExtent,attr"`
	Pieces      []piece `xml:"Piece"`
}

type piece struct {
	Extent      string  `xml:"Extent,attr"`
	CellData    dataSet `xml:"CellData"`
	Coordinates dataSet `xml:"Coordinates"`
}

type dataSet struct {
	Arrays []dataArray `xml:"DataArray"`
}

type dataArray struct {
	Type               string `xml:"type,attr"`
	Name               string `xml:"Name,attr"`
	NumberOfComponents int    `xml:"NumberOfComponents,attr"`
	Format             string `xml:"format,attr"`
	Data               string `xml:",chardata"`
}

func (d dataArray) components() int {
	if d.NumberOfComponents == 0 {
		return 1
	}
	return d.NumberOfComponents
}

func parseFile(r io.Reader) (*vtkFile, error) {
	var f vtkFile
	if err := xml.NewDecoder(r).Decode(&f); err != nil {
		return nil, rawdata.Corrupt("vtk: %v", err)
	}
	if f.Type != "RectilinearGrid" {
		return nil, fmt.Errorf("%w: vtk dataset type %q", rawdata.ErrUnsupportedFormat, f.Type)
	}
	if f.Compressor != "" {
		return nil, fmt.Errorf("%w: vtk compressor %s", rawdata.ErrUnsupportedFormat, f.Compressor)
	}
	if len(f.Grid.Pieces) != 1 {
		return nil, fmt.Errorf("%w: %d pieces in rectilinear grid", rawdata.ErrUnsupportedFormat, len(f.Grid.Pieces))
	}
	return &f, nil
}

func (f *vtkFile) piece() *piece { return &f.Grid.Pieces[0] }

func (f *vtkFile) byteOrder() binary.ByteOrder {
	if f.ByteOrder == "BigEndian" {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// coordinates returns the x, y and z grid points.
func (f *vtkFile) coordinates() ([3][]float64, error) {
	var pts [3][]float64
	arrays := f.piece().Coordinates.Arrays
	if len(arrays) != 3 {
		return pts, rawdata.Corrupt("vtk: %d coordinate arrays", len(arrays))
	}
	for ax, da := range arrays {
		v, err := f.decode(da)
		if err != nil {
			return pts, err
		}
		pts[ax] = v
	}
	return pts, nil
}

// cellArray returns the named cell data array, or the first one when name is
// empty.
func (f *vtkFile) cellArray(name string) (dataArray, error) {
	arrays := f.piece().CellData.Arrays
	if len(arrays) == 0 {
		return dataArray{}, rawdata.NotAvailable("vtk: no cell data", nil)
	}
	if name == "" {
		return arrays[0], nil
	}
	for _, da := range arrays {
		if da.Name == name {
			return da, nil
		}
	}
	return dataArray{}, rawdata.NotAvailable(fmt.Sprintf("vtk: cell data array %q", name), nil)
}

func (f *vtkFile) decode(da dataArray) ([]float64, error) {
	switch da.Format {
	case "ascii":
		return decodeASCII(da.Data)
	case "binary":
		raw, err := f.inlineBinary(da.Data)
		if err != nil {
			return nil, err
		}
		return decodeBinary(raw, da.Type, f.byteOrder())
	}
	return nil, fmt.Errorf("%w: vtk data format %q", rawdata.ErrUnsupportedFormat, da.Format)
}

func decodeASCII(s string) ([]float64, error) {
	fields := strings.Fields(s)
	out := make([]float64, len(fields))
	for i, tok := range fields {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, rawdata.Corrupt("vtk: ascii value %d: %v", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// inlineBinary strips the byte-count header from base64 inline data. Writers
// either encode header and payload together or as two separate base64
// blocks; both are accepted.
func (f *vtkFile) inlineBinary(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	hsize := 4
	switch f.HeaderType {
	case "", "UInt32":
	case "UInt64":
		hsize = 8
	default:
		return nil, fmt.Errorf("%w: vtk header type %s", rawdata.ErrUnsupportedFormat, f.HeaderType)
	}

	var hdr, payload []byte
	if all, err := base64.StdEncoding.DecodeString(s); err == nil && len(all) >= hsize {
		hdr, payload = all[:hsize], all[hsize:]
	} else {
		hchars := (hsize + 2) / 3 * 4
		if len(s) < hchars {
			return nil, rawdata.Corrupt("vtk: binary block shorter than its header")
		}
		if hdr, err = base64.StdEncoding.DecodeString(s[:hchars]); err != nil {
			return nil, rawdata.Corrupt("vtk: header: %v", err)
		}
		if payload, err = base64.StdEncoding.DecodeString(s[hchars:]); err != nil {
			return nil, rawdata.Corrupt("vtk: payload: %v", err)
		}
	}

	var n uint64
	if hsize == 4 {
		n = uint64(f.byteOrder().Uint32(hdr))
	} else {
		n = f.byteOrder().Uint64(hdr)
	}
	if n > uint64(len(payload)) {
		return nil, rawdata.Corrupt("vtk: header declares %d bytes, block holds %d", n, len(payload))
	}
	return payload[:n], nil
}

func decodeBinary(raw []byte, typ string, order binary.ByteOrder) ([]float64, error) {
	var data any
	switch typ {
	case "Float32":
		data = make([]float32, len(raw)/4)
	case "Float64":
		data = make([]float64, len(raw)/8)
	case "Int8":
		data = make([]int8, len(raw))
	case "UInt8":
		data = make([]uint8, len(raw))
	case "Int16":
		data = make([]int16, len(raw)/2)
	case "UInt16":
		data = make([]uint16, len(raw)/2)
	case "Int32":
		data = make([]int32, len(raw)/4)
	case "UInt32":
		data = make([]uint32, len(raw)/4)
	case "Int64":
		data = make([]int64, len(raw)/8)
	case "UInt64":
		data = make([]uint64, len(raw)/8)
	default:
		return nil, fmt.Errorf("%w: vtk element type %q", rawdata.ErrUnsupportedFormat, typ)
	}
	if binary.Size(data) != len(raw) {
		return nil, rawdata.Corrupt("vtk: %d bytes is not a whole number of %s values", len(raw), typ)
	}
	if err := binary.Read(bytes.NewReader(raw), order, data); err != nil {
		return nil, rawdata.Corrupt("vtk: %v", err)
	}
	return toFloat64(data), nil
}

func toFloat64(data any) []float64 {
	switch v := data.(type) {
	case []float64:
		return v
	case []float32:
		return convert(v)
	case []int8:
		return convert(v)
	case []uint8:
		return convert(v)
	case []int16:
		return convert(v)
	case []uint16:
		return convert(v)
	case []int32:
		return convert(v)
	case []uint32:
		return convert(v)
	case []int64:
		return convert(v)
	case []uint64:
		return convert(v)
	}
	return nil
}

type number interface {
	~float32 | ~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64
}

func convert[T number](v []T) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
