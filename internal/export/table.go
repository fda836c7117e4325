package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/postproc/internal/field"
	"github.com/san-kum/postproc/internal/grid"
)

// Table is a set of equally long named columns.
type Table struct {
	Columns []string    `json:"columns"`
	Data    [][]float64 `json:"data"`
}

func NewTable() *Table { return &Table{} }

// Add appends a column. All columns must have the same length.
func (t *Table) Add(name string, v []float64) error {
	if len(t.Data) > 0 && len(v) != len(t.Data[0]) {
		return fmt.Errorf("%w: column %s has %d rows, table has %d", field.ErrShape, name, len(v), len(t.Data[0]))
	}
	t.Columns = append(t.Columns, name)
	t.Data = append(t.Data, append([]float64(nil), v...))
	return nil
}

func (t *Table) Rows() int {
	if len(t.Data) == 0 {
		return 0
	}
	return len(t.Data[0])
}

func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	row := make([]string, len(t.Columns))
	for i := 0; i < t.Rows(); i++ {
		for c := range t.Columns {
			row[c] = strconv.FormatFloat(t.Data[c][i], 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (t *Table) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t)
}

// ArrayTable lists every bin and record of a as one row: bin indices, bin
// centres, source record and one column per component.
func ArrayTable(a *field.Array, top *grid.Topology, limits grid.BinLimits) (*Table, error) {
	s := a.Shape()
	lo, hi, err := limits.Resolve(top.Counts())
	if err != nil {
		return nil, err
	}
	for ax := 0; ax < 3; ax++ {
		if hi[ax]-lo[ax] != s[ax] {
			return nil, fmt.Errorf("%w: array has %d bins along axis %d, window has %d", field.ErrShape, s[ax], ax, hi[ax]-lo[ax])
		}
	}
	centers := [3][]float64{top.Centers(0), top.Centers(1), top.Centers(2)}
	if top.System() == grid.CylindricalPolar {
		centers[0] = top.Radii()
	}

	n := s[0] * s[1] * s[2] * s[3]
	cols := make([][]float64, 7+s[4])
	for c := range cols {
		cols[c] = make([]float64, 0, n)
	}
	recs := a.Records()
	for r := 0; r < s[3]; r++ {
		for k := 0; k < s[2]; k++ {
			for j := 0; j < s[1]; j++ {
				for i := 0; i < s[0]; i++ {
					idx := [3]int{i + lo[0], j + lo[1], k + lo[2]}
					for ax := 0; ax < 3; ax++ {
						cols[ax] = append(cols[ax], float64(idx[ax]))
						cols[3+ax] = append(cols[3+ax], centers[ax][idx[ax]])
					}
					cols[6] = append(cols[6], float64(recs[r]))
					for c := 0; c < s[4]; c++ {
						cols[7+c] = append(cols[7+c], a.At(i, j, k, r, c))
					}
				}
			}
		}
	}

	t := NewTable()
	names := []string{"i", "j", "k", "x", "y", "z", "rec"}
	for c := 0; c < s[4]; c++ {
		names = append(names, fmt.Sprintf("c%d", c))
	}
	for c, name := range names {
		if err := t.Add(name, cols[c]); err != nil {
			return nil, err
		}
	}
	return t, nil
}
