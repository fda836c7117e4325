package lammps

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/san-kum/postproc/internal/rawdata"
)

// DefaultFile is used when log.lammps does not name the chunk output.
const DefaultFile = "3dgrid"

// FindFile returns the name of the fix ave/chunk output that follows the
// first chunk/atom bin/3d compute in dir/log.lammps.
func FindFile(dir string) string {
	f, err := os.Open(filepath.Join(dir, "log.lammps"))
	if err != nil {
		return DefaultFile
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		l := sc.Text()
		if !strings.Contains(l, "chunk/atom bin/3d") || strings.Contains(l, "cfdbccompute") {
			continue
		}
		if !sc.Scan() {
			break
		}
		nl := sc.Text()
		if !strings.Contains(nl, "ave/chunk") {
			continue
		}
		i := strings.Index(nl, " file ")
		if i < 0 {
			logger.Warnf("lammps: log.lammps names no output file for ave/chunk: %q", nl)
			continue
		}
		fields := strings.Fields(nl[i+len(" file "):])
		if len(fields) > 0 {
			return filepath.Base(fields[0])
		}
	}
	logger.Infof("lammps: output name not found in log.lammps, trying %s", DefaultFile)
	return DefaultFile
}

// BoxExtent returns the box lengths of the last "orthogonal box = (xlo ylo
// zlo) to (xhi yhi zhi)" line of dir/log.lammps. ok is false when there is
// no such line.
func BoxExtent(dir string) (extent [3]float64, ok bool) {
	f, err := os.Open(filepath.Join(dir, "log.lammps"))
	if err != nil {
		return extent, false
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		l := sc.Text()
		i := strings.Index(l, "orthogonal box = (")
		if i < 0 {
			continue
		}
		fields := strings.Fields(strings.NewReplacer("(", " ", ")", " ", " to ", " ").Replace(l[i+len("orthogonal box = "):]))
		if len(fields) != 6 {
			logger.Warnf("lammps: cannot read box bounds from %q", l)
			continue
		}
		var b [6]float64
		bad := false
		for n, s := range fields {
			if b[n], err = strconv.ParseFloat(s, 64); err != nil {
				bad = true
				break
			}
		}
		if bad {
			logger.Warnf("lammps: cannot read box bounds from %q", l)
			continue
		}
		for ax := 0; ax < 3; ax++ {
			extent[ax] = b[ax+3] - b[ax]
		}
		ok = true
	}
	return extent, ok
}

// chunkIndex locates the timestep blocks of an ave/chunk file:
//
//	# Chunk Coord1 Coord2 Coord3 Ncount vx vy vz
//	1000 8 4000
//	  1 0.5 0.5 0.5 500 0.1 0.2 0.3
//	  ...
type chunkIndex struct {
	columns []string
	offsets []int64
	steps   []int
	nchunks int
	coords  [3][]float64 // per row of the first block
}

func (ix *chunkIndex) column(name string) int {
	for i, c := range ix.columns {
		if c == name {
			return i
		}
	}
	return -1
}

// lineReader reads lines and tracks the byte offset of the next one.
type lineReader struct {
	r      *bufio.Reader
	offset int64
	line   int
}

func (lr *lineReader) next() (string, int64, error) {
	start := lr.offset
	s, err := lr.r.ReadString('\n')
	lr.offset += int64(len(s))
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", start, err
	}
	lr.line++
	return strings.TrimSpace(s), start, nil
}

func scanChunks(path string) (*chunkIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, rawdata.NotAvailable(path, err)
	}
	defer f.Close()

	ix := &chunkIndex{}
	lr := &lineReader{r: bufio.NewReader(f)}
	for {
		s, off, err := lr.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, rawdata.NotAvailable(path, err)
		}
		if s == "" {
			continue
		}
		if strings.HasPrefix(s, "#") {
			fields := strings.Fields(strings.TrimPrefix(s, "#"))
			if len(fields) > 0 && fields[0] == "Chunk" {
				ix.columns = fields
			}
			continue
		}
		if ix.columns == nil {
			return nil, rawdata.NotAvailable(fmt.Sprintf("%s: no '# Chunk ...' column header", path), nil)
		}

		fields := strings.Fields(s)
		if len(fields) < 2 {
			return nil, rawdata.Corrupt("%s:%d: expected a timestep line, got %q", path, lr.line, s)
		}
		step, err1 := strconv.Atoi(fields[0])
		n, err2 := strconv.Atoi(fields[1])
		if err := errors.Join(err1, err2); err != nil {
			return nil, rawdata.Corrupt("%s:%d: timestep line: %v", path, lr.line, err)
		}
		if ix.nchunks == 0 {
			ix.nchunks = n
		} else if n != ix.nchunks {
			return nil, rawdata.Corrupt("%s:%d: %d chunks, earlier blocks have %d", path, lr.line, n, ix.nchunks)
		}
		first := len(ix.offsets) == 0
		ix.offsets = append(ix.offsets, off)
		ix.steps = append(ix.steps, step)

		for i := 0; i < n; i++ {
			row, _, err := lr.next()
			if err != nil {
				if first {
					return nil, rawdata.Corrupt("%s: first block ends after %d of %d rows", path, i, n)
				}
				// an incomplete trailing block is still being written
				logger.Warnf("lammps: %s: ignoring incomplete block at step %d", path, step)
				ix.offsets = ix.offsets[:len(ix.offsets)-1]
				ix.steps = ix.steps[:len(ix.steps)-1]
				return ix, nil
			}
			if first {
				if err := ix.addCoords(row); err != nil {
					return nil, fmt.Errorf("%s:%d: %w", path, lr.line, err)
				}
			}
		}
	}
	if len(ix.offsets) == 0 {
		return nil, rawdata.NotAvailable(fmt.Sprintf("%s: no timestep blocks", path), nil)
	}
	return ix, nil
}

func (ix *chunkIndex) addCoords(row string) error {
	fields := strings.Fields(row)
	for ax := 0; ax < 3; ax++ {
		col := ix.column(fmt.Sprintf("Coord%d", ax+1))
		if col < 0 {
			return fmt.Errorf("%w: no Coord%d column", rawdata.ErrUnsupportedFormat, ax+1)
		}
		if col >= len(fields) {
			return rawdata.Corrupt("row has %d columns", len(fields))
		}
		v, err := strconv.ParseFloat(fields[col], 64)
		if err != nil {
			return rawdata.Corrupt("%v", err)
		}
		ix.coords[ax] = append(ix.coords[ax], v)
	}
	return nil
}

// readBlock reads the rows of the block at off and returns the values of
// cols, column fastest.
func readBlock(f io.ReaderAt, off int64, nchunks int, cols []int) ([]float64, error) {
	lr := &lineReader{r: bufio.NewReader(io.NewSectionReader(f, off, 1<<62))}
	if _, _, err := lr.next(); err != nil {
		return nil, rawdata.Corrupt("timestep line: %v", err)
	}
	out := make([]float64, 0, nchunks*len(cols))
	for i := 0; i < nchunks; i++ {
		row, _, err := lr.next()
		if err != nil {
			return nil, rawdata.Corrupt("block ends after %d of %d rows", i, nchunks)
		}
		fields := strings.Fields(row)
		for _, c := range cols {
			if c >= len(fields) {
				return nil, rawdata.Corrupt("row %d has %d columns", i+1, len(fields))
			}
			v, err := strconv.ParseFloat(fields[c], 64)
			if err != nil {
				return nil, rawdata.Corrupt("row %d: %v", i+1, err)
			}
			out = append(out, v)
		}
	}
	return out, nil
}
