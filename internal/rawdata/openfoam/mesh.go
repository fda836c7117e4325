package openfoam

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/postproc/internal/rawdata"
)

var groupRE = regexp.MustCompile(`\(([^()]*)\)`)

// blockCounts reads the cell counts of the single hex block in
// constant/polyMesh/blockMeshDict:
//
//	blocks
//	(
//	    hex (0 1 2 3 4 5 6 7) (nx ny nz) simpleGrading (1 1 1)
//	);
func blockCounts(path string) ([3]int, error) {
	var n [3]int
	f, err := os.Open(path)
	if err != nil {
		return n, rawdata.NotAvailable("blockMeshDict", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	inBlocks := false
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "blocks") {
			inBlocks = true
		}
		if !inBlocks || !strings.Contains(line, "hex") {
			continue
		}
		groups := groupRE.FindAllStringSubmatch(line, -1)
		if len(groups) < 2 {
			return n, rawdata.NotAvailable(fmt.Sprintf("%s: malformed hex entry %q", path, line), nil)
		}
		fields := strings.Fields(groups[1][1])
		if len(fields) != 3 {
			return n, rawdata.NotAvailable(fmt.Sprintf("%s: hex entry has %d cell counts", path, len(fields)), nil)
		}
		for ax, s := range fields {
			if n[ax], err = strconv.Atoi(s); err != nil || n[ax] <= 0 {
				return n, rawdata.NotAvailable(fmt.Sprintf("%s: cell count %q", path, s), err)
			}
		}
		return n, nil
	}
	if err := sc.Err(); err != nil {
		return n, rawdata.NotAvailable(path, err)
	}
	return n, rawdata.NotAvailable(fmt.Sprintf("%s: no hex block", path), nil)
}

// gridPoints reads constant/polyMesh/points, laid out x fastest over
// (nx+1)(ny+1)(nz+1) points, and returns the coordinates along each axis.
func gridPoints(path string, cells [3]int) ([3][]float64, error) {
	var axes [3][]float64
	f, err := os.Open(path)
	if err != nil {
		return axes, rawdata.NotAvailable("mesh points", err)
	}
	defer f.Close()

	pts, err := readPoints(f, path)
	if err != nil {
		return axes, rawdata.NotAvailable("mesh points", err)
	}
	np := [3]int{cells[0] + 1, cells[1] + 1, cells[2] + 1}
	if len(pts) != np[0]*np[1]*np[2] {
		return axes, rawdata.NotAvailable(fmt.Sprintf("%s: %d points for a %v cell block", path, len(pts), cells), nil)
	}
	stride := [3]int{1, np[0], np[0] * np[1]}
	for ax := 0; ax < 3; ax++ {
		axes[ax] = make([]float64, np[ax])
		for i := range axes[ax] {
			p := pts[i*stride[ax]]
			if len(p) != 3 {
				return axes, rawdata.NotAvailable(fmt.Sprintf("%s: point with %d coordinates", path, len(p)), nil)
			}
			axes[ax][i] = p[ax]
		}
	}
	return axes, nil
}

// timeDirs returns the numerically named directories of dir in time order.
// The first one holds the initial conditions and is left out.
func timeDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, rawdata.NotAvailable(dir, err)
	}
	type timeDir struct {
		name string
		t    float64
	}
	var dirs []timeDir
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		t, err := strconv.ParseFloat(e.Name(), 64)
		if err != nil {
			logger.Infof("openfoam: ignoring folder %s", filepath.Join(dir, e.Name()))
			continue
		}
		dirs = append(dirs, timeDir{e.Name(), t})
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].t < dirs[j].t })

	var out []string
	for i, d := range dirs {
		if i == 0 {
			continue
		}
		out = append(out, d.name)
	}
	return out, nil
}

// viscosity reads nu from constant/transportProperties. Both the
// dimensioned form "nu [0 2 -1 0 0 0 0] 1e-05;" and the plain "nu 1e-05;"
// are accepted.
func viscosity(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return math.NaN(), err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0] != "nu" {
			continue
		}
		v := line[strings.LastIndex(line, "]")+1:]
		if !strings.Contains(line, "]") {
			v = strings.TrimPrefix(line, "nu")
		}
		v, _, _ = strings.Cut(v, ";")
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	}
	if err := sc.Err(); err != nil {
		return math.NaN(), err
	}
	return math.NaN(), fmt.Errorf("%s: no nu entry", path)
}

// Fields lists the files of the first record directory of the case in dir.
func Fields(dir string) ([]string, error) {
	times, err := timeDirs(dir)
	if err != nil {
		return nil, err
	}
	if len(times) == 0 {
		return nil, rawdata.NotAvailable(fmt.Sprintf("%s: no time directories after the initial one", dir), nil)
	}
	entries, err := os.ReadDir(filepath.Join(dir, times[0]))
	if err != nil {
		return nil, rawdata.NotAvailable(dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}
