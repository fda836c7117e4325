// Package registry opens readers by format name and scans a results
// directory for every field that can be read.
package registry

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/san-kum/postproc/internal/config"
	"github.com/san-kum/postproc/internal/logging"
	"github.com/san-kum/postproc/internal/rawdata"
	"github.com/san-kum/postproc/internal/rawdata/lammps"
	"github.com/san-kum/postproc/internal/rawdata/md"
	"github.com/san-kum/postproc/internal/rawdata/openfoam"
	"github.com/san-kum/postproc/internal/rawdata/vtk"
)

var logger = logging.Default()

// Source names one field in one results directory.
type Source struct {
	Format string
	Dir    string
	Field  string
	// DType and PerBin describe MD bin files; a known field name fills them
	// from its preset when they are empty.
	DType  string
	PerBin int
	// Columns selects LAMMPS chunk columns.
	Columns []string
}

func (s Source) String() string {
	if s.Format == "lammps" {
		return fmt.Sprintf("%s:%s%v", s.Format, s.Field, s.Columns)
	}
	return fmt.Sprintf("%s:%s", s.Format, s.Field)
}

// SourceFromConfig copies the field selection of cfg.
func SourceFromConfig(cfg *config.Config) Source {
	return Source{
		Format:  cfg.Format,
		Dir:     cfg.Dir,
		Field:   cfg.Field,
		DType:   cfg.DType,
		PerBin:  cfg.PerBin,
		Columns: cfg.Columns,
	}
}

type Opener func(Source) (rawdata.Backend, error)

type Registry struct {
	formats map[string]Opener
}

func NewRegistry() *Registry {
	r := &Registry{formats: make(map[string]Opener)}

	r.formats["md"] = func(s Source) (rawdata.Backend, error) {
		if p := config.GetPreset(s.Field); p != nil {
			if s.DType == "" {
				s.DType = p.DType
			}
			if s.PerBin == 0 {
				s.PerBin = p.PerBin
			}
		}
		dt, err := md.ParseDType(s.DType)
		if err != nil {
			return nil, err
		}
		b, err := md.Open(s.Dir, s.Field, dt, s.PerBin)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	r.formats["vtk"] = func(s Source) (rawdata.Backend, error) {
		b, err := vtk.Open(s.Dir, s.Field)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	r.formats["openfoam"] = func(s Source) (rawdata.Backend, error) {
		b, err := openfoam.Open(s.Dir, s.Field)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	r.formats["lammps"] = func(s Source) (rawdata.Backend, error) {
		cols := s.Columns
		if len(cols) == 0 {
			cols = []string{"Ncount"}
		}
		b, err := lammps.Open(s.Dir, s.Field, cols...)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	return r
}

func (r *Registry) Open(s Source) (rawdata.Backend, error) {
	fn, ok := r.formats[s.Format]
	if !ok {
		return nil, fmt.Errorf("%w: unknown format: %s", rawdata.ErrUnsupportedFormat, s.Format)
	}
	return fn(s)
}

func (r *Registry) ListFormats() []string {
	names := make([]string, 0, len(r.formats))
	for name := range r.formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Found is one readable field of a scan.
type Found struct {
	Source  Source
	Backend rawdata.Backend
}

// Scan opens every candidate and keeps those that can be read. Candidates
// failing with ErrDataNotAvailable or ErrUnsupportedFormat are left out;
// any other failure stops the scan.
func (r *Registry) Scan(candidates []Source) ([]Found, error) {
	var found []Found
	for _, c := range candidates {
		b, err := r.Open(c)
		if err != nil {
			if errors.Is(err, rawdata.ErrDataNotAvailable) || errors.Is(err, rawdata.ErrUnsupportedFormat) {
				logger.Infof("scan: %s: %v", c, err)
				continue
			}
			return found, fmt.Errorf("scan %s: %w", c, err)
		}
		found = append(found, Found{Source: c, Backend: b})
	}
	return found, nil
}

// Candidates lists the fields of dir worth trying with format: the MD
// presets, the .vtr series, the files of the first OpenFOAM record directory,
// or the usual LAMMPS column groups.
func Candidates(format, dir string) ([]Source, error) {
	var out []Source
	switch format {
	case "md":
		for _, name := range config.ListPresets() {
			out = append(out, Source{Format: format, Dir: dir, Field: name})
		}
	case "vtk":
		matches, err := filepath.Glob(filepath.Join(dir, "*"+vtk.Ext))
		if err != nil {
			return nil, err
		}
		seen := map[string]bool{}
		for _, m := range matches {
			base := strings.TrimSuffix(filepath.Base(m), vtk.Ext)
			if i := strings.LastIndexByte(base, '.'); i > 0 {
				base = base[:i]
			}
			if !seen[base] {
				seen[base] = true
				out = append(out, Source{Format: format, Dir: dir, Field: base})
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	case "openfoam":
		fields, err := openfoam.Fields(dir)
		if err != nil {
			return nil, err
		}
		for _, f := range fields {
			out = append(out, Source{Format: format, Dir: dir, Field: f})
		}
	case "lammps":
		for _, cols := range [][]string{{"Ncount"}, {"vx", "vy", "vz"}, {"density/mass"}, {"temp"}} {
			out = append(out, Source{Format: format, Dir: dir, Columns: cols})
		}
	default:
		return nil, fmt.Errorf("%w: unknown format: %s", rawdata.ErrUnsupportedFormat, format)
	}
	return out, nil
}
