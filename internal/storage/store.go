// Package storage keeps extracted fields on disk. Every extraction is a
// directory holding metadata.json, a simulation_header and the field itself
// as a monolithic float64 MD bin file, so it reopens with the md reader.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/san-kum/postproc/internal/field"
	"github.com/san-kum/postproc/internal/grid"
	"github.com/san-kum/postproc/internal/rawdata/md"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type Extraction struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Format     string    `json:"format"`
	Field      string    `json:"field"`
	Timestamp  time.Time `json:"timestamp"`
	Records    []int     `json:"records"`
	Shape      [5]int    `json:"shape"`
	Components string    `json:"components"`
	BinLimits  string    `json:"bin_limits"`
	Missing    string    `json:"missing_rec"`
	PlotFreq   int       `json:"plot_freq,omitempty"`
}

// Save writes a, read from top within limits, as a new extraction. meta
// supplies the descriptive fields; ID, Timestamp, Records and Shape are
// filled in.
func (s *Store) Save(meta Extraction, top *grid.Topology, limits grid.BinLimits, a *field.Array) (string, error) {
	if meta.Field == "" {
		return "", fmt.Errorf("extraction has no field name")
	}
	h, err := md.NewHeader(top, limits, meta.PlotFreq)
	if err != nil {
		return "", err
	}
	shape := a.Shape()
	lo, hi, _ := limits.Resolve(top.Counts())
	for ax := 0; ax < 3; ax++ {
		if hi[ax]-lo[ax] != shape[ax] {
			return "", fmt.Errorf("%w: array has %v bins, window %v has %d along axis %d",
				field.ErrShape, shape[:3], limits, hi[ax]-lo[ax], ax)
		}
	}

	now := time.Now()
	meta.ID = fmt.Sprintf("%s_%d", meta.Field, now.UnixNano())
	meta.Timestamp = now
	meta.Records = a.Records()
	meta.Shape = shape
	meta.BinLimits = limits.String()

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := h.Write(runDir); err != nil {
		return "", err
	}
	if _, err := md.Write(runDir, meta.Field, a, 0, -1, md.WriteOptions{DType: md.Float64}); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// List returns the saved extractions, oldest first.
func (s *Store) List() ([]Extraction, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Extraction{}, nil
		}
		return nil, err
	}

	runs := make([]Extraction, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(id string) (*Extraction, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta Extraction
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Open returns an md reader over a saved extraction. Its record indices
// count from 0; Extraction.Records maps them back to the source.
func (s *Store) Open(id string) (*md.Reader, *Extraction, error) {
	meta, err := s.Load(id)
	if err != nil {
		return nil, nil, err
	}
	r, err := md.Open(filepath.Join(s.baseDir, id), meta.Field, md.Float64, meta.Shape[4])
	if err != nil {
		return nil, nil, err
	}
	return r, meta, nil
}
