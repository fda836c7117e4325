package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/postproc/internal/grid"
	"github.com/san-kum/postproc/internal/logging"
	"github.com/san-kum/postproc/internal/rawdata"
)

const (
	DefaultDir     = "./results"
	DefaultFormat  = "md"
	DefaultField   = "mbins"
	DefaultMissing = "raise"
)

var ErrInvalid = errors.New("invalid config")

// Config describes one read: where the data lives, which field, which
// records and bins, and what to do with missing records.
type Config struct {
	Dir        string   `yaml:"dir"`
	Format     string   `yaml:"format"`
	Field      string   `yaml:"field"`
	DType      string   `yaml:"dtype,omitempty"`
	PerBin     int      `yaml:"per_bin,omitempty"`
	Columns    []string `yaml:"columns,omitempty"`
	StartRec   int      `yaml:"start_rec"`
	EndRec     int      `yaml:"end_rec"`
	BinLimits  [][]int  `yaml:"bin_limits,omitempty"`
	MissingRec string   `yaml:"missing_rec,omitempty"`
	LogLevel   string   `yaml:"log_level,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Dir:        DefaultDir,
		Format:     DefaultFormat,
		Field:      DefaultField,
		StartRec:   0,
		EndRec:     -1,
		MissingRec: DefaultMissing,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyPreset fills DType and PerBin from the field preset when they are
// not set.
func (c *Config) ApplyPreset() {
	p := GetPreset(c.Field)
	if p == nil {
		return
	}
	if c.DType == "" {
		c.DType = p.DType
	}
	if c.PerBin == 0 {
		c.PerBin = p.PerBin
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Dir == "" {
		errs = append(errs, errors.New("dir is empty"))
	}
	if c.Format == "" {
		errs = append(errs, errors.New("format is empty"))
	}
	if c.Field == "" && c.Format != "lammps" {
		errs = append(errs, errors.New("field is empty"))
	}
	if c.Format == "md" {
		if c.DType == "" {
			errs = append(errs, fmt.Errorf("field %s: dtype is not set and there is no preset", c.Field))
		}
		if c.PerBin < 1 {
			errs = append(errs, fmt.Errorf("field %s: per_bin must be positive", c.Field))
		}
	}
	if c.StartRec < 0 {
		errs = append(errs, fmt.Errorf("start_rec %d is negative", c.StartRec))
	}
	if c.EndRec < -1 || (c.EndRec >= 0 && c.EndRec < c.StartRec) {
		errs = append(errs, fmt.Errorf("end_rec %d before start_rec %d", c.EndRec, c.StartRec))
	}
	if _, err := c.Limits(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Missing(); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Limits converts bin_limits. An empty list or a null entry keeps the whole
// axis.
func (c *Config) Limits() (grid.BinLimits, error) {
	if len(c.BinLimits) == 0 {
		return nil, nil
	}
	limits := make(grid.BinLimits, 3)
	if len(c.BinLimits) != 3 {
		return nil, fmt.Errorf("bin_limits needs 3 entries, got %d", len(c.BinLimits))
	}
	for ax, w := range c.BinLimits {
		if w == nil {
			continue
		}
		if len(w) != 2 || w[0] < 0 || w[1] <= w[0] {
			return nil, fmt.Errorf("bin_limits[%d] = %v is not [lo, hi) with 0 <= lo < hi", ax, w)
		}
		limits[ax] = grid.Span(w[0], w[1])
	}
	return limits, nil
}

func (c *Config) Missing() (rawdata.MissingPolicy, error) {
	return rawdata.ParseMissingPolicy(c.MissingRec)
}

// EndFor resolves end_rec against the last record of a reader.
func (c *Config) EndFor(maxRec int) int {
	if c.EndRec < 0 {
		return maxRec
	}
	return c.EndRec
}
