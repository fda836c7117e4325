package main

import (
	"fmt"
	"os"

	"github.com/san-kum/postproc/internal/analysis"
	"github.com/san-kum/postproc/internal/export"
)

var axisNames = [3]string{"x", "y", "z"}

func exportSelection(sel *selection, to, path string) error {
	switch to {
	case "netcdf", "nc":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		attrs := map[string]string{
			"source": sel.cfg.Dir,
			"format": sel.cfg.Format,
			"field":  sel.cfg.Field,
			"limits": sel.limits.String(),
		}
		name := sel.cfg.Field
		if name == "" {
			name = "data"
		}
		if err := export.WriteNetCDF(f, sanitize(name), sel.data, sel.backend.Topology(), sel.limits, attrs); err != nil {
			f.Close()
			return err
		}
		return f.Close()

	case "csv", "json":
		t, err := export.ArrayTable(sel.data, sel.backend.Topology(), sel.limits)
		if err != nil {
			return err
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if to == "csv" {
			err = t.WriteCSV(f)
		} else {
			err = t.WriteJSON(f)
		}
		if err != nil {
			f.Close()
			return err
		}
		return f.Close()

	case "svg":
		if axis < 0 || axis > 2 {
			return fmt.Errorf("axis %d out of range", axis)
		}
		prof, err := analysis.Profile(sel.data, axis, comp)
		if err != nil {
			return err
		}
		lo, hi, err := sel.limits.Resolve(sel.backend.Topology().Counts())
		if err != nil {
			return err
		}
		x := sel.backend.Topology().Centers(axis)[lo[axis]:hi[axis]]
		title := fmt.Sprintf("%s[%d] along %s", sel.cfg.Field, comp, axisNames[axis])
		return os.WriteFile(path, []byte(export.ProfileToSVG(x, prof, 640, 320, "#00ff88", title)), 0644)
	}
	return fmt.Errorf("unknown export format: %s", to)
}
