package config

import "sort"

// Preset is the on-disk description of a standard MD output field.
type Preset struct {
	DType       string
	PerBin      int
	Description string
}

var Presets = map[string]Preset{
	"mbins":    {DType: "int32", PerBin: 1, Description: "molecule count per bin"},
	"msnap":    {DType: "int32", PerBin: 1, Description: "instantaneous molecule count"},
	"msurf":    {DType: "int32", PerBin: 1, Description: "molecules crossing bin surfaces"},
	"vbins":    {DType: "float64", PerBin: 3, Description: "summed molecular velocity"},
	"vsnap":    {DType: "float64", PerBin: 3, Description: "instantaneous summed velocity"},
	"Fbins":    {DType: "float64", PerBin: 3, Description: "summed force"},
	"Tbins":    {DType: "float64", PerBin: 1, Description: "summed temperature"},
	"ebins":    {DType: "float64", PerBin: 1, Description: "summed energy"},
	"pVA":      {DType: "float64", PerBin: 9, Description: "volume averaged pressure tensor"},
	"pVA_k":    {DType: "float64", PerBin: 9, Description: "kinetic part of pVA"},
	"pVA_c":    {DType: "float64", PerBin: 9, Description: "configurational part of pVA"},
	"psurface": {DType: "float64", PerBin: 18, Description: "surface pressure, six faces"},
}

func GetPreset(name string) *Preset {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return &p
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
