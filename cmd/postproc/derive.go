package main

import (
	"github.com/ctessum/sparse"

	"github.com/san-kum/postproc/internal/analysis"
	"github.com/san-kum/postproc/internal/field"
)

// derived is the arithmetic asked for on the command line, applied to a read
// in this order: divide by another field, divide by bin volume, take the
// norm over components.
type derived struct {
	divideBy  *field.Array
	volumes   *sparse.DenseArray
	magnitude bool
}

func (d derived) apply(a *field.Array) (*field.Array, error) {
	var err error
	if d.divideBy != nil {
		if a, err = analysis.Ratio(a, d.divideBy); err != nil {
			return nil, err
		}
	}
	if d.volumes != nil {
		if a, err = analysis.PerVolume(a, d.volumes); err != nil {
			return nil, err
		}
	}
	if d.magnitude {
		a = analysis.Magnitude(a)
	}
	return a, nil
}

// contiguous reports whether records runs first, first+1, ... without gaps.
func contiguous(records []int, first int) bool {
	for i, r := range records {
		if r != first+i {
			return false
		}
	}
	return true
}
