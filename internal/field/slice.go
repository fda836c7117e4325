package field

import (
	"github.com/san-kum/postproc/internal/grid"
)

// Slice returns a copy of a restricted to limits on the three spatial axes.
// The record and component axes are never restricted.
func Slice(a *Array, limits grid.BinLimits) (*Array, error) {
	s := a.Shape()
	lo, hi, err := limits.Resolve([3]int{s[0], s[1], s[2]})
	if err != nil {
		return nil, err
	}
	if limits.IsZero() {
		return a.Clone(), nil
	}

	out := New(hi[0]-lo[0], hi[1]-lo[1], hi[2]-lo[2], s[3], s[4])
	copy(out.records, a.records)
	for i := lo[0]; i < hi[0]; i++ {
		for j := lo[1]; j < hi[1]; j++ {
			for k := lo[2]; k < hi[2]; k++ {
				for r := 0; r < s[3]; r++ {
					for c := 0; c < s[4]; c++ {
						out.Set(a.At(i, j, k, r, c), i-lo[0], j-lo[1], k-lo[2], r, c)
					}
				}
			}
		}
	}
	return out, nil
}
