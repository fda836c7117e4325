package grid

import (
	"github.com/ctessum/sparse"
)

// Volumes returns the geometric volume of every bin as an [nx, ny, nz, 1]
// array, restricted to limits. The trailing singleton axis lets the result
// broadcast against the record axis of a field array.
//
// Cartesian bins all have volume dx*dy*dz. Cylindrical-polar bins have volume
// r*dr*dθ*dz with r the mid radius of the bin, so volume varies along the
// radial axis only.
func Volumes(t *Topology, limits BinLimits) (*sparse.DenseArray, error) {
	lo, hi, err := limits.Resolve(t.counts)
	if err != nil {
		return nil, err
	}
	nx, ny, nz := hi[0]-lo[0], hi[1]-lo[1], hi[2]-lo[2]
	out := sparse.ZerosDense(nx, ny, nz, 1)

	d := t.sizes
	radii := t.Radii()
	for i := 0; i < nx; i++ {
		v := d[0] * d[1] * d[2]
		if t.system == CylindricalPolar {
			v *= radii[lo[0]+i]
		}
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				out.Set(v, i, j, k, 0)
			}
		}
	}
	return out, nil
}
