package md

import (
	"fmt"
	"strconv"

	"github.com/san-kum/postproc/internal/grid"
	"github.com/san-kum/postproc/internal/header"
	"github.com/san-kum/postproc/internal/rawdata"
)

// NewHeader describes the window limits of top as a simulation header, so a
// sliced array written with Write can be opened again. A Cartesian window is
// re-centred on the origin. Cylindrical windows may not restrict θ.
func NewHeader(top *grid.Topology, limits grid.BinLimits, plotFreq int) (*header.Header, error) {
	lo, hi, err := limits.Resolve(top.Counts())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rawdata.ErrInvalidRange, err)
	}
	d := top.Sizes()
	h := header.New()
	for ax := 0; ax < 3; ax++ {
		n := hi[ax] - lo[ax]
		h.Set(fmt.Sprintf("gnbins%d", ax+1), strconv.Itoa(n), fmt.Sprintf("Number of bins in %s", axisName[ax]))
		h.Set(fmt.Sprintf("globaldomain%d", ax+1), formatFloat(d[ax]*float64(n)), fmt.Sprintf("Domain size in %s", axisName[ax]))
	}

	if top.System() == grid.CylindricalPolar {
		if lo[1] != 0 || hi[1] != top.Counts()[1] {
			return nil, fmt.Errorf("%w: cylindrical window %v restricts θ", rawdata.ErrInvalidRange, limits)
		}
		rin := top.InnerRadius() + float64(lo[0])*d[0]
		rout := rin + float64(hi[0]-lo[0])*d[0]
		h.Set("cpol_bins", "1", "Cylindrical polar bins")
		h.Set("r_oi", formatFloat(rin), "Inner radius of the annulus")
		h.Set("r_io", formatFloat(rout), "Outer radius of the annulus")
	} else {
		h.Set("cpol_bins", "0", "Cylindrical polar bins")
	}
	if plotFreq > 0 {
		h.Set("tplot", strconv.Itoa(plotFreq), "Steps between records")
	}
	return h, nil
}

var axisName = [3]string{"x", "y", "z"}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
