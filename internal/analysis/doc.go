// Package analysis reduces field arrays along their axes.
//
//   - [Profile]: mean along one spatial axis, averaged over the other two and
//     over records
//   - [TimeSeries]: spatial mean of every record
//   - [PerVolume]: divide every bin by its volume (counts to densities)
//   - [Magnitude]: vector or tensor norm per bin
//   - [PowerSpectrum]: spectrum of a time series
//
// A velocity profile from summed velocity and molecule count:
//
//	v, _ := vbins.Read(0, last, nil, rawdata.Raise)
//	m, _ := mbins.Read(0, last, nil, rawdata.Raise)
//	u, _ := analysis.Ratio(v, m)
//	prof, _ := analysis.Profile(u, 1, 0)
package analysis
