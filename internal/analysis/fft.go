package analysis

import (
	"math"
	"math/bits"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
)

// FFT is a radix-2 transform; len(data) must be a power of two.
func FFT(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	if n&(n-1) != 0 {
		panic("fft requires power of 2 length")
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)

	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := FFT(even)
	fodd := FFT(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}

	return result
}

// PowerSpectrum returns the amplitude of the first half of the spectrum of
// series. The mean is removed and the series zero-padded to a power of two.
func PowerSpectrum(series []float64) []float64 {
	if len(series) < 2 {
		return nil
	}
	n := 1 << bits.Len(uint(len(series)-1))
	data := make([]float64, n)
	copy(data, series)
	mean := floats.Sum(series) / float64(len(series))
	floats.AddConst(-mean, data[:len(series)])

	fft := FFT(data)
	ps := make([]float64, n/2)
	for i := range ps {
		ps[i] = cmplx.Abs(fft[i])
	}
	return ps
}

// Frequencies returns the frequency of every PowerSpectrum bin, in cycles per
// step, for a series sampled every plotFreq steps.
func Frequencies(nseries, plotFreq int) []float64 {
	if nseries < 2 || plotFreq <= 0 {
		return nil
	}
	n := 1 << bits.Len(uint(nseries-1))
	out := make([]float64, n/2)
	for i := range out {
		out[i] = float64(i) / (float64(n) * float64(plotFreq))
	}
	return out
}
