package analysis

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns the magnitudes of the n/2+1 non-redundant Fourier
// coefficients of a real series.
func PowerSpectrum(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}

	fft := fourier.NewFFT(len(data))
	coeff := fft.Coefficients(nil, data)

	ps := make([]float64, len(coeff))
	for i, c := range coeff {
		ps[i] = cmplx.Abs(c)
	}
	return ps
}

// DominantFrequency returns the frequency in Hz of the strongest non-constant
// component of a series sampled every dt, and its magnitude.
func DominantFrequency(data []float64, dt float64) (freq, power float64) {
	n := len(data)
	if n < 4 || !(dt > 0) {
		return 0, 0
	}

	mean := stat.Mean(data, nil)
	centered := make([]float64, n)
	for i, v := range data {
		centered[i] = v - mean
	}

	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, centered)

	best := 0
	for k := 1; k < len(coeff); k++ {
		if p := cmplx.Abs(coeff[k]); p > power {
			power, best = p, k
		}
	}
	if best == 0 {
		return 0, 0
	}
	return fft.Freq(best) / dt, power
}
