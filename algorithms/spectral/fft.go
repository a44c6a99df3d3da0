package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT wraps mjibson/go-dsp for real-input transforms
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes the full complex FFT of a real signal.
// go-dsp handles any length, including non-powers of two.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.FFTReal(x)
}

// MagnitudeOneSided returns |X[k]| for k = 0..n/2 (the rfft bins)
func (f *FFT) MagnitudeOneSided(x []float64) []float64 {
	if len(x) == 0 {
		return []float64{}
	}

	spectrum := f.Compute(x)
	bins := len(x)/2 + 1

	magnitude := make([]float64, bins)
	for i := range bins {
		magnitude[i] = cmplx.Abs(spectrum[i])
	}
	return magnitude
}

// RFFTFrequencies returns the center frequency of each one-sided bin for an
// n-point transform: k * sampleRate / n
func RFFTFrequencies(n int, sampleRate float64) []float64 {
	if n <= 0 {
		return []float64{}
	}

	freqs := make([]float64, n/2+1)
	for k := range freqs {
		freqs[k] = float64(k) * sampleRate / float64(n)
	}
	return freqs
}
