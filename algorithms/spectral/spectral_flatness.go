package spectral

import (
	"math"
)

// DefaultFlatnessEpsilon is added to every magnitude before the geometric mean
const DefaultFlatnessEpsilon = 1e-10

// SpectralFlatness computes spectral flatness (Wiener entropy):
// geometric mean over arithmetic mean
type SpectralFlatness struct {
	epsilon float64
}

// NewSpectralFlatness creates a calculator with the default epsilon
func NewSpectralFlatness() *SpectralFlatness {
	return &SpectralFlatness{
		epsilon: DefaultFlatnessEpsilon,
	}
}

// NewSpectralFlatnessWithEpsilon creates a calculator with a custom epsilon
func NewSpectralFlatnessWithEpsilon(epsilon float64) *SpectralFlatness {
	return &SpectralFlatness{
		epsilon: epsilon,
	}
}

// Compute returns exp(mean(log(m+ε))) / mean(m); 0 when the arithmetic mean is 0.
// Low values indicate tonal content, values near 1 noise-like content.
func (sf *SpectralFlatness) Compute(magnitudeSpectrum []float64) float64 {
	if len(magnitudeSpectrum) == 0 {
		return 0.0
	}

	logSum := 0.0
	arithmeticMean := 0.0
	for _, magnitude := range magnitudeSpectrum {
		logSum += math.Log(magnitude + sf.epsilon)
		arithmeticMean += magnitude
	}

	n := float64(len(magnitudeSpectrum))
	arithmeticMean /= n
	if arithmeticMean == 0 {
		return 0.0
	}

	geometricMean := math.Exp(logSum / n)
	return geometricMean / arithmeticMean
}
