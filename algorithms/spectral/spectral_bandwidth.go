package spectral

import (
	"math"
)

// SpectralBandwidth computes the magnitude-weighted RMS spread of frequency
// around a reference (usually the centroid)
type SpectralBandwidth struct {
	sampleRate int
	freqBins   []float64
}

// NewSpectralBandwidth creates a new spectral bandwidth calculator
func NewSpectralBandwidth(sampleRate, fftSize int) *SpectralBandwidth {
	return &SpectralBandwidth{
		sampleRate: sampleRate,
		freqBins:   RFFTFrequencies(fftSize, float64(sampleRate)),
	}
}

// Compute calculates sqrt(Σ((f-centroid)²·m)/Σm)
func (sb *SpectralBandwidth) Compute(spectrum []float64, centroid float64) float64 {
	if len(spectrum) == 0 {
		return 0.0
	}

	numerator := 0.0
	denominator := 0.0

	for i := range min(len(spectrum), len(sb.freqBins)) {
		diff := sb.freqBins[i] - centroid
		numerator += diff * diff * spectrum[i]
		denominator += spectrum[i]
	}

	if denominator == 0 {
		return 0
	}

	return math.Sqrt(numerator / denominator)
}
