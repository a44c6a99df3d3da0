package spectral

// SpectralCentroid computes the spectral centroid (center of mass) of a spectrum
type SpectralCentroid struct {
	sampleRate int
	fftSize    int
	freqBins   []float64 // Pre-calculated rfft bin frequencies
}

// NewSpectralCentroid creates a centroid calculator for one-sided spectra of
// an fftSize-point transform
func NewSpectralCentroid(sampleRate, fftSize int) *SpectralCentroid {
	return &SpectralCentroid{
		sampleRate: sampleRate,
		fftSize:    fftSize,
		freqBins:   RFFTFrequencies(fftSize, float64(sampleRate)),
	}
}

// Compute calculates Σ(f·m)/Σ(m). A silent spectrum yields 0.
func (sc *SpectralCentroid) Compute(spectrum []float64) float64 {
	if len(spectrum) == 0 {
		return 0.0
	}

	numerator := 0.0
	denominator := 0.0

	for i := range min(len(spectrum), len(sc.freqBins)) {
		numerator += sc.freqBins[i] * spectrum[i]
		denominator += spectrum[i]
	}

	if denominator == 0 {
		return 0
	}

	return numerator / denominator
}
