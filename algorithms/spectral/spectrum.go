package spectral

import (
	"github.com/RyanBlaney/chirp-sonar/algorithms/common"
	"gonum.org/v1/gonum/floats"
)

// Spectrum is a one-sided magnitude spectrum of a whole signal.
// Frequencies[0] is 0 Hz and the bins are strictly increasing.
type Spectrum struct {
	Magnitudes  []float64 `json:"magnitudes"`
	Frequencies []float64 `json:"frequencies"`
	SampleRate  int       `json:"sample_rate"`
	FFTSize     int       `json:"fft_size"`
}

// ComputeSpectrum computes |rfft(signal)| with a rectangular window
func ComputeSpectrum(signal []float64, sampleRate int) (*Spectrum, error) {
	if len(signal) < 2 {
		return nil, common.NewFormatError("ComputeSpectrum", "signal needs at least 2 samples")
	}
	if sampleRate <= 0 {
		return nil, common.NewConfigurationError("ComputeSpectrum", "sample rate must be positive")
	}

	return &Spectrum{
		Magnitudes:  NewFFT().MagnitudeOneSided(signal),
		Frequencies: RFFTFrequencies(len(signal), float64(sampleRate)),
		SampleRate:  sampleRate,
		FFTSize:     len(signal),
	}, nil
}

// Total returns the sum of magnitudes
func (s *Spectrum) Total() float64 {
	return floats.Sum(s.Magnitudes)
}

// IsSilent reports whether every magnitude is zero
func (s *Spectrum) IsSilent() bool {
	return s.Total() == 0
}

// PeakFrequency returns the frequency of the largest magnitude
func (s *Spectrum) PeakFrequency() float64 {
	idx := common.ArgMax(s.Magnitudes)
	if idx < 0 {
		return 0
	}
	return s.Frequencies[idx]
}
