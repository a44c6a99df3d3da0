package spectral

import "gonum.org/v1/gonum/floats"

// PowerSpectrum squares magnitude spectra
type PowerSpectrum struct{}

// NewPowerSpectrum creates a new power spectrum calculator
func NewPowerSpectrum() *PowerSpectrum {
	return &PowerSpectrum{}
}

// Compute returns |X|^2 for one magnitude frame
func (ps *PowerSpectrum) Compute(magnitude []float64) []float64 {
	power := make([]float64, len(magnitude))
	floats.MulTo(power, magnitude, magnitude)
	return power
}

// ComputeFromSTFT returns the time x bin power spectrogram of an STFT
func (ps *PowerSpectrum) ComputeFromSTFT(result *STFTResult) [][]float64 {
	power := make([][]float64, len(result.Magnitude))
	for t, frame := range result.Magnitude {
		power[t] = ps.Compute(frame)
	}
	return power
}
