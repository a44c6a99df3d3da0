package spectral

import (
	"fmt"

	"github.com/RyanBlaney/chirp-sonar/algorithms/common"
	"gonum.org/v1/gonum/floats"
)

// DefaultRolloffPercent is the conventional cumulative-magnitude threshold
const DefaultRolloffPercent = 0.85

// SpectralRolloff computes the frequency below which a fraction of the total
// spectral magnitude lies
type SpectralRolloff struct {
	sampleRate int
	freqBins   []float64
}

// NewSpectralRolloff creates a new spectral rolloff calculator
func NewSpectralRolloff(sampleRate, fftSize int) *SpectralRolloff {
	return &SpectralRolloff{
		sampleRate: sampleRate,
		freqBins:   RFFTFrequencies(fftSize, float64(sampleRate)),
	}
}

// Compute returns the first bin frequency where cumulative magnitude divided by
// the total reaches threshold. A zero spectrum has no such bin and fails with
// a degenerate signal error.
func (sr *SpectralRolloff) Compute(spectrum []float64, threshold float64) (float64, error) {
	if threshold <= 0 || threshold > 1 {
		return 0, common.NewConfigurationError("SpectralRolloff",
			fmt.Sprintf("threshold must be in (0, 1]: %g", threshold))
	}

	n := min(len(spectrum), len(sr.freqBins))
	if n == 0 {
		return 0, common.NewDegenerateSignalError("SpectralRolloff", "empty spectrum")
	}

	cumulative := make([]float64, n)
	floats.CumSum(cumulative, spectrum[:n])

	total := cumulative[n-1]
	if total == 0 {
		return 0, common.NewDegenerateSignalError("SpectralRolloff", "total spectral magnitude is zero")
	}

	lastNonZero := 0
	for i := range n {
		if cumulative[i]/total >= threshold {
			return sr.freqBins[i], nil
		}
		if spectrum[i] > 0 {
			lastNonZero = i
		}
	}

	// Only reachable for threshold 1 when rounding leaves the ratio below 1;
	// the cumulative sum stops growing at the last non-zero bin.
	return sr.freqBins[lastNonZero], nil
}
