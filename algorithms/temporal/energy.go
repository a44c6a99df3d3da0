package temporal

import (
	"math"

	"github.com/RyanBlaney/chirp-sonar/algorithms/common"
	"gonum.org/v1/gonum/floats"
)

// AmplitudeResult holds whole-signal level descriptors
type AmplitudeResult struct {
	RMS        float64 `json:"rms"`
	Energy     float64 `json:"energy"` // Σx²
	MaxAmp     float64 `json:"max_amp"`
	MinAmp     float64 `json:"min_amp"`
	PeakToPeak float64 `json:"peak_to_peak"`
	CrestDB    float64 `json:"crest_db"` // 20log10(max|x| / rms), 0 for silence
}

// Energy computes level descriptors over a whole signal
type Energy struct{}

// NewEnergy creates a new energy calculator
func NewEnergy() *Energy {
	return &Energy{}
}

// Compute returns the amplitude descriptors of signal
func (e *Energy) Compute(signal []float64) (*AmplitudeResult, error) {
	if len(signal) == 0 {
		return nil, common.NewFormatError("Energy", "empty signal")
	}

	energy := floats.Dot(signal, signal)
	rms := common.RMS(signal)

	maxAmp := floats.Max(signal)
	minAmp := floats.Min(signal)

	crest := 0.0
	if rms > 0 {
		peak := math.Max(math.Abs(maxAmp), math.Abs(minAmp))
		crest = 20.0 * math.Log10(peak/rms)
	}

	return &AmplitudeResult{
		RMS:        rms,
		Energy:     energy,
		MaxAmp:     maxAmp,
		MinAmp:     minAmp,
		PeakToPeak: maxAmp - minAmp,
		CrestDB:    crest,
	}, nil
}
