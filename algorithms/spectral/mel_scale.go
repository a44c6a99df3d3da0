package spectral

import (
	"math"

	"github.com/RyanBlaney/chirp-sonar/algorithms/common"
)

const (
	slaneyFSp       = 200.0 / 3.0
	slaneyMinLogHz  = 1000.0
	slaneyMinLogMel = slaneyMinLogHz / slaneyFSp
)

var slaneyLogStep = math.Log(6.4) / 27.0

// MelScale converts between Hz and mel and builds triangular filter banks.
// The default is the Slaney (Auditory Toolbox) scale: linear below 1 kHz,
// logarithmic above. HTK uses 2595*log10(1 + f/700) throughout.
type MelScale struct {
	htk bool
}

// NewMelScale creates a Slaney mel scale converter
func NewMelScale() *MelScale {
	return &MelScale{}
}

// NewHTKMelScale creates an HTK mel scale converter
func NewHTKMelScale() *MelScale {
	return &MelScale{htk: true}
}

// HzToMel converts frequency in Hz to mel scale
func (ms *MelScale) HzToMel(hz float64) float64 {
	if ms.htk {
		return 2595.0 * math.Log10(1.0+hz/700.0)
	}

	if hz >= slaneyMinLogHz {
		return slaneyMinLogMel + math.Log(hz/slaneyMinLogHz)/slaneyLogStep
	}
	return hz / slaneyFSp
}

// MelToHz converts mel scale to frequency in Hz
func (ms *MelScale) MelToHz(mel float64) float64 {
	if ms.htk {
		return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
	}

	if mel >= slaneyMinLogMel {
		return slaneyMinLogHz * math.Exp(slaneyLogStep*(mel-slaneyMinLogMel))
	}
	return slaneyFSp * mel
}

// MelFrequencies returns n frequencies evenly spaced on the mel scale
// between lowFreq and highFreq, both included
func (ms *MelScale) MelFrequencies(n int, lowFreq, highFreq float64) []float64 {
	mels := common.Linspace(ms.HzToMel(lowFreq), ms.HzToMel(highFreq), n)
	for i, mel := range mels {
		mels[i] = ms.MelToHz(mel)
	}
	return mels
}

// CreateMelFilterBank creates a numFilters x (fftSize/2+1) bank of
// area-normalized triangular filters. Filter i rises from edge i to edge i+1
// and falls to edge i+2 where edges are numFilters+2 mel-spaced frequencies.
func (ms *MelScale) CreateMelFilterBank(numFilters int, fftSize int, sampleRate int, lowFreq, highFreq float64) [][]float64 {
	if numFilters <= 0 || fftSize <= 0 {
		return nil
	}

	fftFreqs := RFFTFrequencies(fftSize, float64(sampleRate))
	edges := ms.MelFrequencies(numFilters+2, lowFreq, highFreq)

	filterBank := make([][]float64, numFilters)
	for i := range filterBank {
		filterBank[i] = make([]float64, len(fftFreqs))

		lowerWidth := edges[i+1] - edges[i]
		upperWidth := edges[i+2] - edges[i+1]
		norm := 2.0 / (edges[i+2] - edges[i])

		for k, f := range fftFreqs {
			lower := (f - edges[i]) / lowerWidth
			upper := (edges[i+2] - f) / upperWidth
			filterBank[i][k] = math.Max(0, math.Min(lower, upper)) * norm
		}
	}

	return filterBank
}
