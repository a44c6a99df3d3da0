package spectral

import (
	"context"
	"fmt"
	"math"

	"github.com/RyanBlaney/chirp-sonar/algorithms/common"
	"github.com/RyanBlaney/chirp-sonar/algorithms/windowing"
	"github.com/RyanBlaney/chirp-sonar/logging"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const powerToDBFloor = 1e-10

// MFCC computes Mel-Frequency Cepstral Coefficients.
// Pipeline: centered Hann STFT, power spectrum, mel filter bank, dB with a
// top_db floor, orthonormal DCT-II, optional liftering.
type MFCC struct {
	sampleRate int
	params     MFCCParams

	melScale   *MelScale
	filterBank *mat.Dense // mels x bins
	dctMatrix  *mat.Dense // coefficients x mels
	stft       *STFT
	power      *PowerSpectrum
	window     *windowing.Window
	logger     logging.Logger
}

// MFCCParams contains parameters for MFCC computation
type MFCCParams struct {
	NumCoefficients int     `json:"num_coefficients"` // Number of MFCC coefficients (default: 13)
	NumMelFilters   int     `json:"num_mel_filters"`  // Number of mel filter bank filters (default: 128)
	FrameLength     int     `json:"frame_length"`     // FFT size per frame (default: 2048)
	HopLength       int     `json:"hop_length"`       // Samples between frames (default: 512)
	LowFreq         float64 `json:"low_freq"`         // Low frequency bound (default: 0)
	HighFreq        float64 `json:"high_freq"`        // High frequency bound (default: sampleRate/2)
	TopDB           float64 `json:"top_db"`           // Dynamic range below the peak, <= 0 disables (default: 80)
	Center          bool    `json:"center"`           // Center frames on hop positions (default: true)
	HTK             bool    `json:"htk"`              // Use the HTK mel formula instead of Slaney
	LifterCoeff     float64 `json:"lifter_coeff"`     // Sinusoidal liftering, 0 disables
}

// MFCCResult contains MFCC computation results
type MFCCResult struct {
	Frames [][]float64 `json:"frames"` // Frame x coefficient matrix
	Mean   []float64   `json:"mean"`   // Per-coefficient mean over frames
}

// DefaultMFCCParams returns the standard 13-coefficient configuration
func DefaultMFCCParams() MFCCParams {
	return MFCCParams{
		NumCoefficients: 13,
		NumMelFilters:   128,
		FrameLength:     2048,
		HopLength:       512,
		TopDB:           80.0,
		Center:          true,
	}
}

// NewMFCC creates a new MFCC computer with default parameters
func NewMFCC(sampleRate, numCoefficients int) (*MFCC, error) {
	params := DefaultMFCCParams()
	params.NumCoefficients = numCoefficients
	return NewMFCCWithParams(sampleRate, params)
}

// NewMFCCWithParams creates a new MFCC computer with custom parameters
func NewMFCCWithParams(sampleRate int, params MFCCParams) (*MFCC, error) {
	if params.HighFreq <= 0 {
		params.HighFreq = float64(sampleRate) / 2.0
	}

	if err := validateMFCCParams(sampleRate, params); err != nil {
		return nil, err
	}

	melScale := NewMelScale()
	if params.HTK {
		melScale = NewHTKMelScale()
	}

	mfcc := &MFCC{
		sampleRate: sampleRate,
		params:     params,
		melScale:   melScale,
		stft:       NewSTFT(),
		power:      NewPowerSpectrum(),
		window:     windowing.NewHann(params.FrameLength, false),
		logger: logging.WithFields(logging.Fields{
			"component": "mfcc",
		}),
	}

	mfcc.createFilterBank()
	mfcc.createDCTMatrix()

	return mfcc, nil
}

func validateMFCCParams(sampleRate int, params MFCCParams) error {
	const op = "MFCC"

	switch {
	case sampleRate <= 0:
		return common.NewConfigurationError(op, "sample rate must be positive")
	case params.NumMelFilters <= 0:
		return common.NewConfigurationError(op, "number of mel filters must be positive")
	case params.NumCoefficients <= 0:
		return common.NewConfigurationError(op, "number of coefficients must be positive")
	case params.NumCoefficients > params.NumMelFilters:
		return common.NewConfigurationError(op,
			fmt.Sprintf("number of coefficients (%d) exceeds mel filters (%d)", params.NumCoefficients, params.NumMelFilters))
	case params.FrameLength < 2:
		return common.NewConfigurationError(op, fmt.Sprintf("frame length too small: %d", params.FrameLength))
	case params.HopLength <= 0 || params.HopLength > params.FrameLength:
		return common.NewConfigurationError(op, fmt.Sprintf("hop length must be in [1, frame length]: %d", params.HopLength))
	case params.LifterCoeff < 0:
		return common.NewConfigurationError(op, fmt.Sprintf("lifter coefficient cannot be negative: %g", params.LifterCoeff))
	case params.LowFreq < 0 || params.LowFreq >= params.HighFreq:
		return common.NewConfigurationError(op,
			fmt.Sprintf("invalid mel band [%g, %g]", params.LowFreq, params.HighFreq))
	case params.HighFreq > float64(sampleRate)/2.0:
		return common.NewConfigurationError(op,
			fmt.Sprintf("high frequency %g exceeds Nyquist %g", params.HighFreq, float64(sampleRate)/2.0))
	}
	return nil
}

func (mfcc *MFCC) createFilterBank() {
	bank := mfcc.melScale.CreateMelFilterBank(
		mfcc.params.NumMelFilters,
		mfcc.params.FrameLength,
		mfcc.sampleRate,
		mfcc.params.LowFreq,
		mfcc.params.HighFreq,
	)

	bins := mfcc.params.FrameLength/2 + 1
	mfcc.filterBank = mat.NewDense(len(bank), bins, nil)
	for i, row := range bank {
		mfcc.filterBank.SetRow(i, row)
	}
}

// createDCTMatrix builds the orthonormal DCT-II basis, truncated to the
// requested number of coefficients
func (mfcc *MFCC) createDCTMatrix() {
	n := mfcc.params.NumMelFilters
	mfcc.dctMatrix = mat.NewDense(mfcc.params.NumCoefficients, n, nil)

	for k := 0; k < mfcc.params.NumCoefficients; k++ {
		norm := math.Sqrt(2.0 / float64(n))
		if k == 0 {
			norm = math.Sqrt(1.0 / float64(n))
		}

		for j := 0; j < n; j++ {
			mfcc.dctMatrix.Set(k, j, norm*math.Cos(math.Pi*float64(k)*(float64(j)+0.5)/float64(n)))
		}
	}
}

// Compute calculates MFCC frames for a signal and their mean
func (mfcc *MFCC) Compute(ctx context.Context, signal []float64) (*MFCCResult, error) {
	if len(signal) < mfcc.params.FrameLength {
		return nil, common.NewConfigurationError("MFCC",
			fmt.Sprintf("signal of %d samples is shorter than frame length %d", len(signal), mfcc.params.FrameLength))
	}

	spectrogram, err := mfcc.stft.Compute(ctx, signal, mfcc.sampleRate, STFTParams{
		WindowSize: mfcc.params.FrameLength,
		HopSize:    mfcc.params.HopLength,
		Window:     mfcc.window,
		Center:     mfcc.params.Center,
	})
	if err != nil {
		return nil, fmt.Errorf("mfcc spectrogram: %w", err)
	}

	frames := mfcc.ComputeFromPower(mfcc.power.ComputeFromSTFT(spectrogram))

	mean := make([]float64, mfcc.params.NumCoefficients)
	for _, frame := range frames {
		floats.Add(mean, frame)
	}
	floats.Scale(1.0/float64(len(frames)), mean)

	mfcc.logger.Debug("Computed MFCC", logging.Fields{
		"frames":       len(frames),
		"coefficients": mfcc.params.NumCoefficients,
		"mel_filters":  mfcc.params.NumMelFilters,
	})

	return &MFCCResult{
		Frames: frames,
		Mean:   mean,
	}, nil
}

// ComputeFromPower converts a time x bin power spectrogram into MFCC frames
func (mfcc *MFCC) ComputeFromPower(power [][]float64) [][]float64 {
	if len(power) == 0 {
		return [][]float64{}
	}

	bins := mfcc.params.FrameLength/2 + 1
	spec := mat.NewDense(len(power), bins, nil)
	for t, frame := range power {
		spec.SetRow(t, frame)
	}

	// time x mels
	var mel mat.Dense
	mel.Mul(spec, mfcc.filterBank.T())

	mfcc.powerToDB(&mel)

	// time x coefficients
	var cepstrum mat.Dense
	cepstrum.Mul(&mel, mfcc.dctMatrix.T())

	frames := make([][]float64, len(power))
	for t := range frames {
		frames[t] = mat.Row(nil, t, &cepstrum)
		if mfcc.params.LifterCoeff > 0 {
			mfcc.applyLiftering(frames[t])
		}
	}

	return frames
}

// powerToDB converts to decibels in place, flooring at TopDB below the global peak
func (mfcc *MFCC) powerToDB(m *mat.Dense) {
	m.Apply(func(_, _ int, v float64) float64 {
		return 10.0 * math.Log10(math.Max(powerToDBFloor, v))
	}, m)

	if mfcc.params.TopDB <= 0 {
		return
	}

	floor := mat.Max(m) - mfcc.params.TopDB
	m.Apply(func(_, _ int, v float64) float64 {
		return math.Max(v, floor)
	}, m)
}

// applyLiftering scales coefficient i by 1 + (L/2)sin(pi(i+1)/L)
func (mfcc *MFCC) applyLiftering(coeffs []float64) {
	l := mfcc.params.LifterCoeff
	for i := range coeffs {
		coeffs[i] *= 1.0 + (l/2.0)*math.Sin(math.Pi*float64(i+1)/l)
	}
}
