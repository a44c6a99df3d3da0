package extractors

import (
	"context"
	"fmt"

	"github.com/RyanBlaney/chirp-sonar/algorithms/spectral"
	"github.com/RyanBlaney/chirp-sonar/features/config"
	"github.com/RyanBlaney/chirp-sonar/logging"
	"github.com/RyanBlaney/chirp-sonar/transcode"
)

// CepstralAnalyzer averages MFCC frames into one value per coefficient
type CepstralAnalyzer struct {
	config config.MFCCConfig
	logger logging.Logger
}

// NewCepstralAnalyzer creates a cepstral analyzer
func NewCepstralAnalyzer(cfg config.MFCCConfig) *CepstralAnalyzer {
	return &CepstralAnalyzer{
		config: cfg,
		logger: logging.WithFields(logging.Fields{
			"component": "cepstral_analyzer",
		}),
	}
}

// Name returns the analyzer name
func (a *CepstralAnalyzer) Name() string {
	return string(KindCepstral)
}

// Analyze emits mfcc_1..mfcc_N
func (a *CepstralAnalyzer) Analyze(ctx context.Context, signal *transcode.Signal) (*FeatureVector, error) {
	// the filter bank depends on the sample rate, so it is built per signal
	mfcc, err := spectral.NewMFCCWithParams(signal.SampleRate, spectral.MFCCParams{
		NumCoefficients: a.config.NumCoefficients,
		NumMelFilters:   a.config.NumMelFilters,
		FrameLength:     a.config.FrameLength,
		HopLength:       a.config.HopLength,
		LowFreq:         a.config.FMin,
		HighFreq:        a.config.FMax,
		TopDB:           a.config.TopDB,
		Center:          a.config.Center,
		HTK:             a.config.HTK,
		LifterCoeff:     a.config.Lifter,
	})
	if err != nil {
		return nil, err
	}

	result, err := mfcc.Compute(ctx, signal.Samples())
	if err != nil {
		return nil, fmt.Errorf("cepstral analysis: %w", err)
	}

	a.logger.Debug("Computed cepstral features", logging.Fields{
		"frames":       len(result.Frames),
		"coefficients": len(result.Mean),
	})

	return NewFeatureBuilder(len(result.Mean)).
		AddIndexed("mfcc", result.Mean).
		Build()
}
