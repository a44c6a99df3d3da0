package extractors

import (
	"context"
	"fmt"

	"github.com/RyanBlaney/chirp-sonar/algorithms/common"
	"github.com/RyanBlaney/chirp-sonar/algorithms/wavelet"
	"github.com/RyanBlaney/chirp-sonar/features/config"
	"github.com/RyanBlaney/chirp-sonar/logging"
	"github.com/RyanBlaney/chirp-sonar/transcode"
)

// WaveletAnalyzer reduces each CWT scale to its mean squared coefficient
type WaveletAnalyzer struct {
	config config.WaveletConfig
	cwt    *wavelet.CWT
	scales []float64
	logger logging.Logger
}

// NewWaveletAnalyzer creates a wavelet analyzer
func NewWaveletAnalyzer(cfg config.WaveletConfig) (*WaveletAnalyzer, error) {
	family, err := wavelet.ParseFamily(cfg.Family)
	if err != nil {
		return nil, err
	}
	if cfg.MinScale < 1 || cfg.MaxScale < cfg.MinScale {
		return nil, common.NewConfigurationError("NewWaveletAnalyzer",
			fmt.Sprintf("scale range [%d, %d] is empty or non-positive", cfg.MinScale, cfg.MaxScale))
	}

	cwt, err := wavelet.NewCWT(family)
	if err != nil {
		return nil, err
	}

	return &WaveletAnalyzer{
		config: cfg,
		cwt:    cwt,
		scales: wavelet.IntegerScales(cfg.MinScale, cfg.MaxScale),
		logger: logging.WithFields(logging.Fields{
			"component": "wavelet_analyzer",
			"family":    string(family),
		}),
	}, nil
}

// Name returns the analyzer name
func (a *WaveletAnalyzer) Name() string {
	return string(KindWavelet)
}

// Frequencies returns the pseudo-frequency of every configured scale for a
// signal sampled at sampleRate
func (a *WaveletAnalyzer) Frequencies(sampleRate int) []float64 {
	period := a.config.SamplingPeriod
	if period == 0 {
		period = 1.0 / float64(sampleRate)
	}
	return a.cwt.Frequencies(a.scales, period)
}

// Analyze emits cwt_scale_1..cwt_scale_N, one per configured scale in
// ascending order
func (a *WaveletAnalyzer) Analyze(ctx context.Context, signal *transcode.Signal) (*FeatureVector, error) {
	energies, err := a.cwt.Energies(ctx, signal.Samples(), a.scales)
	if err != nil {
		return nil, fmt.Errorf("wavelet analysis: %w", err)
	}

	freqs := a.Frequencies(signal.SampleRate)
	a.logger.Debug("Computed wavelet features", logging.Fields{
		"scales":        len(a.scales),
		"max_frequency": freqs[0],
		"min_frequency": freqs[len(freqs)-1],
	})

	return NewFeatureBuilder(len(energies)).
		AddIndexed("cwt_scale", energies).
		Build()
}
