package extractors

import (
	"context"
	"fmt"

	"github.com/RyanBlaney/chirp-sonar/algorithms/common"
	"github.com/RyanBlaney/chirp-sonar/algorithms/spectral"
	"github.com/RyanBlaney/chirp-sonar/features/config"
	"github.com/RyanBlaney/chirp-sonar/logging"
	"github.com/RyanBlaney/chirp-sonar/transcode"
	"gonum.org/v1/gonum/floats"
)

// FrequencyDomainAnalyzer computes shape descriptors of the whole-signal
// magnitude spectrum
type FrequencyDomainAnalyzer struct {
	config   config.SpectralConfig
	flatness *spectral.SpectralFlatness
	logger   logging.Logger
}

// NewFrequencyDomainAnalyzer creates a frequency-domain analyzer
func NewFrequencyDomainAnalyzer(cfg config.SpectralConfig) *FrequencyDomainAnalyzer {
	return &FrequencyDomainAnalyzer{
		config:   cfg,
		flatness: spectral.NewSpectralFlatnessWithEpsilon(cfg.FlatnessEpsilon),
		logger: logging.WithFields(logging.Fields{
			"component": "frequency_domain_analyzer",
		}),
	}
}

// Name returns the analyzer name
func (a *FrequencyDomainAnalyzer) Name() string {
	return string(KindFrequencyDomain)
}

// Analyze emits fft_mean, fft_std, fft_max, centroid, bandwidth, rolloff and
// flatness. A silent signal fails with a degenerate signal error.
func (a *FrequencyDomainAnalyzer) Analyze(ctx context.Context, signal *transcode.Signal) (*FeatureVector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	spectrum, err := spectral.ComputeSpectrum(signal.Samples(), signal.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("frequency-domain spectrum: %w", err)
	}

	if spectrum.IsSilent() {
		return nil, common.NewDegenerateSignalError("FrequencyDomainAnalyzer", "total spectral magnitude is zero")
	}

	mags := spectrum.Magnitudes

	centroid := spectral.NewSpectralCentroid(signal.SampleRate, spectrum.FFTSize).Compute(mags)
	bandwidth := spectral.NewSpectralBandwidth(signal.SampleRate, spectrum.FFTSize).Compute(mags, centroid)

	rolloff, err := spectral.NewSpectralRolloff(signal.SampleRate, spectrum.FFTSize).Compute(mags, a.config.RolloffPercent)
	if err != nil {
		return nil, fmt.Errorf("frequency-domain rolloff: %w", err)
	}

	a.logger.Debug("Computed frequency-domain features", logging.Fields{
		"bins":     len(mags),
		"centroid": centroid,
	})

	return NewFeatureBuilder(7).
		Add("fft_mean", common.Mean(mags)).
		Add("fft_std", common.PopulationStdDev(mags)).
		Add("fft_max", floats.Max(mags)).
		Add("centroid", centroid).
		Add("bandwidth", bandwidth).
		Add("rolloff", rolloff).
		Add("flatness", a.flatness.Compute(mags)).
		Build()
}
