package extractors

import (
	"context"
	"fmt"

	"github.com/RyanBlaney/chirp-sonar/algorithms/stats"
	"github.com/RyanBlaney/chirp-sonar/algorithms/temporal"
	"github.com/RyanBlaney/chirp-sonar/logging"
	"github.com/RyanBlaney/chirp-sonar/transcode"
)

// TimeDomainAnalyzer computes amplitude statistics directly on the samples
type TimeDomainAnalyzer struct {
	moments *stats.Moments
	entropy *stats.Entropy
	energy  *temporal.Energy
	zcr     *temporal.ZeroCrossingRate
	logger  logging.Logger
}

// NewTimeDomainAnalyzer creates a time-domain analyzer
func NewTimeDomainAnalyzer() *TimeDomainAnalyzer {
	return &TimeDomainAnalyzer{
		moments: stats.NewMoments(),
		entropy: stats.NewEntropy(),
		energy:  temporal.NewEnergy(),
		zcr:     temporal.NewZeroCrossingRate(),
		logger: logging.WithFields(logging.Fields{
			"component": "time_domain_analyzer",
		}),
	}
}

// Name returns the analyzer name
func (a *TimeDomainAnalyzer) Name() string {
	return string(KindTimeDomain)
}

// Analyze emits mean, std, var, rms, max_amp, min_amp, peak_to_peak,
// skewness, kurtosis, zcr and entropy
func (a *TimeDomainAnalyzer) Analyze(ctx context.Context, signal *transcode.Signal) (*FeatureVector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pcm := signal.Samples()

	moments, err := a.moments.Analyze(pcm)
	if err != nil {
		return nil, fmt.Errorf("time-domain moments: %w", err)
	}

	amplitude, err := a.energy.Compute(pcm)
	if err != nil {
		return nil, fmt.Errorf("time-domain amplitude: %w", err)
	}

	entropy, err := a.entropy.Analyze(pcm)
	if err != nil {
		return nil, fmt.Errorf("time-domain entropy: %w", err)
	}

	a.logger.Debug("Computed time-domain features", logging.Fields{
		"samples": len(pcm),
	})

	return NewFeatureBuilder(11).
		Add("mean", moments.Mean).
		Add("std", moments.StdDev).
		Add("var", moments.Variance).
		Add("rms", amplitude.RMS).
		Add("max_amp", amplitude.MaxAmp).
		Add("min_amp", amplitude.MinAmp).
		Add("peak_to_peak", amplitude.PeakToPeak).
		Add("skewness", moments.Skewness).
		Add("kurtosis", moments.Kurtosis).
		Add("zcr", a.zcr.Compute(pcm)).
		Add("entropy", entropy.ShannonEntropy).
		Build()
}
