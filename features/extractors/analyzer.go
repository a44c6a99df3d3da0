package extractors

import (
	"context"
	"fmt"

	"github.com/RyanBlaney/chirp-sonar/algorithms/common"
	"github.com/RyanBlaney/chirp-sonar/features/config"
	"github.com/RyanBlaney/chirp-sonar/logging"
	"github.com/RyanBlaney/chirp-sonar/transcode"
)

// Analyzer computes one family of descriptors from a Signal. Implementations
// read the signal only and return a freshly built vector.
type Analyzer interface {
	Analyze(ctx context.Context, signal *transcode.Signal) (*FeatureVector, error)
	Name() string
}

// Kind names an analyzer family
type Kind string

const (
	KindTimeDomain      Kind = "time_domain"
	KindFrequencyDomain Kind = "frequency_domain"
	KindCepstral        Kind = "cepstral"
	KindWavelet         Kind = "wavelet"
	KindTimeFrequency   Kind = "time_frequency"
)

// CanonicalOrder is the order analyzer outputs are concatenated in
var CanonicalOrder = []Kind{
	KindTimeDomain,
	KindFrequencyDomain,
	KindCepstral,
	KindWavelet,
	KindTimeFrequency,
}

// AnalyzerFactory creates analyzers from a validated configuration
type AnalyzerFactory struct {
	logger logging.Logger
}

// NewAnalyzerFactory creates a new analyzer factory
func NewAnalyzerFactory() *AnalyzerFactory {
	return &AnalyzerFactory{
		logger: logging.WithFields(logging.Fields{
			"component": "analyzer_factory",
		}),
	}
}

// CreateAnalyzer creates the analyzer of the given kind
func (f *AnalyzerFactory) CreateAnalyzer(kind Kind, cfg *config.Config) (Analyzer, error) {
	logger := f.logger.WithFields(logging.Fields{
		"function": "CreateAnalyzer",
		"kind":     kind,
	})

	switch kind {
	case KindTimeDomain:
		logger.Debug("Creating time-domain analyzer")
		return NewTimeDomainAnalyzer(), nil

	case KindFrequencyDomain:
		logger.Debug("Creating frequency-domain analyzer")
		return NewFrequencyDomainAnalyzer(cfg.Spectral), nil

	case KindCepstral:
		logger.Debug("Creating cepstral analyzer")
		return NewCepstralAnalyzer(cfg.MFCC), nil

	case KindWavelet:
		logger.Debug("Creating wavelet analyzer")
		return NewWaveletAnalyzer(cfg.Wavelet)

	case KindTimeFrequency:
		logger.Debug("Creating time-frequency analyzer")
		return NewTimeFrequencyAnalyzer(cfg.STFT)
	}

	return nil, common.NewConfigurationError("CreateAnalyzer", fmt.Sprintf("unknown analyzer kind %q", kind))
}

// CreateAll creates every analyzer in canonical order
func (f *AnalyzerFactory) CreateAll(cfg *config.Config) ([]Analyzer, error) {
	analyzers := make([]Analyzer, 0, len(CanonicalOrder))
	for _, kind := range CanonicalOrder {
		a, err := f.CreateAnalyzer(kind, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s analyzer: %w", kind, err)
		}
		analyzers = append(analyzers, a)
	}
	return analyzers, nil
}
