// Package features turns a PCM recording into one ordered FeatureVector by
// running every analyzer over the same Signal.
package features

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/RyanBlaney/chirp-sonar/algorithms/common"
	"github.com/RyanBlaney/chirp-sonar/features/config"
	"github.com/RyanBlaney/chirp-sonar/features/extractors"
	"github.com/RyanBlaney/chirp-sonar/logging"
	"github.com/RyanBlaney/chirp-sonar/transcode"
)

// Extractor loads a recording and aggregates the output of all analyzers
type Extractor struct {
	config    *config.Config
	decoder   *transcode.Decoder
	analyzers []extractors.Analyzer
	logger    logging.Logger
}

// NewExtractor creates an extractor. A nil config means DefaultConfig.
func NewExtractor(cfg *config.Config) (*Extractor, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	analyzers, err := extractors.NewAnalyzerFactory().CreateAll(cfg)
	if err != nil {
		return nil, err
	}

	return &Extractor{
		config:    cfg,
		decoder:   transcode.NewDecoder(cfg.DecoderConfig()),
		analyzers: analyzers,
		logger: logging.WithFields(logging.Fields{
			"component": "feature_extractor",
		}),
	}, nil
}

// Config returns the configuration the extractor was built with
func (e *Extractor) Config() *config.Config {
	return e.config
}

// Extract loads the file at path and extracts its features
func (e *Extractor) Extract(ctx context.Context, path string) (*extractors.FeatureVector, error) {
	logger := e.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "Extract",
		"path":     path,
	})

	signal, err := e.decoder.DecodeFile(path)
	if err != nil {
		logger.Error(err, "Failed to load signal", logging.Fields{
			"kind": string(common.KindOf(err)),
		})
		return nil, err
	}

	logger.Debug("Loaded signal", logging.Fields{
		"samples":     signal.Len(),
		"sample_rate": signal.SampleRate,
		"duration":    signal.Duration.String(),
	})

	return e.ExtractSignal(ctx, signal)
}

// ExtractSignal runs every analyzer on signal and merges their outputs in
// canonical order. The first analyzer failure fails the whole extraction.
func (e *Extractor) ExtractSignal(ctx context.Context, signal *transcode.Signal) (*extractors.FeatureVector, error) {
	logger := e.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "ExtractSignal",
		"parallel": e.config.Parallel,
	})

	start := time.Now()

	var (
		partials []*extractors.FeatureVector
		err      error
	)
	if e.config.Parallel {
		partials, err = e.runParallel(ctx, signal)
	} else {
		partials, err = e.runSequential(ctx, signal)
	}
	if err != nil {
		logger.Error(err, "Feature extraction failed", logging.Fields{
			"kind": string(common.KindOf(err)),
		})
		return nil, err
	}

	merged, err := extractors.Merge(partials...)
	if err != nil {
		logger.Error(err, "Failed to merge analyzer outputs")
		return nil, err
	}

	logger.Info("Extracted features", logging.Fields{
		"features": merged.Len(),
		"elapsed":  time.Since(start).String(),
	})

	return merged, nil
}

func (e *Extractor) runSequential(ctx context.Context, signal *transcode.Signal) ([]*extractors.FeatureVector, error) {
	partials := make([]*extractors.FeatureVector, len(e.analyzers))
	for i, analyzer := range e.analyzers {
		fv, err := e.runAnalyzer(ctx, analyzer, signal)
		if err != nil {
			return nil, err
		}
		partials[i] = fv
	}
	return partials, nil
}

// runParallel gives each analyzer its own goroutine. Results and errors land
// in the analyzer's slot, so both the merge order and the reported failure
// match a sequential run regardless of completion order.
func (e *Extractor) runParallel(ctx context.Context, signal *transcode.Signal) ([]*extractors.FeatureVector, error) {
	partials := make([]*extractors.FeatureVector, len(e.analyzers))
	errs := make([]error, len(e.analyzers))

	g, gctx := errgroup.WithContext(ctx)
	for i, analyzer := range e.analyzers {
		g.Go(func() error {
			fv, err := e.runAnalyzer(gctx, analyzer, signal)
			if err != nil {
				errs[i] = err
				return err
			}
			partials[i] = fv
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, e.firstFailure(ctx, signal, errs, err)
	}
	return partials, nil
}

// firstFailure returns the error a sequential run would have reported: the
// failure of the earliest analyzer in canonical order. An analyzer that was
// canceled because a later sibling failed is run again to learn its outcome.
func (e *Extractor) firstFailure(ctx context.Context, signal *transcode.Signal, errs []error, groupErr error) error {
	if ctx.Err() != nil {
		return groupErr
	}

	for i, err := range errs {
		if err == nil {
			continue
		}
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if _, err := e.runAnalyzer(ctx, e.analyzers[i], signal); err != nil {
			return err
		}
	}
	return groupErr
}

func (e *Extractor) runAnalyzer(ctx context.Context, analyzer extractors.Analyzer, signal *transcode.Signal) (*extractors.FeatureVector, error) {
	start := time.Now()

	fv, err := analyzer.Analyze(ctx, signal)
	if err != nil {
		return nil, fmt.Errorf("%s analyzer: %w", analyzer.Name(), err)
	}

	e.logger.Debug("Analyzer finished", logging.Fields{
		"analyzer": analyzer.Name(),
		"features": fv.Len(),
		"elapsed":  time.Since(start).String(),
	})

	return fv, nil
}
