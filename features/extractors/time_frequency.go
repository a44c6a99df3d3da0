package extractors

import (
	"context"
	"fmt"
	"math"

	"github.com/RyanBlaney/chirp-sonar/algorithms/common"
	"github.com/RyanBlaney/chirp-sonar/algorithms/spectral"
	"github.com/RyanBlaney/chirp-sonar/algorithms/windowing"
	"github.com/RyanBlaney/chirp-sonar/features/config"
	"github.com/RyanBlaney/chirp-sonar/logging"
	"github.com/RyanBlaney/chirp-sonar/transcode"
	"gonum.org/v1/gonum/floats"
)

// TimeFrequencyAnalyzer summarizes the STFT magnitude surface
type TimeFrequencyAnalyzer struct {
	config config.STFTConfig
	window *windowing.Window
	stft   *spectral.STFT
	logger logging.Logger
}

// NewTimeFrequencyAnalyzer creates a time-frequency analyzer
func NewTimeFrequencyAnalyzer(cfg config.STFTConfig) (*TimeFrequencyAnalyzer, error) {
	kind, err := windowing.ParseType(cfg.Window)
	if err != nil {
		return nil, common.NewConfigurationError("NewTimeFrequencyAnalyzer", err.Error())
	}
	if cfg.FrameSize < 2 {
		return nil, common.NewConfigurationError("NewTimeFrequencyAnalyzer",
			fmt.Sprintf("frame size must be at least 2: %d", cfg.FrameSize))
	}
	if cfg.Overlap < 0 || cfg.Overlap >= 1 {
		return nil, common.NewConfigurationError("NewTimeFrequencyAnalyzer",
			fmt.Sprintf("overlap must be in [0, 1): %g", cfg.Overlap))
	}

	window, err := windowing.New(kind, cfg.FrameSize, false)
	if err != nil {
		return nil, common.NewConfigurationError("NewTimeFrequencyAnalyzer", err.Error())
	}

	return &TimeFrequencyAnalyzer{
		config: cfg,
		window: window,
		stft:   spectral.NewSTFT(),
		logger: logging.WithFields(logging.Fields{
			"component": "time_frequency_analyzer",
		}),
	}, nil
}

// Name returns the analyzer name
func (a *TimeFrequencyAnalyzer) Name() string {
	return string(KindTimeFrequency)
}

// Analyze emits stft_mean, stft_max, stft_peak_freq and stft_bandwidth
func (a *TimeFrequencyAnalyzer) Analyze(ctx context.Context, signal *transcode.Signal) (*FeatureVector, error) {
	if a.config.FrameSize >= signal.Len() {
		return nil, common.NewConfigurationError("TimeFrequencyAnalyzer",
			fmt.Sprintf("frame size %d must be smaller than the signal length %d", a.config.FrameSize, signal.Len()))
	}

	result, err := a.stft.Compute(ctx, signal.Samples(), signal.SampleRate, spectral.STFTParams{
		WindowSize: a.config.FrameSize,
		HopSize:    a.config.HopSize(),
		Window:     a.window,
		Center:     true,
		PadEnd:     true,
		ScaleBySum: true,
	})
	if err != nil {
		return nil, fmt.Errorf("time-frequency analysis: %w", err)
	}

	total, maxMag := 0.0, 0.0
	for _, frame := range result.Magnitude {
		total += floats.Sum(frame)
		maxMag = math.Max(maxMag, floats.Max(frame))
	}
	mean := total / float64(result.TimeFrames*result.FreqBins)

	binEnergy := result.TimeSummedMagnitude()
	energyTotal := floats.Sum(binEnergy)
	if energyTotal == 0 {
		return nil, common.NewDegenerateSignalError("TimeFrequencyAnalyzer", "STFT magnitude is zero everywhere")
	}

	peak := common.ArgMax(binEnergy)
	peakFreq := result.Frequencies[peak]

	spread := 0.0
	for k, e := range binEnergy {
		d := result.Frequencies[k] - peakFreq
		spread += d * d * e / energyTotal
	}

	a.logger.Debug("Computed time-frequency features", logging.Fields{
		"frames":    result.TimeFrames,
		"freq_bins": result.FreqBins,
		"peak_freq": peakFreq,
	})

	return NewFeatureBuilder(4).
		Add("stft_mean", mean).
		Add("stft_max", maxMag).
		Add("stft_peak_freq", peakFreq).
		Add("stft_bandwidth", math.Sqrt(spread)).
		Build()
}
