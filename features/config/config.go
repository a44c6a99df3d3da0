package config

import (
	"fmt"

	"github.com/RyanBlaney/chirp-sonar/algorithms/common"
	"github.com/RyanBlaney/chirp-sonar/algorithms/spectral"
	"github.com/RyanBlaney/chirp-sonar/algorithms/wavelet"
	"github.com/RyanBlaney/chirp-sonar/algorithms/windowing"
	"github.com/RyanBlaney/chirp-sonar/transcode"
)

// Config is the full parameter set of one extraction run
type Config struct {
	Input    InputConfig    `json:"input" yaml:"input" mapstructure:"input"`
	Spectral SpectralConfig `json:"spectral" yaml:"spectral" mapstructure:"spectral"`
	MFCC     MFCCConfig     `json:"mfcc" yaml:"mfcc" mapstructure:"mfcc"`
	Wavelet  WaveletConfig  `json:"wavelet" yaml:"wavelet" mapstructure:"wavelet"`
	STFT     STFTConfig     `json:"stft" yaml:"stft" mapstructure:"stft"`

	// Parallel runs the analyzers concurrently; output order is unchanged
	Parallel bool `json:"parallel" yaml:"parallel" mapstructure:"parallel"`
}

// InputConfig describes the recording on disk
type InputConfig struct {
	SampleRate  int    `json:"sample_rate" yaml:"sample_rate" mapstructure:"sample_rate"`
	SampleWidth int    `json:"sample_width" yaml:"sample_width" mapstructure:"sample_width"` // bytes per sample
	Format      string `json:"format" yaml:"format" mapstructure:"format"`                   // "raw" or "wav"
}

// SpectralConfig parameterizes the whole-signal spectral descriptors
type SpectralConfig struct {
	RolloffPercent  float64 `json:"rolloff_percent" yaml:"rolloff_percent" mapstructure:"rolloff_percent"`
	FlatnessEpsilon float64 `json:"flatness_epsilon" yaml:"flatness_epsilon" mapstructure:"flatness_epsilon"`
}

// MFCCConfig parameterizes the cepstral analyzer
type MFCCConfig struct {
	NumCoefficients int     `json:"n_mfcc" yaml:"n_mfcc" mapstructure:"n_mfcc"`
	NumMelFilters   int     `json:"n_mels" yaml:"n_mels" mapstructure:"n_mels"`
	FrameLength     int     `json:"frame_length" yaml:"frame_length" mapstructure:"frame_length"`
	HopLength       int     `json:"hop_length" yaml:"hop_length" mapstructure:"hop_length"`
	FMin            float64 `json:"fmin" yaml:"fmin" mapstructure:"fmin"`
	FMax            float64 `json:"fmax" yaml:"fmax" mapstructure:"fmax"` // 0 means Nyquist
	TopDB           float64 `json:"top_db" yaml:"top_db" mapstructure:"top_db"`
	Center          bool    `json:"center" yaml:"center" mapstructure:"center"`
	HTK             bool    `json:"htk" yaml:"htk" mapstructure:"htk"`          // HTK mel formula instead of Slaney
	Lifter          float64 `json:"lifter" yaml:"lifter" mapstructure:"lifter"` // sinusoidal liftering, 0 disables
}

// WaveletConfig parameterizes the wavelet analyzer
type WaveletConfig struct {
	Family   string `json:"family" yaml:"family" mapstructure:"family"`
	MinScale int    `json:"min_scale" yaml:"min_scale" mapstructure:"min_scale"`
	MaxScale int    `json:"max_scale" yaml:"max_scale" mapstructure:"max_scale"`

	// SamplingPeriod converts scales to pseudo-frequencies; 0 means 1/sample rate
	SamplingPeriod float64 `json:"sampling_period" yaml:"sampling_period" mapstructure:"sampling_period"`
}

// STFTConfig parameterizes the time-frequency analyzer
type STFTConfig struct {
	FrameSize int     `json:"frame_size" yaml:"frame_size" mapstructure:"frame_size"`
	Overlap   float64 `json:"overlap" yaml:"overlap" mapstructure:"overlap"` // fraction of a frame, [0, 1)
	Window    string  `json:"window" yaml:"window" mapstructure:"window"`
}

// DefaultConfig returns the reference configuration
func DefaultConfig() *Config {
	mfcc := spectral.DefaultMFCCParams()

	return &Config{
		Input: InputConfig{
			SampleRate:  48000,
			SampleWidth: 2,
			Format:      transcode.FormatRaw,
		},
		Spectral: SpectralConfig{
			RolloffPercent:  spectral.DefaultRolloffPercent,
			FlatnessEpsilon: spectral.DefaultFlatnessEpsilon,
		},
		MFCC: MFCCConfig{
			NumCoefficients: mfcc.NumCoefficients,
			NumMelFilters:   mfcc.NumMelFilters,
			FrameLength:     mfcc.FrameLength,
			HopLength:       mfcc.HopLength,
			TopDB:           mfcc.TopDB,
			Center:          mfcc.Center,
			HTK:             mfcc.HTK,
			Lifter:          mfcc.LifterCoeff,
		},
		Wavelet: WaveletConfig{
			Family:   string(wavelet.Morlet),
			MinScale: 1,
			MaxScale: 127,
		},
		STFT: STFTConfig{
			FrameSize: 1024,
			Overlap:   0.5,
			Window:    string(windowing.TypeHann),
		},
		Parallel: false,
	}
}

// HopSize returns the STFT hop in samples: frame - floor(frame*overlap)
func (c STFTConfig) HopSize() int {
	return c.FrameSize - int(float64(c.FrameSize)*c.Overlap)
}

// DecoderConfig returns the loader settings
func (c *Config) DecoderConfig() *transcode.DecoderConfig {
	return &transcode.DecoderConfig{
		SampleRate:  c.Input.SampleRate,
		SampleWidth: c.Input.SampleWidth,
		Format:      c.Input.Format,
	}
}

// Validate checks every section and returns the first configuration error
func (c *Config) Validate() error {
	if err := transcode.NewDecoder(c.DecoderConfig()).ValidateConfig(); err != nil {
		return err
	}

	if c.Spectral.RolloffPercent <= 0 || c.Spectral.RolloffPercent > 1 {
		return invalid("spectral.rolloff_percent must be in (0, 1]: %g", c.Spectral.RolloffPercent)
	}
	if c.Spectral.FlatnessEpsilon < 0 {
		return invalid("spectral.flatness_epsilon cannot be negative: %g", c.Spectral.FlatnessEpsilon)
	}

	if c.MFCC.NumCoefficients <= 0 {
		return invalid("mfcc.n_mfcc must be positive: %d", c.MFCC.NumCoefficients)
	}
	if c.MFCC.NumMelFilters <= 0 {
		return invalid("mfcc.n_mels must be positive: %d", c.MFCC.NumMelFilters)
	}
	if c.MFCC.NumCoefficients > c.MFCC.NumMelFilters {
		return invalid("mfcc.n_mfcc (%d) cannot exceed mfcc.n_mels (%d)", c.MFCC.NumCoefficients, c.MFCC.NumMelFilters)
	}
	if c.MFCC.FrameLength < 2 {
		return invalid("mfcc.frame_length must be at least 2: %d", c.MFCC.FrameLength)
	}
	if c.MFCC.HopLength <= 0 || c.MFCC.HopLength > c.MFCC.FrameLength {
		return invalid("mfcc.hop_length must be in [1, frame_length]: %d", c.MFCC.HopLength)
	}
	if c.MFCC.FMin < 0 || (c.MFCC.FMax > 0 && c.MFCC.FMin >= c.MFCC.FMax) {
		return invalid("mfcc band [%g, %g] is empty", c.MFCC.FMin, c.MFCC.FMax)
	}

	if c.MFCC.Lifter < 0 {
		return invalid("mfcc.lifter cannot be negative: %g", c.MFCC.Lifter)
	}

	if _, err := wavelet.ParseFamily(c.Wavelet.Family); err != nil {
		return err
	}
	if c.Wavelet.MinScale < 1 || c.Wavelet.MaxScale < c.Wavelet.MinScale {
		return invalid("wavelet scale range [%d, %d] is empty or non-positive", c.Wavelet.MinScale, c.Wavelet.MaxScale)
	}
	if c.Wavelet.SamplingPeriod < 0 {
		return invalid("wavelet.sampling_period cannot be negative: %g", c.Wavelet.SamplingPeriod)
	}

	if c.STFT.FrameSize < 2 {
		return invalid("stft.frame_size must be at least 2: %d", c.STFT.FrameSize)
	}
	if c.STFT.Overlap < 0 || c.STFT.Overlap >= 1 {
		return invalid("stft.overlap must be in [0, 1): %g", c.STFT.Overlap)
	}
	if _, err := windowing.ParseType(c.STFT.Window); err != nil {
		return common.NewConfigurationError("Validate", err.Error())
	}

	return nil
}

func invalid(format string, args ...any) error {
	return common.NewConfigurationError("Validate", fmt.Sprintf(format, args...))
}
