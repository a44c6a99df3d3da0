package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// SetDefaults registers DefaultConfig values so a partial config file or
// environment overrides only what it names
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("input.sample_rate", d.Input.SampleRate)
	v.SetDefault("input.sample_width", d.Input.SampleWidth)
	v.SetDefault("input.format", d.Input.Format)

	v.SetDefault("spectral.rolloff_percent", d.Spectral.RolloffPercent)
	v.SetDefault("spectral.flatness_epsilon", d.Spectral.FlatnessEpsilon)

	v.SetDefault("mfcc.n_mfcc", d.MFCC.NumCoefficients)
	v.SetDefault("mfcc.n_mels", d.MFCC.NumMelFilters)
	v.SetDefault("mfcc.frame_length", d.MFCC.FrameLength)
	v.SetDefault("mfcc.hop_length", d.MFCC.HopLength)
	v.SetDefault("mfcc.fmin", d.MFCC.FMin)
	v.SetDefault("mfcc.fmax", d.MFCC.FMax)
	v.SetDefault("mfcc.top_db", d.MFCC.TopDB)
	v.SetDefault("mfcc.center", d.MFCC.Center)
	v.SetDefault("mfcc.htk", d.MFCC.HTK)
	v.SetDefault("mfcc.lifter", d.MFCC.Lifter)

	v.SetDefault("wavelet.family", d.Wavelet.Family)
	v.SetDefault("wavelet.min_scale", d.Wavelet.MinScale)
	v.SetDefault("wavelet.max_scale", d.Wavelet.MaxScale)
	v.SetDefault("wavelet.sampling_period", d.Wavelet.SamplingPeriod)

	v.SetDefault("stft.frame_size", d.STFT.FrameSize)
	v.SetDefault("stft.overlap", d.STFT.Overlap)
	v.SetDefault("stft.window", d.STFT.Window)

	v.SetDefault("parallel", d.Parallel)
}

// Load decodes and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
