package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/chirp-sonar/features"
	"github.com/RyanBlaney/chirp-sonar/features/config"
)

var (
	extractOutput  string
	extractTimeout time.Duration
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract the feature vector of one recording",
	Long: `Load a raw PCM or mono WAV recording, run every analyzer over it and
print the features in canonical order: time-domain, frequency-domain, MFCC,
wavelet, STFT.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	d := config.DefaultConfig()
	flags := extractCmd.Flags()

	flags.StringVarP(&extractOutput, "output", "o", formatText,
		"output format (text, json, yaml)")
	flags.DurationVar(&extractTimeout, "timeout", 0,
		"abort extraction after this long (0 disables)")

	flags.Bool("parallel", d.Parallel, "run the analyzers concurrently")
	flags.Int("sample-rate", d.Input.SampleRate, "sample rate of raw PCM input in Hz")
	flags.Int("sample-width", d.Input.SampleWidth, "bytes per sample of raw PCM input (1-4)")
	flags.String("format", d.Input.Format, "input format (raw, wav)")
	flags.Int("n-mfcc", d.MFCC.NumCoefficients, "number of MFCC coefficients")
	flags.Int("max-scale", d.Wavelet.MaxScale, "largest CWT scale")
	flags.String("wavelet", d.Wavelet.Family, "CWT mother wavelet (morl, mexh)")
	flags.Int("stft-frame", d.STFT.FrameSize, "STFT frame size in samples")
	flags.String("window", d.STFT.Window, "STFT window (hann, hamming, blackman, rectangular)")

	bindFlags(flags, map[string]string{
		"parallel":           "parallel",
		"input.sample_rate":  "sample-rate",
		"input.sample_width": "sample-width",
		"input.format":       "format",
		"mfcc.n_mfcc":        "n-mfcc",
		"wavelet.max_scale":  "max-scale",
		"wavelet.family":     "wavelet",
		"stft.frame_size":    "stft-frame",
		"stft.window":        "window",
	})
}

func runExtract(cmd *cobra.Command, args []string) error {
	path := args[0]

	write, err := newReportWriter(extractOutput)
	if err != nil {
		return err
	}

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	extractor, err := features.NewExtractor(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if extractTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, extractTimeout)
		defer cancel()
	}

	fv, err := extractor.Extract(ctx, path)
	if err != nil {
		return err
	}

	return write(cmd.OutOrStdout(), fv)
}
