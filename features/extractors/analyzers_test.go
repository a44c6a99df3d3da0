package extractors

import (
	"context"
	"math"
	"strconv"
	"testing"

	"github.com/RyanBlaney/chirp-sonar/algorithms/common"
	"github.com/RyanBlaney/chirp-sonar/features/config"
	"github.com/RyanBlaney/chirp-sonar/transcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSignal(t *testing.T, samples []float64, sampleRate int) *transcode.Signal {
	t.Helper()
	sig, err := transcode.NewSignal(samples, sampleRate)
	require.NoError(t, err)
	return sig
}

func sineSignal(t *testing.T, freq float64, sampleRate, n int) *transcode.Signal {
	t.Helper()
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return newSignal(t, samples, sampleRate)
}

// testConfig keeps the transforms small enough for short synthetic signals
func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.MFCC.NumMelFilters = 40
	cfg.MFCC.FrameLength = 512
	cfg.MFCC.HopLength = 128
	cfg.Wavelet.MaxScale = 8
	cfg.STFT.FrameSize = 256
	return cfg
}

func TestTimeDomainAnalyzer(t *testing.T) {
	sig := newSignal(t, []float64{0.5, -0.5, 0.5, -0.5}, 8000)

	fv, err := NewTimeDomainAnalyzer().Analyze(context.Background(), sig)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"mean", "std", "var", "rms", "max_amp", "min_amp",
		"peak_to_peak", "skewness", "kurtosis", "zcr", "entropy",
	}, fv.Names())

	expected := map[string]float64{
		"mean":         0,
		"std":          0.5,
		"var":          0.25,
		"rms":          0.5,
		"max_amp":      0.5,
		"min_amp":      -0.5,
		"peak_to_peak": 1,
		"skewness":     0,
		"kurtosis":     -2,
		"zcr":          0.75,
		"entropy":      1,
	}
	for name, want := range expected {
		got, ok := fv.Get(name)
		require.True(t, ok, name)
		assert.InDelta(t, want, got, 1e-12, name)
	}
}

func TestTimeDomainAnalyzerSilence(t *testing.T) {
	sig := newSignal(t, make([]float64, 1000), 48000)

	fv, err := NewTimeDomainAnalyzer().Analyze(context.Background(), sig)
	require.NoError(t, err)

	for _, f := range fv.Features() {
		assert.Equal(t, 0.0, f.Value, f.Name)
	}
}

func TestFrequencyDomainAnalyzerImpulse(t *testing.T) {
	sig := newSignal(t, []float64{1, 0, 0, 0}, 4)

	fv, err := NewFrequencyDomainAnalyzer(config.DefaultConfig().Spectral).Analyze(context.Background(), sig)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"fft_mean", "fft_std", "fft_max", "centroid", "bandwidth", "rolloff", "flatness",
	}, fv.Names())

	expected := map[string]float64{
		"fft_mean":  1,
		"fft_std":   0,
		"fft_max":   1,
		"centroid":  1,
		"bandwidth": math.Sqrt(2.0 / 3.0),
		"rolloff":   2,
		"flatness":  1,
	}
	for name, want := range expected {
		got, _ := fv.Get(name)
		assert.InDelta(t, want, got, 1e-9, name)
	}
}

func TestFrequencyDomainAnalyzerTone(t *testing.T) {
	sig := sineSignal(t, 19000, 44100, 44100)

	fv, err := NewFrequencyDomainAnalyzer(config.DefaultConfig().Spectral).Analyze(context.Background(), sig)
	require.NoError(t, err)

	centroid, _ := fv.Get("centroid")
	assert.InDelta(t, 19000, centroid, 50)

	rolloff, _ := fv.Get("rolloff")
	assert.InDelta(t, 19000, rolloff, 1)

	flatness, _ := fv.Get("flatness")
	assert.Less(t, flatness, 0.01)
}

func TestFrequencyDomainAnalyzerSilence(t *testing.T) {
	sig := newSignal(t, make([]float64, 1000), 48000)

	_, err := NewFrequencyDomainAnalyzer(config.DefaultConfig().Spectral).Analyze(context.Background(), sig)
	assert.ErrorIs(t, err, common.ErrDegenerateSignal)
}

func TestCepstralAnalyzer(t *testing.T) {
	cfg := testConfig()
	sig := sineSignal(t, 1000, 16000, 4096)

	fv, err := NewCepstralAnalyzer(cfg.MFCC).Analyze(context.Background(), sig)
	require.NoError(t, err)

	require.Equal(t, cfg.MFCC.NumCoefficients, fv.Len())
	for i, name := range fv.Names() {
		assert.Equal(t, "mfcc_"+strconv.Itoa(i+1), name)
	}

	again, err := NewCepstralAnalyzer(cfg.MFCC).Analyze(context.Background(), sig)
	require.NoError(t, err)
	assert.Equal(t, fv.Values(), again.Values())
}

func TestCepstralAnalyzerMelOptions(t *testing.T) {
	sig := sineSignal(t, 3000, 16000, 4096)

	base, err := NewCepstralAnalyzer(testConfig().MFCC).Analyze(context.Background(), sig)
	require.NoError(t, err)

	htkConfig := testConfig().MFCC
	htkConfig.HTK = true
	htk, err := NewCepstralAnalyzer(htkConfig).Analyze(context.Background(), sig)
	require.NoError(t, err)
	assert.Equal(t, base.Names(), htk.Names())
	assert.NotEqual(t, base.Values(), htk.Values())

	lifterConfig := testConfig().MFCC
	lifterConfig.Lifter = 22
	lifted, err := NewCepstralAnalyzer(lifterConfig).Analyze(context.Background(), sig)
	require.NoError(t, err)

	for i, v := range base.Values() {
		gain := 1 + 11*math.Sin(math.Pi*float64(i+1)/22)
		assert.InDelta(t, v*gain, lifted.Values()[i], 1e-9*math.Max(1, math.Abs(v*gain)))
	}
}

func TestCepstralAnalyzerSilence(t *testing.T) {
	cfg := testConfig()
	sig := newSignal(t, make([]float64, 1000), 48000)

	fv, err := NewCepstralAnalyzer(cfg.MFCC).Analyze(context.Background(), sig)
	require.NoError(t, err)

	c1, _ := fv.Get("mfcc_1")
	assert.InDelta(t, -100*math.Sqrt(float64(cfg.MFCC.NumMelFilters)), c1, 1e-6)
	for _, name := range fv.Names()[1:] {
		v, _ := fv.Get(name)
		assert.InDelta(t, 0, v, 1e-6, name)
	}
}

func TestCepstralAnalyzerShortSignal(t *testing.T) {
	cfg := testConfig()
	sig := newSignal(t, make([]float64, 100), 48000)

	_, err := NewCepstralAnalyzer(cfg.MFCC).Analyze(context.Background(), sig)
	assert.ErrorIs(t, err, common.ErrConfiguration)
}

func TestWaveletAnalyzer(t *testing.T) {
	cfg := testConfig()
	a, err := NewWaveletAnalyzer(cfg.Wavelet)
	require.NoError(t, err)

	sig := sineSignal(t, 4000, 16000, 2048)
	fv, err := a.Analyze(context.Background(), sig)
	require.NoError(t, err)

	require.Equal(t, 8, fv.Len())
	for i, f := range fv.Features() {
		assert.Equal(t, "cwt_scale_"+strconv.Itoa(i+1), f.Name)
		assert.GreaterOrEqual(t, f.Value, 0.0)
	}

	// a quarter-rate tone sits closest to scale 0.8125/0.25 ~ 3
	energies := fv.Values()
	assert.Equal(t, 2, common.ArgMax(energies))

	freqs := a.Frequencies(16000)
	assert.InDelta(t, 0.8125*16000, freqs[0], 1e-6)
}

func TestWaveletAnalyzerKeysFollowScaleIndex(t *testing.T) {
	cfg := testConfig()
	cfg.Wavelet.MinScale = 4
	cfg.Wavelet.MaxScale = 6

	a, err := NewWaveletAnalyzer(cfg.Wavelet)
	require.NoError(t, err)

	fv, err := a.Analyze(context.Background(), sineSignal(t, 500, 8000, 512))
	require.NoError(t, err)
	assert.Equal(t, []string{"cwt_scale_1", "cwt_scale_2", "cwt_scale_3"}, fv.Names())
}

func TestWaveletAnalyzerConfigErrors(t *testing.T) {
	cfg := testConfig()

	bad := cfg.Wavelet
	bad.Family = "haar"
	_, err := NewWaveletAnalyzer(bad)
	assert.ErrorIs(t, err, common.ErrConfiguration)

	bad = cfg.Wavelet
	bad.MinScale = 0
	_, err = NewWaveletAnalyzer(bad)
	assert.ErrorIs(t, err, common.ErrConfiguration)
}

func TestTimeFrequencyAnalyzerTone(t *testing.T) {
	cfg := config.DefaultConfig()
	a, err := NewTimeFrequencyAnalyzer(cfg.STFT)
	require.NoError(t, err)

	sig := sineSignal(t, 19000, 44100, 44100)
	fv, err := a.Analyze(context.Background(), sig)
	require.NoError(t, err)

	assert.Equal(t, []string{"stft_mean", "stft_max", "stft_peak_freq", "stft_bandwidth"}, fv.Names())

	binWidth := 44100.0 / float64(cfg.STFT.FrameSize)
	peak, _ := fv.Get("stft_peak_freq")
	assert.InDelta(t, 19000, peak, binWidth)

	// a Hann-windowed unit sine peaks near half amplitude under sum scaling
	maxMag, _ := fv.Get("stft_max")
	assert.InDelta(t, 0.5, maxMag, 0.1)

	mean, _ := fv.Get("stft_mean")
	assert.Less(t, mean, maxMag)

	bandwidth, _ := fv.Get("stft_bandwidth")
	assert.Greater(t, bandwidth, 0.0)
}

func TestTimeFrequencyAnalyzerErrors(t *testing.T) {
	cfg := testConfig()
	a, err := NewTimeFrequencyAnalyzer(cfg.STFT)
	require.NoError(t, err)

	_, err = a.Analyze(context.Background(), newSignal(t, make([]float64, 1000), 48000))
	assert.ErrorIs(t, err, common.ErrDegenerateSignal)

	_, err = a.Analyze(context.Background(), sineSignal(t, 100, 8000, cfg.STFT.FrameSize))
	assert.ErrorIs(t, err, common.ErrConfiguration)

	bad := cfg.STFT
	bad.Window = "triangle"
	_, err = NewTimeFrequencyAnalyzer(bad)
	assert.ErrorIs(t, err, common.ErrConfiguration)

	bad = cfg.STFT
	bad.Overlap = 1
	_, err = NewTimeFrequencyAnalyzer(bad)
	assert.ErrorIs(t, err, common.ErrConfiguration)
}

func TestAnalyzerFactory(t *testing.T) {
	factory := NewAnalyzerFactory()

	analyzers, err := factory.CreateAll(testConfig())
	require.NoError(t, err)
	require.Len(t, analyzers, len(CanonicalOrder))
	for i, a := range analyzers {
		assert.Equal(t, string(CanonicalOrder[i]), a.Name())
	}

	_, err = factory.CreateAnalyzer(Kind("chroma"), testConfig())
	assert.ErrorIs(t, err, common.ErrConfiguration)
}

func TestAnalyzersHonorCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	analyzers, err := NewAnalyzerFactory().CreateAll(testConfig())
	require.NoError(t, err)

	sig := sineSignal(t, 1000, 16000, 4096)
	for _, a := range analyzers {
		_, err := a.Analyze(ctx, sig)
		assert.ErrorIs(t, err, context.Canceled, a.Name())
	}
}
