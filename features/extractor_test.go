package features

import (
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/chirp-sonar/algorithms/common"
	"github.com/RyanBlaney/chirp-sonar/features/config"
	"github.com/RyanBlaney/chirp-sonar/features/extractors"
	"github.com/RyanBlaney/chirp-sonar/logging"
	"github.com/RyanBlaney/chirp-sonar/transcode"
)

const testSampleRate = 16000

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Input.SampleRate = testSampleRate
	cfg.Wavelet.MaxScale = 16
	return cfg
}

// writeChirp writes a 16-bit PCM file holding a linear sweep from f0 to f1
func writeChirp(t *testing.T, n int, f0, f1 float64) string {
	t.Helper()

	data := make([]byte, 2*n)
	duration := float64(n) / testSampleRate
	for i := range n {
		tm := float64(i) / testSampleRate
		phase := 2 * math.Pi * (f0*tm + (f1-f0)*tm*tm/(2*duration))
		binary.LittleEndian.PutUint16(data[2*i:], uint16(int16(0.8*32767*math.Sin(phase))))
	}

	return writeBytes(t, "chirp.pcm", data)
}

func writeBytes(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestExtractCanonicalOrder(t *testing.T) {
	cfg := testConfig()
	ext, err := NewExtractor(cfg)
	require.NoError(t, err)

	fv, err := ext.Extract(context.Background(), writeChirp(t, 8192, 2000, 6000))
	require.NoError(t, err)

	names := fv.Names()
	require.Len(t, names, 11+7+cfg.MFCC.NumCoefficients+cfg.Wavelet.MaxScale+4)

	assert.Equal(t, "mean", names[0])
	assert.Equal(t, "entropy", names[10])
	assert.Equal(t, "fft_mean", names[11])
	assert.Equal(t, "flatness", names[17])
	assert.Equal(t, "mfcc_1", names[18])
	assert.Equal(t, "mfcc_13", names[30])
	assert.Equal(t, "cwt_scale_1", names[31])
	assert.Equal(t, "cwt_scale_16", names[46])
	assert.Equal(t, []string{"stft_mean", "stft_max", "stft_peak_freq", "stft_bandwidth"}, names[47:])

	for _, f := range fv.Features() {
		assert.False(t, math.IsNaN(f.Value) || math.IsInf(f.Value, 0), f.Name)
	}

	centroid, _ := fv.Get("centroid")
	assert.Greater(t, centroid, 2000.0)
	assert.Less(t, centroid, 6000.0)
}

func TestExtractDeterministic(t *testing.T) {
	ext, err := NewExtractor(testConfig())
	require.NoError(t, err)

	path := writeChirp(t, 8192, 1000, 4000)

	first, err := ext.Extract(context.Background(), path)
	require.NoError(t, err)
	second, err := ext.Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, first.Names(), second.Names())
	assert.Equal(t, first.Values(), second.Values())
}

func TestExtractParallelMatchesSequential(t *testing.T) {
	path := writeChirp(t, 8192, 1000, 4000)

	sequential, err := NewExtractor(testConfig())
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Parallel = true
	parallel, err := NewExtractor(cfg)
	require.NoError(t, err)

	want, err := sequential.Extract(context.Background(), path)
	require.NoError(t, err)
	got, err := parallel.Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, want.Names(), got.Names())
	assert.Equal(t, want.Values(), got.Values())
}

func TestExtractErrors(t *testing.T) {
	tests := []struct {
		name     string
		path     func(t *testing.T) string
		parallel bool
		want     error
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.pcm") },
			want: common.ErrIO,
		},
		{
			name: "odd byte count",
			path: func(t *testing.T) string { return writeBytes(t, "odd.pcm", make([]byte, 4097)) },
			want: common.ErrFormat,
		},
		{
			name: "silence",
			path: func(t *testing.T) string { return writeBytes(t, "silence.pcm", make([]byte, 8192)) },
			want: common.ErrDegenerateSignal,
		},
		{
			name:     "silence in parallel",
			path:     func(t *testing.T) string { return writeBytes(t, "silence.pcm", make([]byte, 8192)) },
			parallel: true,
			want:     common.ErrDegenerateSignal,
		},
		{
			name: "shorter than the mfcc frame",
			path: func(t *testing.T) string { return writeChirp(t, 100, 1000, 2000) },
			want: common.ErrConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Parallel = tt.parallel
			ext, err := NewExtractor(cfg)
			require.NoError(t, err)

			fv, err := ext.Extract(context.Background(), tt.path(t))
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, fv)
		})
	}
}

func TestExtractSilenceReportsSameFailureInBothModes(t *testing.T) {
	sig, err := transcode.NewSignal(make([]float64, 1000), 48000)
	require.NoError(t, err)

	for _, parallel := range []bool{false, true} {
		cfg := config.DefaultConfig()
		cfg.Parallel = parallel
		ext, err := NewExtractor(cfg)
		require.NoError(t, err)

		// the STFT frame check fails fastest, but frequency-domain comes first
		for range 10 {
			fv, err := ext.ExtractSignal(context.Background(), sig)
			assert.ErrorIs(t, err, common.ErrDegenerateSignal, "parallel=%v", parallel)
			assert.Equal(t, common.KindDegenerateSignal, common.KindOf(err))
			assert.Nil(t, fv)
		}
	}
}

// stubAnalyzer fails after delay, or with the context error if canceled first
type stubAnalyzer struct {
	name  string
	delay time.Duration
	err   error
}

func (s *stubAnalyzer) Name() string { return s.name }

func (s *stubAnalyzer) Analyze(ctx context.Context, _ *transcode.Signal) (*extractors.FeatureVector, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(s.delay):
	}
	if s.err != nil {
		return nil, s.err
	}
	return extractors.NewFeatureBuilder(1).Add(s.name, 1).Build()
}

func TestParallelReportsEarliestAnalyzerFailure(t *testing.T) {
	cfg := testConfig()
	cfg.Parallel = true

	ext := &Extractor{
		config: cfg,
		analyzers: []extractors.Analyzer{
			&stubAnalyzer{name: "first", delay: time.Millisecond},
			&stubAnalyzer{name: "second", delay: 50 * time.Millisecond, err: common.NewDegenerateSignalError("second", "silent")},
			&stubAnalyzer{name: "third", err: common.NewConfigurationError("third", "bad frame")},
		},
		logger: logging.WithFields(logging.Fields{"component": "feature_extractor"}),
	}

	sig, err := transcode.NewSignal([]float64{0.1, -0.1}, 8000)
	require.NoError(t, err)

	_, err = ext.ExtractSignal(context.Background(), sig)
	assert.ErrorIs(t, err, common.ErrDegenerateSignal)
	assert.NotErrorIs(t, err, context.Canceled)

	ext.config.Parallel = false
	_, err = ext.ExtractSignal(context.Background(), sig)
	assert.ErrorIs(t, err, common.ErrDegenerateSignal)
}

func TestNewExtractorRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.MFCC.NumCoefficients = cfg.MFCC.NumMelFilters + 1

	_, err := NewExtractor(cfg)
	assert.ErrorIs(t, err, common.ErrConfiguration)
}

func TestNewExtractorDefaults(t *testing.T) {
	ext, err := NewExtractor(nil)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), ext.Config())
}

func TestExtractCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, parallel := range []bool{false, true} {
		cfg := testConfig()
		cfg.Parallel = parallel
		ext, err := NewExtractor(cfg)
		require.NoError(t, err)

		_, err = ext.Extract(ctx, writeChirp(t, 8192, 1000, 4000))
		assert.ErrorIs(t, err, context.Canceled)
	}
}
