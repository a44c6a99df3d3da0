package spectral

import (
	"context"
	"testing"

	"github.com/RyanBlaney/chirp-sonar/algorithms/common"
	"github.com/RyanBlaney/chirp-sonar/algorithms/windowing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSTFTFrameCounts(t *testing.T) {
	signal := make([]float64, 16)

	tests := []struct {
		name   string
		params STFTParams
		frames int
	}{
		{"plain", STFTParams{WindowSize: 8, HopSize: 4}, 3},
		{"centered", STFTParams{WindowSize: 8, HopSize: 4, Center: true}, 5},
		{"centered padded", STFTParams{WindowSize: 8, HopSize: 4, Center: true, PadEnd: true}, 5},
		{"padded partial hop", STFTParams{WindowSize: 8, HopSize: 5, PadEnd: true}, 3},
		{"no overlap", STFTParams{WindowSize: 8, HopSize: 8}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewSTFT().Compute(context.Background(), signal, 8, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.frames, result.TimeFrames)
			assert.Len(t, result.Magnitude, tt.frames)
			assert.Equal(t, 5, result.FreqBins)
			assert.Equal(t, []float64{0, 1, 2, 3, 4}, result.Frequencies)
		})
	}
}

func TestSTFTScaleBySum(t *testing.T) {
	dc := make([]float64, 64)
	for i := range dc {
		dc[i] = 1
	}

	window := windowing.NewHann(16, false)
	result, err := NewSTFT().Compute(context.Background(), dc, 64, STFTParams{
		WindowSize: 16,
		HopSize:    8,
		Window:     window,
		ScaleBySum: true,
	})
	require.NoError(t, err)

	// an interior frame of a unit DC signal has DC magnitude Σw/Σw
	for _, frame := range result.Magnitude {
		assert.InDelta(t, 1.0, frame[0], 1e-12)
	}
}

func TestSTFTPeakBin(t *testing.T) {
	const sampleRate = 8000
	signal := sine(1000, sampleRate, sampleRate)

	result, err := NewSTFT().Compute(context.Background(), signal, sampleRate, STFTParams{
		WindowSize: 256,
		HopSize:    128,
		Window:     windowing.NewHann(256, false),
		Center:     true,
		PadEnd:     true,
		ScaleBySum: true,
	})
	require.NoError(t, err)

	summed := result.TimeSummedMagnitude()
	peak := common.ArgMax(summed)
	assert.InDelta(t, 1000.0, result.Frequencies[peak], result.FreqResolution)
	assert.InDelta(t, 1.0/sampleRate*128, result.TimeResolution, 1e-12)
}

func TestSTFTErrors(t *testing.T) {
	stft := NewSTFT()
	ctx := context.Background()

	_, err := stft.Compute(ctx, nil, 8, STFTParams{WindowSize: 8, HopSize: 4})
	assert.ErrorIs(t, err, common.ErrFormat)

	_, err = stft.Compute(ctx, make([]float64, 16), 8, STFTParams{WindowSize: 8, HopSize: 9})
	assert.ErrorIs(t, err, common.ErrConfiguration)

	_, err = stft.Compute(ctx, make([]float64, 4), 8, STFTParams{WindowSize: 8, HopSize: 4})
	assert.ErrorIs(t, err, common.ErrConfiguration)

	_, err = stft.Compute(ctx, make([]float64, 16), 8, STFTParams{
		WindowSize: 8,
		HopSize:    4,
		Window:     windowing.NewHann(4, false),
	})
	assert.ErrorIs(t, err, common.ErrConfiguration)
}

func TestSTFTCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSTFT().Compute(ctx, make([]float64, 4096), 8000, STFTParams{WindowSize: 256, HopSize: 128})
	assert.ErrorIs(t, err, context.Canceled)
}
