package spectral

import (
	"context"
	"math"
	"testing"

	"github.com/RyanBlaney/chirp-sonar/algorithms/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlaneyMelScale(t *testing.T) {
	ms := NewMelScale()

	assert.InDelta(t, 15.0, ms.HzToMel(1000), 1e-12)
	assert.InDelta(t, 7.5, ms.HzToMel(500), 1e-12)

	for _, hz := range []float64{0, 200, 999, 1000, 4000, 11025} {
		assert.InDelta(t, hz, ms.MelToHz(ms.HzToMel(hz)), 1e-9, "hz %g", hz)
	}
}

func TestHTKMelScale(t *testing.T) {
	ms := NewHTKMelScale()

	assert.InDelta(t, 2595.0*math.Log10(2), ms.HzToMel(700), 1e-9)
	assert.InDelta(t, 700.0, ms.MelToHz(ms.HzToMel(700)), 1e-9)
}

func TestMelFilterBankShape(t *testing.T) {
	bank := NewMelScale().CreateMelFilterBank(40, 512, 16000, 0, 8000)
	require.Len(t, bank, 40)

	for i, filter := range bank {
		require.Len(t, filter, 257)

		peak := 0.0
		for _, w := range filter {
			assert.GreaterOrEqual(t, w, 0.0)
			peak = math.Max(peak, w)
		}
		assert.Positive(t, peak, "filter %d is empty", i)
	}
}

func TestMFCCFramesAndMean(t *testing.T) {
	const sampleRate = 22050
	mfcc, err := NewMFCC(sampleRate, 13)
	require.NoError(t, err)

	result, err := mfcc.Compute(context.Background(), sine(440, sampleRate, sampleRate))
	require.NoError(t, err)

	// centered framing yields 1 + n/hop frames
	assert.Len(t, result.Frames, 1+sampleRate/512)
	require.Len(t, result.Mean, 13)
	for _, c := range result.Mean {
		assert.False(t, math.IsNaN(c) || math.IsInf(c, 0))
	}

	again, err := mfcc.Compute(context.Background(), sine(440, sampleRate, sampleRate))
	require.NoError(t, err)
	assert.Equal(t, result.Mean, again.Mean)
}

func TestMFCCSilenceIsFlat(t *testing.T) {
	mfcc, err := NewMFCCWithParams(16000, MFCCParams{
		NumCoefficients: 5,
		NumMelFilters:   20,
		FrameLength:     256,
		HopLength:       128,
		TopDB:           80,
		Center:          true,
	})
	require.NoError(t, err)

	result, err := mfcc.Compute(context.Background(), make([]float64, 1024))
	require.NoError(t, err)

	// every mel band sits at the -100 dB floor, so only c0 survives the DCT
	assert.InDelta(t, -100.0*math.Sqrt(20), result.Mean[0], 1e-6)
	for _, c := range result.Mean[1:] {
		assert.InDelta(t, 0.0, c, 1e-6)
	}
}

func TestMFCCLiftering(t *testing.T) {
	params := MFCCParams{
		NumCoefficients: 13,
		NumMelFilters:   40,
		FrameLength:     512,
		HopLength:       128,
		TopDB:           80,
		Center:          true,
	}
	plain, err := NewMFCCWithParams(16000, params)
	require.NoError(t, err)

	params.LifterCoeff = 22
	lifted, err := NewMFCCWithParams(16000, params)
	require.NoError(t, err)

	signal := sine(1000, 16000, 4096)
	want, err := plain.Compute(context.Background(), signal)
	require.NoError(t, err)
	got, err := lifted.Compute(context.Background(), signal)
	require.NoError(t, err)

	for i := range want.Mean {
		gain := 1 + 11*math.Sin(math.Pi*float64(i+1)/22)
		assert.InDelta(t, want.Mean[i]*gain, got.Mean[i], 1e-9*math.Max(1, math.Abs(got.Mean[i])), "coefficient %d", i)
	}
}

func TestMFCCHTKScaleChangesCoefficients(t *testing.T) {
	params := DefaultMFCCParams()
	slaney, err := NewMFCCWithParams(22050, params)
	require.NoError(t, err)

	params.HTK = true
	htk, err := NewMFCCWithParams(22050, params)
	require.NoError(t, err)

	signal := sine(3000, 22050, 8192)
	a, err := slaney.Compute(context.Background(), signal)
	require.NoError(t, err)
	b, err := htk.Compute(context.Background(), signal)
	require.NoError(t, err)

	require.Len(t, b.Mean, len(a.Mean))
	assert.NotEqual(t, a.Mean, b.Mean)
}

func TestMFCCConfigurationErrors(t *testing.T) {
	_, err := NewMFCC(22050, 0)
	assert.ErrorIs(t, err, common.ErrConfiguration)

	params := DefaultMFCCParams()
	params.NumCoefficients = 200
	_, err = NewMFCCWithParams(22050, params)
	assert.ErrorIs(t, err, common.ErrConfiguration)

	params = DefaultMFCCParams()
	params.HighFreq = 20000
	_, err = NewMFCCWithParams(22050, params)
	assert.ErrorIs(t, err, common.ErrConfiguration)

	params = DefaultMFCCParams()
	params.LifterCoeff = -1
	_, err = NewMFCCWithParams(22050, params)
	assert.ErrorIs(t, err, common.ErrConfiguration)

	params = DefaultMFCCParams()
	params.HopLength = 0
	_, err = NewMFCCWithParams(22050, params)
	assert.ErrorIs(t, err, common.ErrConfiguration)

	mfcc, err := NewMFCC(22050, 13)
	require.NoError(t, err)
	_, err = mfcc.Compute(context.Background(), make([]float64, 1000))
	assert.ErrorIs(t, err, common.ErrConfiguration)
}
