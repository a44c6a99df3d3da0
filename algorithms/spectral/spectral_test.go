package spectral

import (
	"math"
	"math/rand"
	"testing"

	"github.com/RyanBlaney/chirp-sonar/algorithms/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(freq float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return out
}

func TestRFFTFrequencies(t *testing.T) {
	freqs := RFFTFrequencies(8, 8000)
	assert.Equal(t, []float64{0, 1000, 2000, 3000, 4000}, freqs)

	freqs = RFFTFrequencies(7, 7000)
	assert.Equal(t, []float64{0, 1000, 2000, 3000}, freqs)

	assert.Empty(t, RFFTFrequencies(0, 8000))
}

func TestComputeSpectrum(t *testing.T) {
	spectrum, err := ComputeSpectrum(sine(1000, 8000, 8000), 8000)
	require.NoError(t, err)

	assert.Len(t, spectrum.Magnitudes, 4001)
	assert.Len(t, spectrum.Frequencies, 4001)
	assert.Equal(t, 8000, spectrum.FFTSize)
	assert.InDelta(t, 1.0, spectrum.Frequencies[1], 1e-12)
	assert.InDelta(t, 1000.0, spectrum.PeakFrequency(), 1e-9)
	assert.False(t, spectrum.IsSilent())

	// a unit sine of n samples has |X[k]| = n/2 at its bin
	assert.InDelta(t, 4000.0, spectrum.Magnitudes[1000], 1e-6)
}

func TestComputeSpectrumErrors(t *testing.T) {
	_, err := ComputeSpectrum([]float64{1}, 8000)
	assert.ErrorIs(t, err, common.ErrFormat)

	_, err = ComputeSpectrum([]float64{1, 2}, 0)
	assert.ErrorIs(t, err, common.ErrConfiguration)
}

func TestCentroidOfHighTone(t *testing.T) {
	const sampleRate = 44100
	signal := sine(19000, sampleRate, sampleRate)

	spectrum, err := ComputeSpectrum(signal, sampleRate)
	require.NoError(t, err)

	centroid := NewSpectralCentroid(sampleRate, len(signal)).Compute(spectrum.Magnitudes)
	assert.InDelta(t, 19000.0, centroid, 50.0)

	bandwidth := NewSpectralBandwidth(sampleRate, len(signal)).Compute(spectrum.Magnitudes, centroid)
	assert.GreaterOrEqual(t, bandwidth, 0.0)
	assert.Less(t, bandwidth, 50.0)

	rolloff, err := NewSpectralRolloff(sampleRate, len(signal)).Compute(spectrum.Magnitudes, DefaultRolloffPercent)
	require.NoError(t, err)
	assert.InDelta(t, 19000.0, rolloff, 1.0)

	flatness := NewSpectralFlatness().Compute(spectrum.Magnitudes)
	assert.Less(t, flatness, 0.01)
}

func TestCentroidSilentSpectrum(t *testing.T) {
	zeros := make([]float64, 9)
	assert.Equal(t, 0.0, NewSpectralCentroid(16, 16).Compute(zeros))
	assert.Equal(t, 0.0, NewSpectralBandwidth(16, 16).Compute(zeros, 0))
	assert.Equal(t, 0.0, NewSpectralFlatness().Compute(zeros))
}

func TestRolloffMonotoneInThreshold(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	noise := make([]float64, 4096)
	for i := range noise {
		noise[i] = rng.Float64()*2 - 1
	}

	spectrum, err := ComputeSpectrum(noise, 16000)
	require.NoError(t, err)

	rolloff := NewSpectralRolloff(16000, len(noise))
	previous := -1.0
	for _, threshold := range []float64{0.1, 0.5, 0.85, 0.95, 1.0} {
		f, err := rolloff.Compute(spectrum.Magnitudes, threshold)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, f, previous, "threshold %g", threshold)
		assert.LessOrEqual(t, f, 8000.0)
		previous = f
	}
}

func TestRolloffErrors(t *testing.T) {
	rolloff := NewSpectralRolloff(16, 16)

	_, err := rolloff.Compute(make([]float64, 9), 0.85)
	assert.ErrorIs(t, err, common.ErrDegenerateSignal)

	_, err = rolloff.Compute([]float64{1, 1}, 1.5)
	assert.ErrorIs(t, err, common.ErrConfiguration)

	_, err = rolloff.Compute([]float64{1, 1}, 0)
	assert.ErrorIs(t, err, common.ErrConfiguration)
}

func TestRolloffExactBins(t *testing.T) {
	// bins 0..4 at 1 Hz spacing, magnitude concentrated in bins 1 and 3
	rolloff := NewSpectralRolloff(8, 8)
	spectrum := []float64{0, 1, 0, 3, 0}

	f, err := rolloff.Compute(spectrum, 0.25)
	require.NoError(t, err)
	assert.Equal(t, 1.0, f)

	f, err = rolloff.Compute(spectrum, 0.85)
	require.NoError(t, err)
	assert.Equal(t, 3.0, f)

	f, err = rolloff.Compute(spectrum, 1.0)
	require.NoError(t, err)
	assert.Equal(t, 3.0, f)
}

func TestFlatnessOfFlatSpectrum(t *testing.T) {
	flat := []float64{2, 2, 2, 2}
	assert.InDelta(t, 1.0, NewSpectralFlatness().Compute(flat), 1e-9)
	assert.InDelta(t, 1.0, NewSpectralFlatnessWithEpsilon(0).Compute(flat), 1e-12)
}

func TestPowerSpectrum(t *testing.T) {
	ps := NewPowerSpectrum()
	assert.Equal(t, []float64{0, 0.25, 4}, ps.Compute([]float64{0, -0.5, 2}))

	power := ps.ComputeFromSTFT(&STFTResult{
		Magnitude: [][]float64{{1, 2}, {3, 0}},
	})
	assert.Equal(t, [][]float64{{1, 4}, {9, 0}}, power)
}
