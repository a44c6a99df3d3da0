package transcode

import (
	"time"

	"github.com/RyanBlaney/chirp-sonar/algorithms/common"
)

// Signal is an amplitude-normalized, single-channel recording.
// Samples lie in [-1.0, 1.0]. A Signal is never mutated after construction;
// Samples hands out copies.
type Signal struct {
	pcm        []float64
	SampleRate int             `json:"sample_rate"`
	Duration   time.Duration   `json:"duration"`
	Metadata   *SourceMetadata `json:"metadata,omitempty"`
}

// SourceMetadata describes where a Signal came from
type SourceMetadata struct {
	Path        string `json:"path,omitempty"`
	Format      string `json:"format"`
	SampleWidth int    `json:"sample_width"` // bytes per sample
	ByteCount   int    `json:"byte_count"`
}

// NewSignal creates a Signal from already-normalized samples. The slice is copied.
func NewSignal(samples []float64, sampleRate int) (*Signal, error) {
	if sampleRate <= 0 {
		return nil, common.NewConfigurationError("NewSignal", "sample rate must be positive")
	}
	if len(samples) < 2 {
		return nil, common.NewFormatError("NewSignal", "signal needs at least 2 samples")
	}

	pcm := make([]float64, len(samples))
	copy(pcm, samples)

	return &Signal{
		pcm:        pcm,
		SampleRate: sampleRate,
		Duration:   time.Duration(float64(len(pcm)) / float64(sampleRate) * float64(time.Second)),
	}, nil
}

// Len returns the number of samples
func (s *Signal) Len() int {
	return len(s.pcm)
}

// Samples returns a copy of the normalized samples
func (s *Signal) Samples() []float64 {
	out := make([]float64, len(s.pcm))
	copy(out, s.pcm)
	return out
}

// At returns sample i
func (s *Signal) At(i int) float64 {
	return s.pcm[i]
}

// Nyquist returns half the sample rate
func (s *Signal) Nyquist() float64 {
	return float64(s.SampleRate) / 2.0
}
