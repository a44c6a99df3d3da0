package spectral

import (
	"context"
	"fmt"
	"math/cmplx"
	"runtime"
	"sync"

	"github.com/RyanBlaney/chirp-sonar/algorithms/common"
	"github.com/RyanBlaney/chirp-sonar/algorithms/windowing"
	"github.com/RyanBlaney/chirp-sonar/logging"
)

// STFT provides Short-Time Fourier Transform functionality
type STFT struct {
	fft    *FFT
	logger logging.Logger
}

// STFTParams controls framing of the transform
type STFTParams struct {
	WindowSize int               `json:"window_size"`
	HopSize    int               `json:"hop_size"`
	Window     *windowing.Window `json:"-"` // nil means rectangular

	// Center zero-extends the signal by WindowSize/2 on both ends so frame t
	// is centered on sample t*HopSize
	Center bool `json:"center"`

	// PadEnd appends zeros so the last hop ends exactly on a frame boundary
	PadEnd bool `json:"pad_end"`

	// ScaleBySum divides every coefficient by the window sum, the amplitude
	// "spectrum" scaling
	ScaleBySum bool `json:"scale_by_sum"`
}

// STFTResult holds the result of STFT analysis
type STFTResult struct {
	Magnitude      [][]float64    `json:"magnitude"`       // Time x Frequency magnitude matrix
	Complex        [][]complex128 `json:"-"`               // Raw complex spectrogram (not serialized)
	Frequencies    []float64      `json:"frequencies"`     // Bin center frequencies (Hz)
	TimeFrames     int            `json:"time_frames"`     // Number of time frames
	FreqBins       int            `json:"freq_bins"`       // Number of frequency bins
	SampleRate     int            `json:"sample_rate"`     // Sample rate
	WindowSize     int            `json:"window_size"`     // FFT window size
	HopSize        int            `json:"hop_size"`        // Hop size between frames
	FreqResolution float64        `json:"freq_resolution"` // Frequency resolution (Hz/bin)
	TimeResolution float64        `json:"time_resolution"` // Time resolution (seconds/frame)
}

// NewSTFT creates a new STFT calculator
func NewSTFT() *STFT {
	return &STFT{
		fft: NewFFT(),
		logger: logging.WithFields(logging.Fields{
			"component": "stft",
		}),
	}
}

// Compute computes the STFT, transforming frames in parallel
func (s *STFT) Compute(ctx context.Context, signal []float64, sampleRate int, params STFTParams) (*STFTResult, error) {
	windowSize, hopSize := params.WindowSize, params.HopSize

	if len(signal) == 0 {
		return nil, common.NewFormatError("STFT", "empty signal")
	}
	if windowSize <= 0 {
		return nil, common.NewConfigurationError("STFT", "window size must be positive")
	}
	if hopSize <= 0 || hopSize > windowSize {
		return nil, common.NewConfigurationError("STFT",
			fmt.Sprintf("hop size must be in [1, %d]: %d", windowSize, hopSize))
	}
	if params.Window != nil && params.Window.Size() != windowSize {
		return nil, common.NewConfigurationError("STFT",
			fmt.Sprintf("window length %d does not match window size %d", params.Window.Size(), windowSize))
	}

	padded := s.prepareSignal(signal, params)

	if len(padded) < windowSize {
		return nil, common.NewConfigurationError("STFT",
			fmt.Sprintf("signal of %d samples is shorter than window size %d", len(padded), windowSize))
	}

	numFrames := (len(padded)-windowSize)/hopSize + 1
	freqBins := windowSize/2 + 1

	scale := 1.0
	if params.ScaleBySum {
		sum := float64(windowSize)
		if params.Window != nil {
			sum = params.Window.Sum()
		}
		if sum != 0 {
			scale = 1.0 / sum
		}
	}

	magnitude := make([][]float64, numFrames)
	complexSpectrum := make([][]complex128, numFrames)
	for i := range numFrames {
		magnitude[i] = make([]float64, freqBins)
		complexSpectrum[i] = make([]complex128, freqBins)
	}

	numWorkers := s.getOptimalWorkerCount(numFrames)

	type frameJob struct {
		frameIdx int
		startIdx int
	}

	jobs := make(chan frameJob, numFrames)

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Reuse frame buffer for this worker
			frameBuffer := make([]float64, windowSize)

			for job := range jobs {
				if ctx.Err() != nil {
					continue
				}

				copy(frameBuffer, padded[job.startIdx:job.startIdx+windowSize])

				if params.Window != nil {
					// sizes were checked above
					_ = params.Window.ApplyInPlace(frameBuffer)
				}

				fftResult := s.fft.Compute(frameBuffer)

				for i := range freqBins {
					c := fftResult[i] * complex(scale, 0)
					complexSpectrum[job.frameIdx][i] = c
					magnitude[job.frameIdx][i] = cmplx.Abs(c)
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for frameIdx := range numFrames {
			jobs <- frameJob{
				frameIdx: frameIdx,
				startIdx: frameIdx * hopSize,
			}
		}
	}()

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("stft canceled: %w", err)
	}

	s.logger.Debug("Computed STFT", logging.Fields{
		"frames":      numFrames,
		"freq_bins":   freqBins,
		"window_size": windowSize,
		"hop_size":    hopSize,
		"workers":     numWorkers,
	})

	return &STFTResult{
		Magnitude:      magnitude,
		Complex:        complexSpectrum,
		Frequencies:    RFFTFrequencies(windowSize, float64(sampleRate)),
		TimeFrames:     numFrames,
		FreqBins:       freqBins,
		SampleRate:     sampleRate,
		WindowSize:     windowSize,
		HopSize:        hopSize,
		FreqResolution: float64(sampleRate) / float64(windowSize),
		TimeResolution: float64(hopSize) / float64(sampleRate),
	}, nil
}

// prepareSignal applies center extension and end padding
func (s *STFT) prepareSignal(signal []float64, params STFTParams) []float64 {
	lead := 0
	if params.Center {
		lead = params.WindowSize / 2
	}

	length := len(signal) + 2*lead

	tail := 0
	if params.PadEnd && length >= params.WindowSize {
		if r := (length - params.WindowSize) % params.HopSize; r != 0 {
			tail = params.HopSize - r
		}
	}

	if lead == 0 && tail == 0 {
		return signal
	}

	padded := make([]float64, length+tail)
	copy(padded[lead:], signal)
	return padded
}

// getOptimalWorkerCount determines the optimal number of workers based on workload
func (s *STFT) getOptimalWorkerCount(numFrames int) int {
	numCPU := runtime.NumCPU()

	// For small workloads, don't over-parallelize
	if numFrames < 100 {
		return max(1, min(numCPU/2, numFrames))
	}

	// For medium workloads, use most CPUs
	if numFrames < 1000 {
		return min(numCPU, 8)
	}

	return numCPU
}

// TimeSummedMagnitude sums magnitude over time for each frequency bin
func (r *STFTResult) TimeSummedMagnitude() []float64 {
	sums := make([]float64, r.FreqBins)
	for _, frame := range r.Magnitude {
		for k, v := range frame {
			sums[k] += v
		}
	}
	return sums
}
