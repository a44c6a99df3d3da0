package wavelet

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/RyanBlaney/chirp-sonar/algorithms/common"
	"github.com/RyanBlaney/chirp-sonar/logging"
	"github.com/mjibson/go-dsp/fft"
)

// CWT computes a continuous wavelet transform by convolving the signal with
// the integrated wavelet resampled to each scale and differentiating the
// result. Coefficients at every scale are trimmed to the signal length.
type CWT struct {
	wavelet *Wavelet
	intPsi  []float64
	step    float64
	support float64
	logger  logging.Logger
}

// CWTResult holds the coefficient matrix of a transform
type CWTResult struct {
	Scales       []float64   `json:"scales"`
	Coefficients [][]float64 `json:"coefficients"` // Scale x time
}

// NewCWT creates a transform for family at DefaultPrecision
func NewCWT(family Family) (*CWT, error) {
	w, err := New(family)
	if err != nil {
		return nil, err
	}

	intPsi, x := w.Integrate(DefaultPrecision)

	return &CWT{
		wavelet: w,
		intPsi:  intPsi,
		step:    x[1] - x[0],
		support: x[len(x)-1] - x[0],
		logger: logging.WithFields(logging.Fields{
			"component": "cwt",
			"wavelet":   string(family),
		}),
	}, nil
}

// Wavelet returns the mother wavelet
func (c *CWT) Wavelet() *Wavelet {
	return c.wavelet
}

// IntegerScales returns minScale..maxScale inclusive
func IntegerScales(minScale, maxScale int) []float64 {
	if minScale > maxScale {
		return []float64{}
	}
	scales := make([]float64, 0, maxScale-minScale+1)
	for s := minScale; s <= maxScale; s++ {
		scales = append(scales, float64(s))
	}
	return scales
}

// Frequencies returns the pseudo-frequency of every scale
func (c *CWT) Frequencies(scales []float64, samplingPeriod float64) []float64 {
	freqs := make([]float64, len(scales))
	for i, s := range scales {
		freqs[i] = c.wavelet.ScaleToFrequency(s, samplingPeriod)
	}
	return freqs
}

// Kernel returns the integrated wavelet resampled for scale, time-reversed
// for convolution
func (c *CWT) Kernel(scale float64) []float64 {
	length := int(math.Ceil(scale*c.support + 1))

	kernel := make([]float64, 0, length)
	for k := range length {
		j := int(float64(k) / (scale * c.step))
		if j >= len(c.intPsi) {
			break
		}
		kernel = append(kernel, c.intPsi[j])
	}

	for i, j := 0, len(kernel)-1; i < j; i, j = i+1, j-1 {
		kernel[i], kernel[j] = kernel[j], kernel[i]
	}
	return kernel
}

// Transform computes the full coefficient matrix
func (c *CWT) Transform(ctx context.Context, signal []float64, scales []float64) (*CWTResult, error) {
	coefficients := make([][]float64, len(scales))

	err := c.run(ctx, signal, scales, func(i int, coef []float64) {
		coefficients[i] = coef
	})
	if err != nil {
		return nil, err
	}

	return &CWTResult{
		Scales:       scales,
		Coefficients: coefficients,
	}, nil
}

// Energies computes mean(coef²) per scale without retaining the coefficients
func (c *CWT) Energies(ctx context.Context, signal []float64, scales []float64) ([]float64, error) {
	energies := make([]float64, len(scales))

	err := c.run(ctx, signal, scales, func(i int, coef []float64) {
		sum := 0.0
		for _, v := range coef {
			sum += v * v
		}
		energies[i] = sum / float64(len(coef))
	})
	if err != nil {
		return nil, err
	}

	return energies, nil
}

// run validates the inputs and transforms every scale on a worker pool,
// handing each scale's coefficients to emit. emit is called concurrently
// with distinct indices.
func (c *CWT) run(ctx context.Context, signal []float64, scales []float64, emit func(i int, coef []float64)) error {
	if len(signal) == 0 {
		return common.NewFormatError("CWT", "empty signal")
	}
	if len(scales) == 0 {
		return common.NewConfigurationError("CWT", "no scales")
	}

	kernels := make([][]float64, len(scales))
	maxKernel := 0
	for i, s := range scales {
		if s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return common.NewConfigurationError("CWT", fmt.Sprintf("scale must be positive and finite: %g", s))
		}
		kernels[i] = c.Kernel(s)
		if len(kernels[i]) < 2 {
			return common.NewConfigurationError("CWT", fmt.Sprintf("selected scale of %g too small", s))
		}
		maxKernel = max(maxKernel, len(kernels[i]))
	}

	fftSize := common.NextPowerOfTwo(len(signal) + maxKernel - 1)
	padded := make([]float64, fftSize)
	copy(padded, signal)
	signalSpectrum := fft.FFTReal(padded)

	numWorkers := getOptimalWorkerCount(len(scales))
	jobs := make(chan int, len(scales))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			kernelBuffer := make([]float64, fftSize)
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}

				clear(kernelBuffer)
				copy(kernelBuffer, kernels[i])
				emit(i, c.transformScale(signalSpectrum, kernelBuffer, len(signal), len(kernels[i]), scales[i]))
			}
		}()
	}

	for i := range scales {
		jobs <- i
	}
	close(jobs)

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("cwt canceled: %w", err)
	}

	c.logger.Debug("Computed CWT", logging.Fields{
		"scales":   len(scales),
		"samples":  len(signal),
		"fft_size": fftSize,
		"workers":  numWorkers,
	})

	return nil
}

// transformScale convolves via the precomputed signal spectrum, then
// differentiates, scales by -sqrt(scale) and center-trims to n samples
func (c *CWT) transformScale(signalSpectrum []complex128, kernelBuffer []float64, n, kernelLen int, scale float64) []float64 {
	kernelSpectrum := fft.FFTReal(kernelBuffer)
	for k := range kernelSpectrum {
		kernelSpectrum[k] *= signalSpectrum[k]
	}
	conv := fft.IFFT(kernelSpectrum)

	convLen := n + kernelLen - 1
	coefLen := convLen - 1

	// trim (coefLen - n)/2 from each side, the odd sample from the end
	d := float64(coefLen-n) / 2.0
	start := int(math.Floor(d))

	gain := -math.Sqrt(scale)
	coef := make([]float64, n)
	for i := range coef {
		t := start + i
		coef[i] = gain * (real(conv[t+1]) - real(conv[t]))
	}
	return coef
}

// getOptimalWorkerCount mirrors the STFT worker sizing
func getOptimalWorkerCount(numJobs int) int {
	numCPU := runtime.NumCPU()
	if numJobs < 16 {
		return max(1, min(numCPU/2, numJobs))
	}
	return max(1, min(numCPU, numJobs))
}
