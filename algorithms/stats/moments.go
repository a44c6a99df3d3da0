package stats

import (
	"math"

	"github.com/RyanBlaney/chirp-sonar/algorithms/common"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// varianceResolution is the relative resolution below which a variance is
// treated as zero, matching float64 decimal precision
const varianceResolution = 1e-15

// MomentResult contains population moment statistics of a sample
type MomentResult struct {
	Mean     float64 `json:"mean"`     // First raw moment (μ₁)
	Variance float64 `json:"variance"` // Second central moment (σ²), normalized by N
	StdDev   float64 `json:"std_dev"`  // Standard deviation (σ)
	Skewness float64 `json:"skewness"` // Third standardized moment
	Kurtosis float64 `json:"kurtosis"` // Fourth standardized moment minus 3 (excess)

	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	SampleRange float64 `json:"sample_range"`
	NumSamples  int     `json:"num_samples"`
}

// Moments computes population (biased) moments.
//
// References:
// - Kendall, M., Stuart, A. (1977). "The Advanced Theory of Statistics, Volume 1"
// - Fisher, R.A. (1930). "The moments of the distribution for normal samples"
//
// Skewness is m3/m2^1.5 and kurtosis is m4/m2² - 3 where mk is the k-th
// central moment normalized by N. A constant sample has no defined shape;
// both are reported as 0.
type Moments struct{}

// NewMoments creates a new moment analyzer
func NewMoments() *Moments {
	return &Moments{}
}

// Analyze computes the moments of data
func (m *Moments) Analyze(data []float64) (*MomentResult, error) {
	if len(data) == 0 {
		return nil, common.NewFormatError("Moments", "empty data")
	}

	mean, variance := stat.PopMeanVariance(data, nil)

	result := &MomentResult{
		Mean:       mean,
		Variance:   variance,
		StdDev:     math.Sqrt(variance),
		Min:        floats.Min(data),
		Max:        floats.Max(data),
		NumSamples: len(data),
	}
	result.SampleRange = result.Max - result.Min

	if isZeroVariance(mean, variance) {
		result.Variance = 0
		result.StdDev = 0
		return result, nil
	}

	// subnormal variances underflow when raised to a power
	skewDenom := math.Pow(variance, 1.5)
	kurtDenom := variance * variance
	if skewDenom == 0 || kurtDenom == 0 {
		return result, nil
	}

	m3 := stat.Moment(3, data, nil)
	m4 := stat.Moment(4, data, nil)

	result.Skewness = m3 / skewDenom
	result.Kurtosis = m4/kurtDenom - 3.0

	return result, nil
}

// isZeroVariance treats variances indistinguishable from rounding noise on
// the mean as zero
func isZeroVariance(mean, variance float64) bool {
	limit := varianceResolution * mean
	return variance <= limit*limit
}
