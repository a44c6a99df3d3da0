package stats

import (
	"fmt"
	"math"
	"slices"

	"github.com/RyanBlaney/chirp-sonar/algorithms/common"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultEntropyBins is the fixed histogram resolution for amplitude entropy
const DefaultEntropyBins = 50

// EntropyResult contains histogram entropy results
type EntropyResult struct {
	ShannonEntropy    float64 `json:"shannon_entropy"`    // In units of BaseLog
	NormalizedShannon float64 `json:"normalized_shannon"` // Divided by log(NumBins), 0-1 range

	Histogram     []float64 `json:"histogram"`     // Counts per bin
	Probabilities []float64 `json:"probabilities"` // Count / total per bin
	BinEdges      []float64 `json:"bin_edges"`
	NumBins       int       `json:"num_bins"`
	NumSamples    int       `json:"num_samples"`
}

// EntropyParams contains parameters for entropy calculation
type EntropyParams struct {
	NumBins int     `json:"num_bins"`
	BaseLog float64 `json:"base_log"` // Base for logarithm (2, e, 10)
}

// Entropy estimates the Shannon entropy of a sample's value distribution
// from an equal-width histogram.
//
// References:
// - Shannon, C.E. (1948). "A Mathematical Theory of Communication"
// - Cover, T.M., Thomas, J.A. (2006). "Elements of Information Theory"
//
// The histogram spans [min, max] of the data with the last bin closed. A
// constant sample widens the range by 0.5 on both sides. Entropy is taken
// over per-bin probability mass, so it lies in [0, log(NumBins)].
type Entropy struct {
	params EntropyParams
}

// NewEntropy creates an entropy analyzer with 50 bins and base-2 logarithms
func NewEntropy() *Entropy {
	return &Entropy{
		params: EntropyParams{
			NumBins: DefaultEntropyBins,
			BaseLog: 2.0, // Information theory standard
		},
	}
}

// NewEntropyWithParams creates an entropy analyzer with custom parameters
func NewEntropyWithParams(params EntropyParams) *Entropy {
	return &Entropy{params: params}
}

// Analyze builds the histogram of data and computes its entropy
func (e *Entropy) Analyze(data []float64) (*EntropyResult, error) {
	if len(data) == 0 {
		return nil, common.NewFormatError("Entropy", "empty data")
	}
	if e.params.NumBins <= 0 {
		return nil, common.NewConfigurationError("Entropy",
			fmt.Sprintf("number of bins must be positive: %d", e.params.NumBins))
	}
	if e.params.BaseLog <= 0 || e.params.BaseLog == 1 {
		return nil, common.NewConfigurationError("Entropy",
			fmt.Sprintf("invalid logarithm base: %g", e.params.BaseLog))
	}

	histogram, edges := e.buildHistogram(data)

	probabilities := make([]float64, len(histogram))
	floats.ScaleTo(probabilities, 1.0/float64(len(data)), histogram)

	logBase := math.Log(e.params.BaseLog)

	// stat.Entropy uses natural logarithms and skips empty bins
	shannon := stat.Entropy(probabilities) / logBase

	normalized := 0.0
	if e.params.NumBins > 1 {
		normalized = shannon * logBase / math.Log(float64(e.params.NumBins))
	}

	return &EntropyResult{
		ShannonEntropy:    shannon,
		NormalizedShannon: normalized,
		Histogram:         histogram,
		Probabilities:     probabilities,
		BinEdges:          edges,
		NumBins:           e.params.NumBins,
		NumSamples:        len(data),
	}, nil
}

// buildHistogram counts data into NumBins equal-width bins
func (e *Entropy) buildHistogram(data []float64) ([]float64, []float64) {
	lo, hi := floats.Min(data), floats.Max(data)
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}

	edges := make([]float64, e.params.NumBins+1)
	floats.Span(edges, lo, hi)

	// stat.Histogram treats the upper divider as exclusive; nudge it so the
	// maximum lands in the last bin
	dividers := slices.Clone(edges)
	dividers[len(dividers)-1] = math.Nextafter(hi, math.Inf(1))

	sorted := slices.Clone(data)
	slices.Sort(sorted)

	histogram := stat.Histogram(nil, dividers, sorted, nil)
	return histogram, edges
}
