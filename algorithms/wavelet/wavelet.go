package wavelet

import (
	"fmt"
	"math"
	"strings"

	"github.com/RyanBlaney/chirp-sonar/algorithms/common"
)

// Family names a real continuous wavelet
type Family string

const (
	// Morlet is the real Morlet wavelet exp(-t²/2)cos(5t)
	Morlet Family = "morl"

	// MexicanHat is the negated, normalized second derivative of a Gaussian
	MexicanHat Family = "mexh"
)

// DefaultPrecision gives 2^10 = 1024 points over the wavelet support
const DefaultPrecision = 10

// Wavelet describes a real continuous mother wavelet
type Wavelet struct {
	Family           Family  `json:"family"`
	LowerBound       float64 `json:"lower_bound"`
	UpperBound       float64 `json:"upper_bound"`
	CentralFrequency float64 `json:"central_frequency"` // cycles per unit time at scale 1

	psi func(t float64) float64
}

var mexicanHatNorm = 2.0 / (math.Sqrt(3.0) * math.Pow(math.Pi, 0.25))

// ParseFamily accepts the short names plus "morlet" and "mexican_hat"
func ParseFamily(name string) (Family, error) {
	switch strings.ToLower(name) {
	case "morl", "morlet":
		return Morlet, nil
	case "mexh", "mexican_hat", "mexicanhat":
		return MexicanHat, nil
	}
	return "", common.NewConfigurationError("ParseFamily", fmt.Sprintf("unknown wavelet family %q", name))
}

// New returns the mother wavelet for family
func New(family Family) (*Wavelet, error) {
	switch family {
	case Morlet:
		return &Wavelet{
			Family:           Morlet,
			LowerBound:       -8,
			UpperBound:       8,
			CentralFrequency: 0.8125,
			psi: func(t float64) float64 {
				return math.Exp(-t*t/2) * math.Cos(5*t)
			},
		}, nil
	case MexicanHat:
		return &Wavelet{
			Family:           MexicanHat,
			LowerBound:       -8,
			UpperBound:       8,
			CentralFrequency: 0.25,
			psi: func(t float64) float64 {
				return mexicanHatNorm * (1 - t*t) * math.Exp(-t*t/2)
			},
		}, nil
	}
	return nil, common.NewConfigurationError("wavelet.New", fmt.Sprintf("unknown wavelet family %q", family))
}

// Psi evaluates the mother wavelet at t
func (w *Wavelet) Psi(t float64) float64 {
	return w.psi(t)
}

// WaveFunction samples psi at 2^precision points over the support
func (w *Wavelet) WaveFunction(precision int) (psi, x []float64) {
	x = common.Linspace(w.LowerBound, w.UpperBound, 1<<precision)
	psi = make([]float64, len(x))
	for i, t := range x {
		psi[i] = w.psi(t)
	}
	return psi, x
}

// Integrate returns the running integral of psi (a rectangle-rule cumulative
// sum) and the sample positions
func (w *Wavelet) Integrate(precision int) (intPsi, x []float64) {
	psi, x := w.WaveFunction(precision)
	step := x[1] - x[0]

	intPsi = make([]float64, len(psi))
	sum := 0.0
	for i, v := range psi {
		sum += v
		intPsi[i] = sum * step
	}
	return intPsi, x
}

// ScaleToFrequency converts a scale to the wavelet's pseudo-frequency for the
// given sampling period
func (w *Wavelet) ScaleToFrequency(scale, samplingPeriod float64) float64 {
	return w.CentralFrequency / (scale * samplingPeriod)
}
