package windowing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Type names a window function
type Type string

const (
	TypeHann        Type = "hann"
	TypeHamming     Type = "hamming"
	TypeBlackman    Type = "blackman"
	TypeRectangular Type = "rectangular"
)

// cosine-sum coefficients: w[i] = a0 - a1*cos(x) + a2*cos(2x)
var cosineSum = map[Type][3]float64{
	TypeHann:        {0.5, 0.5, 0},
	TypeHamming:     {0.54, 0.46, 0},
	TypeBlackman:    {0.42, 0.5, 0.08},
	TypeRectangular: {1, 0, 0},
}

// Window holds precomputed window coefficients.
// Periodic windows (symmetric=false) are the spectral-analysis form: a
// symmetric window of size+1 with the last point dropped.
type Window struct {
	kind         Type
	size         int
	symmetric    bool
	coefficients []float64
}

// ParseType validates a window name
func ParseType(name string) (Type, error) {
	t := Type(name)
	if _, ok := cosineSum[t]; !ok {
		return "", fmt.Errorf("unknown window type %q", name)
	}
	return t, nil
}

// New creates a window of the given type and size
func New(kind Type, size int, symmetric bool) (*Window, error) {
	a, ok := cosineSum[kind]
	if !ok {
		return nil, fmt.Errorf("unknown window type %q", kind)
	}
	if size <= 0 {
		return nil, fmt.Errorf("window size must be positive: %d", size)
	}

	w := &Window{
		kind:      kind,
		size:      size,
		symmetric: symmetric,
	}
	w.generate(a)
	return w, nil
}

// NewHann creates a Hann window
func NewHann(size int, symmetric bool) *Window {
	w, _ := New(TypeHann, max(size, 1), symmetric)
	return w
}

// NewRectangular creates a rectangular (boxcar) window
func NewRectangular(size int) *Window {
	w, _ := New(TypeRectangular, max(size, 1), true)
	return w
}

func (w *Window) generate(a [3]float64) {
	w.coefficients = make([]float64, w.size)

	if w.size == 1 {
		w.coefficients[0] = 1.0
		return
	}

	denominator := float64(w.size)
	if w.symmetric {
		denominator = float64(w.size - 1)
	}

	for i := range w.size {
		arg := 2 * math.Pi * float64(i) / denominator
		w.coefficients[i] = a[0] - a[1]*math.Cos(arg) + a[2]*math.Cos(2*arg)
	}
}

// Apply applies the window to a signal (creates new array)
func (w *Window) Apply(signal []float64) []float64 {
	if len(signal) != w.size {
		return nil
	}

	windowed := make([]float64, w.size)
	floats.MulTo(windowed, signal, w.coefficients)
	return windowed
}

// ApplyInPlace applies the window to a signal in-place
func (w *Window) ApplyInPlace(signal []float64) error {
	if len(signal) != w.size {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), w.size)
	}

	floats.Mul(signal, w.coefficients)
	return nil
}

// Coefficients returns a copy of the window coefficients
func (w *Window) Coefficients() []float64 {
	coeffs := make([]float64, len(w.coefficients))
	copy(coeffs, w.coefficients)
	return coeffs
}

// Sum returns the sum of the coefficients (coherent gain times size)
func (w *Window) Sum() float64 {
	return floats.Sum(w.coefficients)
}

// Size returns the window size
func (w *Window) Size() int {
	return w.size
}

// Type returns the window type
func (w *Window) Type() Type {
	return w.kind
}
