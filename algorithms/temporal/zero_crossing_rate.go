package temporal

// ZeroCrossingRate counts strict sign changes between consecutive samples.
// A pair crosses only when x[i]*x[i+1] < 0, so touching zero is not a crossing.
type ZeroCrossingRate struct{}

// NewZeroCrossingRate creates a zero crossing rate calculator
func NewZeroCrossingRate() *ZeroCrossingRate {
	return &ZeroCrossingRate{}
}

// Count returns the number of sign changes in frame
func (zcr *ZeroCrossingRate) Count(frame []float64) int {
	crossings := 0
	for i := 1; i < len(frame); i++ {
		if frame[i-1]*frame[i] < 0 {
			crossings++
		}
	}
	return crossings
}

// Compute returns crossings divided by the number of samples (not pairs)
func (zcr *ZeroCrossingRate) Compute(frame []float64) float64 {
	if len(frame) == 0 {
		return 0.0
	}
	return float64(zcr.Count(frame)) / float64(len(frame))
}

// ComputeFrames computes the rate over frames of frameSize advanced by hopSize
func (zcr *ZeroCrossingRate) ComputeFrames(signal []float64, frameSize, hopSize int) []float64 {
	if frameSize <= 0 || hopSize <= 0 || len(signal) < frameSize {
		return []float64{}
	}

	numFrames := (len(signal)-frameSize)/hopSize + 1
	rates := make([]float64, numFrames)
	for i := range rates {
		start := i * hopSize
		rates[i] = zcr.Compute(signal[start : start+frameSize])
	}
	return rates
}
