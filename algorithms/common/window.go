package common

import "math"

// cancellationRatio bounds how small the running variance may get relative
// to the running second moment before the window is recomputed two-pass.
const cancellationRatio = 1e-6

// SlidingStats tracks the mean and population standard deviation of a
// fixed-length window that moves one sample at a time over a series.
// Sums are kept relative to the mean of the first window.
type SlidingStats struct {
	windowSize int
	shift      float64
	sum        float64
	squareSum  float64
}

// NewSlidingStats seeds the running sums with the first window of series.
func NewSlidingStats(series []float64, windowSize int) *SlidingStats {
	s := &SlidingStats{windowSize: windowSize, shift: Mean(series[:windowSize])}
	for _, v := range series[:windowSize] {
		d := v - s.shift
		s.sum += d
		s.squareSum += d * d
	}
	return s
}

// Slide removes leaving from the window and adds entering.
func (s *SlidingStats) Slide(leaving, entering float64) {
	l := leaving - s.shift
	e := entering - s.shift
	s.sum += e - l
	s.squareSum += e*e - l*l
}

// Mean of the current window
func (s *SlidingStats) Mean() float64 {
	return s.shift + s.sum/float64(s.windowSize)
}

func (s *SlidingStats) variance() float64 {
	m := s.sum / float64(s.windowSize)
	return max(0, s.squareSum/float64(s.windowSize)-m*m)
}

// StdDev returns the floored population standard deviation of the current window.
func (s *SlidingStats) StdDev() float64 {
	return FloorStdDev(math.Sqrt(s.variance()))
}

// Cancelled reports whether the running variance has lost most of its
// significant digits, as happens on (near) constant windows far from the
// shift. StdDev is then unreliable and the window must be recomputed.
func (s *SlidingStats) Cancelled() bool {
	return s.variance() <= cancellationRatio*s.squareSum/float64(s.windowSize)
}

// WindowStdDevs returns the floored standard deviation of each of the
// first count stride-1 windows of series. Windows whose running variance
// cancelled are recomputed with NormalizingStdDev, so every entry equals
// NormalizingStdDev of its window up to rounding.
func WindowStdDevs(series []float64, windowSize, count int) []float64 {
	stds := make([]float64, count)
	if count == 0 {
		return stds
	}
	stats := NewSlidingStats(series, windowSize)
	for w := range count {
		if w > 0 {
			stats.Slide(series[w-1], series[w+windowSize-1])
		}
		if stats.Cancelled() {
			stds[w] = NormalizingStdDev(series[w : w+windowSize])
		} else {
			stds[w] = stats.StdDev()
		}
	}
	return stds
}
