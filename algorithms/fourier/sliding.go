package fourier

import (
	"fmt"

	"github.com/RyanBlaney/sonido-sfa/algorithms/common"
)

// Sliding returns the normalized coefficients of every stride-1 window of
// series. Only the first window is transformed directly; each following
// window is derived from its predecessor by the momentary Fourier transform
// recurrence, so the total cost is linear in len(series).
func (c *Coder) Sliding(series []float64) ([][]float64, error) {
	w := c.params.WindowSize
	if len(series) < w {
		return nil, fmt.Errorf("series length %d is shorter than window size %d", len(series), w)
	}

	count := len(series) - w + 1
	stds := common.WindowStdDevs(series, w, count)

	state := c.RawCoefficients(series[:w])
	out := make([][]float64, count)
	out[0] = c.finish(state, stds[0])

	for i := 1; i < count; i++ {
		leaving := series[i-1]
		entering := series[i+w-1]
		for n := 0; n < len(state); n += 2 {
			re := state[n] + entering - leaving
			im := state[n+1]
			state[n] = re*c.phis[n] - im*c.phis[n+1]
			state[n+1] = re*c.phis[n+1] + c.phis[n]*im
		}
		out[i] = c.finish(state, stds[i])
	}

	return out, nil
}

// DisjointWindows splits series into ceil(len/windowSize) consecutive
// windows. The last window is right-aligned so it ends at the final sample,
// overlapping its predecessor when the length is not a multiple of windowSize.
func DisjointWindows(series []float64, windowSize int) [][]float64 {
	n := len(series)
	if windowSize <= 0 || n < windowSize {
		return nil
	}
	count := (n + windowSize - 1) / windowSize
	windows := make([][]float64, count)
	for i := range count - 1 {
		windows[i] = series[i*windowSize : (i+1)*windowSize]
	}
	windows[count-1] = series[n-windowSize:]
	return windows
}
