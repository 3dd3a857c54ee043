package binning

import (
	"slices"

	"github.com/RyanBlaney/sonido-sfa/algorithms/common"
)

// equiDepth picks a-1 thresholds so each bin holds roughly the same number
// of samples. Values are rounded to two decimals before ranking.
func equiDepth(column []float64, a int) []float64 {
	sorted := make([]float64, len(column))
	for i, v := range column {
		sorted[i] = common.Round2(v)
	}
	slices.Sort(sorted)

	depth := float64(len(sorted)) / float64(a)
	thresholds := make([]float64, a-1)
	binIndex := 0.0
	for bp := range thresholds {
		binIndex += depth
		idx := min(int(binIndex), len(sorted)-1)
		thresholds[bp] = sorted[idx]
	}
	return thresholds
}

// equiWidth splits the observed range into a bins of equal width. The range
// is taken over values rounded to two decimals, as in equiDepth.
func equiWidth(column []float64, a int) []float64 {
	rounded := make([]float64, len(column))
	for i, v := range column {
		rounded[i] = common.Round2(v)
	}
	lo, hi := common.Range(rounded)
	width := (hi - lo) / float64(a)
	thresholds := make([]float64, a-1)
	for bp := range thresholds {
		thresholds[bp] = float64(bp+1)*width + lo
	}
	return thresholds
}
