package binning

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/RyanBlaney/sonido-sfa/algorithms/common"
)

// minBinWidth is the narrowest bin kept by the k-means discretizer.
const minBinWidth = 1e-8

// kmeansEdges clusters a single column into a groups with Lloyd's algorithm,
// seeded with the centers of a uniform split of the observed range, and
// returns the midpoints between neighbouring sorted centers. Bins narrower
// than minBinWidth are merged away; collapsed reports whether that happened.
func kmeansEdges(column []float64, a, maxIter int, tol float64) (edges []float64, collapsed bool) {
	lo, hi := common.Range(column)
	if hi-lo <= minBinWidth {
		return nil, true
	}

	centers := make([]float64, a)
	step := (hi - lo) / float64(a)
	for i := range centers {
		centers[i] = lo + (float64(i)+0.5)*step
	}
	_, spread := stat.PopMeanVariance(column, nil)
	centers = lloyd1D(column, centers, maxIter, tol*spread)
	slices.Sort(centers)

	all := make([]float64, 0, a+1)
	all = append(all, lo)
	for i := 1; i < a; i++ {
		all = append(all, (centers[i-1]+centers[i])/2)
	}
	all = append(all, hi)

	kept := []float64{all[0]}
	for _, e := range all[1:] {
		if e-kept[len(kept)-1] > minBinWidth {
			kept = append(kept, e)
		}
	}
	collapsed = len(kept) < len(all)
	if len(kept) <= 2 {
		return nil, collapsed
	}
	return kept[1 : len(kept)-1], collapsed
}

// lloyd1D refines centers until the total squared shift drops to tol.
// Empty clusters keep their previous center.
func lloyd1D(data, centers []float64, maxIter int, tol float64) []float64 {
	k := len(centers)
	sums := make([]float64, k)
	counts := make([]int, k)

	for range maxIter {
		clear(sums)
		clear(counts)
		for _, v := range data {
			best := nearest(v, centers)
			sums[best] += v
			counts[best]++
		}

		shift := 0.0
		for j := range centers {
			if counts[j] == 0 {
				continue
			}
			updated := sums[j] / float64(counts[j])
			d := updated - centers[j]
			shift += d * d
			centers[j] = updated
		}
		if shift <= tol {
			break
		}
	}
	return centers
}

func nearest(v float64, centers []float64) int {
	best, bestDist := 0, math.Inf(1)
	for j, c := range centers {
		if d := math.Abs(v - c); d < bestDist {
			best, bestDist = j, d
		}
	}
	return best
}
