package binning

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

const (
	impurityEpsilon  = 2.220446049250313e-16
	featureThreshold = 1e-7
)

type sample struct {
	value  float64
	target float64
	class  int
}

// criterion scores candidate splits of a sorted sample slice.
type criterion interface {
	// prepare is called once with the full training set
	prepare(samples []sample)
	// impurity of the node holding samples
	impurity(samples []sample) float64
	// bestSplit returns the split position maximizing the improvement,
	// with left = samples[:pos]. ok is false when no valid split exists.
	bestSplit(samples []sample) (pos int, ok bool)
}

// treeThresholds grows a depth-limited binary tree on a single feature and
// returns the thresholds of its internal nodes. Depth is floor(log2(a)), so
// the tree never has more than a leaves.
func treeThresholds(column, labels []float64, a int, crit criterion) []float64 {
	samples := make([]sample, len(column))
	for i, v := range column {
		samples[i] = sample{value: v, target: labels[i]}
	}
	slices.SortStableFunc(samples, func(x, y sample) int {
		switch {
		case x.value < y.value:
			return -1
		case x.value > y.value:
			return 1
		default:
			return 0
		}
	})
	crit.prepare(samples)

	maxDepth := int(math.Floor(math.Log2(float64(a))))
	var thresholds []float64
	var grow func(node []sample, depth int)
	grow = func(node []sample, depth int) {
		if depth >= maxDepth || len(node) < 2 || crit.impurity(node) <= impurityEpsilon {
			return
		}
		pos, ok := crit.bestSplit(node)
		if !ok {
			return
		}
		thresholds = append(thresholds, splitThreshold(node[pos-1].value, node[pos].value))
		grow(node[:pos], depth+1)
		grow(node[pos:], depth+1)
	}
	grow(samples, 0)

	return thresholds
}

func splitThreshold(lo, hi float64) float64 {
	t := lo/2 + hi/2
	if t == hi || math.IsInf(t, 0) || math.IsNaN(t) {
		return lo
	}
	return t
}

// validSplit reports whether a split may fall between samples pos-1 and pos.
func validSplit(samples []sample, pos int) bool {
	return samples[pos].value > samples[pos-1].value+featureThreshold
}

// entropyCriterion is the classification criterion: information gain over
// the class distribution.
type entropyCriterion struct {
	classes int
	probs   []float64
}

func (c *entropyCriterion) prepare(samples []sample) {
	index := make(map[float64]int)
	for i := range samples {
		id, ok := index[samples[i].target]
		if !ok {
			id = len(index)
			index[samples[i].target] = id
		}
		samples[i].class = id
	}
	c.classes = len(index)
	c.probs = make([]float64, c.classes)
}

func (c *entropyCriterion) entropy(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	for i, cnt := range counts {
		c.probs[i] = cnt / n
	}
	return stat.Entropy(c.probs)
}

func (c *entropyCriterion) impurity(samples []sample) float64 {
	counts := make([]float64, c.classes)
	for _, s := range samples {
		counts[s.class]++
	}
	return c.entropy(counts, float64(len(samples)))
}

func (c *entropyCriterion) bestSplit(samples []sample) (int, bool) {
	n := len(samples)
	right := make([]float64, c.classes)
	for _, s := range samples {
		right[s.class]++
	}
	left := make([]float64, c.classes)

	bestPos, found := 0, false
	best := math.Inf(-1)
	for pos := 1; pos < n; pos++ {
		cls := samples[pos-1].class
		left[cls]++
		right[cls]--
		if !validSplit(samples, pos) {
			continue
		}
		nl, nr := float64(pos), float64(n-pos)
		proxy := -nl*c.entropy(left, nl) - nr*c.entropy(right, nr)
		if proxy > best {
			best, bestPos, found = proxy, pos, true
		}
	}
	return bestPos, found
}

// friedmanCriterion is the regression criterion: mean squared error with
// Friedman's improvement score.
type friedmanCriterion struct{}

func (friedmanCriterion) prepare([]sample) {}

func (friedmanCriterion) impurity(samples []sample) float64 {
	targets := make([]float64, len(samples))
	for i, s := range samples {
		targets[i] = s.target
	}
	_, variance := stat.PopMeanVariance(targets, nil)
	return variance
}

func (friedmanCriterion) bestSplit(samples []sample) (int, bool) {
	n := len(samples)
	total := 0.0
	for _, s := range samples {
		total += s.target
	}

	bestPos, found := 0, false
	best := math.Inf(-1)
	sumLeft := 0.0
	for pos := 1; pos < n; pos++ {
		sumLeft += samples[pos-1].target
		if !validSplit(samples, pos) {
			continue
		}
		nl, nr := float64(pos), float64(n-pos)
		diff := nr*sumLeft - nl*(total-sumLeft)
		proxy := diff * diff / (nl * nr)
		if proxy > best {
			best, bestPos, found = proxy, pos, true
		}
	}
	return bestPos, found
}
