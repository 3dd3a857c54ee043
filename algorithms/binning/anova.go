package binning

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// constantVariance is the largest column variance treated as constant.
const constantVariance = 1e-8

// FScores returns the one-way ANOVA F statistic of each column of rows
// grouped by labels. Columns with zero within-group variance score +Inf;
// with a single class every score is NaN.
func FScores(rows [][]float64, labels []float64) []float64 {
	if len(rows) == 0 {
		return nil
	}
	groups := make(map[float64][]int)
	var order []float64
	for i, y := range labels {
		if _, ok := groups[y]; !ok {
			order = append(order, y)
		}
		groups[y] = append(groups[y], i)
	}

	n := float64(len(rows))
	k := float64(len(order))
	cols := len(rows[0])
	scores := make([]float64, cols)
	column := make([]float64, len(rows))

	for c := range cols {
		for i, row := range rows {
			column[i] = row[c]
		}
		grand := stat.Mean(column, nil)

		var between, within float64
		for _, y := range order {
			members := groups[y]
			groupSum := 0.0
			for _, i := range members {
				groupSum += column[i]
			}
			groupMean := groupSum / float64(len(members))
			between += float64(len(members)) * (groupMean - grand) * (groupMean - grand)
			for _, i := range members {
				within += (column[i] - groupMean) * (column[i] - groupMean)
			}
		}

		switch {
		case k < 2 || n <= k:
			scores[c] = math.NaN()
		case within == 0:
			scores[c] = math.Inf(1)
		default:
			scores[c] = (between / (k - 1)) / (within / (n - k))
		}
	}
	return scores
}

// SelectSupport ranks the non-constant columns of rows by F score and
// returns the wordLength best column indices, best first. ok is false when
// fewer than wordLength columns vary, in which case the leading wordLength
// indices are returned.
func SelectSupport(rows [][]float64, labels []float64, wordLength int) (support []int, ok bool) {
	support = make([]int, wordLength)
	for i := range support {
		support[i] = i
	}
	if len(rows) == 0 {
		return support, false
	}

	cols := len(rows[0])
	column := make([]float64, len(rows))
	var nonConstant []int
	for c := range cols {
		for i, row := range rows {
			column[i] = row[c]
		}
		_, v := stat.PopMeanVariance(column, nil)
		if math.Abs(v) > constantVariance {
			nonConstant = append(nonConstant, c)
		}
	}
	if wordLength > len(nonConstant) {
		return support, false
	}

	reduced := make([][]float64, len(rows))
	for i, row := range rows {
		reduced[i] = make([]float64, len(nonConstant))
		for j, c := range nonConstant {
			reduced[i][j] = row[c]
		}
	}
	scores := FScores(reduced, labels)

	ranked := make([]int, len(nonConstant))
	for i := range ranked {
		ranked[i] = i
	}
	slices.SortStableFunc(ranked, func(x, y int) int {
		return compareDesc(scores[x], scores[y])
	})
	for i := range support {
		support[i] = nonConstant[ranked[i]]
	}
	return support, true
}

// compareDesc orders larger scores first and NaN last
func compareDesc(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}
