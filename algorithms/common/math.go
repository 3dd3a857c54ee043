package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MinStdDev is the smallest standard deviation treated as non-degenerate.
// Anything below it is replaced by 1 so normalization never divides by ~0.
const MinStdDev = 1e-8

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// PopStdDev returns the population (biased) standard deviation of data.
func PopStdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	_, std := stat.PopMeanStdDev(data, nil)
	return std
}

// FloorStdDev maps a degenerate standard deviation to 1.
func FloorStdDev(std float64) float64 {
	if std > MinStdDev && !math.IsNaN(std) {
		return std
	}
	return 1
}

// NormalizingStdDev is PopStdDev with the degeneracy floor applied
func NormalizingStdDev(data []float64) float64 {
	return FloorStdDev(PopStdDev(data))
}

// Round2 rounds to two decimals, ties to even.
func Round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

// Range returns the minimum and maximum of data
func Range(data []float64) (lo, hi float64) {
	if len(data) == 0 {
		return 0, 0
	}
	return floats.Min(data), floats.Max(data)
}

// IsClose reports whether a and b agree within the given absolute and relative tolerances.
func IsClose(a, b, atol, rtol float64) bool {
	return math.Abs(a-b) <= atol+rtol*math.Abs(b)
}

// AllFinite reports whether data contains no NaN or infinite values
func AllFinite(data []float64) bool {
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
