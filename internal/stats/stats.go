package stats

import (
	"math"
	"sort"
)

// Mean calculates the arithmetic mean
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Median calculates the median without modifying values
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// ShannonEntropy returns the entropy in bits of a frequency distribution
func ShannonEntropy(counts []float64) float64 {
	var sum float64
	for _, c := range counts {
		sum += c
	}
	if sum == 0 {
		return 0
	}

	var entropy float64
	for _, c := range counts {
		if c > 0 {
			p := c / sum
			entropy -= p * math.Log2(p)
		}
	}
	return entropy
}

// NormalizedEntropy scales ShannonEntropy to [0, 1] over n possible outcomes
func NormalizedEntropy(counts []float64, n int) float64 {
	if n <= 1 {
		return 0
	}
	return ShannonEntropy(counts) / math.Log2(float64(n))
}
