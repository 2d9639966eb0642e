// Package stats holds the descriptive statistics shared by the cleaning,
// segmentation and reporting stages.
package stats

import (
	"math"
	"sort"
)

// Quantile returns the p-quantile of sorted using linear interpolation
// between order statistics at position (n-1)·p. This is the estimator the
// winsorization limits and CLV quartile edges are defined with; gonum's
// stat.Quantile offers only the empirical and type-4 interpolated estimators.
// sorted must be ascending and non-empty, and p in [0, 1].
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 || p < 0 || p > 1 || math.IsNaN(p) {
		return math.NaN()
	}
	h := float64(n-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i >= n-1 {
		return sorted[n-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

// Quantiles sorts a copy of values and returns the quantile for each p.
func Quantiles(values []float64, ps ...float64) []float64 {
	sorted := Sorted(values)
	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = Quantile(sorted, p)
	}
	return out
}

// Sorted returns an ascending copy of values.
func Sorted(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Float64s(out)
	return out
}
