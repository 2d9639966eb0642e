package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DescribePercentiles are reported by Describe.
var DescribePercentiles = []float64{0, 0.05, 0.50, 0.95, 0.99}

// Summary describes one numeric column.
type Summary struct {
	Column      string    `json:"column"`
	Count       int       `json:"count"`
	Mean        float64   `json:"mean"`
	Std         float64   `json:"std"`
	Min         float64   `json:"min"`
	Max         float64   `json:"max"`
	Percentiles []float64 `json:"percentiles"`
}

// Describe summarises values; Std is the sample standard deviation.
func Describe(column string, values []float64) Summary {
	s := Summary{Column: column, Count: len(values)}
	if len(values) == 0 {
		s.Mean, s.Std, s.Min, s.Max = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return s
	}
	s.Mean, s.Std = stat.MeanStdDev(values, nil)
	if len(values) < 2 {
		s.Std = math.NaN()
	}
	s.Min = floats.Min(values)
	s.Max = floats.Max(values)
	s.Percentiles = Quantiles(values, DescribePercentiles...)
	return s
}

// Correlation is the Pearson correlation of x and y.
func Correlation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}

// ValueCount is one entry of ValueCounts.
type ValueCount struct {
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// ValueCounts counts occurrences of each value, most frequent first; ties
// are ordered by value.
func ValueCounts(values []float64) []ValueCount {
	counts := make(map[float64]int)
	for _, v := range values {
		counts[v]++
	}
	out := make([]ValueCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, ValueCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}
