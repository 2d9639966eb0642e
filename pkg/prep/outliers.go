// Package prep cleans the raw customer table and derives omnichannel totals.
package prep

import (
	"math"

	"cltv-segments/pkg/models"
	"cltv-segments/pkg/stats"

	"gonum.org/v1/gonum/floats"
)

// The IQR rule takes the 1st and 99th percentiles as its quartiles.
const (
	lowerQuantile = 0.01
	upperQuantile = 0.99
	iqrFactor     = 1.5
)

// Thresholds are the winsorization limits of one column.
type Thresholds struct {
	Low float64
	Up  float64
}

// OutlierThresholds computes the rounded low/up limits of values.
func OutlierThresholds(values []float64) (Thresholds, error) {
	if len(values) == 0 {
		return Thresholds{}, models.InputErrorf("outlier thresholds: empty column")
	}
	if floats.HasNaN(values) {
		return Thresholds{}, models.InputErrorf("outlier thresholds: NaN value")
	}

	sorted := stats.Sorted(values)
	q1 := stats.Quantile(sorted, lowerQuantile)
	q3 := stats.Quantile(sorted, upperQuantile)
	iqr := q3 - q1
	return Thresholds{
		Low: math.RoundToEven(q1 - iqrFactor*iqr),
		Up:  math.RoundToEven(q3 + iqrFactor*iqr),
	}, nil
}

// Clip returns v bounded to [t.Low, t.Up].
func (t Thresholds) Clip(v float64) float64 {
	if v < t.Low {
		return t.Low
	}
	if v > t.Up {
		return t.Up
	}
	return v
}

// SuppressOutliers winsorizes every column in models.SuppressedColumns in
// place, each against its own thresholds, and returns the limits used.
func SuppressOutliers(table *models.Table) (map[string]Thresholds, error) {
	if table == nil || table.Len() == 0 {
		return nil, models.InputErrorf("suppress outliers: empty dataset")
	}
	out := make(map[string]Thresholds, len(models.SuppressedColumns))
	for _, col := range models.SuppressedColumns {
		th, err := ReplaceWithThresholds(table, col)
		if err != nil {
			return nil, err
		}
		out[col] = th
	}
	return out, nil
}

// ReplaceWithThresholds winsorizes a single numeric column of table.
func ReplaceWithThresholds(table *models.Table, col string) (Thresholds, error) {
	values := make([]float64, 0, table.Len())
	for i := range table.Records {
		p := table.Records[i].Numeric(col)
		if p == nil {
			return Thresholds{}, models.InputErrorf("column %s is not numeric", col)
		}
		values = append(values, *p)
	}
	th, err := OutlierThresholds(values)
	if err != nil {
		return Thresholds{}, err
	}
	for i := range table.Records {
		p := table.Records[i].Numeric(col)
		*p = th.Clip(*p)
	}
	return th, nil
}
