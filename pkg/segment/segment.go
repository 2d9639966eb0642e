// Package segment assigns quantile-based CLTV segments.
package segment

import (
	"math"
	"sort"

	"cltv-segments/pkg/models"
	"cltv-segments/pkg/stats"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Edges returns the q+1 empirical quantile edges of values.
func Edges(values []float64, q int) ([]float64, error) {
	if q < 1 {
		return nil, models.SegmentationErrorf("need at least one bin, got %d", q)
	}
	if len(values) == 0 {
		return nil, models.SegmentationErrorf("no values to bin")
	}
	sorted := stats.Sorted(values)
	if math.IsNaN(sorted[0]) || math.IsInf(sorted[0], 0) || math.IsInf(sorted[len(sorted)-1], 0) {
		return nil, models.SegmentationErrorf("values must be finite")
	}

	edges := make([]float64, q+1)
	for i := range edges {
		edges[i] = stats.Quantile(sorted, float64(i)/float64(q))
	}
	for i := 1; i < len(edges); i++ {
		if edges[i] <= edges[i-1] {
			return nil, models.SegmentationErrorf("bin edges must be unique: %v", edges)
		}
	}
	return edges, nil
}

// Cut bins values into len(labels) quantile bins. The first bin is closed on
// both sides, later bins are (lo, hi]. labels are in ascending value order.
func Cut(values []float64, labels []models.Segment) ([]models.Segment, error) {
	edges, err := Edges(values, len(labels))
	if err != nil {
		return nil, err
	}
	out := make([]models.Segment, len(values))
	for i, v := range values {
		// first edge index with edges[k] >= v
		k := sort.SearchFloat64s(edges, v)
		if k == 0 {
			k = 1
		}
		out[i] = labels[k-1]
	}
	return out, nil
}

// Assign sets Segment on every row from its CLV using quartiles D..A.
func Assign(rows []models.ScoredRow) error {
	clv := make([]float64, len(rows))
	for i, r := range rows {
		clv[i] = r.CLV
	}
	labels, err := Cut(clv, models.SegmentLabels)
	if err != nil {
		return err
	}
	for i := range rows {
		rows[i].Segment = labels[i]
	}
	return nil
}

// Summarize aggregates CLV per segment, highest segment first.
func Summarize(rows []models.ScoredRow) []models.SegmentSummary {
	groups := make(map[models.Segment][]float64)
	for _, r := range rows {
		groups[r.Segment] = append(groups[r.Segment], r.CLV)
	}
	out := make([]models.SegmentSummary, 0, len(groups))
	for i := len(models.SegmentLabels) - 1; i >= 0; i-- {
		label := models.SegmentLabels[i]
		vals, ok := groups[label]
		if !ok {
			continue
		}
		out = append(out, models.SegmentSummary{
			Segment: label,
			Count:   len(vals),
			Mean:    stat.Mean(vals, nil),
			Sum:     floats.Sum(vals),
			Min:     floats.Min(vals),
			Max:     floats.Max(vals),
		})
	}
	return out
}

// MinMaxScale maps values linearly onto [0, 1]. A constant input maps to 0.
func MinMaxScale(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	lo, hi := floats.Min(values), floats.Max(values)
	if hi == lo {
		return out
	}
	for i, v := range values {
		out[i] = (v - lo) / (hi - lo)
	}
	return out
}
