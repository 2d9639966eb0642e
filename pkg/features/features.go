// Package features builds the per-customer CLTV model inputs.
package features

import (
	"math"
	"time"

	"cltv-segments/pkg/models"
)

// AnalysisDateOffset is added to the latest purchase when no analysis date is
// configured.
const AnalysisDateOffset = 2 * 24 * time.Hour

// DefaultAnalysisDate returns the latest last_order_date plus two days,
// truncated to midnight UTC.
func DefaultAnalysisDate(customers []models.EnrichedCustomer) (time.Time, error) {
	if len(customers) == 0 {
		return time.Time{}, models.InputErrorf("analysis date: empty dataset")
	}
	latest := customers[0].LastOrderDate
	for _, c := range customers[1:] {
		if c.LastOrderDate.After(latest) {
			latest = c.LastOrderDate
		}
	}
	d := latest.Truncate(24 * time.Hour).Add(AnalysisDateOffset)
	return d, nil
}

// Build derives one FeatureRow per customer with more than one order,
// relative to analysisDate. Row order follows the input.
func Build(customers []models.EnrichedCustomer, analysisDate time.Time) ([]models.FeatureRow, error) {
	if len(customers) == 0 {
		return nil, models.InputErrorf("build features: empty dataset")
	}
	if analysisDate.IsZero() {
		return nil, models.InputErrorf("build features: analysis date not set")
	}

	rows := make([]models.FeatureRow, 0, len(customers))
	for _, c := range customers {
		if c.OrderNumTotal <= 1 {
			continue
		}
		if c.LastOrderDate.Before(c.FirstOrderDate) {
			return nil, models.InputErrorf("customer %s: last_order_date %s before first_order_date %s",
				c.MasterID, c.LastOrderDate.Format(time.DateOnly), c.FirstOrderDate.Format(time.DateOnly))
		}
		if analysisDate.Before(c.LastOrderDate) {
			return nil, models.InputErrorf("customer %s: last_order_date %s after analysis date %s",
				c.MasterID, c.LastOrderDate.Format(time.DateOnly), analysisDate.Format(time.DateOnly))
		}
		if c.OrderNumTotal != math.Trunc(c.OrderNumTotal) {
			return nil, models.InputErrorf("customer %s: fractional order count %v", c.MasterID, c.OrderNumTotal)
		}
		rows = append(rows, models.FeatureRow{
			CustomerID:      c.MasterID,
			RecencyWeekly:   Weeks(c.FirstOrderDate, c.LastOrderDate),
			TWeekly:         Weeks(c.FirstOrderDate, analysisDate),
			Frequency:       int(c.OrderNumTotal),
			MonetaryAverage: c.CustomerValueTotal / c.OrderNumTotal,
		})
	}
	if len(rows) == 0 {
		return nil, models.InputErrorf("build features: no customer with more than one order")
	}
	return rows, nil
}

// Weeks returns the whole weeks between from and to: whole days (floored)
// floor-divided by 7.
func Weeks(from, to time.Time) int {
	days := int(math.Floor(to.Sub(from).Hours() / 24))
	return floorDiv(days, 7)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
