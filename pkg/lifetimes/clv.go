package lifetimes

import (
	"fmt"
	"math"

	"cltv-segments/pkg/models"
)

// Freq is the time unit the BG/NBD model was fitted in.
type Freq string

const (
	Daily   Freq = "D"
	Weekly  Freq = "W"
	Monthly Freq = "M"
	Hourly  Freq = "H"
)

// PeriodsPerMonth returns how many model time units make up one month.
func (f Freq) PeriodsPerMonth() (float64, error) {
	switch f {
	case Weekly:
		return 4.345, nil
	case Monthly:
		return 1, nil
	case Daily:
		return 30, nil
	case Hourly:
		return 30 * 24, nil
	}
	return 0, fmt.Errorf("unknown frequency %q", string(f))
}

// CLVOptions control the lifetime value projection.
type CLVOptions struct {
	Months       int     // projection horizon
	Freq         Freq    // time unit of recency and T
	DiscountRate float64 // per month
}

// LifetimeValue projects the discounted value of a customer over opts.Months.
// Each month contributes the expected purchases in that month times the
// Gamma-Gamma expected spend, discounted by (1+rate)^month.
func LifetimeValue(bg models.BetaGeoParams, gg models.GammaGammaParams, frequency, recency, T, monetary float64, opts CLVOptions) float64 {
	factor, err := opts.Freq.PeriodsPerMonth()
	if err != nil {
		return math.NaN()
	}
	value := ExpectedAverageValue(gg, frequency, monetary)

	var clv float64
	for step := 1; step <= opts.Months; step++ {
		i := float64(step) * factor
		n := ExpectedPurchases(bg, i, frequency, recency, T) - ExpectedPurchases(bg, i-factor, frequency, recency, T)
		clv += value * n / math.Pow(1+opts.DiscountRate, i/factor)
	}
	return clv
}
