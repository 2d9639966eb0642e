package lifetimes

import (
	"math"

	"cltv-segments/pkg/models"
)

// GammaGammaFitter fits the Gamma-Gamma model of average transaction value.
//
// The model assumes spend per transaction is independent of purchase
// frequency; callers should check the correlation of the two before relying
// on the estimates.
type GammaGammaFitter struct {
	Penalizer float64
	Params    models.GammaGammaParams
	LogLik    float64
	N         int
	fitted    bool
}

// NewGammaGammaFitter creates a fitter with the given L2 penalizer coefficient.
func NewGammaGammaFitter(penalizer float64) *GammaGammaFitter {
	return &GammaGammaFitter{Penalizer: penalizer}
}

// Fit estimates (p, q, v) from per-customer frequency and average spend.
// Every customer needs a positive frequency and a positive average.
func (f *GammaGammaFitter) Fit(frequency, monetary []float64) error {
	n, err := validate("gamma-gamma", map[string][]float64{
		"frequency": frequency,
		"monetary":  monetary,
	})
	if err != nil {
		return err
	}
	for i := range frequency {
		if frequency[i] <= 0 || monetary[i] <= 0 {
			return models.EstimationErrorf("gamma-gamma: row %d needs positive frequency and monetary value", i)
		}
	}

	objective := func(p []float64) float64 {
		return -gammaGammaMeanLogLik(p[0], p[1], p[2], frequency, monetary) + penalty(f.Penalizer, p)
	}
	params, _, err := minimizeLog("gamma-gamma", objective, []float64{0, 0, 0})
	if err != nil {
		return err
	}

	f.Params = models.GammaGammaParams{P: params[0], Q: params[1], V: params[2]}
	f.LogLik = gammaGammaMeanLogLik(params[0], params[1], params[2], frequency, monetary)
	f.N = n
	f.fitted = true
	return nil
}

// Fitted reports whether Fit completed successfully.
func (f *GammaGammaFitter) Fitted() bool { return f.fitted }

// ConditionalExpectedAverageProfit returns the shrunk expected spend per
// transaction of one customer.
func (f *GammaGammaFitter) ConditionalExpectedAverageProfit(frequency, monetary float64) float64 {
	return ExpectedAverageValue(f.Params, frequency, monetary)
}

// CustomerLifetimeValue combines a fitted BG/NBD model with this model.
func (f *GammaGammaFitter) CustomerLifetimeValue(bg models.BetaGeoParams, frequency, recency, T, monetary float64, opts CLVOptions) float64 {
	return LifetimeValue(bg, f.Params, frequency, recency, T, monetary, opts)
}

// PopulationAverage is the expected average spend of a customer with no
// history, p·v/(q−1). It is undefined (NaN) when q ≤ 1.
func (f *GammaGammaFitter) PopulationAverage() float64 {
	p := f.Params
	if p.Q <= 1 {
		return math.NaN()
	}
	return p.P * p.V / (p.Q - 1)
}

func gammaGammaMeanLogLik(p, q, v float64, freq, monetary []float64) float64 {
	lgQ, _ := math.Lgamma(q)
	qLogV := q * math.Log(v)

	var sum float64
	for i, x := range freq {
		m := monetary[i]
		px := p * x
		lgPXQ, _ := math.Lgamma(px + q)
		lgPX, _ := math.Lgamma(px)
		sum += lgPXQ - lgPX - lgQ + qLogV +
			(px-1)*math.Log(m) + px*math.Log(x) -
			(px+q)*math.Log(x*m+v)
	}
	return sum / float64(len(freq))
}

// ExpectedAverageValue is the Gamma-Gamma conditional expectation of spend
// per transaction given the observed frequency and average.
func ExpectedAverageValue(p models.GammaGammaParams, frequency, monetary float64) float64 {
	return p.P * (p.V + frequency*monetary) / (p.P*frequency + p.Q - 1)
}
