package lifetimes

import (
	"math"

	"cltv-segments/pkg/models"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mathext"
)

// BetaGeoFitter fits the BG/NBD model.
type BetaGeoFitter struct {
	Penalizer float64
	Params    models.BetaGeoParams
	// LogLik is the mean log-likelihood at the optimum, penalty excluded.
	LogLik float64
	N      int
	fitted bool
}

// NewBetaGeoFitter creates a fitter with the given L2 penalizer coefficient.
func NewBetaGeoFitter(penalizer float64) *BetaGeoFitter {
	return &BetaGeoFitter{Penalizer: penalizer}
}

// Fit estimates (r, alpha, a, b) from per-customer frequency, recency and T.
// Time columns are rescaled so that max(T) = 10 during optimisation; alpha is
// reported in the caller's time unit.
func (f *BetaGeoFitter) Fit(frequency, recency, T []float64) error {
	n, err := validate("bg/nbd", map[string][]float64{
		"frequency": frequency,
		"recency":   recency,
		"T":         T,
	})
	if err != nil {
		return err
	}
	for i := range T {
		if recency[i] > T[i] {
			return models.EstimationErrorf("bg/nbd: row %d has recency %v > T %v", i, recency[i], T[i])
		}
	}

	scale := 10 / floats.Max(T)
	sRec := make([]float64, n)
	sT := make([]float64, n)
	floats.ScaleTo(sRec, scale, recency)
	floats.ScaleTo(sT, scale, T)

	objective := func(p []float64) float64 {
		return -betaGeoMeanLogLik(p[0], p[1], p[2], p[3], frequency, sRec, sT) + penalty(f.Penalizer, p)
	}
	params, _, err := minimizeLog("bg/nbd", objective, []float64{0, 0, 0, 0})
	if err != nil {
		return err
	}

	f.Params = models.BetaGeoParams{R: params[0], Alpha: params[1] / scale, A: params[2], B: params[3]}
	f.LogLik = betaGeoMeanLogLik(f.Params.R, f.Params.Alpha, f.Params.A, f.Params.B, frequency, recency, T)
	f.N = n
	f.fitted = true
	return nil
}

// Fitted reports whether Fit completed successfully.
func (f *BetaGeoFitter) Fitted() bool { return f.fitted }

// Predict returns the expected number of purchases in the next t periods.
func (f *BetaGeoFitter) Predict(t, frequency, recency, T float64) float64 {
	return ExpectedPurchases(f.Params, t, frequency, recency, T)
}

// PredictAll applies Predict to every customer.
func (f *BetaGeoFitter) PredictAll(t float64, frequency, recency, T []float64) []float64 {
	out := make([]float64, len(frequency))
	for i := range frequency {
		out[i] = f.Predict(t, frequency[i], recency[i], T[i])
	}
	return out
}

func betaGeoMeanLogLik(r, alpha, a, b float64, freq, rec, T []float64) float64 {
	lgR, _ := math.Lgamma(r)
	lgAB, _ := math.Lgamma(a + b)
	lgB, _ := math.Lgamma(b)
	logAlpha := math.Log(alpha)
	logA := math.Log(a)

	var sum float64
	for i, x := range freq {
		lgRX, _ := math.Lgamma(r + x)
		lgBX, _ := math.Lgamma(b + x)
		lgABX, _ := math.Lgamma(a + b + x)

		a1 := lgRX - lgR + r*logAlpha
		a2 := lgAB + lgBX - lgB - lgABX
		a3 := -(r + x) * math.Log(alpha+T[i])

		ll := a3
		if x > 0 {
			a4 := logA - math.Log(b+math.Max(x, 1)-1) - (r+x)*math.Log(rec[i]+alpha)
			ll = logAddExp(a3, a4)
		}
		sum += a1 + a2 + ll
	}
	return sum / float64(len(freq))
}

// ExpectedPurchases is the BG/NBD conditional expectation of the number of
// purchases in (T, T+t] for a customer with the given history.
func ExpectedPurchases(p models.BetaGeoParams, t, x, tx, T float64) float64 {
	if t <= 0 {
		return 0
	}
	r, alpha, a, b := p.R, p.Alpha, p.A, p.B

	hA := r + x
	hB := b + x
	hC := a + b + x - 1
	z := t / (alpha + T + t)

	lnHyp := math.Log(mathext.Hypergeo(hA, hB, hC, z))
	if math.IsInf(lnHyp, 0) || math.IsNaN(lnHyp) {
		// Euler transformation.
		lnHyp = math.Log(mathext.Hypergeo(hC-hA, hC-hB, hC, z)) + (hC-hA-hB)*math.Log(1-z)
	}

	first := (a + b + x - 1) / (a - 1)
	second := 1 - math.Exp(lnHyp+(r+x)*math.Log((alpha+T)/(alpha+t+T)))
	numerator := first * second

	denominator := 1.0
	if x > 0 {
		denominator += (a / (b + x - 1)) * math.Pow((alpha+T)/(alpha+tx), r+x)
	}
	return numerator / denominator
}

// ProbabilityAlive is the probability that a customer with the given history
// has not churned at T.
func ProbabilityAlive(p models.BetaGeoParams, x, tx, T float64) float64 {
	if x == 0 {
		return 1
	}
	r, alpha, a, b := p.R, p.Alpha, p.A, p.B
	logDiv := (r+x)*math.Log((alpha+T)/(alpha+tx)) + math.Log(a/(b+x-1))
	return 1 / (1 + math.Exp(logDiv))
}

func logAddExp(x, y float64) float64 {
	m := math.Max(x, y)
	if math.IsInf(m, -1) {
		return m
	}
	return m + math.Log(math.Exp(x-m)+math.Exp(y-m))
}
