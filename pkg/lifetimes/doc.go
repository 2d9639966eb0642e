// Package lifetimes fits the probabilistic customer-base models used for
// lifetime value estimation.
//
// Two models are provided:
//
//   - BetaGeoFitter: the BG/NBD model of repeat-purchase counts. Given a
//     customer's frequency, recency and age T it predicts the expected number
//     of purchases over a future horizon.
//   - GammaGammaFitter: the Gamma-Gamma model of spend per transaction. It
//     shrinks a customer's observed average towards the population mean.
//
// Both fitters maximise a penalized mean log-likelihood over log-transformed
// parameters with gonum's Nelder-Mead optimizer. The penalty is
// penalizer * Σ param² as in the usual formulation.
//
// Fitting:
//
//	bgf := lifetimes.NewBetaGeoFitter(0.001)
//	if err := bgf.Fit(freq, recency, T); err != nil { ... }
//	n := bgf.Predict(12, 5, 10, 20)
//
//	ggf := lifetimes.NewGammaGammaFitter(0.01)
//	if err := ggf.Fit(freq, monetary); err != nil { ... }
//	clv := ggf.CustomerLifetimeValue(bgf.Params, 5, 10, 20, 150, lifetimes.CLVOptions{Months: 6, Freq: lifetimes.Weekly, DiscountRate: 0.01})
//
// Predictions are pure functions of the fitted parameters and a customer's
// features; a fitter is not modified after Fit returns.
//
// # References
//
//   - Fader, P. S., Hardie, B. G. S., & Lee, K. L. (2005). "Counting Your
//     Customers" the Easy Way: An Alternative to the Pareto/NBD Model.
//   - Fader, P. S., & Hardie, B. G. S. (2013). The Gamma-Gamma Model of
//     Monetary Value.
package lifetimes
