package lifetimes

import (
	"math"

	"cltv-segments/pkg/models"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

const (
	maxIterations      = 5000
	maxEvaluations     = 20000
	convergeTolerance  = 1e-10
	convergeIterations = 200

	// Fitted parameters below minParam are treated as a degenerate optimum.
	minParam = 1e-8
)

// minimizeLog minimizes objective over log-parameters starting at x0 and
// returns the exponentiated optimum.
func minimizeLog(name string, objective func(params []float64) float64, x0 []float64) ([]float64, float64, error) {
	params := make([]float64, len(x0))
	problem := optimize.Problem{
		Func: func(logParams []float64) float64 {
			for i, lp := range logParams {
				params[i] = math.Exp(lp)
			}
			v := objective(params)
			if math.IsNaN(v) {
				return math.Inf(1)
			}
			return v
		},
	}
	settings := &optimize.Settings{
		MajorIterations: maxIterations,
		FuncEvaluations: maxEvaluations,
		Converger: &optimize.FunctionConverge{
			Absolute:   convergeTolerance,
			Iterations: convergeIterations,
		},
	}

	res, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if err != nil {
		return nil, 0, models.EstimationErrorf("%s: optimizer: %v", name, err)
	}
	if math.IsInf(res.F, 0) || math.IsNaN(res.F) {
		return nil, 0, models.EstimationErrorf("%s: log-likelihood is not finite", name)
	}

	out := make([]float64, len(res.X))
	for i, lp := range res.X {
		out[i] = math.Exp(lp)
	}
	if !allFinitePositive(out) {
		return nil, 0, models.EstimationErrorf("%s: invalid parameters %v", name, out)
	}
	for _, v := range out {
		if v < minParam {
			return nil, 0, models.EstimationErrorf("%s: degenerate parameter %g", name, v)
		}
	}
	return out, res.F, nil
}

func penalty(coef float64, params []float64) float64 {
	return coef * floats.Dot(params, params)
}

func allFinitePositive(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) || x <= 0 {
			return false
		}
	}
	return true
}

// validate checks that every input column has the same length, no NaN or
// negative values, and at least one non-zero entry.
func validate(name string, cols map[string][]float64) (int, error) {
	n := -1
	for col, xs := range cols {
		if n == -1 {
			n = len(xs)
		}
		if len(xs) != n {
			return 0, models.EstimationErrorf("%s: column %s has %d values, want %d", name, col, len(xs), n)
		}
		if len(xs) == 0 {
			return 0, models.EstimationErrorf("%s: no observations", name)
		}
		nonZero := false
		for _, x := range xs {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return 0, models.EstimationErrorf("%s: column %s has non-finite values", name, col)
			}
			if x < 0 {
				return 0, models.EstimationErrorf("%s: column %s has negative values", name, col)
			}
			if x != 0 {
				nonZero = true
			}
		}
		if !nonZero {
			return 0, models.EstimationErrorf("%s: column %s is all zeros", name, col)
		}
	}
	return n, nil
}
