package calculator

import (
	"context"
	"fmt"
	"math"
	"time"

	"cltv-segments/pkg/features"
	"cltv-segments/pkg/lifetimes"
	"cltv-segments/pkg/models"
	"cltv-segments/pkg/prep"
	"cltv-segments/pkg/segment"
	"cltv-segments/pkg/stats"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CorrelationWarnThreshold is the |corr(frequency, monetary)| above which the
// Gamma-Gamma independence assumption is reported as doubtful.
const CorrelationWarnThreshold = 0.3

var stages = []string{"suppress", "derive", "features", "fit", "predict", "segment"}

// Run executes the CLTV pipeline on a loaded customer table. The table's
// numeric columns are winsorized in place. Any stage error aborts the run and
// no partial result is returned.
func Run(ctx context.Context, table *models.Table, cfg models.Config, log *zap.SugaredLogger) (*models.Result, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	runID := uuid.NewString()
	log = log.With("run_id", runID)

	var bar *progressbar.ProgressBar
	if cfg.Progress {
		bar = progressbar.Default(int64(len(stages)))
	} else {
		bar = progressbar.DefaultSilent(int64(len(stages)))
	}
	step := func(name string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		bar.Describe(name)
		return nil
	}
	done := func() { _ = bar.Add(1) }

	res := &models.Result{RunID: runID}
	if table != nil {
		res.Customers = table.Len()
	}

	// 1) Outliers
	if err := step("suppress"); err != nil {
		return nil, err
	}
	th, err := prep.SuppressOutliers(table)
	if err != nil {
		return nil, fmt.Errorf("suppress outliers: %w", err)
	}
	res.Thresholds = make(map[string][2]float64, len(th))
	for _, col := range models.SuppressedColumns {
		t := th[col]
		res.Thresholds[col] = [2]float64{t.Low, t.Up}
		log.Debugw("outlier thresholds", "column", col, "low", t.Low, "up", t.Up)
	}
	done()

	// 2) Totals and dates
	if err := step("derive"); err != nil {
		return nil, err
	}
	customers, err := prep.Derive(table)
	if err != nil {
		return nil, fmt.Errorf("derive: %w", err)
	}
	done()

	// 3) Feature rows
	if err := step("features"); err != nil {
		return nil, err
	}
	analysisDate := cfg.AnalysisDate
	if analysisDate.IsZero() {
		if analysisDate, err = features.DefaultAnalysisDate(customers); err != nil {
			return nil, err
		}
	}
	res.AnalysisDate = analysisDate
	rows, err := features.Build(customers, analysisDate)
	if err != nil {
		return nil, fmt.Errorf("features: %w", err)
	}
	index, err := indexByID(rows)
	if err != nil {
		return nil, err
	}
	if cfg.Verbose {
		log.Infow("features built",
			"analysis_date", analysisDate.Format(time.DateOnly),
			"customers", len(customers),
			"rows", len(rows),
			"dropped_single_order", len(customers)-len(rows))
	}
	done()

	// 4) Models
	if err := step("fit"); err != nil {
		return nil, err
	}
	freq, rec, T, monetary := columns(rows)
	res.Correlation = stats.Correlation(freq, monetary)
	switch {
	case math.IsNaN(res.Correlation):
		log.Warnw("frequency/monetary correlation undefined")
		res.Correlation = 0
	case math.Abs(res.Correlation) > CorrelationWarnThreshold:
		log.Warnw("frequency and monetary value are correlated, gamma-gamma estimates may be biased",
			"corr", res.Correlation)
	}

	bgf := lifetimes.NewBetaGeoFitter(cfg.Model.BetaGeoPenalizer)
	ggf := lifetimes.NewGammaGammaFitter(cfg.Model.GammaGammaPenalizer)
	var g errgroup.Group
	g.Go(func() error { return bgf.Fit(freq, rec, T) })
	g.Go(func() error { return ggf.Fit(freq, monetary) })
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}
	res.BetaGeo = bgf.Params
	res.GammaGamma = ggf.Params
	if avg := ggf.PopulationAverage(); math.IsNaN(avg) {
		log.Warnw("gamma-gamma population average undefined", "q", ggf.Params.Q)
	} else {
		res.AverageSpend = &avg
	}
	log.Infow("models fitted",
		"r", bgf.Params.R, "alpha", bgf.Params.Alpha, "a", bgf.Params.A, "b", bgf.Params.B,
		"p", ggf.Params.P, "q", ggf.Params.Q, "v", ggf.Params.V)
	done()

	// 5) Predictions, joined back by customer id
	if err := step("predict"); err != nil {
		return nil, err
	}
	preds, err := predict(bgf, ggf, rows, cfg.Model)
	if err != nil {
		return nil, err
	}
	scored := make([]models.ScoredRow, len(rows))
	for id, p := range preds {
		i, ok := index[id]
		if !ok {
			return nil, models.InputErrorf("prediction for unknown customer %s", id)
		}
		p.FeatureRow = rows[i]
		scored[i] = p
	}
	clv := make([]float64, len(scored))
	for i := range scored {
		clv[i] = scored[i].CLV
	}
	for i, s := range segment.MinMaxScale(clv) {
		scored[i].ScaledCLV = s
	}
	done()

	// 6) Segments
	if err := step("segment"); err != nil {
		return nil, err
	}
	if err := segment.Assign(scored); err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}
	res.Rows = scored
	res.Segments = segment.Summarize(scored)
	done()

	if cfg.Verbose {
		for _, s := range res.Segments {
			log.Infow("segment", "segment", s.Segment, "count", s.Count, "mean_clv", s.Mean, "sum_clv", s.Sum)
		}
	}
	return res, nil
}

// predict computes every prediction of every row, keyed by customer id.
func predict(bgf *lifetimes.BetaGeoFitter, ggf *lifetimes.GammaGammaFitter, rows []models.FeatureRow, mc models.ModelConfig) (map[string]models.ScoredRow, error) {
	short := float64(4 * mc.ShortHorizonMonths)
	long := float64(4 * mc.LongHorizonMonths)
	opts := lifetimes.CLVOptions{Months: mc.CLVMonths, Freq: lifetimes.Weekly, DiscountRate: mc.DiscountRate}

	freq, rec, age, _ := columns(rows)
	shortSales := bgf.PredictAll(short, freq, rec, age)
	longSales := bgf.PredictAll(long, freq, rec, age)

	out := make(map[string]models.ScoredRow, len(rows))
	for i, r := range rows {
		x, tx, T, m := freq[i], rec[i], age[i], r.MonetaryAverage
		p := models.ScoredRow{
			ExpectedSales3Month: shortSales[i],
			ExpectedSales6Month: longSales[i],
			ExpAverageValue:     ggf.ConditionalExpectedAverageProfit(x, m),
			ProbAlive:           lifetimes.ProbabilityAlive(bgf.Params, x, tx, T),
			CLV:                 ggf.CustomerLifetimeValue(bgf.Params, x, tx, T, m, opts),
		}
		for _, c := range []struct {
			name string
			v    float64
		}{
			{"expected_sales_3_month", p.ExpectedSales3Month},
			{"expected_sales_6_month", p.ExpectedSales6Month},
			{"exp_average_value", p.ExpAverageValue},
			{"prob_alive", p.ProbAlive},
			{"clv", p.CLV},
		} {
			if math.IsNaN(c.v) || math.IsInf(c.v, 0) {
				return nil, models.EstimationErrorf("customer %s: %s is not finite", r.CustomerID, c.name)
			}
		}
		out[r.CustomerID] = p
	}
	return out, nil
}

func indexByID(rows []models.FeatureRow) (map[string]int, error) {
	index := make(map[string]int, len(rows))
	for i, r := range rows {
		if j, dup := index[r.CustomerID]; dup {
			return nil, models.InputErrorf("duplicate customer id %s (rows %d and %d)", r.CustomerID, j+1, i+1)
		}
		index[r.CustomerID] = i
	}
	return index, nil
}

func columns(rows []models.FeatureRow) (freq, rec, T, monetary []float64) {
	freq = make([]float64, len(rows))
	rec = make([]float64, len(rows))
	T = make([]float64, len(rows))
	monetary = make([]float64, len(rows))
	for i, r := range rows {
		freq[i] = float64(r.Frequency)
		rec[i] = float64(r.RecencyWeekly)
		T[i] = float64(r.TWeekly)
		monetary[i] = r.MonetaryAverage
	}
	return freq, rec, T, monetary
}
