package calculator

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"cltv-segments/pkg/lifetimes"
	"cltv-segments/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allColumns = []string{
	models.ColMasterID,
	models.ColOrderChannel,
	models.ColLastOrderChannel,
	models.ColFirstOrderDate,
	models.ColLastOrderDate,
	models.ColLastOrderDateOnline,
	models.ColLastOrderDateOffline,
	models.ColOrderNumOnline,
	models.ColOrderNumOffline,
	models.ColCustomerValueOffline,
	models.ColCustomerValueOnline,
	models.ColInterestedInCategories,
}

var latestOrder = time.Date(2021, 5, 30, 0, 0, 0, 0, time.UTC)

// syntheticTable generates n customers who each ordered at least twice.
func syntheticTable(n int, seed int64) *models.Table {
	rng := rand.New(rand.NewSource(seed))
	start := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	span := int(latestOrder.Sub(start).Hours() / 24)

	t := &models.Table{Columns: allColumns}
	for i := 0; i < n; i++ {
		firstOff := rng.Intn(span - 30)
		first := start.AddDate(0, 0, firstOff)
		last := first.AddDate(0, 0, rng.Intn(span-firstOff+1))
		if i == 0 {
			last = latestOrder
		}
		online := float64(1 + rng.Intn(8))
		offline := float64(1 + rng.Intn(4))
		if rng.Float64() < 0.1 {
			online += float64(rng.Intn(30))
		}
		date := func(d time.Time) string { return d.Format(time.DateOnly) }
		t.Records = append(t.Records, models.CustomerRecord{
			MasterID:         fmt.Sprintf("cust-%04d", i),
			OrderChannel:     "Android App",
			LastOrderChannel: "Offline",
			InterestedIn:     "[KADIN]",
			OrderNumOnline:   online,
			OrderNumOffline:  offline,
			ValueOnline:      math.Round((online*(40+rng.ExpFloat64()*60))*100) / 100,
			ValueOffline:     math.Round((offline*(30+rng.ExpFloat64()*50))*100) / 100,
			RawDates: map[string]string{
				models.ColFirstOrderDate:       date(first),
				models.ColLastOrderDate:        date(last),
				models.ColLastOrderDateOnline:  date(last),
				models.ColLastOrderDateOffline: date(first),
			},
		})
	}
	return t
}

func testConfig() models.Config {
	return models.Config{Model: models.DefaultModelConfig()}
}

func TestRun(t *testing.T) {
	table := syntheticTable(400, 7)
	res, err := Run(context.Background(), table, testConfig(), nil)
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 400, res.Customers)
	assert.Equal(t, latestOrder.AddDate(0, 0, 2), res.AnalysisDate)
	require.Len(t, res.Rows, 400)
	assert.Len(t, res.Thresholds, len(models.SuppressedColumns))

	for _, p := range []float64{res.BetaGeo.R, res.BetaGeo.Alpha, res.BetaGeo.A, res.BetaGeo.B,
		res.GammaGamma.P, res.GammaGamma.Q, res.GammaGamma.V} {
		assert.Greater(t, p, 0.0)
	}
	if res.GammaGamma.Q > 1 {
		require.NotNil(t, res.AverageSpend)
		assert.InDelta(t, res.GammaGamma.P*res.GammaGamma.V/(res.GammaGamma.Q-1), *res.AverageSpend, 1e-9)
	} else {
		assert.Nil(t, res.AverageSpend)
	}

	counts := map[models.Segment]int{}
	for i, r := range res.Rows {
		assert.Equal(t, table.Records[i].MasterID, r.CustomerID, "row order must follow input")
		assert.Greater(t, r.Frequency, 1)
		assert.GreaterOrEqual(t, r.TWeekly, r.RecencyWeekly)
		assert.GreaterOrEqual(t, r.RecencyWeekly, 0)
		assert.GreaterOrEqual(t, r.ExpectedSales3Month, 0.0)
		assert.GreaterOrEqual(t, r.ExpectedSales6Month, r.ExpectedSales3Month)
		assert.Greater(t, r.ExpAverageValue, 0.0)
		assert.GreaterOrEqual(t, r.ProbAlive, 0.0)
		assert.LessOrEqual(t, r.ProbAlive, 1.0)
		assert.False(t, math.IsNaN(r.CLV) || math.IsInf(r.CLV, 0))
		assert.GreaterOrEqual(t, r.ScaledCLV, 0.0)
		assert.LessOrEqual(t, r.ScaledCLV, 1.0)
		counts[r.Segment]++
	}
	for _, s := range models.SegmentLabels {
		assert.InDelta(t, 100, counts[s], 1, "segment %s", s)
	}

	require.Len(t, res.Segments, 4)
	assert.Equal(t, models.SegmentA, res.Segments[0].Segment)
	assert.Greater(t, res.Segments[0].Mean, res.Segments[3].Mean)
}

func TestRun_SegmentsFollowCLV(t *testing.T) {
	res, err := Run(context.Background(), syntheticTable(200, 11), testConfig(), nil)
	require.NoError(t, err)

	rank := map[models.Segment]int{models.SegmentD: 0, models.SegmentC: 1, models.SegmentB: 2, models.SegmentA: 3}
	for _, a := range res.Rows {
		for _, b := range res.Rows {
			if a.CLV < b.CLV {
				assert.LessOrEqual(t, rank[a.Segment], rank[b.Segment])
			}
		}
	}
}

func TestRun_FixedAnalysisDate(t *testing.T) {
	cfg := testConfig()
	cfg.AnalysisDate = time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	res, err := Run(context.Background(), syntheticTable(120, 3), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, cfg.AnalysisDate, res.AnalysisDate)

	cfg.AnalysisDate = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = Run(context.Background(), syntheticTable(120, 3), cfg, nil)
	assert.ErrorIs(t, err, models.ErrInput)
}

func TestRun_Errors(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := Run(context.Background(), &models.Table{Columns: allColumns}, testConfig(), nil)
		assert.ErrorIs(t, err, models.ErrInput)
	})

	t.Run("bad date", func(t *testing.T) {
		table := syntheticTable(50, 1)
		table.Records[3].RawDates[models.ColLastOrderDate] = "not-a-date"
		_, err := Run(context.Background(), table, testConfig(), nil)
		assert.ErrorIs(t, err, models.ErrParse)
		assert.ErrorContains(t, err, "cust-0003")
	})

	t.Run("duplicate id", func(t *testing.T) {
		table := syntheticTable(50, 1)
		table.Records[7].MasterID = table.Records[2].MasterID
		_, err := Run(context.Background(), table, testConfig(), nil)
		assert.ErrorIs(t, err, models.ErrInput)
		assert.ErrorContains(t, err, "duplicate")
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Run(ctx, syntheticTable(50, 1), testConfig(), nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestPredict(t *testing.T) {
	bgf := &lifetimes.BetaGeoFitter{Params: models.BetaGeoParams{R: 0.24, Alpha: 4.41, A: 0.79, B: 2.43}}
	ggf := &lifetimes.GammaGammaFitter{Params: models.GammaGammaParams{P: 6.25, Q: 3.74, V: 15.45}}
	rows := []models.FeatureRow{
		{CustomerID: "a", Frequency: 5, RecencyWeekly: 30, TWeekly: 40, MonetaryAverage: 120},
		{CustomerID: "b", Frequency: 2, RecencyWeekly: 3, TWeekly: 60, MonetaryAverage: 45},
	}

	preds, err := predict(bgf, ggf, rows, models.DefaultModelConfig())
	require.NoError(t, err)
	require.Len(t, preds, 2)
	for _, r := range rows {
		p := preds[r.CustomerID]
		x, tx, T := float64(r.Frequency), float64(r.RecencyWeekly), float64(r.TWeekly)
		assert.InDelta(t, bgf.Predict(12, x, tx, T), p.ExpectedSales3Month, 1e-12)
		assert.InDelta(t, bgf.Predict(24, x, tx, T), p.ExpectedSales6Month, 1e-12)
		assert.Greater(t, p.CLV, 0.0)
	}
	assert.Greater(t, preds["a"].ExpectedSales3Month, preds["b"].ExpectedSales3Month)
}

func TestIndexByID(t *testing.T) {
	idx, err := indexByID([]models.FeatureRow{{CustomerID: "a"}, {CustomerID: "b"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 0, "b": 1}, idx)

	_, err = indexByID([]models.FeatureRow{{CustomerID: "a"}, {CustomerID: "a"}})
	assert.ErrorIs(t, err, models.ErrInput)
}
