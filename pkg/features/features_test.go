package features

import (
	"testing"
	"time"

	"cltv-segments/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func customer(id string, orders, value float64, first, last string) models.EnrichedCustomer {
	return models.EnrichedCustomer{
		CustomerRecord:     models.CustomerRecord{MasterID: id},
		OrderNumTotal:      orders,
		CustomerValueTotal: value,
		FirstOrderDate:     day(first),
		LastOrderDate:      day(last),
	}
}

var analysis = day("2021-06-03")

func TestBuild(t *testing.T) {
	rows, err := Build([]models.EnrichedCustomer{
		customer("a", 5, 750, "2020-10-30", "2021-02-26"),
	}, analysis)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, "a", r.CustomerID)
	// 119 days → 17 weeks, 216 days → 30 weeks
	assert.Equal(t, 17, r.RecencyWeekly)
	assert.Equal(t, 30, r.TWeekly)
	assert.Equal(t, 5, r.Frequency)
	assert.Equal(t, 150.0, r.MonetaryAverage)
}

func TestBuild_WeeksTruncate(t *testing.T) {
	// 13 days is one week, not two.
	rows, err := Build([]models.EnrichedCustomer{
		customer("a", 2, 10, "2021-05-01", "2021-05-14"),
	}, day("2021-05-20"))
	require.NoError(t, err)
	assert.Equal(t, 1, rows[0].RecencyWeekly)
	assert.Equal(t, 2, rows[0].TWeekly)
}

func TestBuild_DropsSinglePurchase(t *testing.T) {
	in := []models.EnrichedCustomer{
		customer("a", 3, 90, "2020-01-01", "2021-01-01"),
		customer("b", 1, 40, "2020-01-01", "2020-01-01"),
		customer("c", 2, 60, "2020-06-01", "2021-03-01"),
	}
	rows, err := Build(in, analysis)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].CustomerID)
	assert.Equal(t, "c", rows[1].CustomerID)

	in[2].OrderNumTotal = 1
	rows, err = Build(in, analysis)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestBuild_ZeroLengthRange(t *testing.T) {
	rows, err := Build([]models.EnrichedCustomer{
		customer("a", 2, 100, "2021-03-10", "2021-03-10"),
	}, analysis)
	require.NoError(t, err)
	assert.Equal(t, 0, rows[0].RecencyWeekly)
}

func TestBuild_Invariants(t *testing.T) {
	in := []models.EnrichedCustomer{
		customer("a", 3, 90, "2017-02-08", "2021-02-16"),
		customer("b", 7, 700, "2019-11-27", "2021-05-30"),
		customer("c", 2, 60, "2021-05-29", "2021-05-30"),
		customer("d", 4, 120, "2020-12-31", "2021-01-06"),
	}
	rows, err := Build(in, analysis)
	require.NoError(t, err)
	for _, r := range rows {
		assert.Greater(t, r.Frequency, 1)
		assert.GreaterOrEqual(t, r.RecencyWeekly, 0)
		assert.GreaterOrEqual(t, r.TWeekly, r.RecencyWeekly)
	}

	again, err := Build(in, analysis)
	require.NoError(t, err)
	assert.Equal(t, rows, again)
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build(nil, analysis)
	assert.ErrorIs(t, err, models.ErrInput)

	_, err = Build([]models.EnrichedCustomer{customer("a", 1, 10, "2021-01-01", "2021-01-01")}, analysis)
	assert.ErrorIs(t, err, models.ErrInput)

	_, err = Build([]models.EnrichedCustomer{customer("a", 2, 10, "2021-02-01", "2021-01-01")}, analysis)
	assert.ErrorIs(t, err, models.ErrInput)

	_, err = Build([]models.EnrichedCustomer{customer("a", 2, 10, "2021-01-01", "2021-07-01")}, analysis)
	assert.ErrorIs(t, err, models.ErrInput)

	_, err = Build([]models.EnrichedCustomer{customer("a", 2, 10, "2021-01-01", "2021-02-01")}, time.Time{})
	assert.ErrorIs(t, err, models.ErrInput)
}

func TestDefaultAnalysisDate(t *testing.T) {
	d, err := DefaultAnalysisDate([]models.EnrichedCustomer{
		customer("a", 2, 10, "2021-01-01", "2021-05-30"),
		customer("b", 2, 10, "2021-01-01", "2021-04-01"),
	})
	require.NoError(t, err)
	assert.Equal(t, day("2021-06-01"), d)
}

func TestWeeks(t *testing.T) {
	base := day("2021-01-01")
	assert.Equal(t, 0, Weeks(base, base.Add(6*24*time.Hour)))
	assert.Equal(t, 1, Weeks(base, base.Add(7*24*time.Hour)))
	assert.Equal(t, 0, Weeks(base, base.Add(7*24*time.Hour-time.Minute)))
	assert.Equal(t, -1, Weeks(base, base.Add(-24*time.Hour)))
}
