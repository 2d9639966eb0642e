package models

import (
	"time"
)

/*
LOAD → raw customer records as read from the CSV file or the SQL table.
*/

// Column names of the raw customer table. They are load-bearing: the loader
// refuses input that does not carry the required ones.
const (
	ColMasterID               = "master_id"
	ColOrderChannel           = "order_channel"
	ColLastOrderChannel       = "last_order_channel"
	ColFirstOrderDate         = "first_order_date"
	ColLastOrderDate          = "last_order_date"
	ColLastOrderDateOnline    = "last_order_date_online"
	ColLastOrderDateOffline   = "last_order_date_offline"
	ColOrderNumOnline         = "order_num_total_ever_online"
	ColOrderNumOffline        = "order_num_total_ever_offline"
	ColCustomerValueOffline   = "customer_value_total_ever_offline"
	ColCustomerValueOnline    = "customer_value_total_ever_online"
	ColInterestedInCategories = "interested_in_categories_12"

	ColOrderNumTotal      = "order_num_total"
	ColCustomerValueTotal = "customer_value_total"
)

// RequiredColumns are the columns the pipeline computes with.
var RequiredColumns = []string{
	ColMasterID,
	ColFirstOrderDate,
	ColLastOrderDate,
	ColLastOrderDateOnline,
	ColLastOrderDateOffline,
	ColOrderNumOnline,
	ColOrderNumOffline,
	ColCustomerValueOffline,
	ColCustomerValueOnline,
}

// SuppressedColumns are winsorized, in this order, before feature derivation.
var SuppressedColumns = []string{
	ColOrderNumOnline,
	ColOrderNumOffline,
	ColCustomerValueOffline,
	ColCustomerValueOnline,
}

// CustomerRecord is one raw row of the customer table. Numeric columns are
// clipped in place by the outlier suppressor; everything else is immutable.
type CustomerRecord struct {
	MasterID         string
	OrderChannel     string
	LastOrderChannel string
	InterestedIn     string
	OrderNumOnline   float64
	OrderNumOffline  float64
	ValueOffline     float64
	ValueOnline      float64

	// Date columns keyed by header name, as read.
	RawDates map[string]string
}

// Table is the in-memory customer table handed between the first stages.
type Table struct {
	Columns []string
	Records []CustomerRecord
}

// Len returns the number of records.
func (t *Table) Len() int { return len(t.Records) }

// Numeric returns a pointer to the named numeric column of r, or nil when the
// column is not numeric.
func (r *CustomerRecord) Numeric(col string) *float64 {
	switch col {
	case ColOrderNumOnline:
		return &r.OrderNumOnline
	case ColOrderNumOffline:
		return &r.OrderNumOffline
	case ColCustomerValueOffline:
		return &r.ValueOffline
	case ColCustomerValueOnline:
		return &r.ValueOnline
	}
	return nil
}

/*
DERIVE → enriched customer with omnichannel totals and parsed dates.
*/

// EnrichedCustomer is a CustomerRecord after feature derivation.
type EnrichedCustomer struct {
	CustomerRecord

	OrderNumTotal      float64
	CustomerValueTotal float64

	FirstOrderDate       time.Time
	LastOrderDate        time.Time
	LastOrderDateOnline  time.Time
	LastOrderDateOffline time.Time

	// Dates holds every parsed column whose header contains "date".
	Dates map[string]time.Time
}

/*
COMPUTE → CLTV feature rows, fitted parameters and the scored table.
*/

// FeatureRow holds the per-customer inputs of both probabilistic models.
type FeatureRow struct {
	CustomerID      string  `json:"customer_id"`
	RecencyWeekly   int     `json:"recency_cltv_weekly"`
	TWeekly         int     `json:"T_weekly"`
	Frequency       int     `json:"frequency"`
	MonetaryAverage float64 `json:"monetary_cltv_avg"`
}

// Segment is a CLTV quartile label. A is the highest-value quartile.
type Segment string

const (
	SegmentA Segment = "A"
	SegmentB Segment = "B"
	SegmentC Segment = "C"
	SegmentD Segment = "D"
)

// SegmentLabels lists labels in ascending value order, as assigned to bins.
var SegmentLabels = []Segment{SegmentD, SegmentC, SegmentB, SegmentA}

// ScoredRow is a FeatureRow with its predictions and segment.
type ScoredRow struct {
	FeatureRow

	ExpectedSales3Month float64 `json:"expected_sales_3_month"`
	ExpectedSales6Month float64 `json:"expected_sales_6_month"`
	ExpAverageValue     float64 `json:"exp_average_value"`
	ProbAlive           float64 `json:"prob_alive"`
	CLV                 float64 `json:"clv"`
	ScaledCLV           float64 `json:"scaled_clv"`
	Segment             Segment `json:"segment"`
}

// BetaGeoParams are the fitted BG/NBD parameters.
type BetaGeoParams struct {
	R     float64 `json:"r"`
	Alpha float64 `json:"alpha"`
	A     float64 `json:"a"`
	B     float64 `json:"b"`
}

// GammaGammaParams are the fitted Gamma-Gamma parameters.
type GammaGammaParams struct {
	P float64 `json:"p"`
	Q float64 `json:"q"`
	V float64 `json:"v"`
}

// SegmentSummary aggregates CLV per segment.
type SegmentSummary struct {
	Segment Segment `json:"segment"`
	Count   int     `json:"count"`
	Mean    float64 `json:"mean"`
	Sum     float64 `json:"sum"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// Result is the terminal artifact of one pipeline run.
type Result struct {
	RunID        string                `json:"run_id"`
	AnalysisDate time.Time             `json:"analysis_date"`
	Customers    int                   `json:"customers_loaded"`
	Rows         []ScoredRow           `json:"rows"`
	BetaGeo      BetaGeoParams         `json:"bg_nbd"`
	GammaGamma   GammaGammaParams      `json:"gamma_gamma"`
	Correlation  float64               `json:"frequency_monetary_corr"`
	AverageSpend *float64              `json:"population_average_spend,omitempty"` // nil when q <= 1
	Segments     []SegmentSummary      `json:"segments"`
	Thresholds   map[string][2]float64 `json:"outlier_thresholds"`
}

/*
CONFIG → run parameters
*/

// ModelConfig holds the model and prediction constants.
type ModelConfig struct {
	BetaGeoPenalizer    float64
	GammaGammaPenalizer float64
	ShortHorizonMonths  int
	LongHorizonMonths   int
	CLVMonths           int
	DiscountRate        float64
}

// Config holds the parameters passed to the calculator.
type Config struct {
	AnalysisDate time.Time // zero → latest last_order_date + 2 days
	Model        ModelConfig
	Progress     bool // render the stage progress bar
	Verbose      bool
}

// DefaultModelConfig reproduces the constants of the reference analysis.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		BetaGeoPenalizer:    0.001,
		GammaGammaPenalizer: 0.01,
		ShortHorizonMonths:  3,
		LongHorizonMonths:   6,
		CLVMonths:           6,
		DiscountRate:        0.01,
	}
}
