package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"cltv-segments/pkg/models"
	"cltv-segments/pkg/stats"
)

// Metric selects a ranking column of the scored table.
type Metric struct {
	Name  string
	Value func(models.ScoredRow) float64
}

// Ranking metrics printed by the run report.
var (
	ByExpectedSales3Month = Metric{"expected_sales_3_month", func(r models.ScoredRow) float64 { return r.ExpectedSales3Month }}
	ByExpectedSales6Month = Metric{"expected_sales_6_month", func(r models.ScoredRow) float64 { return r.ExpectedSales6Month }}
	ByExpAverageValue     = Metric{"exp_average_value", func(r models.ScoredRow) float64 { return r.ExpAverageValue }}
	ByCLV                 = Metric{"clv", func(r models.ScoredRow) float64 { return r.CLV }}
)

// Top returns the n rows with the largest metric, ties kept in input order.
func Top(rows []models.ScoredRow, n int, m Metric) []models.ScoredRow {
	out := make([]models.ScoredRow, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool { return m.Value(out[i]) > m.Value(out[j]) })
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// PrintTop renders the top n customers by m.
func PrintTop(w io.Writer, rows []models.ScoredRow, n int, m Metric) error {
	fmt.Fprintf(w, "\nTop %d customers by %s\n", n, m.Name)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "customer_id\tfrequency\trecency\tT\tmonetary\t"+m.Name+"\tsegment\t")
	for _, r := range Top(rows, n, m) {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.2f\t%.4f\t%s\t\n",
			r.CustomerID, r.Frequency, r.RecencyWeekly, r.TWeekly, r.MonetaryAverage, m.Value(r), r.Segment)
	}
	return tw.Flush()
}

// PrintDescribe renders one line per column summary.
func PrintDescribe(w io.Writer, summaries []stats.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	head := []string{"column", "count", "mean", "std", "min"}
	for _, p := range stats.DescribePercentiles {
		head = append(head, fmt.Sprintf("%.0f%%", p*100))
	}
	head = append(head, "max")
	fmt.Fprintln(tw, strings.Join(head, "\t")+"\t")
	for _, s := range summaries {
		cells := []string{s.Column, fmt.Sprint(s.Count), f2(s.Mean), f2(s.Std), f2(s.Min)}
		for _, v := range s.Percentiles {
			cells = append(cells, f2(v))
		}
		cells = append(cells, f2(s.Max))
		fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
	}
	return tw.Flush()
}

// PrintSegments renders the CLV aggregates per segment.
func PrintSegments(w io.Writer, sums []models.SegmentSummary) error {
	fmt.Fprintln(w, "\nCLV by segment")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "segment\tcount\tmean\tsum\tmin\tmax\t")
	for _, s := range sums {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t\n", s.Segment, s.Count, f2(s.Mean), f2(s.Sum), f2(s.Min), f2(s.Max))
	}
	return tw.Flush()
}

// PrintValueCounts renders the value counts of one column.
func PrintValueCounts(w io.Writer, column string, counts []stats.ValueCount) error {
	fmt.Fprintf(w, "\nValue counts of %s\n", column)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, column+"\tcount\t")
	for _, c := range counts {
		fmt.Fprintf(tw, "%g\t%d\t\n", c.Value, c.Count)
	}
	return tw.Flush()
}

// PrintRun renders the model parameters, rankings and segment summary of a
// finished run.
func PrintRun(w io.Writer, res *models.Result, topN int) error {
	fmt.Fprintf(w, "run %s ; analysis_date=%s ; customers=%d ; scored=%d\n",
		res.RunID, res.AnalysisDate.Format("2006-01-02"), res.Customers, len(res.Rows))
	fmt.Fprintf(w, "BG/NBD r=%.4f alpha=%.4f a=%.4f b=%.4f\n",
		res.BetaGeo.R, res.BetaGeo.Alpha, res.BetaGeo.A, res.BetaGeo.B)
	fmt.Fprintf(w, "Gamma-Gamma p=%.4f q=%.4f v=%.4f ; corr(frequency, monetary)=%.4f\n",
		res.GammaGamma.P, res.GammaGamma.Q, res.GammaGamma.V, res.Correlation)
	if res.AverageSpend != nil {
		fmt.Fprintf(w, "population average spend=%.2f\n", *res.AverageSpend)
	}

	for _, m := range []Metric{ByExpectedSales3Month, ByExpectedSales6Month, ByExpAverageValue, ByCLV} {
		if err := PrintTop(w, res.Rows, topN, m); err != nil {
			return err
		}
	}
	return PrintSegments(w, res.Segments)
}

func f2(v float64) string { return fmt.Sprintf("%.2f", v) }
