package main

import (
	"fmt"

	"cltv-segments/pkg/loader"
	"cltv-segments/pkg/models"
	"cltv-segments/pkg/report"
	"cltv-segments/pkg/stats"

	"github.com/go-gota/gota/dataframe"
	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Summarise the raw customer data (shape, missing values, quantiles)",
	RunE:  runDescribe,
}

func runDescribe(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck
	ctx := cmd.Context()

	var df dataframe.DataFrame
	if cfg.Input.Source == "sql" {
		store, err := openStore(ctx, cfg.Input.DSN, log)
		if err != nil {
			return err
		}
		defer store.Close()
		records, err := store.LoadCustomers(ctx, cfg.Input.Table)
		if err != nil {
			return err
		}
		if df, err = loader.FrameFromRecords(records); err != nil {
			return err
		}
	} else {
		if cfg.Input.Path == "" {
			return fmt.Errorf("input.path is required for csv source")
		}
		if df, err = loader.LoadFrame(cfg.Input.Path); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "shape: %d rows x %d columns\n\nmissing values\n", df.Nrow(), df.Ncol())
	for _, m := range loader.MissingCounts(df) {
		fmt.Fprintf(out, "  %-36s %d\n", m.Column, m.Missing)
	}
	fmt.Fprintln(out)

	table, err := loader.FromDataFrame(df)
	if err != nil {
		return err
	}
	cols := make(map[string][]float64, len(models.SuppressedColumns)+1)
	for _, r := range table.Records {
		for _, col := range models.SuppressedColumns {
			cols[col] = append(cols[col], *r.Numeric(col))
		}
		cols[models.ColOrderNumTotal] = append(cols[models.ColOrderNumTotal], r.OrderNumOnline+r.OrderNumOffline)
	}
	var sums []stats.Summary
	for _, col := range append(append([]string{}, models.SuppressedColumns...), models.ColOrderNumTotal) {
		sums = append(sums, stats.Describe(col, cols[col]))
	}
	if err := report.PrintDescribe(out, sums); err != nil {
		return err
	}
	return report.PrintValueCounts(out, models.ColOrderNumTotal, stats.ValueCounts(cols[models.ColOrderNumTotal]))
}
