package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cltv-segments/pkg/models"
)

var scoreColumns = []string{
	"run_id",
	"analysis_date",
	"customer_id",
	"recency_cltv_weekly",
	"T_weekly",
	"frequency",
	"monetary_cltv_avg",
	"expected_sales_3_month",
	"expected_sales_6_month",
	"exp_average_value",
	"prob_alive",
	"clv",
	"scaled_clv",
	"segment",
}

// EnsureScoresTable creates the results table when it does not exist.
func (s *Store) EnsureScoresTable(ctx context.Context, table string) error {
	if !tableName.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		run_id                 VARCHAR(36) NOT NULL,
		analysis_date          DATE NOT NULL,
		customer_id            VARCHAR(64) NOT NULL,
		recency_cltv_weekly    INT NOT NULL,
		T_weekly               INT NOT NULL,
		frequency              INT NOT NULL,
		monetary_cltv_avg      DOUBLE PRECISION NOT NULL,
		expected_sales_3_month DOUBLE PRECISION NOT NULL,
		expected_sales_6_month DOUBLE PRECISION NOT NULL,
		exp_average_value      DOUBLE PRECISION NOT NULL,
		prob_alive             DOUBLE PRECISION NOT NULL,
		clv                    DOUBLE PRECISION NOT NULL,
		scaled_clv             DOUBLE PRECISION NOT NULL,
		segment                CHAR(1) NOT NULL,
		PRIMARY KEY (run_id, customer_id)
	)`, table)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}
	return nil
}

// SaveScores writes the scored rows of one run in a single transaction.
// Nothing is written if any insert fails.
func (s *Store) SaveScores(ctx context.Context, table, runID string, analysisDate time.Time, rows []models.ScoredRow) (int64, error) {
	if !tableName.MatchString(table) {
		return 0, fmt.Errorf("invalid table name %q", table)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, s.insertSQL(table))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	var n int64
	for _, r := range rows {
		res, err := stmt.ExecContext(ctx,
			runID, analysisDate, r.CustomerID,
			r.RecencyWeekly, r.TWeekly, r.Frequency, r.MonetaryAverage,
			r.ExpectedSales3Month, r.ExpectedSales6Month, r.ExpAverageValue,
			r.ProbAlive, r.CLV, r.ScaledCLV, string(r.Segment),
		)
		if err != nil {
			return 0, fmt.Errorf("insert customer %s: %w", r.CustomerID, err)
		}
		if k, err := res.RowsAffected(); err == nil {
			n += k
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

func (s *Store) insertSQL(table string) string {
	ph := make([]string, len(scoreColumns))
	for i := range ph {
		if s.driver == "postgres" {
			ph[i] = fmt.Sprintf("$%d", i+1)
		} else {
			ph[i] = "?"
		}
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(scoreColumns, ", "), strings.Join(ph, ", "))
}
