// Package report exports the scored table and renders the console report.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cltv-segments/pkg/models"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// Format is an export file format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatParquet Format = "parquet"
)

// ParseFormat maps a configured name to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatParquet:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// TimestampedFilename returns baseDir/name_YYYYMMDD_HHMMSS.ext.
func TimestampedFilename(baseDir, name string, f Format, now time.Time) string {
	return filepath.Join(baseDir, fmt.Sprintf("%s_%s.%s", name, now.Format("20060102_150405"), f))
}

// Export writes res to a timestamped file in dir and returns its path.
func Export(dir string, f Format, res *models.Result, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create folder: %w", err)
	}
	path := TimestampedFilename(dir, "cltv_segments", f, now)

	var err error
	switch f {
	case FormatCSV:
		err = writeFile(path, func(w io.Writer) error { return WriteCSV(w, res.Rows) })
	case FormatJSON:
		err = writeFile(path, func(w io.Writer) error { return WriteJSON(w, res) })
	case FormatParquet:
		err = WriteParquet(path, res.Rows)
	default:
		err = fmt.Errorf("unknown export format %q", f)
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := fn(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// CSVHeader is the column order of the CSV export.
var CSVHeader = []string{
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

// WriteCSV writes the scored rows with a header line.
func WriteCSV(w io.Writer, rows []models.ScoredRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	ff := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for _, r := range rows {
		rec := []string{
			r.CustomerID,
			strconv.Itoa(r.RecencyWeekly),
			strconv.Itoa(r.TWeekly),
			strconv.Itoa(r.Frequency),
			ff(r.MonetaryAverage),
			ff(r.ExpectedSales3Month),
			ff(r.ExpectedSales6Month),
			ff(r.ExpAverageValue),
			ff(r.ProbAlive),
			ff(r.CLV),
			ff(r.ScaledCLV),
			string(r.Segment),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the whole result, parameters included.
func WriteJSON(w io.Writer, res *models.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

type parquetRow struct {
	CustomerID          string  `parquet:"name=customer_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	RecencyWeekly       int32   `parquet:"name=recency_cltv_weekly, type=INT32"`
	TWeekly             int32   `parquet:"name=T_weekly, type=INT32"`
	Frequency           int32   `parquet:"name=frequency, type=INT32"`
	MonetaryAverage     float64 `parquet:"name=monetary_cltv_avg, type=DOUBLE"`
	ExpectedSales3Month float64 `parquet:"name=expected_sales_3_month, type=DOUBLE"`
	ExpectedSales6Month float64 `parquet:"name=expected_sales_6_month, type=DOUBLE"`
	ExpAverageValue     float64 `parquet:"name=exp_average_value, type=DOUBLE"`
	ProbAlive           float64 `parquet:"name=prob_alive, type=DOUBLE"`
	CLV                 float64 `parquet:"name=clv, type=DOUBLE"`
	ScaledCLV           float64 `parquet:"name=scaled_clv, type=DOUBLE"`
	Segment             string  `parquet:"name=segment, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// WriteParquet writes the scored rows as a snappy-compressed parquet file.
func WriteParquet(path string, rows []models.ScoredRow) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(parquetRow), 4)
	if err != nil {
		return fmt.Errorf("parquet writer: %w", err)
	}
	pw.RowGroupSize = 128 * 1024 * 1024
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, r := range rows {
		row := parquetRow{
			CustomerID:          r.CustomerID,
			RecencyWeekly:       int32(r.RecencyWeekly),
			TWeekly:             int32(r.TWeekly),
			Frequency:           int32(r.Frequency),
			MonetaryAverage:     r.MonetaryAverage,
			ExpectedSales3Month: r.ExpectedSales3Month,
			ExpectedSales6Month: r.ExpectedSales6Month,
			ExpAverageValue:     r.ExpAverageValue,
			ProbAlive:           r.ProbAlive,
			CLV:                 r.CLV,
			ScaledCLV:           r.ScaledCLV,
			Segment:             string(r.Segment),
		}
		if err := pw.Write(row); err != nil {
			return fmt.Errorf("parquet write %s: %w", r.CustomerID, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("parquet flush: %w", err)
	}
	return nil
}
