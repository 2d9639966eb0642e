// Package loader reads raw customer records into the in-memory table.
package loader

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"cltv-segments/pkg/models"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// LoadCSV reads the customer table from a CSV file.
func LoadCSV(path string) (*models.Table, error) {
	df, err := LoadFrame(path)
	if err != nil {
		return nil, err
	}
	return FromDataFrame(df)
}

// LoadFrame reads a CSV file into a string-typed data frame.
func LoadFrame(path string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, models.InputErrorf("open %s: %v", path, err)
	}
	defer f.Close()
	return ReadFrame(f)
}

// ReadCSV reads the customer table from r. Every column is read as a string;
// typing happens in FromDataFrame so that bad values surface with their
// column and row.
func ReadCSV(r io.Reader) (*models.Table, error) {
	df, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	return FromDataFrame(df)
}

// ReadFrame reads CSV from r into a string-typed data frame.
func ReadFrame(r io.Reader) (dataframe.DataFrame, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return df, models.InputErrorf("read csv: %v", df.Err)
	}
	return df, nil
}

// FromRecords builds the table from a header row followed by data rows.
func FromRecords(records [][]string) (*models.Table, error) {
	df, err := FrameFromRecords(records)
	if err != nil {
		return nil, err
	}
	return FromDataFrame(df)
}

// FrameFromRecords loads a header row followed by data rows into a
// string-typed data frame.
func FrameFromRecords(records [][]string) (dataframe.DataFrame, error) {
	if len(records) < 2 {
		return dataframe.DataFrame{}, models.InputErrorf("empty dataset")
	}
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return df, models.InputErrorf("load records: %v", df.Err)
	}
	return df, nil
}

// MissingCount is the number of empty or NaN cells of one column.
type MissingCount struct {
	Column  string
	Missing int
}

// MissingCounts counts empty cells per column, in frame order.
func MissingCounts(df dataframe.DataFrame) []MissingCount {
	out := make([]MissingCount, 0, df.Ncol())
	for _, name := range df.Names() {
		n := 0
		for _, v := range df.Col(name).Records() {
			if v := strings.TrimSpace(v); v == "" || v == "NaN" {
				n++
			}
		}
		out = append(out, MissingCount{Column: name, Missing: n})
	}
	return out
}

// FromDataFrame converts a string-typed data frame into the customer table.
func FromDataFrame(df dataframe.DataFrame) (*models.Table, error) {
	names := df.Names()
	if err := checkColumns(names); err != nil {
		return nil, err
	}
	n := df.Nrow()
	if n == 0 {
		return nil, models.InputErrorf("empty dataset")
	}

	cols := make(map[string][]string, len(names))
	for _, name := range names {
		cols[name] = df.Col(name).Records()
	}
	text := func(col string, i int) string {
		if v, ok := cols[col]; ok {
			return strings.TrimSpace(v[i])
		}
		return ""
	}

	var dateCols []string
	for _, name := range names {
		if strings.Contains(name, "date") {
			dateCols = append(dateCols, name)
		}
	}

	out := &models.Table{
		Columns: names,
		Records: make([]models.CustomerRecord, n),
	}
	for i := 0; i < n; i++ {
		rec := models.CustomerRecord{
			MasterID:         text(models.ColMasterID, i),
			OrderChannel:     text(models.ColOrderChannel, i),
			LastOrderChannel: text(models.ColLastOrderChannel, i),
			InterestedIn:     text(models.ColInterestedInCategories, i),
			RawDates:         make(map[string]string, len(dateCols)),
		}
		if rec.MasterID == "" {
			return nil, models.InputErrorf("row %d: empty %s", i+1, models.ColMasterID)
		}
		for _, col := range models.SuppressedColumns {
			v, err := parseAmount(text(col, i))
			if err != nil {
				return nil, models.InputErrorf("row %d column %s: %v", i+1, col, err)
			}
			*rec.Numeric(col) = v
		}
		for _, col := range dateCols {
			rec.RawDates[col] = text(col, i)
		}
		out.Records[i] = rec
	}
	return out, nil
}

func checkColumns(names []string) error {
	have := make(map[string]bool, len(names))
	for _, n := range names {
		have[n] = true
	}
	var missing []string
	for _, want := range models.RequiredColumns {
		if !have[want] {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return models.InputErrorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

func parseAmount(s string) (float64, error) {
	if s == "" || s == "NaN" {
		return 0, fmt.Errorf("missing value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative value %v", v)
	}
	return v, nil
}
