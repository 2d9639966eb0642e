package prep

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"cltv-segments/pkg/models"

	"github.com/shopspring/decimal"
)

// dateLayouts are tried in order when parsing date columns.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
}

// ParseDate parses a date column value in UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, models.ParseErrorf("unparseable date %q", s)
}

// Derive adds the omnichannel totals and converts every date column to a
// timestamp. The input table is not modified. Any unparseable date aborts
// derivation.
func Derive(table *models.Table) ([]models.EnrichedCustomer, error) {
	if table == nil || table.Len() == 0 {
		return nil, models.InputErrorf("derive: empty dataset")
	}
	dateCols := dateColumns(table)
	out := make([]models.EnrichedCustomer, 0, table.Len())
	for i, rec := range table.Records {
		e := models.EnrichedCustomer{
			CustomerRecord:     rec,
			OrderNumTotal:      rec.OrderNumOnline + rec.OrderNumOffline,
			CustomerValueTotal: sumMoney(rec.ValueOnline, rec.ValueOffline),
			Dates:              make(map[string]time.Time, len(rec.RawDates)),
		}
		for _, col := range dateCols {
			raw, ok := rec.RawDates[col]
			if !ok {
				return nil, models.InputErrorf("row %d (%s): missing column %s", i+1, rec.MasterID, col)
			}
			t, err := ParseDate(raw)
			if err != nil {
				return nil, fmt.Errorf("row %d (%s) column %s: %w", i+1, rec.MasterID, col, err)
			}
			e.Dates[col] = t
		}
		e.FirstOrderDate = e.Dates[models.ColFirstOrderDate]
		e.LastOrderDate = e.Dates[models.ColLastOrderDate]
		e.LastOrderDateOnline = e.Dates[models.ColLastOrderDateOnline]
		e.LastOrderDateOffline = e.Dates[models.ColLastOrderDateOffline]
		out = append(out, e)
	}
	return out, nil
}

// dateColumns lists the columns whose name contains "date", in table order.
func dateColumns(table *models.Table) []string {
	var cols []string
	for _, c := range table.Columns {
		if strings.Contains(c, "date") {
			cols = append(cols, c)
		}
	}
	if len(cols) == 0 {
		for c := range table.Records[0].RawDates {
			cols = append(cols, c)
		}
		sort.Strings(cols)
	}
	return cols
}

func sumMoney(a, b float64) float64 {
	f, _ := decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).Float64()
	return f
}
