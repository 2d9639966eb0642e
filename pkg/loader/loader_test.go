package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cltv-segments/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "master_id,order_channel,last_order_channel,first_order_date,last_order_date,last_order_date_online,last_order_date_offline,order_num_total_ever_online,order_num_total_ever_offline,customer_value_total_ever_offline,customer_value_total_ever_online,interested_in_categories_12\n"

func TestReadCSV(t *testing.T) {
	data := header +
		`cc294636,Android App,Offline,2020-10-30,2021-02-26,2021-02-21,2021-02-26,4.0,1.0,139.99,799.38,[KADIN]` + "\n" +
		`f431bd5a,Android App,Mobile,2017-02-08,2021-02-16,2021-02-16,2020-01-10,19.0,2.0,159.97,1853.58,"[ERKEK, COCUK, KADIN, AKTIFSPOR]"` + "\n"

	table, err := ReadCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	first := table.Records[0]
	assert.Equal(t, "cc294636", first.MasterID)
	assert.Equal(t, "Android App", first.OrderChannel)
	assert.Equal(t, 4.0, first.OrderNumOnline)
	assert.Equal(t, 1.0, first.OrderNumOffline)
	assert.Equal(t, 139.99, first.ValueOffline)
	assert.Equal(t, 799.38, first.ValueOnline)
	assert.Equal(t, "2020-10-30", first.RawDates[models.ColFirstOrderDate])
	assert.Len(t, first.RawDates, 4)

	assert.Equal(t, "[ERKEK, COCUK, KADIN, AKTIFSPOR]", table.Records[1].InterestedIn)
}

func TestReadCSV_MissingColumn(t *testing.T) {
	data := "master_id,first_order_date\nx,2021-01-01\n"
	_, err := ReadCSV(strings.NewReader(data))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInput)
	assert.Contains(t, err.Error(), models.ColLastOrderDate)
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(header))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInput)
}

func TestReadCSV_BadNumber(t *testing.T) {
	data := header + `a1,Web,Web,2020-10-30,2021-02-26,2021-02-21,2021-02-26,four,1.0,139.99,799.38,[KADIN]` + "\n"
	_, err := ReadCSV(strings.NewReader(data))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInput)
	assert.Contains(t, err.Error(), models.ColOrderNumOnline)
}

func TestFromRecords(t *testing.T) {
	records := [][]string{
		strings.Split(strings.TrimSpace(header), ","),
		{"a1", "Web", "Web", "2020-10-30", "2021-02-26", "2021-02-21", "2021-02-26", "2", "1", "10", "20", "[]"},
	}
	table, err := FromRecords(records)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, 20.0, table.Records[0].ValueOnline)

	_, err = FromRecords(records[:1])
	assert.ErrorIs(t, err, models.ErrInput)
}

func TestLoadCSV_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "customers.csv")
	data := header + `a1,Web,Web,2020-10-30,2021-02-26,2021-02-21,2021-02-26,2,1,10,20,[]` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	table, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, models.ErrInput)
}

func TestMissingCounts(t *testing.T) {
	data := "master_id,first_order_date,order_num_total_ever_online\n" +
		"a,2021-01-01,\n" +
		"b,,NaN\n" +
		"c,2021-01-03,2\n"
	df, err := ReadFrame(strings.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, []MissingCount{
		{Column: "master_id", Missing: 0},
		{Column: "first_order_date", Missing: 1},
		{Column: "order_num_total_ever_online", Missing: 2},
	}, MissingCounts(df))
}
