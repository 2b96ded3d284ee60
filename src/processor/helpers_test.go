package processor

import (
	"fmt"
	"testing"

	"FlightInsights/src/dataset"
	"FlightInsights/src/schema"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, id schema.DatasetID, records [][]string) *dataset.Dataset {
	t.Helper()
	raw := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	ds, err := dataset.FromFrame(id, raw)
	require.NoError(t, err)
	return ds
}

func trendRecords(months []string) [][]string {
	records := [][]string{{"month_name", "avg_arrival_delay", "total_flights", "on_time_rate"}}
	for _, m := range months {
		n, _ := ParseMonth(m)
		records = append(records, []string{
			m,
			fmt.Sprintf("%d.5", n),
			fmt.Sprintf("%d", 400000+n*1000),
			fmt.Sprintf("%d", 70+n),
		})
	}
	return records
}

func causeRecords(rows ...[]string) [][]string {
	return append([][]string{{"cause_name", "percentage", "total_occurrences"}}, rows...)
}

func matrixRecords(days []string, cell func(d, h int) string) [][]string {
	header := append([]string{"day_name"}, schema.HourColumns()...)
	records := [][]string{header}
	for d, day := range days {
		row := []string{day}
		for h := 0; h < 24; h++ {
			row = append(row, cell(d, h))
		}
		records = append(records, row)
	}
	return records
}
