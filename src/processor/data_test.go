package processor

import (
	"testing"

	"FlightInsights/src/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildHeadline(t *testing.T) {
	ranking := load(t, schema.AirlineRanking, [][]string{
		{"airline_code", "airline_name", "performance_score", "on_time_rate", "avg_delay", "cancel_rate"},
		{"AS", "Alaska Airlines", "98.2", "86.1", "-0.9", "0.4"},
		{"DL", "Delta Air Lines", "95.0", "85.0", "0.2", "0.4"},
		{"NK", "Spirit", "40.1", "70.4", "14.5", "1.7"},
	})
	routes := load(t, schema.CriticalRoutes, [][]string{
		{"origin", "destination", "score", "volume", "avg_delay", "cancel_rate", "distance", "airlines"},
		{"ASE", "DFW", "282.06", "1204", "31.2", "16.7", "802", "AA, MQ"},
		{"ORD", "LGA", "250.00", "8000", "20.0", "5.0", "733", "AA; UA"},
	})
	seasonality := load(t, schema.MonthlySeasonality, [][]string{
		{"month", "volume", "on_time_count", "delayed_count", "cancelled_count", "avg_delay", "causes"},
		{"January", "1000", "800", "150", "50", "10", "{}"},
		{"February", "3000", "2100", "800", "100", "2", "{}"},
		{"March", "n.d.", "1", "1", "1", "99", "{}"},
	})
	breakdown := load(t, schema.CauseBreakdown, [][]string{
		{"cause_code", "category", "occurrences", "pct", "avg_impact_minutes"},
		{"A", "Carrier", "300", "30", "12"},
		{"B", "Weather", "700", "70", "40"},
	})

	h := BuildHeadline(ranking, routes, seasonality, breakdown)
	assert.Equal(t, int64(4000), h.TotalFlights)
	assert.Equal(t, 3, h.Airlines)
	assert.Equal(t, 2, h.Routes)
	assert.Equal(t, int64(1000), h.Problems)
	require.True(t, h.OnTimeRate.Valid)
	assert.InDelta(t, 72.5, h.OnTimeRate.V, 1e-9)
	require.True(t, h.AvgDelay.Valid)
	assert.InDelta(t, 4.0, h.AvgDelay.V, 1e-9)
}

func TestBuildTableFormatsCells(t *testing.T) {
	routes := load(t, schema.CriticalRoutes, [][]string{
		{"origin", "destination", "score", "volume", "avg_delay", "cancel_rate", "distance", "airlines", "rank"},
		{"ASE", "DFW", "282.06", "1,204", "31.2", "NA", "802", "['AA', 'MQ']", "1"},
	})
	table := BuildTable(routes)
	assert.Equal(t, schema.CriticalRoutes, table.Dataset)
	assert.Equal(t, "Rotas Críticas", table.Title)
	assert.Equal(t, []string{"origin", "destination", "score", "volume", "avg_delay", "cancel_rate", "distance", "airlines", "rank"}, table.Columns)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, []string{"ASE", "DFW", "282.06", "1204", "31.2", "", "802", "AA, MQ", "1"}, table.Rows[0])

	seasonality := load(t, schema.MonthlySeasonality, [][]string{
		{"month", "volume", "on_time_count", "delayed_count", "cancelled_count", "avg_delay", "causes"},
		{"January", "1000", "800", "150", "50", "10.5", "{'weather': 10, 'carrier': 5.5}"},
		{"February", "1000", "800", "150", "50", "10.5", "???"},
	})
	table = BuildTable(seasonality)
	assert.Equal(t, "carrier: 5.5; weather: 10", table.Rows[0][6])
	assert.Equal(t, "???", table.Rows[1][6])
}
