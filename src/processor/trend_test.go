package processor

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"FlightInsights/src/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var englishShort = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

func TestBuildTrendOrdersMonthsRegardlessOfRowOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 5; round++ {
		months := append([]string(nil), englishShort...)
		rng.Shuffle(len(months), func(i, j int) { months[i], months[j] = months[j], months[i] })

		trend, err := BuildTrend(load(t, schema.TemporalTrend, trendRecords(months)))
		require.NoError(t, err)
		require.Len(t, trend.Months, 12)
		assert.Equal(t, MonthLabels, trend.Months)

		for m := 1; m <= 12; m++ {
			total := float64(400000 + m*1000)
			assert.Equal(t, total/1000, trend.VolumeThousands[m-1].V)
			assert.Equal(t, float64(m)+0.5, trend.AvgDelay[m-1].V)
			assert.Equal(t, float64(70+m), trend.OnTimeRate[m-1].V)
		}
	}
}

func TestBuildTrendMissingMonth(t *testing.T) {
	_, err := BuildTrend(load(t, schema.TemporalTrend, trendRecords(englishShort[:11])))
	var ie *schema.DataIntegrityError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, schema.TemporalTrend, ie.Dataset)
	assert.Equal(t, "month_name", ie.Column)
	assert.Contains(t, ie.Reason, "month 12 missing")
}

func TestBuildTrendDuplicateAndUnknownMonth(t *testing.T) {
	dup := append(append([]string(nil), englishShort...), "January")
	_, err := BuildTrend(load(t, schema.TemporalTrend, trendRecords(dup)))
	var ie *schema.DataIntegrityError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, 12, ie.Row)

	records := trendRecords(englishShort)
	records[3][0] = "Smarch"
	_, err = BuildTrend(load(t, schema.TemporalTrend, records))
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, 2, ie.Row)
}

func TestBuildTrendValueChecks(t *testing.T) {
	records := trendRecords(englishShort)
	records[5][2] = "-1"
	_, err := BuildTrend(load(t, schema.TemporalTrend, records))
	var ie *schema.DataIntegrityError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "total_flights", ie.Column)

	records = trendRecords(englishShort)
	records[5][3] = "100.5"
	_, err = BuildTrend(load(t, schema.TemporalTrend, records))
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "on_time_rate", ie.Column)
}

func TestBuildTrendGapsForMissingCells(t *testing.T) {
	records := trendRecords(englishShort)
	records[2][1] = "NA" // Feb
	records[2][2] = ""
	trend, err := BuildTrend(load(t, schema.TemporalTrend, records))
	require.NoError(t, err)
	assert.False(t, trend.AvgDelay[1].Valid)
	assert.False(t, trend.VolumeThousands[1].Valid)
	assert.True(t, trend.OnTimeRate[1].Valid)

	data, err := json.Marshal(trend.AvgDelay[:2])
	require.NoError(t, err)
	assert.JSONEq(t, `[1.5, null]`, string(data))
}

func TestParseMonth(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"1", 1, true},
		{"09", 9, true},
		{"13", 13, false},
		{"January", 1, true},
		{"sept.", 9, true},
		{"Março", 3, true},
		{"fev", 2, true},
		{"Dezembro", 12, true},
		{"OUT", 10, true},
		{"winter", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseMonth(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}
