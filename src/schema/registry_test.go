package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryHasTenDatasets(t *testing.T) {
	ids := IDs()
	require.Len(t, ids, 10)

	seen := make(map[DatasetID]bool)
	files := make(map[string]bool)
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true

		s := Lookup(id)
		assert.Equal(t, id, s.ID)
		assert.NotEmpty(t, s.Columns)
		assert.False(t, files[s.File], "duplicate file %s", s.File)
		files[s.File] = true
	}
}

func TestHourGridShape(t *testing.T) {
	for _, id := range []DatasetID{DelayMatrix, VolumeMatrix} {
		s := Lookup(id)
		assert.True(t, s.HourGrid)
		require.Len(t, s.Columns, 25)
		assert.Equal(t, "day_name", s.Columns[0].Name)
		assert.Equal(t, "00", s.Columns[1].Name)
		assert.Equal(t, "23", s.Columns[24].Name)
		for _, c := range s.Columns[1:] {
			assert.Equal(t, Float, c.Type)
			assert.True(t, c.Nullable)
		}
	}
}

func TestPerformanceCategoryIsClosedEnum(t *testing.T) {
	c, ok := Lookup(AirlineScores).Column("performance_category")
	require.True(t, ok)
	assert.Equal(t, Enum, c.Type)
	assert.Equal(t, []string{"Excelente", "Boa", "Regular", "Ruim"}, c.Values)
}

func TestLookupUnknownPanics(t *testing.T) {
	assert.Panics(t, func() { Lookup("nope") })
	assert.False(t, Known("nope"))
}

func TestLookupReturnsCopy(t *testing.T) {
	s := Lookup(TemporalTrend)
	s.Columns[0].Name = "mutated"
	assert.Equal(t, "month_name", Lookup(TemporalTrend).Columns[0].Name)
}

func TestParse(t *testing.T) {
	id, ok := Parse("  Delay_Matrix ")
	assert.True(t, ok)
	assert.Equal(t, DelayMatrix, id)

	_, ok = Parse("unknown")
	assert.False(t, ok)
}
