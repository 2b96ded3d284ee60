package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestSheetName(t *testing.T) {
	assert.Equal(t, "a_b_c", SheetName("a/b?c"))
	assert.Len(t, []rune(SheetName("Mapa de Calor: Atrasos por Dia da Semana vs Hora")), 31)
}

func TestWriteSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	err := WriteSheet(f, "causes", []string{"label", "percentage"}, [][]any{
		{"Clima", 10.5},
		{"NAS", nil},
	})
	require.NoError(t, err)

	rows, err := f.GetRows("causes")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"label", "percentage"}, rows[0])
	assert.Equal(t, []string{"Clima", "10.5"}, rows[1])
	assert.Equal(t, []string{"NAS"}, rows[2])

	assert.True(t, Contains([]string{"a", "b"}, "b"))
}
