package processor

import (
	"fmt"
	"math"
	"strings"

	"FlightInsights/src/dataset"
	"FlightInsights/src/schema"
)

// Matrix 日 x 小时 热力图，行固定为 Monday..Sunday，列为 00:00..23:00
type Matrix struct {
	Dataset  schema.DatasetID `json:"dataset"`
	Days     []string         `json:"days"`
	Hours    []string         `json:"hours"`
	Cells    [][]Value        `json:"cells"`
	Min      Value            `json:"min"`
	Max      Value            `json:"max"`
	Warnings []string         `json:"warnings,omitempty"`
}

// HourLabels "00:00".."23:00"
func HourLabels() []string {
	labels := make([]string, 24)
	for h := range labels {
		labels[h] = fmt.Sprintf("%02d:00", h)
	}
	return labels
}

var dayNames = map[string]int{}

func init() {
	portuguese := []string{"segunda", "terca", "quarta", "quinta", "sexta", "sabado", "domingo"}
	for i, d := range schema.Weekdays {
		en := strings.ToLower(d)
		dayNames[en] = i
		dayNames[en[:3]] = i
		dayNames[portuguese[i]] = i
		dayNames[portuguese[i][:3]] = i
		if i < 5 {
			dayNames[portuguese[i]+"-feira"] = i
		}
	}
	dayNames["tues"] = 1
	dayNames["thur"] = 3
	dayNames["thurs"] = 3
}

// weekdayIndex 接受英文或葡萄牙文全称/缩写("Mon"、"Seg"、"terça-feira")
func weekdayIndex(name string) (int, bool) {
	s := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(name), "."))
	i, ok := dayNames[foldAccents(s)]
	return i, ok
}

// BuildMatrix 适用于 delay_matrix 与 volume_matrix
// 缺少的星期整行为无数据；重复或未知的星期名报 DataIntegrityError
func BuildMatrix(ds *dataset.Dataset) (*Matrix, error) {
	hours := schema.HourColumns()
	cols := make([][]float64, len(hours))
	for h, name := range hours {
		cols[h] = ds.Floats(name)
	}

	m := &Matrix{
		Dataset: ds.ID(),
		Days:    append([]string(nil), schema.Weekdays...),
		Hours:   HourLabels(),
		Cells:   make([][]Value, len(schema.Weekdays)),
	}
	for d := range m.Cells {
		m.Cells[d] = make([]Value, len(hours))
	}

	seen := make(map[int]int, len(schema.Weekdays))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, day := range ds.Strings("day_name") {
		d, ok := weekdayIndex(day)
		if !ok {
			return nil, integrity(ds, "day_name", i, "unknown day %q", day)
		}
		if prev, dup := seen[d]; dup {
			return nil, integrity(ds, "day_name", i, "%s already given in row %d", schema.Weekdays[d], prev)
		}
		seen[d] = i

		for h := range hours {
			v := NewValue(cols[h][i])
			m.Cells[d][h] = v
			if v.Valid {
				lo = math.Min(lo, v.V)
				hi = math.Max(hi, v.V)
			}
		}
	}
	if !math.IsInf(lo, 1) {
		m.Min = NewValue(lo)
		m.Max = NewValue(hi)
	}

	for _, w := range ds.Warnings() {
		m.Warnings = append(m.Warnings, w.String())
	}
	return m, nil
}
