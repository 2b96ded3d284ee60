package processor

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"FlightInsights/src/dataset"
	"FlightInsights/src/schema"
)

// Value 图表中的数值，Valid=false 表示无数据(JSON 输出 null)
type Value struct {
	V     float64
	Valid bool
}

// NewValue NaN 转为无数据
func NewValue(f float64) Value {
	if dataset.Missing(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{V: f, Valid: true}
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.V)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	if err := json.Unmarshal(data, &v.V); err != nil {
		return err
	}
	v.Valid = true
	return nil
}

// Float 无数据时返回 NaN
func (v Value) Float() float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.V
}

func (v Value) String() string {
	if !v.Valid {
		return "n/d"
	}
	return strconv.FormatFloat(v.V, 'f', -1, 64)
}

// OneDecimal 保留一位小数的展示文本
func OneDecimal(f float64) string {
	if dataset.Missing(f) {
		return "n/d"
	}
	return strconv.FormatFloat(math.Round(f*10)/10, 'f', 1, 64)
}

func integrity(ds *dataset.Dataset, column string, row int, format string, args ...any) error {
	return &schema.DataIntegrityError{
		Dataset: ds.ID(),
		Column:  column,
		Row:     row,
		Reason:  fmt.Sprintf(format, args...),
	}
}
