// data.go
package processor

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"FlightInsights/src/dataset"
	"FlightInsights/src/schema"
)

// Headline 页面顶部的汇总指标，由报表数据推导
type Headline struct {
	TotalFlights int64 `json:"total_flights"`
	Airlines     int   `json:"airlines"`
	OnTimeRate   Value `json:"on_time_rate"` // 百分比
	AvgDelay     Value `json:"avg_delay"`    // 分钟，按航班量加权
	Routes       int   `json:"routes"`
	Problems     int64 `json:"problems"`
}

// BuildHeadline 参数依次为 airline_ranking / critical_routes / monthly_seasonality / cause_breakdown
func BuildHeadline(ranking, routes, seasonality, breakdown *dataset.Dataset) Headline {
	h := Headline{
		Airlines: ranking.Len(),
		Routes:   routes.Len(),
	}

	volume := seasonality.Floats("volume")
	onTime := seasonality.Floats("on_time_count")
	delay := seasonality.Floats("avg_delay")

	var onTimeSum, onTimeBase, delaySum, delayBase float64
	for i, v := range volume {
		if dataset.Missing(v) {
			continue
		}
		h.TotalFlights += int64(v)
		if !dataset.Missing(onTime[i]) {
			onTimeSum += onTime[i]
			onTimeBase += v
		}
		if !dataset.Missing(delay[i]) {
			delaySum += delay[i] * v
			delayBase += v
		}
	}
	if onTimeBase > 0 {
		h.OnTimeRate = NewValue(onTimeSum / onTimeBase * 100)
	}
	if delayBase > 0 {
		h.AvgDelay = NewValue(delaySum / delayBase)
	}

	for _, n := range breakdown.Floats("occurrences") {
		if !dataset.Missing(n) {
			h.Problems += int64(n)
		}
	}
	return h
}

// Table 报表的展示形式：列名 + 字符串行
type Table struct {
	Dataset schema.DatasetID `json:"dataset"`
	Title   string           `json:"title"`
	Columns []string         `json:"columns"`
	Rows    [][]string       `json:"rows"`
}

// BuildTable 按列类型格式化单元格；列表、映射列展开为可读文本
func BuildTable(ds *dataset.Dataset) Table {
	sch := ds.Schema()
	t := Table{
		Dataset: ds.ID(),
		Title:   sch.Title,
		Columns: ds.Columns(),
		Rows:    make([][]string, ds.Len()),
	}
	for i := range t.Rows {
		t.Rows[i] = make([]string, len(t.Columns))
	}

	for j, name := range t.Columns {
		col, declared := sch.Column(name)
		if !declared {
			col = schema.Column{Name: name, Type: schema.String}
		}
		for i, cell := range formatColumn(ds, col) {
			t.Rows[i][j] = cell
		}
	}
	return t
}

func formatColumn(ds *dataset.Dataset, col schema.Column) []string {
	switch col.Type {
	case schema.Integer, schema.Float:
		vals := ds.Floats(col.Name)
		out := make([]string, len(vals))
		for i, v := range vals {
			switch {
			case dataset.Missing(v):
				out[i] = ""
			case col.Type == schema.Integer:
				out[i] = strconv.FormatFloat(v, 'f', 0, 64)
			default:
				out[i] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
		return out
	case schema.List:
		out := make([]string, ds.Len())
		for i := range out {
			out[i] = strings.Join(ds.List(col.Name, i), ", ")
		}
		return out
	case schema.Map:
		out := make([]string, ds.Len())
		raw := ds.Strings(col.Name)
		for i := range out {
			m, ok := ds.Map(col.Name, i)
			if !ok {
				out[i] = raw[i]
				continue
			}
			out[i] = formatMap(m)
		}
		return out
	default:
		return ds.Strings(col.Name)
	}
}

// formatMap 按键排序："carrier: 5; weather: 10"
func formatMap(m map[string]float64) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, strconv.FormatFloat(m[k], 'f', -1, 64))
	}
	return strings.Join(parts, "; ")
}
