package processor

import (
	"strconv"
	"strings"
	"unicode"

	"FlightInsights/src/dataset"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MonthLabels 图表横轴(按月份序号)
var MonthLabels = []string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"}

var monthNames = map[string]int{}

func init() {
	english := []string{"january", "february", "march", "april", "may", "june", "july", "august", "september", "october", "november", "december"}
	portuguese := []string{"janeiro", "fevereiro", "marco", "abril", "maio", "junho", "julho", "agosto", "setembro", "outubro", "novembro", "dezembro"}
	for i := range english {
		for _, name := range []string{english[i], portuguese[i]} {
			monthNames[name] = i + 1
			monthNames[name[:3]] = i + 1
		}
	}
	monthNames["sept"] = 9
}

// foldAccents "Março" -> "marco"
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// ParseMonth 解析月份：序号(1/01)、英文或葡萄牙文全称/缩写
func ParseMonth(raw string) (int, bool) {
	s := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(raw), "."))
	if n, err := strconv.Atoi(s); err == nil {
		return n, n >= 1 && n <= 12
	}
	n, ok := monthNames[foldAccents(s)]
	return n, ok
}

// Trend 月度趋势：三条序列按月份 1..12 对齐
type Trend struct {
	Months          []string `json:"months"`
	AvgDelay        []Value  `json:"avg_delay"`
	VolumeThousands []Value  `json:"volume_thousands"`
	OnTimeRate      []Value  `json:"on_time_rate"`
}

// BuildTrend 把 temporal_trend 转换为按月排序的序列，与输入行顺序无关
func BuildTrend(ds *dataset.Dataset) (*Trend, error) {
	labels := ds.Strings("month_name")
	delay := ds.Floats("avg_arrival_delay")
	flights := ds.Floats("total_flights")
	onTime := ds.Floats("on_time_rate")

	rowOf := make(map[int]int, 12)
	for i, label := range labels {
		m, ok := ParseMonth(label)
		if !ok {
			return nil, integrity(ds, "month_name", i, "unknown month %q", label)
		}
		if prev, dup := rowOf[m]; dup {
			return nil, integrity(ds, "month_name", i, "month %d already given in row %d", m, prev)
		}
		rowOf[m] = i

		if f := flights[i]; !dataset.Missing(f) && f < 0 {
			return nil, integrity(ds, "total_flights", i, "negative flight total %v", f)
		}
		if r := onTime[i]; !dataset.Missing(r) && (r < 0 || r > 100) {
			return nil, integrity(ds, "on_time_rate", i, "rate %v outside [0,100]", r)
		}
	}

	t := &Trend{
		Months:          append([]string(nil), MonthLabels...),
		AvgDelay:        make([]Value, 12),
		VolumeThousands: make([]Value, 12),
		OnTimeRate:      make([]Value, 12),
	}
	for m := 1; m <= 12; m++ {
		i, ok := rowOf[m]
		if !ok {
			return nil, integrity(ds, "month_name", -1, "month %d missing", m)
		}
		t.AvgDelay[m-1] = NewValue(delay[i])
		t.VolumeThousands[m-1] = NewValue(flights[i] / 1000)
		t.OnTimeRate[m-1] = NewValue(onTime[i])
	}
	return t, nil
}
