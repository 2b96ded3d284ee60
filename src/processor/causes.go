package processor

import (
	"FlightInsights/src/dataset"
)

// PercentageEpsilon 容忍一位小数四舍五入造成的合计误差
const PercentageEpsilon = 0.1

// DefaultCausePalette 饼图配色，超出时循环使用
var DefaultCausePalette = []string{"#ff6b6b", "#4ecdc4", "#45b7d1", "#96ceb4", "#feca57"}

// Slice 饼图的一块
type Slice struct {
	Label       string  `json:"label"`
	Percentage  float64 `json:"percentage"`
	Occurrences Value   `json:"occurrences"`
	Color       string  `json:"color"`
}

// Causes 延误原因分布；Minor 是展开视图里追加的次要原因
type Causes struct {
	Principal []Slice `json:"principal"`
	Minor     []Slice `json:"minor,omitempty"`
	Total     float64 `json:"total"`
}

// BuildCauses 百分比已由上游归一化，这里只校验不重算
// minor 可为 nil；palette 为空时使用默认配色
func BuildCauses(principal, minor *dataset.Dataset, palette []string) (*Causes, error) {
	if len(palette) == 0 {
		palette = DefaultCausePalette
	}

	c := &Causes{}
	var err error
	c.Principal, err = causeSlices(principal, palette, 0)
	if err != nil {
		return nil, err
	}
	for _, s := range c.Principal {
		c.Total += s.Percentage
	}
	if c.Total > 100+PercentageEpsilon {
		return nil, integrity(principal, "percentage", -1, "percentages sum to %.2f, above 100", c.Total)
	}

	if minor != nil {
		c.Minor, err = causeSlices(minor, palette, len(c.Principal))
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

func causeSlices(ds *dataset.Dataset, palette []string, offset int) ([]Slice, error) {
	labels := ds.Strings("cause_name")
	pct := ds.Floats("percentage")
	occ := ds.Floats("total_occurrences")

	out := make([]Slice, 0, len(labels))
	for i, label := range labels {
		p := pct[i]
		if dataset.Missing(p) {
			return nil, integrity(ds, "percentage", i, "percentage missing")
		}
		if p < 0 || p > 100 {
			return nil, integrity(ds, "percentage", i, "percentage %v outside [0,100]", p)
		}
		out = append(out, Slice{
			Label:       label,
			Percentage:  p,
			Occurrences: NewValue(occ[i]),
			Color:       palette[(offset+i)%len(palette)],
		})
	}
	return out, nil
}
