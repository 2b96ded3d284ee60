// dataset.go
package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"FlightInsights/src/schema"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Dataset 经过结构校验、类型转换后的只读数据表
// 所有访问方法都返回副本，缓存后的表在进程生命周期内不会被修改
type Dataset struct {
	id       schema.DatasetID
	df       dataframe.DataFrame
	warnings []schema.CoercionWarning
}

// FromFrame 将读取到的字符串表按注册表校验并转换为类型化的 Dataset
// 列缺失/多余返回 *schema.SchemaError；数值转换失败只记录 CoercionWarning
func FromFrame(id schema.DatasetID, raw dataframe.DataFrame) (*Dataset, error) {
	sch := schema.Lookup(id)
	if raw.Err != nil {
		return nil, &schema.LoadError{Dataset: id, Cause: raw.Err}
	}

	// 1. 规范表头
	cols := make(map[string][]string, raw.Ncol())
	var order []string
	for _, name := range raw.Names() {
		norm := NormalizeHeader(name, sch.HourGrid)
		if _, dup := cols[norm]; dup {
			return nil, &schema.SchemaError{Dataset: id, Column: norm, Reason: "duplicate"}
		}
		cols[norm] = raw.Col(name).Records()
		order = append(order, norm)
	}

	// 2. 校验列集合
	for _, c := range sch.Columns {
		if _, ok := cols[c.Name]; !ok {
			return nil, &schema.SchemaError{Dataset: id, Column: c.Name, Reason: "missing"}
		}
	}
	var extras []string
	for _, name := range order {
		if _, declared := sch.Column(name); declared {
			continue
		}
		if sch.Kind == schema.KindChart {
			return nil, &schema.SchemaError{Dataset: id, Column: name, Reason: "unexpected"}
		}
		extras = append(extras, name)
	}

	// 3. 按声明类型转换
	ds := &Dataset{id: id}
	list := make([]series.Series, 0, len(sch.Columns)+len(extras))
	for _, c := range sch.Columns {
		list = append(list, ds.coerce(c, cols[c.Name]))
	}
	for _, name := range extras {
		list = append(list, series.New(trimAll(cols[name]), series.String, name))
	}

	ds.df = dataframe.New(list...)
	if ds.df.Err != nil {
		return nil, &schema.LoadError{Dataset: id, Cause: ds.df.Err}
	}
	return ds, nil
}

// coerce 单列转换，非法数值替换为 NaN 标记
func (d *Dataset) coerce(c schema.Column, raw []string) series.Series {
	out := make([]string, len(raw))
	for i, v := range raw {
		v = strings.TrimSpace(v)
		switch c.Type {
		case schema.Float:
			if f, ok := parseNumber(v); ok {
				out[i] = strconv.FormatFloat(f, 'g', -1, 64)
				continue
			}
			out[i] = "NaN"
			d.warn(c, i, v)
		case schema.Integer:
			if n, ok := parseInteger(v); ok {
				out[i] = strconv.FormatInt(n, 10)
				continue
			}
			out[i] = "NaN"
			d.warn(c, i, v)
		case schema.Map:
			if _, ok := ParseMap(v); !ok {
				d.warnings = append(d.warnings, schema.CoercionWarning{Dataset: d.id, Column: c.Name, Row: i, Value: v})
			}
			out[i] = v
		default:
			out[i] = v
		}
	}

	switch c.Type {
	case schema.Float:
		return series.New(out, series.Float, c.Name)
	case schema.Integer:
		return series.New(out, series.Int, c.Name)
	default:
		return series.New(out, series.String, c.Name)
	}
}

// warn 空白/NA 在可空列里是正常的缺失，不算告警
func (d *Dataset) warn(c schema.Column, row int, v string) {
	if c.Nullable && isMissingToken(v) {
		return
	}
	d.warnings = append(d.warnings, schema.CoercionWarning{Dataset: d.id, Column: c.Name, Row: row, Value: v})
}

// NormalizeHeader 去除BOM与空白；矩阵数据集把小时表头统一为两位
func NormalizeHeader(name string, hourGrid bool) string {
	h := strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
	if !hourGrid {
		return h
	}
	hh := strings.TrimSuffix(h, ":00")
	if n, err := strconv.Atoi(hh); err == nil && n >= 0 && n <= 23 {
		return fmt.Sprintf("%02d", n)
	}
	return h
}

func trimAll(vals []string) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

// ID 数据集标识
func (d *Dataset) ID() schema.DatasetID { return d.id }

// Schema 数据集结构定义
func (d *Dataset) Schema() schema.Schema { return schema.Lookup(d.id) }

// Len 行数
func (d *Dataset) Len() int { return d.df.Nrow() }

// Columns 列名：先声明列，后多余列
func (d *Dataset) Columns() []string { return d.df.Names() }

// Warnings 加载时记录的类型转换告警
func (d *Dataset) Warnings() []schema.CoercionWarning {
	return append([]schema.CoercionWarning(nil), d.warnings...)
}

// Frame 返回底层 DataFrame 的副本
func (d *Dataset) Frame() dataframe.DataFrame { return d.df.Copy() }

func (d *Dataset) col(name string) series.Series {
	s := d.df.Col(name)
	if s.Err != nil {
		panic(fmt.Sprintf("dataset %s: %v", d.id, s.Err))
	}
	return s
}

// Strings 以字符串返回一列(缺失数值显示为 "NaN")
func (d *Dataset) Strings(name string) []string {
	return d.col(name).Records()
}

// Floats 以 float64 返回数值列，缺失值为 NaN
func (d *Dataset) Floats(name string) []float64 {
	s := d.col(name)
	out := make([]float64, s.Len())
	for i := 0; i < s.Len(); i++ {
		e := s.Elem(i)
		if e.IsNA() {
			out[i] = math.NaN()
			continue
		}
		out[i] = e.Float()
	}
	return out
}

// List 解析列表列的某一行
func (d *Dataset) List(name string, row int) []string {
	return ParseList(d.col(name).Elem(row).String())
}

// Map 解析映射列的某一行，无法解析时返回 false
func (d *Dataset) Map(name string, row int) (map[string]float64, bool) {
	return ParseMap(d.col(name).Elem(row).String())
}

// Missing 判断数值是否为缺失标记
func Missing(f float64) bool { return math.IsNaN(f) }
