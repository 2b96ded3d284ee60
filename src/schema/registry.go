// registry.go
package schema

import (
	"fmt"
	"strings"
)

// DatasetID 数据集标识
type DatasetID string

// 十个数据集，顺序即注册顺序
const (
	AirlineRanking     DatasetID = "airline_ranking"
	CriticalRoutes     DatasetID = "critical_routes"
	MonthlySeasonality DatasetID = "monthly_seasonality"
	CauseBreakdown     DatasetID = "cause_breakdown"
	TemporalTrend      DatasetID = "temporal_trend"
	AirlineScores      DatasetID = "airline_scores"
	DelayMatrix        DatasetID = "delay_matrix"
	VolumeMatrix       DatasetID = "volume_matrix"
	CausePrincipal     DatasetID = "cause_principal"
	CauseMinor         DatasetID = "cause_minor"
)

// Kind 区分报表与图表输入
type Kind int

const (
	KindReport Kind = iota // 报表：允许多余列
	KindChart              // 图表输入：列集合必须完全一致
)

// ColumnType 列的语义类型
type ColumnType int

const (
	String ColumnType = iota
	Integer
	Float
	Enum
	List
	Map
)

func (t ColumnType) String() string {
	switch t {
	case String:
		return "string"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Enum:
		return "enum"
	case List:
		return "list"
	case Map:
		return "map"
	default:
		return "unknown"
	}
}

// Numeric 数值列在加载时做强制转换
func (t ColumnType) Numeric() bool {
	return t == Integer || t == Float
}

// Column 列定义
type Column struct {
	Name     string
	Type     ColumnType
	Values   []string // 仅Enum使用：已知取值
	Nullable bool
}

// Schema 单个数据集的结构定义
type Schema struct {
	ID       DatasetID
	Title    string
	File     string // 默认文件名
	Kind     Kind
	Columns  []Column
	HourGrid bool // 日/小时矩阵，表头需规范为两位小时
}

// Column 按列名查找
func (s Schema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames 返回列名(按声明顺序)
func (s Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// PerformanceCategories 航司表现分类(封闭枚举)
var PerformanceCategories = []string{"Excelente", "Boa", "Regular", "Ruim"}

// Weekdays 矩阵的固定行顺序
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// HourColumns 返回 "00".."23"
func HourColumns() []string {
	hours := make([]string, 24)
	for h := range hours {
		hours[h] = fmt.Sprintf("%02d", h)
	}
	return hours
}

func hourGrid(id DatasetID, title, file string) Schema {
	cols := []Column{{Name: "day_name", Type: Enum, Values: Weekdays}}
	for _, h := range HourColumns() {
		cols = append(cols, Column{Name: h, Type: Float, Nullable: true})
	}
	return Schema{ID: id, Title: title, File: file, Kind: KindChart, Columns: cols, HourGrid: true}
}

func causeShape(id DatasetID, title, file string) Schema {
	return Schema{
		ID: id, Title: title, File: file, Kind: KindChart,
		Columns: []Column{
			{Name: "cause_name", Type: String},
			{Name: "percentage", Type: Float},
			{Name: "total_occurrences", Type: Integer},
		},
	}
}

var registry = []Schema{
	{
		ID: AirlineRanking, Title: "Ranking de Performance por Companhia Aérea",
		File: "relatorio_01_ranking_performance_airlines.csv", Kind: KindReport,
		Columns: []Column{
			{Name: "airline_code", Type: String},
			{Name: "airline_name", Type: String},
			{Name: "performance_score", Type: Float},
			{Name: "on_time_rate", Type: Float},
			{Name: "avg_delay", Type: Float},
			{Name: "cancel_rate", Type: Float},
		},
	},
	{
		ID: CriticalRoutes, Title: "Rotas Críticas",
		File: "relatorio_02_rotas_criticas.csv", Kind: KindReport,
		Columns: []Column{
			{Name: "origin", Type: String},
			{Name: "destination", Type: String},
			{Name: "score", Type: Float},
			{Name: "volume", Type: Integer},
			{Name: "avg_delay", Type: Float},
			{Name: "cancel_rate", Type: Float},
			{Name: "distance", Type: Float},
			{Name: "airlines", Type: List},
		},
	},
	{
		ID: MonthlySeasonality, Title: "Sazonalidade Mensal",
		File: "relatorio_03_sazonalidade_mensal.csv", Kind: KindReport,
		Columns: []Column{
			{Name: "month", Type: String},
			{Name: "volume", Type: Integer},
			{Name: "on_time_count", Type: Integer},
			{Name: "delayed_count", Type: Integer},
			{Name: "cancelled_count", Type: Integer},
			{Name: "avg_delay", Type: Float},
			{Name: "causes", Type: Map},
		},
	},
	{
		ID: CauseBreakdown, Title: "Causas de Cancelamento e Atraso",
		File: "relatorio_04_causas_cancelamento_atraso.csv", Kind: KindReport,
		Columns: []Column{
			{Name: "cause_code", Type: String},
			{Name: "category", Type: String},
			{Name: "occurrences", Type: Integer},
			{Name: "pct", Type: Float},
			{Name: "avg_impact_minutes", Type: Float},
		},
	},
	{
		ID: TemporalTrend, Title: "Tendência Temporal de Atrasos",
		File: "grafico_01_dados.csv", Kind: KindChart,
		Columns: []Column{
			{Name: "month_name", Type: String},
			{Name: "avg_arrival_delay", Type: Float},
			{Name: "total_flights", Type: Integer},
			{Name: "on_time_rate", Type: Float},
		},
	},
	{
		ID: AirlineScores, Title: "Performance por Companhia Aérea",
		File: "grafico_02_dados.csv", Kind: KindChart,
		Columns: []Column{
			{Name: "airline_name", Type: String},
			{Name: "performance_score", Type: Float},
			{Name: "performance_category", Type: Enum, Values: PerformanceCategories},
			{Name: "on_time_rate", Type: Float},
		},
	},
	hourGrid(DelayMatrix, "Atrasos por Dia vs Hora", "grafico_03_matriz_atrasos.csv"),
	hourGrid(VolumeMatrix, "Volumes por Dia vs Hora", "grafico_03_matriz_volumes.csv"),
	causeShape(CausePrincipal, "Causas Principais", "grafico_04_causas_principais.csv"),
	causeShape(CauseMinor, "Causas Menores", "grafico_04_causas_menores.csv"),
}

// IDs 所有已注册的数据集标识(注册顺序)
func IDs() []DatasetID {
	ids := make([]DatasetID, len(registry))
	for i, s := range registry {
		ids[i] = s.ID
	}
	return ids
}

// Lookup 返回数据集的结构定义
// 未注册的标识属于程序错误，直接panic
func Lookup(id DatasetID) Schema {
	if s, ok := find(id); ok {
		return s
	}
	panic(fmt.Sprintf("schema: unknown dataset %q", id))
}

// Known 判断标识是否已注册
func Known(id DatasetID) bool {
	_, ok := find(id)
	return ok
}

// Parse 将外部输入(URL参数等)解析为标识
func Parse(s string) (DatasetID, bool) {
	id := DatasetID(strings.ToLower(strings.TrimSpace(s)))
	return id, Known(id)
}

func find(id DatasetID) (Schema, bool) {
	for _, s := range registry {
		if s.ID == id {
			// 拷贝列切片，调用方不能改动注册表
			s.Columns = append([]Column(nil), s.Columns...)
			return s, true
		}
	}
	return Schema{}, false
}
