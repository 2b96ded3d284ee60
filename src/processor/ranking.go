package processor

import (
	"FlightInsights/src/dataset"
)

// MaxRankingRows 排名图只显示前12家
const MaxRankingRows = 12

// 表现分类对应的颜色
const (
	ColorExcelente = "#2ecc71"
	ColorBoa       = "#f39c12"
	ColorRegular   = "#e67e22"
	ColorRuim      = "#e74c3c"
	ColorUnknown   = "#95a5a6"
)

// CategoryColor 未知分类返回灰色，不报错
func CategoryColor(category string) string {
	switch category {
	case "Excelente":
		return ColorExcelente
	case "Boa":
		return ColorBoa
	case "Regular":
		return ColorRegular
	case "Ruim":
		return ColorRuim
	default:
		return ColorUnknown
	}
}

// RankingRow 一根横条
type RankingRow struct {
	Rank       int    `json:"rank"`
	Airline    string `json:"airline"`
	Score      Value  `json:"score"`
	ScoreLabel string `json:"score_label"`
	OnTimeRate Value  `json:"on_time_rate"`
	Category   string `json:"category"`
	Color      string `json:"color"`
}

// Ranking 航司表现排名
type Ranking struct {
	Rows []RankingRow `json:"rows"`
}

// BuildRanking 取 airline_scores 前12行，保持输入顺序(上游已排序)
func BuildRanking(ds *dataset.Dataset) (*Ranking, error) {
	df := ds.Frame()
	if df.Nrow() > MaxRankingRows {
		head := make([]int, MaxRankingRows)
		for i := range head {
			head[i] = i
		}
		df = df.Subset(head)
		if df.Err != nil {
			return nil, df.Err
		}
	}

	names := df.Col("airline_name").Records()
	categories := df.Col("performance_category").Records()
	scores := df.Col("performance_score").Float()
	onTime := df.Col("on_time_rate").Float()

	r := &Ranking{Rows: make([]RankingRow, 0, len(names))}
	for i := range names {
		r.Rows = append(r.Rows, RankingRow{
			Rank:       i + 1,
			Airline:    names[i],
			Score:      NewValue(scores[i]),
			ScoreLabel: OneDecimal(scores[i]),
			OnTimeRate: NewValue(onTime[i]),
			Category:   categories[i],
			Color:      CategoryColor(categories[i]),
		})
	}
	return r, nil
}
