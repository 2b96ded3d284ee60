// export.go
package dashboard

import (
	"errors"
	"fmt"
	"io"

	"FlightInsights/src/processor"
	"FlightInsights/src/utils"

	"github.com/xuri/excelize/v2"
)

// ErrNotReady 页面不可用时不能导出
var ErrNotReady = errors.New("dashboard: page is not ready")

// WriteWorkbook 把页面写成 xlsx：汇总、四张报表、每个正常面板一个工作表
func WriteWorkbook(page *Page, w io.Writer) error {
	if page == nil || page.State != StateReady {
		return ErrNotReady
	}

	f := excelize.NewFile()
	defer f.Close()

	// 报表和面板共用工作表命名空间，重名会互相覆盖
	used := map[string]bool{}
	claim := func(name string) error {
		name = utils.SheetName(name)
		if used[name] {
			return fmt.Errorf("duplicate sheet %q", name)
		}
		used[name] = true
		return nil
	}

	if err := claim("resumo"); err != nil {
		return err
	}
	if err := writeHeadline(f, page.Headline); err != nil {
		return err
	}
	for _, t := range page.Tables {
		if err := claim(string(t.Dataset)); err != nil {
			return err
		}
		rows := make([][]any, len(t.Rows))
		for i, r := range t.Rows {
			rows[i] = make([]any, len(r))
			for j, cell := range r {
				rows[i][j] = cell
			}
		}
		if err := utils.WriteSheet(f, string(t.Dataset), t.Columns, rows); err != nil {
			return err
		}
	}
	for _, p := range page.Panels {
		if p.State != PanelReady {
			continue
		}
		if err := claim(p.ID); err != nil {
			return err
		}
		if err := writePanel(f, p); err != nil {
			return fmt.Errorf("panel %s: %w", p.ID, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("保存Excel文件失败: %w", err)
	}
	return nil
}

func writeHeadline(f *excelize.File, h *processor.Headline) error {
	if err := f.SetSheetName("Sheet1", "resumo"); err != nil {
		return err
	}
	return utils.WriteSheet(f, "resumo", []string{"metric", "value"}, [][]any{
		{"total_flights", h.TotalFlights},
		{"airlines", h.Airlines},
		{"on_time_rate", cell(h.OnTimeRate)},
		{"avg_delay", cell(h.AvgDelay)},
		{"routes", h.Routes},
		{"problems", h.Problems},
	})
}

func writePanel(f *excelize.File, p Panel) error {
	switch data := p.Data.(type) {
	case *processor.Trend:
		rows := make([][]any, len(data.Months))
		for i, m := range data.Months {
			rows[i] = []any{m, cell(data.AvgDelay[i]), cell(data.VolumeThousands[i]), cell(data.OnTimeRate[i])}
		}
		return utils.WriteSheet(f, p.ID, []string{"month", "avg_delay", "volume_thousands", "on_time_rate"}, rows)
	case *processor.Ranking:
		rows := make([][]any, len(data.Rows))
		for i, r := range data.Rows {
			rows[i] = []any{r.Rank, r.Airline, cell(r.Score), r.Category, cell(r.OnTimeRate), r.Color}
		}
		return utils.WriteSheet(f, p.ID, []string{"rank", "airline", "score", "category", "on_time_rate", "color"}, rows)
	case *processor.Matrix:
		rows := make([][]any, len(data.Days))
		for d, day := range data.Days {
			rows[d] = append([]any{day}, cellsRow(data.Cells[d])...)
		}
		return utils.WriteSheet(f, p.ID, append([]string{"day"}, data.Hours...), rows)
	case *processor.Causes:
		var rows [][]any
		for _, s := range data.Principal {
			rows = append(rows, []any{"principal", s.Label, s.Percentage, cell(s.Occurrences), s.Color})
		}
		for _, s := range data.Minor {
			rows = append(rows, []any{"minor", s.Label, s.Percentage, cell(s.Occurrences), s.Color})
		}
		return utils.WriteSheet(f, p.ID, []string{"group", "cause", "percentage", "occurrences", "color"}, rows)
	default:
		return fmt.Errorf("unsupported panel data %T", p.Data)
	}
}

// cell 无数据留空
func cell(v processor.Value) any {
	if !v.Valid {
		return nil
	}
	return v.V
}

func cellsRow(vals []processor.Value) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = cell(v)
	}
	return out
}
