// Package dashboard 把缓存的数据集组合成一页看板：汇总指标、四张报表、五个图表面板。
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"FlightInsights/src/dataset"
	"FlightInsights/src/metrics"
	"FlightInsights/src/processor"
	"FlightInsights/src/schema"
)

// UnavailableMessage 数据加载失败时页面唯一的提示
const UnavailableMessage = "Falha ao carregar os dados. Verifique os arquivos na pasta de dados."

// Loader 数据集来源(storage.Cache 实现)
type Loader interface {
	GetAll(ctx context.Context) (map[schema.DatasetID]*dataset.Dataset, error)
}

// State 页面状态
type State string

const (
	StateUnavailable State = "unavailable"
	StateReady       State = "ready"
)

// PanelState 单个图表面板的状态
type PanelState string

const (
	PanelReady PanelState = "ready"
	PanelIssue PanelState = "issue" // 数据完整性问题，只影响本面板
)

// 面板标识
const (
	PanelTrend   = "temporal_trend"
	PanelRanking = "airline_performance"
	PanelDelays  = "delay_heatmap"
	PanelVolumes = "volume_heatmap"
	PanelCauses  = "cause_distribution"
)

// Panel 图表面板；Issue 面板只带提示文本
type Panel struct {
	ID    string     `json:"id"`
	Title string     `json:"title"`
	State PanelState `json:"state"`
	Issue string     `json:"issue,omitempty"`
	Data  any        `json:"data,omitempty"`
}

// Page 一次渲染的结果
type Page struct {
	State        State               `json:"state"`
	Message      string              `json:"message,omitempty"`
	Headline     *processor.Headline `json:"headline,omitempty"`
	Tables       []processor.Table   `json:"tables,omitempty"`
	Panels       []Panel             `json:"panels,omitempty"`
	StaleSources []string            `json:"stale_sources,omitempty"`
	GeneratedAt  time.Time           `json:"generated_at"`
}

// Panel 按标识查找面板
func (p *Page) Panel(id string) (Panel, bool) {
	for _, panel := range p.Panels {
		if panel.ID == id {
			return panel, true
		}
	}
	return Panel{}, false
}

// Config 看板依赖
type Config struct {
	Loader  Loader
	Palette []string        // 饼图配色，为空用默认
	Stale   func() []string // 加载后发生变化的数据文件，可为 nil
	Logger  *slog.Logger
	Now     func() time.Time
}

// Dashboard 组合层；不缓存图表结果，每次渲染都重新转换
type Dashboard struct {
	loader  Loader
	palette []string
	stale   func() []string
	log     *slog.Logger
	now     func() time.Time
}

// New 创建看板
func New(cfg Config) (*Dashboard, error) {
	if cfg.Loader == nil {
		return nil, errors.New("dashboard: loader is required")
	}
	d := &Dashboard{
		loader:  cfg.Loader,
		palette: cfg.Palette,
		stale:   cfg.Stale,
		log:     cfg.Logger,
		now:     cfg.Now,
	}
	if d.log == nil {
		d.log = slog.Default()
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d, nil
}

// Render 加载全部数据集并生成页面
// 任一数据集不可用时只返回 unavailable 页面，不做任何转换
func (d *Dashboard) Render(ctx context.Context) *Page {
	page := &Page{GeneratedAt: d.now()}

	all, err := d.loader.GetAll(ctx)
	if err != nil {
		d.log.Error("dashboard: data unavailable", "error", err)
		metrics.Renders.WithLabelValues(string(StateUnavailable)).Inc()
		page.State = StateUnavailable
		page.Message = UnavailableMessage
		return page
	}

	page.State = StateReady
	headline := processor.BuildHeadline(all[schema.AirlineRanking], all[schema.CriticalRoutes], all[schema.MonthlySeasonality], all[schema.CauseBreakdown])
	page.Headline = &headline
	for _, id := range []schema.DatasetID{schema.AirlineRanking, schema.CriticalRoutes, schema.MonthlySeasonality, schema.CauseBreakdown} {
		page.Tables = append(page.Tables, processor.BuildTable(all[id]))
	}

	page.Panels = []Panel{
		d.panel(PanelTrend, "Tendência Temporal de Atrasos ao Longo de 2015", func() (any, error) {
			return processor.BuildTrend(all[schema.TemporalTrend])
		}),
		d.panel(PanelRanking, "Performance por Companhia Aérea (Score de Performance)", func() (any, error) {
			return processor.BuildRanking(all[schema.AirlineScores])
		}),
		d.panel(PanelDelays, "Mapa de Calor: Atrasos por Dia da Semana vs Hora do Dia", func() (any, error) {
			return processor.BuildMatrix(all[schema.DelayMatrix])
		}),
		d.panel(PanelVolumes, "Mapa de Calor: Volume de Voos por Dia da Semana vs Hora do Dia", func() (any, error) {
			return processor.BuildMatrix(all[schema.VolumeMatrix])
		}),
		d.panel(PanelCauses, "Distribuição de Causas de Cancelamento e Atraso", func() (any, error) {
			return processor.BuildCauses(all[schema.CausePrincipal], all[schema.CauseMinor], d.palette)
		}),
	}

	d.logWarnings(all)
	if d.stale != nil {
		page.StaleSources = d.stale()
	}
	metrics.Renders.WithLabelValues(string(StateReady)).Inc()
	return page
}

// panel 完整性错误只让本面板显示提示，其他错误同样降级，不影响整页
func (d *Dashboard) panel(id, title string, build func() (any, error)) Panel {
	data, err := build()
	if err != nil {
		metrics.TransformFailures.WithLabelValues(id).Inc()
		var ie *schema.DataIntegrityError
		if errors.As(err, &ie) {
			d.log.Warn("dashboard: panel data integrity issue", "panel", id, "dataset", ie.Dataset, "column", ie.Column, "row", ie.Row, "reason", ie.Reason)
		} else {
			d.log.Error("dashboard: panel failed", "panel", id, "error", err)
		}
		return Panel{ID: id, Title: title, State: PanelIssue, Issue: err.Error()}
	}
	return Panel{ID: id, Title: title, State: PanelReady, Data: data}
}

func (d *Dashboard) logWarnings(all map[schema.DatasetID]*dataset.Dataset) {
	for _, id := range schema.IDs() {
		if n := len(all[id].Warnings()); n > 0 {
			d.log.Warn("dashboard: dataset has coerced cells", "dataset", id, "warnings", n)
		}
	}
}
