package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"FlightInsights/src/dataset"
	"FlightInsights/src/processor"
	"FlightInsights/src/schema"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type mockLoader struct {
	GetAllFunc func(ctx context.Context) (map[schema.DatasetID]*dataset.Dataset, error)
	calls      int
}

func (m *mockLoader) GetAll(ctx context.Context) (map[schema.DatasetID]*dataset.Dataset, error) {
	m.calls++
	return m.GetAllFunc(ctx)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func csvDataset(t *testing.T, id schema.DatasetID, content string) *dataset.Dataset {
	t.Helper()
	raw := dataframe.ReadCSV(strings.NewReader(content),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	ds, err := dataset.FromFrame(id, raw)
	require.NoError(t, err)
	return ds
}

func fixtureContents() map[schema.DatasetID]string {
	var trend strings.Builder
	trend.WriteString("month_name,avg_arrival_delay,total_flights,on_time_rate\n")
	for m := 1; m <= 12; m++ {
		fmt.Fprintf(&trend, "%d,%d.5,%d,%d\n", m, m, 400000+m, 70+m)
	}

	var matrix strings.Builder
	matrix.WriteString("day_name," + strings.Join(schema.HourColumns(), ",") + "\n")
	for d, day := range schema.Weekdays {
		matrix.WriteString(day)
		for h := 0; h < 24; h++ {
			fmt.Fprintf(&matrix, ",%d", d+h)
		}
		matrix.WriteString("\n")
	}

	return map[schema.DatasetID]string{
		schema.AirlineRanking:     "airline_code,airline_name,performance_score,on_time_rate,avg_delay,cancel_rate\nAS,Alaska Airlines,98.2,86.1,-0.9,0.4\nDL,Delta Air Lines,95.0,85.0,0.2,0.4\n",
		schema.CriticalRoutes:     "origin,destination,score,volume,avg_delay,cancel_rate,distance,airlines\nASE,DFW,282.1,1204,31.2,16.7,802,\"AA, MQ\"\n",
		schema.MonthlySeasonality: "month,volume,on_time_count,delayed_count,cancelled_count,avg_delay,causes\nJanuary,1000,800,150,50,10,weather=3\nFebruary,3000,2100,800,100,2,weather=1\n",
		schema.CauseBreakdown:     "cause_code,category,occurrences,pct,avg_impact_minutes\nB,Weather,700,70,40\nA,Carrier,300,30,12\n",
		schema.TemporalTrend:      trend.String(),
		schema.AirlineScores:      "airline_name,performance_score,performance_category,on_time_rate\nDelta,95.1,Excelente,85\nSpirit,40.2,Ruim,70\n",
		schema.DelayMatrix:        matrix.String(),
		schema.VolumeMatrix:       matrix.String(),
		schema.CausePrincipal:     "cause_name,percentage,total_occurrences\nClima,60,10\nNAS,40,7\n",
		schema.CauseMinor:         "cause_name,percentage,total_occurrences\nSegurança,0.1,3\n",
	}
}

func fixtureDatasets(t *testing.T, override map[schema.DatasetID]string) map[schema.DatasetID]*dataset.Dataset {
	t.Helper()
	contents := fixtureContents()
	for id, c := range override {
		contents[id] = c
	}
	all := make(map[schema.DatasetID]*dataset.Dataset, len(contents))
	for id, c := range contents {
		all[id] = csvDataset(t, id, c)
	}
	return all
}

func newTestDashboard(t *testing.T, loader Loader, stale func() []string) *Dashboard {
	t.Helper()
	d, err := New(Config{
		Loader: loader,
		Stale:  stale,
		Logger: quietLogger(),
		Now:    func() time.Time { return time.Date(2015, 12, 31, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return d
}

func TestRenderReady(t *testing.T) {
	all := fixtureDatasets(t, nil)
	loader := &mockLoader{GetAllFunc: func(context.Context) (map[schema.DatasetID]*dataset.Dataset, error) { return all, nil }}
	d := newTestDashboard(t, loader, func() []string { return []string{"grafico_01_dados.csv"} })

	page := d.Render(context.Background())
	require.Equal(t, StateReady, page.State)
	assert.Equal(t, 1, loader.calls)
	assert.Empty(t, page.Message)
	assert.Equal(t, []string{"grafico_01_dados.csv"}, page.StaleSources)

	require.NotNil(t, page.Headline)
	assert.Equal(t, int64(4000), page.Headline.TotalFlights)
	assert.Equal(t, 2, page.Headline.Airlines)
	assert.Equal(t, 1, page.Headline.Routes)
	assert.Equal(t, int64(1000), page.Headline.Problems)

	require.Len(t, page.Tables, 4)
	assert.Equal(t, schema.AirlineRanking, page.Tables[0].Dataset)
	assert.Equal(t, schema.CauseBreakdown, page.Tables[3].Dataset)

	require.Len(t, page.Panels, 5)
	for _, p := range page.Panels {
		assert.Equal(t, PanelReady, p.State, p.ID)
	}

	trendPanel, ok := page.Panel(PanelTrend)
	require.True(t, ok)
	trend := trendPanel.Data.(*processor.Trend)
	assert.InDelta(t, 400.001, trend.VolumeThousands[0].V, 1e-9)

	rankingPanel, _ := page.Panel(PanelRanking)
	ranking := rankingPanel.Data.(*processor.Ranking)
	assert.Equal(t, processor.ColorRuim, ranking.Rows[1].Color)

	causesPanel, _ := page.Panel(PanelCauses)
	causes := causesPanel.Data.(*processor.Causes)
	assert.Len(t, causes.Minor, 1)
}

func TestRenderUnavailable(t *testing.T) {
	loader := &mockLoader{GetAllFunc: func(context.Context) (map[schema.DatasetID]*dataset.Dataset, error) {
		return nil, fmt.Errorf("%w: %w", schema.ErrDataUnavailable, &schema.LoadError{Dataset: schema.CauseMinor, Cause: errors.New("no such file")})
	}}
	staleCalled := false
	d := newTestDashboard(t, loader, func() []string { staleCalled = true; return nil })

	page := d.Render(context.Background())
	assert.Equal(t, StateUnavailable, page.State)
	assert.Equal(t, UnavailableMessage, page.Message)
	assert.Nil(t, page.Headline)
	assert.Empty(t, page.Tables)
	assert.Empty(t, page.Panels)
	assert.False(t, staleCalled)
}

func TestRenderIntegrityIssueOnlyAffectsPanel(t *testing.T) {
	all := fixtureDatasets(t, map[schema.DatasetID]string{
		schema.CausePrincipal: "cause_name,percentage,total_occurrences\nA,80,1\nB,60,1\n",
	})
	loader := &mockLoader{GetAllFunc: func(context.Context) (map[schema.DatasetID]*dataset.Dataset, error) { return all, nil }}
	d := newTestDashboard(t, loader, nil)

	page := d.Render(context.Background())
	require.Equal(t, StateReady, page.State)

	causes, ok := page.Panel(PanelCauses)
	require.True(t, ok)
	assert.Equal(t, PanelIssue, causes.State)
	assert.Nil(t, causes.Data)
	assert.Contains(t, causes.Issue, "cause_principal")

	for _, id := range []string{PanelTrend, PanelRanking, PanelDelays, PanelVolumes} {
		p, ok := page.Panel(id)
		require.True(t, ok)
		assert.Equal(t, PanelReady, p.State, id)
	}
	assert.Len(t, page.Tables, 4)
}

func TestRenderPageJSON(t *testing.T) {
	all := fixtureDatasets(t, map[schema.DatasetID]string{
		schema.TemporalTrend: "month_name,avg_arrival_delay,total_flights,on_time_rate\nJan,1,1,1\n",
	})
	loader := &mockLoader{GetAllFunc: func(context.Context) (map[schema.DatasetID]*dataset.Dataset, error) { return all, nil }}
	page := newTestDashboard(t, loader, nil).Render(context.Background())

	data, err := json.Marshal(page)
	require.NoError(t, err)

	var decoded struct {
		State  string `json:"state"`
		Panels []struct {
			ID    string `json:"id"`
			State string `json:"state"`
			Issue string `json:"issue"`
		} `json:"panels"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "ready", decoded.State)
	assert.Equal(t, "temporal_trend", decoded.Panels[0].ID)
	assert.Equal(t, "issue", decoded.Panels[0].State)
	assert.Contains(t, decoded.Panels[0].Issue, "missing")
}

func TestNewRequiresLoader(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestWriteWorkbook(t *testing.T) {
	all := fixtureDatasets(t, nil)
	loader := &mockLoader{GetAllFunc: func(context.Context) (map[schema.DatasetID]*dataset.Dataset, error) { return all, nil }}
	page := newTestDashboard(t, loader, nil).Render(context.Background())

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(page, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Equal(t, []string{"resumo", "airline_ranking", "critical_routes", "monthly_seasonality", "cause_breakdown",
		PanelTrend, PanelRanking, PanelDelays, PanelVolumes, PanelCauses}, sheets)

	// 报表工作表保留自己的表头和全部行
	rows, err := f.GetRows("airline_ranking")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"airline_code", "airline_name", "performance_score", "on_time_rate", "avg_delay", "cancel_rate"}, rows[0])
	assert.Equal(t, "DL", rows[2][0])

	rows, err = f.GetRows(PanelRanking)
	require.NoError(t, err)
	assert.Equal(t, []string{"rank", "airline", "score", "category", "on_time_rate", "color"}, rows[0])

	rows, err = f.GetRows(PanelDelays)
	require.NoError(t, err)
	require.Len(t, rows, 8)
	assert.Equal(t, "00:00", rows[0][1])
	assert.Equal(t, "Monday", rows[1][0])

	rows, err = f.GetRows("resumo")
	require.NoError(t, err)
	assert.Equal(t, []string{"total_flights", "4000"}, rows[1])
}

func TestWriteWorkbookRejectsDuplicateSheet(t *testing.T) {
	all := fixtureDatasets(t, nil)
	loader := &mockLoader{GetAllFunc: func(context.Context) (map[schema.DatasetID]*dataset.Dataset, error) { return all, nil }}
	page := newTestDashboard(t, loader, nil).Render(context.Background())
	page.Panels[1].ID = string(schema.AirlineRanking)

	err := WriteWorkbook(page, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate sheet")
}

func TestWriteWorkbookRejectsUnavailablePage(t *testing.T) {
	err := WriteWorkbook(&Page{State: StateUnavailable}, io.Discard)
	assert.ErrorIs(t, err, ErrNotReady)
}
