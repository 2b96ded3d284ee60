// Package web 提供看板的 HTTP 数据接口、xlsx 下载和实时日志
package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"FlightInsights/src/dashboard"
	"FlightInsights/src/dataset"
	"FlightInsights/src/processor"
	"FlightInsights/src/schema"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Renderer 生成看板页面(dashboard.Dashboard 实现)
type Renderer interface {
	Render(ctx context.Context) *dashboard.Page
}

// DatasetGetter 按标识取单个数据集(storage.Cache 实现)
type DatasetGetter interface {
	Get(ctx context.Context, id schema.DatasetID) (*dataset.Dataset, error)
}

// LogStream 实时日志订阅(storage.Logger 实现)
type LogStream interface {
	Subscribe() <-chan string
	Unsubscribe(<-chan string)
}

// Config 服务依赖
type Config struct {
	Dashboard Renderer
	Datasets  DatasetGetter
	Logs      LogStream // 可为 nil，此时不注册 /logs
	Logger    *slog.Logger
}

// Server HTTP 处理器集合
type Server struct {
	dashboard Renderer
	datasets  DatasetGetter
	logs      LogStream
	log       *slog.Logger
}

// NewServer 创建服务
func NewServer(cfg Config) (*Server, error) {
	if cfg.Dashboard == nil || cfg.Datasets == nil {
		return nil, errors.New("web: dashboard and datasets are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{dashboard: cfg.Dashboard, datasets: cfg.Datasets, logs: cfg.Logs, log: logger}, nil
}

// Handler 路由
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/datasets/{id}", s.handleDataset)
		r.Get("/export.xlsx", s.handleExport)
	})
	if s.logs != nil {
		r.Get("/logs", s.handleLogs)
	}
	return r
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	page := s.dashboard.Render(r.Context())
	status := http.StatusOK
	if page.State != dashboard.StateReady {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, page)
}

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	id, ok := schema.Parse(chi.URLParam(r, "id"))
	if !ok {
		s.writeJSON(w, http.StatusNotFound, errorBody{Error: fmt.Sprintf("unknown dataset %q", chi.URLParam(r, "id"))})
		return
	}

	ds, err := s.datasets.Get(r.Context(), id)
	if err != nil {
		s.log.Error("web: dataset unavailable", "dataset", id, "error", err)
		s.writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, processor.BuildTable(ds))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	page := s.dashboard.Render(r.Context())
	if page.State != dashboard.StateReady {
		s.writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: page.Message})
		return
	}

	var buf bytes.Buffer
	if err := dashboard.WriteWorkbook(page, &buf); err != nil {
		s.log.Error("web: export failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorBody{Error: "export failed"})
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="flightinsights.xlsx"`)
	_, _ = w.Write(buf.Bytes())
}

// handleLogs 分块推送实时日志，直到客户端断开
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	// 设置响应头
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	// 创建日志订阅通道
	logChan := s.logs.Subscribe()
	defer s.logs.Unsubscribe(logChan)

	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}
	for {
		select {
		case msg, ok := <-logChan:
			if !ok {
				return
			}
			// 将日志消息写入HTTP响应
			if _, err := fmt.Fprint(w, msg); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		case <-r.Context().Done():
			return
		}
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("web: write response failed", "error", err)
	}
}
