package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "flightinsights_build_info",
		Help: "Build information of the flightinsights dashboard",
	}, []string{"version", "commit", "date"})

	DatasetLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flightinsights_dataset_loads_total", Help: "Dataset load attempts by result.",
	}, []string{"dataset", "result"})
	DatasetLoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flightinsights_dataset_load_duration_seconds",
		Help:    "Time spent reading and coercing a dataset.",
		Buckets: prometheus.DefBuckets,
	}, []string{"dataset"})
	SourceReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flightinsights_source_reads_total", Help: "Underlying source reads per dataset.",
	}, []string{"dataset"})
	CoercionWarnings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flightinsights_coercion_warnings_total", Help: "Cells that could not be coerced to the declared type.",
	}, []string{"dataset", "column"})
	DatasetsCached = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "flightinsights_datasets_cached", Help: "Datasets currently held in the cache.",
	})

	TransformFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flightinsights_transform_failures_total", Help: "Chart transformer integrity failures.",
	}, []string{"chart"})
	Renders = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flightinsights_renders_total", Help: "Dashboard renders by page state.",
	}, []string{"state"})

	SourceChanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flightinsights_source_changes_total", Help: "Data files changed after they were loaded.",
	})
)
