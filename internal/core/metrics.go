package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "gereecole"
	metricsSubsystem = "import"
)

const (
	rowResultSuccess = "success"
	rowResultError   = "error"
	rowResultSkipped = "skipped"
)

var (
	rowsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "rows_total",
			Help:      "Imported rows by kind and result (success, error, skipped).",
		},
		[]string{"kind", "result"},
	)

	runsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "runs_total",
			Help:      "Import runs by kind and final phase.",
		},
		[]string{"kind", "phase"},
	)

	runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "run_duration_seconds",
			Help:      "Wall time of completed import runs.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"kind"},
	)

	runsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "runs_active",
			Help:      "Import runs currently holding a limiter slot.",
		},
	)
)
