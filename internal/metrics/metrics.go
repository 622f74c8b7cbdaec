package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "judgemicro_evaluations_total",
			Help: "Total number of judged submissions",
		},
		[]string{"language", "status"},
	)

	EvaluationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "judgemicro_evaluation_duration_ms",
			Help:    "Evaluation duration in milliseconds",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		},
		[]string{"language", "phase"}, // phase: "compile", "run", "total"
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "judgemicro_queue_depth",
			Help: "Current number of jobs in the queue",
		},
	)

	ActiveWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "judgemicro_active_workers",
			Help: "Number of workers currently processing jobs",
		},
	)

	SandboxesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "judgemicro_sandboxes_active",
			Help: "Number of sandboxes currently alive",
		},
	)

	SandboxStartTime = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "judgemicro_sandbox_start_ms",
			Help:    "Time to create and start a sandbox container",
			Buckets: []float64{50, 100, 200, 500, 1000, 2000},
		},
	)

	MaxRSS = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "judgemicro_max_rss_bytes",
			Help:    "Peak resident set size per evaluation in bytes",
			Buckets: []float64{1 << 20, 4 << 20, 16 << 20, 64 << 20, 128 << 20, 256 << 20},
		},
		[]string{"language"},
	)

	BatchRecompiles = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "judgemicro_batch_recompiles_total",
			Help: "Configurations in optimized batches that forced a recompile",
		},
	)

	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "judgemicro_rate_limit_hits_total",
			Help: "Total number of requests rejected by rate limiter",
		},
	)
)
