package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline Prometheus metrics.
var (
	PipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsradar",
			Name:      "pipeline_runs_total",
			Help:      "Total number of pipeline runs",
		},
		[]string{"status"}, // "ok" / "failed"
	)

	PipelineRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "newsradar",
			Name:      "pipeline_run_duration_seconds",
			Help:      "End-to-end pipeline run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	PipelineItemFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsradar",
			Name:      "pipeline_item_failures_total",
			Help:      "Per-item failures isolated inside a pipeline stage",
		},
		[]string{"stage"},
	)

	ClustersTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "newsradar",
			Name:      "clusters_total",
			Help:      "Story clusters currently tracked by the dedup engine",
		},
	)

	StoriesEnrichedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "newsradar",
			Name:      "stories_enriched_total",
			Help:      "Hot stories routed through enrichment",
		},
		[]string{"status"}, // "ok" / "degraded"
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers Prometheus pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(PipelineRunsTotal)
	prometheus.MustRegister(PipelineRunDuration)
	prometheus.MustRegister(PipelineItemFailuresTotal)
	prometheus.MustRegister(ClustersTotal)
	prometheus.MustRegister(StoriesEnrichedTotal)
	pipelineMetricsRegistered = true
}
