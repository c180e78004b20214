// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	DemosIngested     prometheus.Counter
	EventsArchived    prometheus.Counter
	IngestionErrors   prometheus.Counter
	IngestionDuration prometheus.Histogram

	// Pipeline metrics
	TransformerRunsTotal *prometheus.CounterVec
	TransformerDuration  *prometheus.HistogramVec
	RecordsWritten       *prometheus.CounterVec
	PipelineRunsTotal    *prometheus.CounterVec

	// Analytics metrics
	MetricsComputed    prometheus.Counter
	MetricsCacheHits   prometheus.Counter
	MetricsCacheMisses prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulIngestion prometheus.Gauge
	LastSuccessfulPipeline  prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "cs_match_lab"
	}

	return &Metrics{
		// Ingestion metrics
		DemosIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "demos_ingested_total",
			Help:      "Total number of demos parsed and stored",
		}),
		EventsArchived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "events_archived_total",
			Help:      "Total number of raw match events stored",
		}),
		IngestionErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "errors_total",
			Help:      "Total number of failed demo ingestions",
		}),
		IngestionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "duration_seconds",
			Help:      "Demo parse and load duration in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
		}),

		// Pipeline metrics
		TransformerRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "transformer_runs_total",
			Help:      "Total transformer invocations by name and status",
		}, []string{"transformer", "status"}),
		TransformerDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "transformer_duration_seconds",
			Help:      "Transformer execution duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15},
		}, []string{"transformer"}),
		RecordsWritten: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "records_written_total",
			Help:      "Total records written by transformer",
		}, []string{"transformer"}),
		PipelineRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total pipeline runs by status",
		}, []string{"status"}),

		// Analytics metrics
		MetricsComputed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "metrics_computed_total",
			Help:      "Total player metric computations",
		}),
		MetricsCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "cache_hits_total",
			Help:      "Metric reads served from the cache",
		}),
		MetricsCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "cache_misses_total",
			Help:      "Metric reads that forced a recompute",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"store", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total database query errors",
		}, []string{"store", "operation"}),

		// Health metrics
		LastSuccessfulIngestion: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_ingestion_timestamp",
			Help:      "Unix timestamp of the last successful demo ingestion",
		}),
		LastSuccessfulPipeline: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_pipeline_timestamp",
			Help:      "Unix timestamp of the last successful pipeline run",
		}),
	}
}

// TransformerRan records a single transformer execution. It satisfies the
// pipeline's Observer interface.
func (m *Metrics) TransformerRan(name string, success bool, recordsWritten int, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.TransformerRunsTotal.WithLabelValues(name, status).Inc()
	m.TransformerDuration.WithLabelValues(name).Observe(duration.Seconds())
	m.RecordsWritten.WithLabelValues(name).Add(float64(recordsWritten))
}

// RecordPipelineRun records a complete pipeline outcome.
func (m *Metrics) RecordPipelineRun(success bool) {
	status := "success"
	if success {
		m.LastSuccessfulPipeline.SetToCurrentTime()
	} else {
		status = "failure"
	}
	m.PipelineRunsTotal.WithLabelValues(status).Inc()
}

// RecordIngestion records a demo ingestion attempt.
func (m *Metrics) RecordIngestion(eventCount int, duration time.Duration, err error) {
	if err != nil {
		m.IngestionErrors.Inc()
		return
	}
	m.DemosIngested.Inc()
	m.EventsArchived.Add(float64(eventCount))
	m.IngestionDuration.Observe(duration.Seconds())
	m.LastSuccessfulIngestion.SetToCurrentTime()
}

// RecordDBQuery records a database query duration and outcome.
func (m *Metrics) RecordDBQuery(store, operation string, duration time.Duration, err error) {
	m.DBQueryDuration.WithLabelValues(store, operation).Observe(duration.Seconds())
	if err != nil {
		m.DBQueryErrors.WithLabelValues(store, operation).Inc()
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
