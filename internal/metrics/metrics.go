// Package metrics holds the Prometheus collectors for claim processing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is nil-safe: every Record method on a nil receiver is a no-op, so
// components can run without a registry in tests.
type Metrics struct {
	ModelAttemptsTotal   *prometheus.CounterVec
	CacheLookupsTotal    *prometheus.CounterVec
	PipelineRunsTotal    *prometheus.CounterVec
	PipelineDuration     *prometheus.HistogramVec
	PersistFailuresTotal *prometheus.CounterVec
}

// New registers the collectors on reg. Passing prometheus.DefaultRegisterer
// exposes them through promhttp.Handler().
//
// Metrics:
//   - claims_model_attempts_total{outcome} - valid, invalid or error
//   - claims_text_cache_lookups_total{result} - hit, miss or error
//   - claims_pipeline_runs_total{operation,status}
//   - claims_pipeline_duration_seconds{operation}
//   - claims_persist_failures_total{stage}
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ModelAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "claims_model_attempts_total",
				Help: "Total number of model calls made while analyzing claims",
			},
			[]string{"outcome"},
		),
		CacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "claims_text_cache_lookups_total",
				Help: "Extracted-text cache lookups by result",
			},
			[]string{"result"},
		),
		PipelineRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "claims_pipeline_runs_total",
				Help: "Claim processing runs by operation and final status",
			},
			[]string{"operation", "status"},
		),
		PipelineDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "claims_pipeline_duration_seconds",
				Help:    "Duration of claim processing runs",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
			},
			[]string{"operation"},
		),
		PersistFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "claims_persist_failures_total",
				Help: "Bookkeeping failures by pipeline stage",
			},
			[]string{"stage"},
		),
	}
}

func (m *Metrics) RecordModelAttempt(outcome string) {
	if m == nil {
		return
	}
	m.ModelAttemptsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordCacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookupsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordPipelineRun(operation, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.PipelineRunsTotal.WithLabelValues(operation, status).Inc()
	m.PipelineDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordPersistFailure(stage string) {
	if m == nil {
		return
	}
	m.PersistFailuresTotal.WithLabelValues(stage).Inc()
}
