// Package metrics holds the run counters pushed to a Prometheus Pushgateway.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics groups the counters of a pipeline process. A nil *Metrics is a no-op.
type Metrics struct {
	registry *prometheus.Registry

	ProviderRequests *prometheus.CounterVec
	CacheLookups     *prometheus.CounterVec
	GateOutcomes     *prometheus.CounterVec
	SinkWrites       *prometheus.CounterVec
	PostsGenerated   prometheus.Counter
	RunDuration      prometheus.Gauge
	RunErrors        prometheus.Gauge
}

// New registers every collector on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ProviderRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "content_pipeline_image_provider_requests_total",
			Help: "Image provider searches by provider and outcome",
		}, []string{"provider", "outcome"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "content_pipeline_image_cache_lookups_total",
			Help: "Provider cache lookups by result",
		}, []string{"result"}),
		GateOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "content_pipeline_quality_gate_outcomes_total",
			Help: "Quality gate terminal states",
		}, []string{"outcome"}),
		SinkWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "content_pipeline_sink_writes_total",
			Help: "Sink write attempts by sink and outcome",
		}, []string{"sink", "outcome"}),
		PostsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "content_pipeline_posts_generated_total",
			Help: "Posts produced by the generation step",
		}),
		RunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "content_pipeline_last_run_duration_seconds",
			Help: "Wall time of the last run",
		}),
		RunErrors: factory.NewGauge(prometheus.GaugeOpts{
			Name: "content_pipeline_last_run_errors",
			Help: "Errors recorded by the last run",
		}),
	}
}

// Registry exposes the underlying registry for scraping or tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ProviderRequest counts one provider search.
func (m *Metrics) ProviderRequest(provider string, err error) {
	if m == nil {
		return
	}
	m.ProviderRequests.WithLabelValues(provider, outcome(err)).Inc()
}

// CacheLookup counts a cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// GateOutcome counts a terminal quality gate state.
func (m *Metrics) GateOutcome(state string) {
	if m == nil {
		return
	}
	m.GateOutcomes.WithLabelValues(state).Inc()
}

// SinkWrite counts a sink attempt.
func (m *Metrics) SinkWrite(sink string, succeeded bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !succeeded {
		result = "error"
	}
	m.SinkWrites.WithLabelValues(sink, result).Inc()
}

// RunFinished records run-level gauges.
func (m *Metrics) RunFinished(posts int, errors int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.PostsGenerated.Add(float64(posts))
	m.RunErrors.Set(float64(errors))
	m.RunDuration.Set(elapsed.Seconds())
}

// Push sends every collector to a Pushgateway.
func (m *Metrics) Push(ctx context.Context, gatewayURL, job string) error {
	if m == nil || gatewayURL == "" {
		return nil
	}
	if err := push.New(gatewayURL, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
