// Package telemetry exposes the alert loop's own Prometheus metrics.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles prometheus collectors updated by the monitor loop.
type Metrics struct {
	SamplesTotal       prometheus.Counter
	SourceErrors       prometheus.Counter
	LatencyMs          prometheus.Gauge
	FailureRatePct     prometheus.Gauge
	AlertSeverity      prometheus.Gauge
	TransitionsTotal   *prometheus.CounterVec
	NotificationsTotal *prometheus.CounterVec
	LogEntries         *prometheus.GaugeVec
	PrunedTotal        *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates the collectors and registers them with registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		SamplesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "healthwatch_samples_total",
			Help: "Total number of metric samples classified.",
		}),
		SourceErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "healthwatch_source_errors_total",
			Help: "Total number of failed metric source reads.",
		}),
		LatencyMs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "healthwatch_sample_latency_ms",
			Help: "Latency of the most recent sample.",
		}),
		FailureRatePct: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "healthwatch_sample_failure_rate_pct",
			Help: "Failure rate of the most recent sample.",
		}),
		AlertSeverity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "healthwatch_alert_severity",
			Help: "Severity of the open alert: 0 none, 1 P2, 2 P1, 3 P0.",
		}),
		TransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "healthwatch_alert_transitions_total",
			Help: "Alert lifecycle transitions by kind and resulting severity.",
		}, []string{"transition", "severity"}),
		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "healthwatch_notifications_total",
			Help: "Notifications emitted by kind.",
		}, []string{"kind"}),
		LogEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "healthwatch_log_entries",
			Help: "Entries currently held per log.",
		}, []string{"log"}),
		PrunedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "healthwatch_log_pruned_total",
			Help: "Entries removed by the retention rule per log.",
		}, []string{"log"}),
		registry: registry,
	}

	registry.MustRegister(
		m.SamplesTotal,
		m.SourceErrors,
		m.LatencyMs,
		m.FailureRatePct,
		m.AlertSeverity,
		m.TransitionsTotal,
		m.NotificationsTotal,
		m.LogEntries,
		m.PrunedTotal,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
