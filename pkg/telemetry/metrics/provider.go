package metrics

import (
	"deckforge-hq/atlas/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ProviderMetrics tracks metrics related to provider health and performance.
//
// Metrics:
//   - atlas_gateway_provider_health: Provider health status (1=healthy, 0=unhealthy)
//   - atlas_gateway_provider_health_score: Composite health score in [0,1]
//   - atlas_gateway_provider_attempts_total: Attempts by outcome
//   - atlas_gateway_provider_latency_seconds: Attempt latency
//   - atlas_gateway_provider_errors_total: Provider error count by kind
//   - atlas_gateway_provider_health_checks_total: Health probes by result
//   - atlas_gateway_failovers_total: Moves from one provider to the next
//   - atlas_gateway_providers: Registered and healthy provider counts
type ProviderMetrics struct {
	health              *prometheus.GaugeVec
	score               *prometheus.GaugeVec
	attempts            *prometheus.CounterVec
	latency             *prometheus.HistogramVec
	errors              *prometheus.CounterVec
	healthChecks        *prometheus.CounterVec
	healthCheckDuration *prometheus.HistogramVec
	failovers           *prometheus.CounterVec
	count               *prometheus.GaugeVec
}

// NewProviderMetrics creates and registers provider metrics with the provided registry.
func NewProviderMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ProviderMetrics {
	pm := &ProviderMetrics{
		health: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_health",
				Help:      "Provider health status (1=healthy, 0=unhealthy)",
			},
			[]string{"provider"},
		),

		score: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_health_score",
				Help:      "Provider health score from success rate and consecutive failures",
			},
			[]string{"provider"},
		),

		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_attempts_total",
				Help:      "Total number of provider attempts by outcome",
			},
			[]string{"provider", "outcome"},
		),

		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_latency_seconds",
				Help:      "Provider attempt latency in seconds",
				Buckets:   cfg.RequestDurationBuckets, // Reuse request duration buckets
			},
			[]string{"provider"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_errors_total",
				Help:      "Total number of provider errors by kind",
			},
			[]string{"provider", "error_type"},
		),

		healthChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_health_checks_total",
				Help:      "Total number of provider health checks by result",
			},
			[]string{"provider", "result"},
		),

		healthCheckDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_health_check_duration_seconds",
				Help:      "Duration of provider health checks in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"provider"},
		),

		failovers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "failovers_total",
				Help:      "Total number of failovers from one provider to the next",
			},
			[]string{"from", "to"},
		),

		count: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "providers",
				Help:      "Number of providers by state",
			},
			[]string{"state"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		pm.health,
		pm.score,
		pm.attempts,
		pm.latency,
		pm.errors,
		pm.healthChecks,
		pm.healthCheckDuration,
		pm.failovers,
		pm.count,
	)

	return pm
}

// UpdateHealth updates the health status and score of a provider.
func (pm *ProviderMetrics) UpdateHealth(provider string, healthy bool, score float64) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	pm.health.WithLabelValues(provider).Set(value)
	pm.score.WithLabelValues(provider).Set(score)
}

// RecordAttempt counts one attempt against a provider.
func (pm *ProviderMetrics) RecordAttempt(provider, outcome string) {
	pm.attempts.WithLabelValues(provider, outcome).Inc()
}

// RecordLatency records the latency of a provider attempt.
func (pm *ProviderMetrics) RecordLatency(provider string, latencySeconds float64) {
	pm.latency.WithLabelValues(provider).Observe(latencySeconds)
}

// RecordError records an error from a provider. errorType is the
// providers.ErrorKind name (e.g., "RateLimited", "TransportFailure").
func (pm *ProviderMetrics) RecordError(provider, errorType string) {
	pm.errors.WithLabelValues(provider, errorType).Inc()
}

// RecordHealthCheck records the result and duration of a health probe.
func (pm *ProviderMetrics) RecordHealthCheck(provider string, healthy bool, durationSeconds float64) {
	result := "unhealthy"
	if healthy {
		result = "healthy"
	}
	pm.healthChecks.WithLabelValues(provider, result).Inc()
	pm.healthCheckDuration.WithLabelValues(provider).Observe(durationSeconds)
}

// RecordFailover counts a move from one provider to the next.
func (pm *ProviderMetrics) RecordFailover(from, to string) {
	pm.failovers.WithLabelValues(from, to).Inc()
}

// UpdateCount sets the registered and healthy provider gauges.
func (pm *ProviderMetrics) UpdateCount(registered, healthy int) {
	pm.count.WithLabelValues("registered").Set(float64(registered))
	pm.count.WithLabelValues("healthy").Set(float64(healthy))
}

// Remove deletes the gauges of a provider.
func (pm *ProviderMetrics) Remove(provider string) {
	pm.health.DeleteLabelValues(provider)
	pm.score.DeleteLabelValues(provider)
}
