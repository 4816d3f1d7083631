package metrics

import (
	"time"

	"deckforge-hq/atlas/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics covers Manager calls that reached a terminal outcome.
//
//   - atlas_gateway_requests_total{provider,model,status}
//   - atlas_gateway_request_duration_seconds{provider,model}
//   - atlas_gateway_request_tokens_total{provider,model,type}
//
// The provider label is the instance that produced the final outcome, so a
// call that failed over is counted once, under the backup.
type RequestMetrics struct {
	completed *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	tokens    *prometheus.CounterVec
}

// NewRequestMetrics registers the request vectors on registry.
func NewRequestMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RequestMetrics {
	opts := func(name, help string) prometheus.Opts {
		return prometheus.Opts{Namespace: cfg.Namespace, Subsystem: cfg.Subsystem, Name: name, Help: help}
	}

	rm := &RequestMetrics{
		completed: prometheus.NewCounterVec(
			prometheus.CounterOpts(opts("requests_total", "Completion requests by final provider and status")),
			[]string{"provider", "model", "status"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "End-to-end completion latency including retries and failover",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"provider", "model"},
		),
		tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts(opts("request_tokens_total", "Tokens billed, split by prompt, completion and total")),
			[]string{"provider", "model", "type"},
		),
	}

	registry.MustRegister(rm.completed, rm.latency, rm.tokens)
	return rm
}

// RecordRequest counts one finished request.
func (rm *RequestMetrics) RecordRequest(provider, model, status string, duration time.Duration, tokens int) {
	rm.completed.WithLabelValues(provider, model, status).Inc()
	rm.latency.WithLabelValues(provider, model).Observe(duration.Seconds())
	rm.addTokens(provider, model, "total", tokens)
}

// RecordTokens splits a request's usage into prompt and completion tokens.
func (rm *RequestMetrics) RecordTokens(provider, model string, promptTokens, completionTokens int) {
	rm.addTokens(provider, model, "prompt", promptTokens)
	rm.addTokens(provider, model, "completion", completionTokens)
}

func (rm *RequestMetrics) addTokens(provider, model, kind string, n int) {
	if n > 0 {
		rm.tokens.WithLabelValues(provider, model, kind).Add(float64(n))
	}
}
