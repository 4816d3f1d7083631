package metrics

import (
	"deckforge-hq/atlas/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// CostMetrics tracks cost-related metrics for completion requests.
//
// Metrics:
//   - atlas_gateway_cost_total: Total cost in USD by provider and model
//   - atlas_gateway_cost_per_request: Cost distribution per request (histogram)
//   - atlas_gateway_cost_per_token: Last observed cost per token
type CostMetrics struct {
	costTotal      *prometheus.CounterVec
	costPerRequest *prometheus.HistogramVec
	costPerToken   *prometheus.GaugeVec
}

// NewCostMetrics creates and registers cost metrics with the provided registry.
func NewCostMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CostMetrics {
	cm := &CostMetrics{
		costTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cost_total",
				Help:      "Total cost in USD by provider and model",
			},
			[]string{"provider", "model"},
		),

		costPerRequest: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cost_per_request",
				Help:      "Cost distribution per request in USD",
				// DeepSeek requests cost fractions of a cent
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"provider", "model"},
		),

		costPerToken: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cost_per_token",
				Help:      "Cost per token in USD by provider and model",
			},
			[]string{"provider", "model"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		cm.costTotal,
		cm.costPerRequest,
		cm.costPerToken,
	)

	return cm
}

// RecordRequestCost records the cost of a single request. Non-positive costs
// are ignored; tokens, when known, update the per-token gauge.
func (cm *CostMetrics) RecordRequestCost(provider, model string, costUSD float64, tokens int) {
	if costUSD <= 0 {
		return
	}

	cm.costTotal.WithLabelValues(provider, model).Add(costUSD)
	cm.costPerRequest.WithLabelValues(provider, model).Observe(costUSD)
	if tokens > 0 {
		cm.costPerToken.WithLabelValues(provider, model).Set(costUSD / float64(tokens))
	}
}
