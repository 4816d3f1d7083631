// Package metrics provides Prometheus metrics collection for Atlas.
//
// # Overview
//
// The collector records what the provider manager does: completed requests,
// individual provider attempts, failovers, health probes and cost. The
// manager calls it on every request, so updates are cheap and a nil or
// disabled collector is a no-op.
//
// # Metrics Categories
//
//   - Request Metrics: Request count, duration and tokens
//   - Provider Metrics: Attempts, latency, errors, health and failovers
//   - Cost Metrics: Total cost and cost per request by provider/model
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	collector.RecordAttempt("primary", metrics.OutcomeSuccess, 800*time.Millisecond)
//	collector.RecordRequest("primary", "deepseek-chat", metrics.StatusSuccess,
//		time.Second, 1500, 0.0021)
//	collector.UpdateProviderHealth("primary", true, 0.98)
//
// # Prometheus Endpoint
//
// Handler exposes the collector's registry in the Prometheus exposition
// format; `atlas run` mounts it at telemetry.metrics.path:
//
//	# HELP atlas_gateway_requests_total Total number of completion requests processed
//	# TYPE atlas_gateway_requests_total counter
//	atlas_gateway_requests_total{model="deepseek-chat",provider="primary",status="success"} 12
//
// # Cardinality Management
//
// Request labels pass through a CardinalityLimiter. Past 10,000 unique
// combinations the model label is aggregated into "other".
package metrics
