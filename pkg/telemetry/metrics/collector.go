package metrics

import (
	"fmt"
	"sync"
	"time"

	"deckforge-hq/atlas/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Request statuses recorded on the requests_total counter.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Attempt outcomes recorded on the provider_attempts_total counter.
const (
	OutcomeSuccess     = "success"
	OutcomeFailure     = "failure"
	OutcomeRateLimited = "rate_limited"
	OutcomeCancelled   = "cancelled"
)

// Collector is the main orchestrator for all Prometheus metrics in Atlas.
// It manages metric registration, collection, and provides a unified interface
// for recording metrics from the provider manager.
//
// A nil *Collector and a collector built from a disabled configuration are
// both valid and record nothing.
type Collector struct {
	config   config.MetricsConfig
	registry *prometheus.Registry

	// Manager-level request metrics
	requestMetrics *RequestMetrics

	// Per-provider metrics
	providerMetrics *ProviderMetrics

	// Cost metrics
	costMetrics *CostMetrics

	// Cardinality tracking
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is used.
// A nil cfg yields a disabled collector.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:    true,
//		Namespace:  "atlas",
//		Subsystem:  "gateway",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	var settings config.MetricsConfig
	if cfg != nil {
		settings = *cfg
	}

	// Set defaults if not specified
	if settings.Namespace == "" {
		settings.Namespace = config.DefaultMetricsNamespace
	}
	if settings.Subsystem == "" {
		settings.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(settings.RequestDurationBuckets) == 0 {
		settings.RequestDurationBuckets = config.DefaultRequestDurationBuckets
	}

	c := &Collector{
		config:             settings,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(10000), // Max 10K unique label sets
	}

	// Initialize metric subsystems
	c.requestMetrics = NewRequestMetrics(&c.config, registry)
	c.providerMetrics = NewProviderMetrics(&c.config, registry)
	c.costMetrics = NewCostMetrics(&c.config, registry)

	return c
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordRequest records metrics for a completed manager request.
//
// Parameters:
//   - provider: Provider instance that served the request, or "none"
//   - model: Model name reported by the response
//   - status: Request status ("success", "error")
//   - duration: Total request duration, failover included
//   - tokens: Total token count (prompt + completion)
//   - cost: Total request cost in USD
//
// Example:
//
//	collector.RecordRequest(
//		"primary",
//		"deepseek-chat",
//		"success",
//		1200*time.Millisecond,
//		1500,
//		0.0021,
//	)
func (c *Collector) RecordRequest(provider, model, status string, duration time.Duration, tokens int, cost float64) {
	if !c.enabled() {
		return
	}

	// Check cardinality limit
	labelSet := fmt.Sprintf("request:%s:%s:%s", provider, model, status)
	if !c.cardinalityLimiter.Allow(labelSet) {
		// Aggregate into "other" to prevent cardinality explosion
		model = "other"
	}

	c.requestMetrics.RecordRequest(provider, model, status, duration, tokens)
	c.costMetrics.RecordRequestCost(provider, model, cost, tokens)
}

// RecordTokens records prompt and completion token counts.
func (c *Collector) RecordTokens(provider, model string, promptTokens, completionTokens int) {
	if !c.enabled() {
		return
	}

	c.requestMetrics.RecordTokens(provider, model, promptTokens, completionTokens)
}

// RecordAttempt records one provider attempt made by the manager.
//
// Parameters:
//   - provider: Provider instance name
//   - outcome: "success", "failure" or "rate_limited"
//   - latency: Attempt duration
func (c *Collector) RecordAttempt(provider, outcome string, latency time.Duration) {
	if !c.enabled() {
		return
	}

	c.providerMetrics.RecordAttempt(provider, outcome)
	c.providerMetrics.RecordLatency(provider, latency.Seconds())
}

// RecordProviderError records an error from a provider.
//
// Parameters:
//   - provider: Provider instance name
//   - errorType: Error kind name (e.g., "RateLimited", "TransportFailure", "ModelFailure")
func (c *Collector) RecordProviderError(provider, errorType string) {
	if !c.enabled() {
		return
	}

	c.providerMetrics.RecordError(provider, errorType)
}

// UpdateProviderHealth updates the health status and score of a provider.
//
// The health metric is a gauge where 1=healthy, 0=unhealthy.
func (c *Collector) UpdateProviderHealth(provider string, healthy bool, score float64) {
	if !c.enabled() {
		return
	}

	c.providerMetrics.UpdateHealth(provider, healthy, score)
}

// RecordHealthCheck records one health probe.
func (c *Collector) RecordHealthCheck(provider string, healthy bool, duration time.Duration) {
	if !c.enabled() {
		return
	}

	c.providerMetrics.RecordHealthCheck(provider, healthy, duration.Seconds())
}

// RecordFailover records the manager moving from one provider to the next.
func (c *Collector) RecordFailover(from, to string) {
	if !c.enabled() {
		return
	}

	c.providerMetrics.RecordFailover(from, to)
}

// UpdateProviderCount sets the number of registered and healthy providers.
func (c *Collector) UpdateProviderCount(registered, healthy int) {
	if !c.enabled() {
		return
	}

	c.providerMetrics.UpdateCount(registered, healthy)
}

// RemoveProvider drops the per-provider gauges of a removed instance.
func (c *Collector) RemoveProvider(provider string) {
	if !c.enabled() {
		return
	}

	c.providerMetrics.Remove(provider)
}

// Registry returns the Prometheus registry used by this collector.
// This can be used to create an HTTP handler for the /metrics endpoint:
//
//	http.Handle("/metrics", promhttp.HandlerFor(
//		collector.Registry(),
//		promhttp.HandlerOpts{},
//	))
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
// Returns false if adding this label set would exceed the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
