package routing

import (
	"math"
	"sync"
	"time"

	"deckforge-hq/atlas/pkg/providers"
	"deckforge-hq/atlas/pkg/routing/strategies"
)

// State is the lifecycle state of a registered provider instance.
type State string

// Instance states. An unregistered name has no state at all.
const (
	StateInitializing State = "initializing"
	StateHealthy      State = "healthy"
	StateUnhealthy    State = "unhealthy"
	StateRemoved      State = "removed"
)

// InstanceMetrics is the Manager's view of the traffic sent to one provider
// instance. It is reset only by removing and re-adding the provider.
type InstanceMetrics struct {
	TotalRequests       int64         `json:"total_requests"`
	SuccessfulRequests  int64         `json:"successful_requests"`
	FailedRequests      int64         `json:"failed_requests"`
	AverageResponseTime time.Duration `json:"average_response_time"`
	TotalCost           float64       `json:"total_cost"`
	LastUsed            time.Time     `json:"last_used,omitempty"`
	HealthScore         float64       `json:"health_score"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
}

// InFlight estimates the attempts that have started but not finished.
func (m InstanceMetrics) InFlight() int64 {
	return m.TotalRequests - m.SuccessfulRequests - m.FailedRequests
}

// SuccessRate returns the fraction of finished attempts that succeeded,
// or 1 when nothing has finished yet.
func (m InstanceMetrics) SuccessRate() float64 {
	done := m.SuccessfulRequests + m.FailedRequests
	if done == 0 {
		return 1
	}
	return float64(m.SuccessfulRequests) / float64(done)
}

// instance pairs a live provider with its configuration, scheduling hints
// and Manager-owned state. Every mutable field is guarded by mu. Once
// removed, outcomes of attempts still in flight update the counters but
// never the state.
type instance struct {
	name     string
	provider providers.Provider
	config   providers.Config
	priority int
	weight   float64

	mu      sync.Mutex
	healthy bool
	state   State
	metrics InstanceMetrics
}

func newInstance(name string, p providers.Provider, cfg providers.Config, priority int, weight float64) *instance {
	return &instance{
		name:     name,
		provider: p,
		config:   cfg,
		priority: priority,
		weight:   weight,
		state:    StateInitializing,
		metrics:  InstanceMetrics{HealthScore: 1},
	}
}

// activate completes initialization and makes the instance eligible.
func (in *instance) activate() {
	in.mu.Lock()
	defer in.mu.Unlock()

	in.healthy = true
	in.state = StateHealthy
}

// countsTowardDemotion reports whether a failure of this kind advances the
// consecutive-failure counter. Local rate limiting says nothing about the
// backend's health.
func countsTowardDemotion(kind providers.ErrorKind) bool {
	switch kind {
	case providers.KindTransport, providers.KindModel, providers.KindAuthentication:
		return true
	default:
		return false
	}
}

// begin marks the start of an attempt.
func (in *instance) begin() {
	in.mu.Lock()
	defer in.mu.Unlock()

	in.metrics.TotalRequests++
}

// abandon takes back an attempt opened by begin that will never finish.
func (in *instance) abandon() {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.metrics.TotalRequests > in.metrics.SuccessfulRequests+in.metrics.FailedRequests {
		in.metrics.TotalRequests--
	}
}

// succeed records a successful attempt. It reports whether the instance
// came back from the unhealthy state.
func (in *instance) succeed(elapsed time.Duration, cost float64, now time.Time) (recovered bool) {
	in.mu.Lock()
	defer in.mu.Unlock()

	in.metrics.SuccessfulRequests++
	in.metrics.ConsecutiveFailures = 0
	in.metrics.TotalCost += cost
	in.finish(elapsed, now)

	if in.state == StateRemoved {
		return false
	}
	recovered = !in.healthy
	in.healthy = true
	in.state = StateHealthy
	return recovered
}

// fail records a failed attempt. It reports whether the failure pushed the
// instance over the unhealthy threshold.
func (in *instance) fail(kind providers.ErrorKind, elapsed time.Duration, now time.Time, threshold int) (demoted bool) {
	in.mu.Lock()
	defer in.mu.Unlock()

	in.metrics.FailedRequests++
	if countsTowardDemotion(kind) {
		in.metrics.ConsecutiveFailures++
	}
	in.finish(elapsed, now)

	if in.state != StateRemoved && in.healthy && in.metrics.ConsecutiveFailures >= threshold {
		in.healthy = false
		in.state = StateUnhealthy
		return true
	}
	return false
}

// finish folds the attempt latency into the running average and refreshes
// the derived fields. Callers hold mu.
func (in *instance) finish(elapsed time.Duration, now time.Time) {
	done := in.metrics.SuccessfulRequests + in.metrics.FailedRequests
	if done <= 1 {
		in.metrics.AverageResponseTime = elapsed
	} else {
		prev := in.metrics.AverageResponseTime
		in.metrics.AverageResponseTime = (prev*time.Duration(done-1) + elapsed) / time.Duration(done)
	}
	in.metrics.LastUsed = now
	in.metrics.HealthScore = healthScore(in.metrics)
}

// applyHealth folds a health-check verdict into the instance. It reports
// whether the healthy flag changed.
func (in *instance) applyHealth(ok bool) (changed bool) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.state == StateRemoved {
		return false
	}
	changed = in.healthy != ok
	in.healthy = ok
	if ok {
		in.metrics.ConsecutiveFailures = 0
		in.state = StateHealthy
	} else {
		in.metrics.ConsecutiveFailures++
		in.state = StateUnhealthy
	}
	in.metrics.HealthScore = healthScore(in.metrics)
	return changed
}

// markRemoved moves the instance to its terminal state.
func (in *instance) markRemoved() {
	in.mu.Lock()
	defer in.mu.Unlock()

	in.healthy = false
	in.state = StateRemoved
}

func (in *instance) isHealthy() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.healthy
}

// snapshot returns a copy of the metrics with the flag and state read under
// the same lock.
func (in *instance) snapshot() (InstanceMetrics, bool, State) {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.metrics, in.healthy, in.state
}

func (in *instance) candidate() strategies.Candidate {
	in.mu.Lock()
	defer in.mu.Unlock()

	return strategies.Candidate{
		Name:                in.name,
		Weight:              in.weight,
		Priority:            in.priority,
		InFlight:            in.metrics.InFlight(),
		AverageResponseTime: in.metrics.AverageResponseTime,
		TotalCost:           in.metrics.TotalCost,
		SuccessfulRequests:  in.metrics.SuccessfulRequests,
	}
}

// healthScore is success_rate × (1 − min(consecutive/10, 0.5)).
func healthScore(m InstanceMetrics) float64 {
	penalty := math.Min(float64(m.ConsecutiveFailures)/10, 0.5)
	return m.SuccessRate() * (1 - penalty)
}
