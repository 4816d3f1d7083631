package routing

import (
	"time"

	"deckforge-hq/atlas/pkg/providers"
)

// ProviderStatus is the per-provider entry returned by Manager.ProviderStatus.
type ProviderStatus struct {
	// Health is the verdict of a fresh provider health check
	Health providers.HealthStatus `json:"health"`

	// Kind is the provider kind (e.g., "deepseek")
	Kind string `json:"kind"`

	// Metrics is the Manager's view of traffic sent to the provider
	Metrics InstanceMetrics `json:"metrics"`

	Priority int     `json:"priority"`
	Weight   float64 `json:"weight"`

	// Healthy is the eligibility flag used for selection. It may differ from
	// Health until the next monitor sweep applies the verdict.
	Healthy bool  `json:"is_healthy"`
	State   State `json:"state"`
}

// GlobalMetrics aggregates request outcomes across every provider.
// One GenerateCompletion or GenerateStream call counts as one request,
// whatever the number of attempts it made.
type GlobalMetrics struct {
	TotalRequests       int64         `json:"total_requests"`
	TotalSuccessful     int64         `json:"total_successful"`
	TotalFailed         int64         `json:"total_failed"`
	TotalCost           float64       `json:"total_cost"`
	AverageResponseTime time.Duration `json:"average_response_time"`
	ActiveProviders     int           `json:"active_providers"`
	TotalProviders      int           `json:"total_providers"`
	Strategy            string        `json:"strategy"`
}

// globalCounters is the mutable part of GlobalMetrics, guarded by
// Manager.globalMu.
type globalCounters struct {
	total      int64
	successful int64
	failed     int64
	cost       float64
	avg        time.Duration
}

func (g *globalCounters) record(success bool, elapsed time.Duration, cost float64) {
	g.total++
	if success {
		g.successful++
	} else {
		g.failed++
	}
	g.cost += cost
	g.avg = (g.avg*time.Duration(g.total-1) + elapsed) / time.Duration(g.total)
}
