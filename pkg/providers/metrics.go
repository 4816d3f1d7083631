package providers

import (
	"sync"
	"time"
)

// Counters accumulates a provider's own traffic metrics.
// It is safe for concurrent use.
type Counters struct {
	mu        sync.Mutex
	total     int64
	succeeded int64
	failed    int64
	tokens    int64
	avg       time.Duration
	rateHits  int64
}

// Record updates the counters after one completion.
func (c *Counters) Record(success bool, tokens int, elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.total++
	if success {
		c.succeeded++
	} else {
		c.failed++
	}
	c.tokens += int64(tokens)
	c.avg = time.Duration((int64(c.avg)*(c.total-1) + int64(elapsed)) / c.total)
}

// RateLimitHit counts a local admission rejection.
func (c *Counters) RateLimitHit() {
	c.mu.Lock()
	c.rateHits++
	c.mu.Unlock()
}

// Snapshot returns the current counters.
func (c *Counters) Snapshot(provider, model string) Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	var rate float64
	if c.total > 0 {
		rate = float64(c.succeeded) / float64(c.total) * 100
	}
	return Metrics{
		TotalRequests:       c.total,
		SuccessfulRequests:  c.succeeded,
		FailedRequests:      c.failed,
		TotalTokensUsed:     c.tokens,
		AverageResponseTime: c.avg,
		RateLimitHits:       c.rateHits,
		SuccessRate:         rate,
		Provider:            provider,
		Model:               model,
	}
}
