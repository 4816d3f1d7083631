package providers

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	var c Counters

	c.Record(true, 100, 10*time.Millisecond)
	c.Record(false, 0, 30*time.Millisecond)
	c.RateLimitHit()

	m := c.Snapshot("primary", "deepseek-chat")
	assert.Equal(t, int64(2), m.TotalRequests)
	assert.Equal(t, int64(1), m.SuccessfulRequests)
	assert.Equal(t, int64(1), m.FailedRequests)
	assert.Equal(t, int64(100), m.TotalTokensUsed)
	assert.Equal(t, 20*time.Millisecond, m.AverageResponseTime)
	assert.Equal(t, int64(1), m.RateLimitHits)
	assert.InDelta(t, 50.0, m.SuccessRate, 1e-9)
	assert.Equal(t, "primary", m.Provider)
	assert.Equal(t, "deepseek-chat", m.Model)
}

func TestCounters_Concurrent(t *testing.T) {
	var c Counters
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Record(true, 1, time.Millisecond)
		}()
	}
	wg.Wait()

	m := c.Snapshot("p", "m")
	assert.Equal(t, int64(50), m.TotalRequests)
	assert.Equal(t, int64(50), m.TotalTokensUsed)
}
