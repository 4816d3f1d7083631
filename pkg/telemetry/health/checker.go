package health

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"deckforge-hq/atlas/pkg/routing"
)

// Probe statuses.
const (
	StatusOK        = "ok"
	StatusReady     = "ready"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// DefaultCheckTimeout bounds each readiness check.
const DefaultCheckTimeout = 5 * time.Second

// CheckFunc reports whether a component can serve traffic.
// It returns nil when healthy, or an error describing the problem.
type CheckFunc func(ctx context.Context) error

// CheckResult is the outcome of one readiness check.
type CheckResult struct {
	Status   string        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration_ns,omitempty"`
}

// Report is the body of a liveness or readiness probe.
type Report struct {
	// Status is "ok" (liveness), "ready" or "degraded" (readiness)
	Status string `json:"status"`

	Checks map[string]CheckResult `json:"checks,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Ready reports whether every readiness check passed.
func (r Report) Ready() bool {
	return r.Status == StatusOK || r.Status == StatusReady
}

// Checker runs the readiness checks registered by the process.
// It is safe for concurrent use.
type Checker struct {
	mu      sync.RWMutex
	checks  map[string]CheckFunc
	timeout time.Duration
	now     func() time.Time
}

// ErrCheckTimeout is reported when a check outlives the check timeout.
var ErrCheckTimeout = errors.New("health check timeout")

// New creates a checker. A zero timeout selects DefaultCheckTimeout.
func New(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	return &Checker{
		checks:  make(map[string]CheckFunc),
		timeout: timeout,
		now:     time.Now,
	}
}

// RegisterCheck registers check under name, replacing any previous one.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.checks[name] = check
}

// UnregisterCheck removes the named check.
func (c *Checker) UnregisterCheck(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.checks, name)
}

// ListChecks returns the registered check names in sorted order.
func (c *Checker) ListChecks() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckLiveness reports that the process is running.
func (c *Checker) CheckLiveness(context.Context) Report {
	return Report{Status: StatusOK, Timestamp: c.now()}
}

// CheckReadiness runs every registered check concurrently. The report is
// "ready" when all pass and "degraded" otherwise.
func (c *Checker) CheckReadiness(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	results := make(map[string]CheckResult, len(checks))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for name, check := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := c.run(ctx, check)

			mu.Lock()
			results[name] = result
			mu.Unlock()
		}()
	}
	wg.Wait()

	status := StatusReady
	for _, result := range results {
		if result.Status != StatusOK {
			status = StatusDegraded
		}
	}
	return Report{Status: status, Checks: results, Timestamp: c.now()}
}

// run executes one check under the check timeout.
func (c *Checker) run(ctx context.Context, check CheckFunc) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := c.now()
	done := make(chan error, 1)
	go func() { done <- check(ctx) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ErrCheckTimeout
	}

	result := CheckResult{Status: StatusOK, Duration: c.now().Sub(start)}
	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = err.Error()
	}
	return result
}

// ManagerStats is the part of the provider Manager readiness depends on.
type ManagerStats interface {
	GlobalMetrics() routing.GlobalMetrics
}

// ProvidersCheck passes while at least one registered provider is eligible
// for selection.
func ProvidersCheck(m ManagerStats) CheckFunc {
	return func(context.Context) error {
		g := m.GlobalMetrics()
		switch {
		case g.TotalProviders == 0:
			return errors.New("no providers registered")
		case g.ActiveProviders == 0:
			return fmt.Errorf("no healthy providers (%d registered)", g.TotalProviders)
		default:
			return nil
		}
	}
}
