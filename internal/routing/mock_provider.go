package routing

import (
	"context"
	"sync"
	"time"

	"deckforge-hq/atlas/pkg/providers"
)

// MockProvider is a scriptable providers.Provider for Manager tests.
// By default every call succeeds.
type MockProvider struct {
	mu sync.Mutex

	name string
	kind string

	initErr    error
	completeFn func(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error)
	chunks     []providers.StreamChunk
	healthy    bool
	estimate   *providers.CostEstimate
	costErr    error
	delay      time.Duration

	initCalls     int
	completeCalls int
	streamCalls   int
	healthCalls   int
	closed        bool
}

// NewMockProvider creates a mock provider with the given name.
func NewMockProvider(name string) *MockProvider {
	m := &MockProvider{
		name:    name,
		kind:    "mock",
		healthy: true,
		chunks:  []providers.StreamChunk{{Content: "mock "}, {Content: "stream"}},
		estimate: &providers.CostEstimate{
			EstimatedPromptTokens:     10,
			EstimatedCompletionTokens: 100,
			EstimatedTotalTokens:      110,
			EstimatedCostUSD:          0.000154,
			Model:                     "mock-model",
			Currency:                  "USD",
		},
	}
	m.SetResponse(&providers.CompletionResponse{
		Content:    "mock response from " + name,
		Confidence: 0.9,
		Reasoning:  "mock",
		Usage:      providers.Usage{PromptTokens: 40, CompletionTokens: 60, TotalTokens: 100, Cost: 0.00014},
		Provider:   "mock",
		Model:      "mock-model",
	})
	return m
}

// SetResponse makes Complete return a copy of resp.
func (m *MockProvider) SetResponse(resp *providers.CompletionResponse) {
	m.SetCompleteFunc(func(context.Context, *providers.CompletionRequest) (*providers.CompletionResponse, error) {
		cp := *resp
		cp.Metadata = map[string]any{}
		for k, v := range resp.Metadata {
			cp.Metadata[k] = v
		}
		return &cp, nil
	})
}

// SetError makes Complete fail with err.
func (m *MockProvider) SetError(err error) {
	m.SetCompleteFunc(func(context.Context, *providers.CompletionRequest) (*providers.CompletionResponse, error) {
		return nil, err
	})
}

// SetCompleteFunc scripts Complete.
func (m *MockProvider) SetCompleteFunc(fn func(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completeFn = fn
}

// SetDelay holds every Complete call for d (or until ctx is done).
func (m *MockProvider) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// SetInitError makes Initialize fail with err.
func (m *MockProvider) SetInitError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initErr = err
}

// SetHealthy sets the HealthCheck verdict.
func (m *MockProvider) SetHealthy(healthy bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthy = healthy
}

// SetStream sets the chunks delivered by Stream.
func (m *MockProvider) SetStream(chunks ...providers.StreamChunk) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = chunks
}

// SetCostEstimate sets the EstimateCost result.
func (m *MockProvider) SetCostEstimate(est *providers.CostEstimate, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.estimate = est
	m.costErr = err
}

// Initialize implements providers.Provider.
func (m *MockProvider) Initialize(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initCalls++
	return m.initErr
}

// ValidateCredential implements providers.Provider.
func (m *MockProvider) ValidateCredential(context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.healthy
}

// ListModels implements providers.Provider.
func (m *MockProvider) ListModels(context.Context) []string {
	return []string{"mock-model"}
}

// Complete implements providers.Provider.
func (m *MockProvider) Complete(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	m.mu.Lock()
	m.completeCalls++
	fn := m.completeFn
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, providers.NewError(providers.KindTransport, m.name, "request aborted", ctx.Err())
		}
	}
	return fn(ctx, req)
}

// Stream implements providers.Provider.
func (m *MockProvider) Stream(ctx context.Context, _ *providers.CompletionRequest) <-chan providers.StreamChunk {
	m.mu.Lock()
	m.streamCalls++
	chunks := append([]providers.StreamChunk(nil), m.chunks...)
	m.mu.Unlock()

	out := make(chan providers.StreamChunk)
	go func() {
		defer close(out)
		for _, c := range chunks {
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// EstimateCost implements providers.Provider.
func (m *MockProvider) EstimateCost(context.Context, *providers.CompletionRequest) (*providers.CostEstimate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.costErr != nil {
		return nil, m.costErr
	}
	cp := *m.estimate
	return &cp, nil
}

// HealthCheck implements providers.Provider.
func (m *MockProvider) HealthCheck(context.Context) providers.HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthCalls++

	status := providers.HealthStatus{
		Status:          providers.StatusHealthy,
		Provider:        m.kind,
		CredentialValid: m.healthy,
		AvailableModels: 1,
		Initialized:     true,
	}
	if !m.healthy {
		status.Status = providers.StatusUnhealthy
		status.Error = "mock unhealthy"
	}
	return status
}

// Metrics implements providers.Provider.
func (m *MockProvider) Metrics() providers.Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return providers.Metrics{TotalRequests: int64(m.completeCalls), Provider: m.kind, Model: "mock-model"}
}

// Name implements providers.Provider.
func (m *MockProvider) Name() string { return m.name }

// Kind implements providers.Provider.
func (m *MockProvider) Kind() string { return m.kind }

// Close implements providers.Provider.
func (m *MockProvider) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// CompleteCalls returns the number of Complete calls.
func (m *MockProvider) CompleteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completeCalls
}

// StreamCalls returns the number of Stream calls.
func (m *MockProvider) StreamCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.streamCalls
}

// HealthCalls returns the number of HealthCheck calls.
func (m *MockProvider) HealthCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.healthCalls
}

// InitCalls returns the number of Initialize calls.
func (m *MockProvider) InitCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initCalls
}

// Closed reports whether Close was called.
func (m *MockProvider) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
