package routing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"deckforge-hq/atlas/pkg/config"
	"deckforge-hq/atlas/pkg/providerfactory"
	"deckforge-hq/atlas/pkg/providers"
	"deckforge-hq/atlas/pkg/routing/strategies"
	"deckforge-hq/atlas/pkg/telemetry/metrics"
	"deckforge-hq/atlas/pkg/telemetry/tracing"
)

// Metadata keys stamped on every response served by the Manager.
const (
	MetadataProviderName = "provider_name"
	MetadataResponseTime = "response_time"
	MetadataRequestID    = "request_id"
)

// Manager owns a named set of provider instances. It orders the healthy
// ones with the configured strategy, fails over across the ordering, tracks
// per-provider metrics and health, and runs the periodic health monitor.
//
// Manager is safe for concurrent use. Candidates of a single call are tried
// sequentially; different calls proceed in parallel.
type Manager struct {
	logger  *zap.Logger
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	factory *providerfactory.Registry
	deps    providerfactory.Deps
	now     func() time.Time

	strategy     strategies.Strategy
	strategyOpts []strategies.Option
	threshold    int
	interval     time.Duration
	monitor      *healthMonitor

	mu        sync.RWMutex
	instances map[string]*instance
	closed    bool

	globalMu sync.Mutex
	global   globalCounters
}

// NewManager creates a Manager from its configuration. Zero-valued fields
// take their defaults; an unknown strategy is an error.
//
// Example:
//
//	m, err := routing.NewManager(&cfg.Manager,
//		routing.WithLogger(logger),
//		routing.WithMetrics(collector),
//	)
//	if err != nil {
//		return err
//	}
//	defer m.Close()
func NewManager(cfg *config.ManagerConfig, opts ...Option) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("manager config cannot be nil")
	}

	m := &Manager{
		logger:    zap.NewNop(),
		tracer:    tracing.Noop(),
		factory:   providerfactory.Default(),
		now:       time.Now,
		threshold: cfg.UnhealthyThreshold,
		interval:  cfg.HealthCheckInterval,
		instances: make(map[string]*instance),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.deps.Logger == nil {
		m.deps.Logger = m.logger
	}
	m.logger = m.logger.Named("manager")

	if m.threshold <= 0 {
		m.threshold = config.DefaultUnhealthyThreshold
	}
	if m.interval <= 0 {
		m.interval = config.DefaultHealthCheckInterval
	}

	strategy, err := strategies.New(cfg.Strategy, m.strategyOpts...)
	if err != nil {
		return nil, err
	}
	m.strategy = strategy
	m.monitor = newHealthMonitor(m.interval, m.CheckHealth, m.logger.Named("health"))

	return m, nil
}

// AddProvider builds a provider of the given kind, initializes it and
// registers it under name. An empty kind keeps cfg.Kind.
//
// Initialization happens outside the registry lock. If it fails the name
// stays unregistered (or keeps its previous instance). A name collision
// replaces the old instance and closes it. The health monitor starts with
// the first registered provider.
func (m *Manager) AddProvider(ctx context.Context, name, kind string, cfg providers.Config, priority int, weight float64) error {
	if name == "" {
		return &providers.ConfigError{Field: "name", Message: "provider name is required"}
	}
	if m.isClosed() {
		return ErrManagerClosed
	}

	cfg.Name = name
	if kind != "" {
		cfg.Kind = kind
	}

	provider, err := m.factory.New(cfg, m.deps)
	if err != nil {
		return fmt.Errorf("failed to add provider %q: %w", name, err)
	}

	in := newInstance(name, provider, cfg, priority, weight)
	if err := provider.Initialize(ctx); err != nil {
		m.logger.Error("failed to initialize provider",
			zap.String("provider", name),
			zap.String("kind", provider.Kind()),
			zap.Error(err),
		)
		m.closeProvider(name, provider)
		return fmt.Errorf("failed to initialize provider %q: %w", name, err)
	}
	in.activate()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.closeProvider(name, provider)
		return ErrManagerClosed
	}
	old := m.instances[name]
	m.instances[name] = in
	total := len(m.instances)
	m.mu.Unlock()

	if old != nil {
		m.logger.Warn("replacing existing provider", zap.String("provider", name))
		old.markRemoved()
		m.closeProvider(name, old.provider)
	}

	m.publishHealth(in)
	m.publishProviderCount()

	m.logger.Info("provider added",
		zap.String("provider", name),
		zap.String("kind", provider.Kind()),
		zap.Int("priority", priority),
		zap.Float64("weight", weight),
		zap.Int("total_providers", total),
	)

	m.syncMonitor()
	return nil
}

// RemoveProvider unregisters and closes the named provider. The health
// monitor stops when the last provider is removed.
func (m *Manager) RemoveProvider(name string) error {
	m.mu.Lock()
	in, ok := m.instances[name]
	if !ok {
		available := m.namesLocked()
		m.mu.Unlock()
		return &ProviderNotFoundError{ProviderName: name, AvailableProviders: available}
	}
	delete(m.instances, name)
	remaining := len(m.instances)
	m.mu.Unlock()

	in.markRemoved()
	m.closeProvider(name, in.provider)
	m.metrics.RemoveProvider(name)
	m.publishProviderCount()

	m.logger.Info("provider removed",
		zap.String("provider", name),
		zap.Int("remaining_providers", remaining),
	)

	m.syncMonitor()
	return nil
}

// GenerateCompletion serves req from the best available provider.
//
// The candidate ordering is the preferred provider first (when registered
// and healthy) followed, when fallback is on, by the strategy ordering of
// the remaining healthy providers. A preferred name that is not registered
// falls back to the strategy ordering of every healthy provider.
//
// Candidates are tried one at a time and the first success wins. If the
// ordering is empty or every candidate fails, the error is a
// *providers.Error of kind NoProviderAvailable wrapping the last failure.
func (m *Manager) GenerateCompletion(ctx context.Context, req *providers.CompletionRequest, preferred string, fallback bool) (*providers.CompletionResponse, error) {
	if m.isClosed() {
		return nil, ErrManagerClosed
	}
	if req == nil {
		return nil, errNilRequest()
	}

	start := m.now()
	requestID := uuid.NewString()
	logger := m.logger.With(zap.String("request_id", requestID))

	ctx, span := m.tracer.Start(ctx, "manager.generate_completion",
		tracing.NewAttributeBuilder().
			WithRequest(requestID, req.OperationType, false).
			Build())
	defer span.End()

	candidates := m.order(preferred, fallback)
	names := instanceNames(candidates)
	tracing.NewAttributeBuilder().WithRouting(m.strategy.Name(), preferred, names).Apply(span)

	if len(candidates) == 0 {
		err := noHealthyProviders()
		m.recordRequestFailure(span, start, err)
		logger.Error("completion failed", zap.Error(err))
		return nil, err
	}

	var (
		lastErr   error
		attempted []string
	)
	for i, in := range candidates {
		if ctx.Err() != nil {
			if lastErr == nil {
				lastErr = ctx.Err()
			}
			break
		}
		if i > 0 {
			prev := candidates[i-1].name
			m.metrics.RecordFailover(prev, in.name)
			tracing.AddFailoverEvent(span, prev, in.name, lastErr)
			logger.Info("failing over", zap.String("from", prev), zap.String("to", in.name))
		}
		attempted = append(attempted, in.name)

		resp, err := m.attempt(ctx, in, req, i+1)
		if err != nil {
			lastErr = err
			logger.Warn("provider failed",
				zap.String("provider", in.name),
				zap.String("error_type", providers.KindOf(err).String()),
				zap.Error(err),
			)
			continue
		}

		elapsed := m.now().Sub(start)
		if resp.Metadata == nil {
			resp.Metadata = make(map[string]any)
		}
		resp.Metadata[MetadataProviderName] = in.name
		resp.Metadata[MetadataResponseTime] = elapsed.Seconds()
		resp.Metadata[MetadataRequestID] = requestID

		m.recordGlobal(true, elapsed, resp.Usage.Cost)
		m.metrics.RecordRequest(in.name, resp.Model, metrics.StatusSuccess, elapsed, resp.Usage.TotalTokens, resp.Usage.Cost)
		m.metrics.RecordTokens(in.name, resp.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

		tracing.SetProviderAttributes(span, in.name, resp.Model)
		tracing.SetTokenAttributes(span, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
		tracing.SetCostAttributes(span, resp.Usage.Cost, "USD")
		tracing.SetStatus(span, nil)

		logger.Debug("completion served",
			zap.String("provider", in.name),
			zap.String("model", resp.Model),
			zap.Int("attempts", len(attempted)),
			zap.Duration("elapsed", elapsed),
		)
		return resp, nil
	}

	err := allProvidersFailed(attempted, lastErr)
	span.AddEvent(tracing.EventExhausted)
	m.recordRequestFailure(span, start, err)
	logger.Error("all providers failed",
		zap.Strings("attempted", attempted),
		zap.Error(lastErr),
	)
	return nil, err
}

// attempt sends req to one provider and folds the outcome into its metrics.
func (m *Manager) attempt(ctx context.Context, in *instance, req *providers.CompletionRequest, n int) (*providers.CompletionResponse, error) {
	ctx, span := m.tracer.Start(ctx, "manager.attempt",
		tracing.NewAttributeBuilder().
			WithProvider(in.name, in.provider.Kind()).
			WithAttempt(n).
			Build())
	defer span.End()

	in.begin()
	started := m.now()
	resp, err := in.provider.Complete(ctx, req)
	if err == nil && resp == nil {
		err = providers.NewError(providers.KindModel, in.name, "provider returned no response", nil)
	}
	finished := m.now()
	elapsed := finished.Sub(started)

	if err != nil {
		kind := providers.KindOf(err)
		m.finishAttempt(in, false, kind, elapsed, 0, finished)
		tracing.SetErrorAttributes(span, err, kind.String())
		return nil, err
	}

	m.finishAttempt(in, true, providers.KindUnknown, elapsed, resp.Usage.Cost, finished)
	tracing.SetProviderAttributes(span, in.name, resp.Model)
	tracing.SetStatus(span, nil)
	return resp, nil
}

// finishAttempt applies one attempt outcome to the instance and publishes
// its metrics.
func (m *Manager) finishAttempt(in *instance, success bool, kind providers.ErrorKind, elapsed time.Duration, cost float64, now time.Time) {
	if success {
		if in.succeed(elapsed, cost, now) {
			m.logger.Info("provider recovered", zap.String("provider", in.name))
			m.publishProviderCount()
		}
		m.metrics.RecordAttempt(in.name, metrics.OutcomeSuccess, elapsed)
		m.publishHealth(in)
		return
	}

	outcome := metrics.OutcomeFailure
	if kind == providers.KindRateLimited {
		outcome = metrics.OutcomeRateLimited
	}
	m.metrics.RecordAttempt(in.name, outcome, elapsed)
	m.metrics.RecordProviderError(in.name, kind.String())

	if in.fail(kind, elapsed, now, m.threshold) {
		m.logger.Warn("provider marked unhealthy",
			zap.String("provider", in.name),
			zap.Int("threshold", m.threshold),
		)
		m.publishProviderCount()
	}
	m.publishHealth(in)
}

func errNilRequest() error {
	return &providers.ConfigError{Field: "request", Message: "completion request is required"}
}

// abandonAttempt withdraws an attempt the caller gave up on. The provider's
// counters and health are left as they were before the attempt.
func (m *Manager) abandonAttempt(in *instance, elapsed time.Duration) {
	in.abandon()
	m.metrics.RecordAttempt(in.name, metrics.OutcomeCancelled, elapsed)
}

// GenerateStream streams req from a single provider: the preferred one when
// registered and healthy, else the first of the strategy ordering. There is
// no failover once a stream has been handed out. Failures, including the
// absence of any healthy provider, arrive as the terminal chunk.
func (m *Manager) GenerateStream(ctx context.Context, req *providers.CompletionRequest, preferred string) <-chan providers.StreamChunk {
	out := make(chan providers.StreamChunk)

	var (
		in  *instance
		err error
	)
	if req == nil {
		err = errNilRequest()
	} else {
		in, err = m.streamTarget(preferred)
	}
	if err != nil {
		m.logger.Error("streaming failed", zap.Error(err))
		m.recordGlobal(false, 0, 0)
		go func() {
			defer close(out)
			select {
			case out <- providers.ErrorChunk(err):
			case <-ctx.Done():
			}
		}()
		return out
	}

	go func() {
		defer close(out)
		m.relayStream(ctx, in, req, out)
	}()
	return out
}

func (m *Manager) relayStream(ctx context.Context, in *instance, req *providers.CompletionRequest, out chan<- providers.StreamChunk) {
	requestID := uuid.NewString()
	ctx, span := m.tracer.Start(ctx, "manager.generate_stream",
		tracing.NewAttributeBuilder().
			WithRequest(requestID, req.OperationType, true).
			WithProvider(in.name, in.provider.Kind()).
			WithRouting(m.strategy.Name(), "", []string{in.name}).
			Build())
	defer span.End()

	in.begin()
	started := m.now()

	var (
		streamErr error
		aborted   bool
	)
	src := in.provider.Stream(ctx, req)
relay:
	for chunk := range src {
		if chunk.Err != nil {
			streamErr = chunk.Err
		}
		select {
		case out <- chunk:
		case <-ctx.Done():
			aborted = true
			break relay
		}
	}
	if aborted {
		// the provider closes src once it observes the cancellation
		for range src {
		}
	}

	finished := m.now()
	elapsed := finished.Sub(started)
	switch {
	case aborted || ctx.Err() != nil:
		// abandoned by the caller: neither a success nor a provider failure
		m.abandonAttempt(in, elapsed)
		tracing.SetStatus(span, ctx.Err())
	case streamErr != nil:
		kind := providers.KindOf(streamErr)
		m.finishAttempt(in, false, kind, elapsed, 0, finished)
		m.recordGlobal(false, elapsed, 0)
		tracing.SetErrorAttributes(span, streamErr, kind.String())
		m.logger.Warn("stream failed",
			zap.String("request_id", requestID),
			zap.String("provider", in.name),
			zap.Error(streamErr),
		)
	default:
		m.finishAttempt(in, true, providers.KindUnknown, elapsed, 0, finished)
		m.recordGlobal(true, elapsed, 0)
		tracing.SetStatus(span, nil)
	}
}

func (m *Manager) streamTarget(preferred string) (*instance, error) {
	if m.isClosed() {
		return nil, ErrManagerClosed
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if in, ok := m.instances[preferred]; ok && in.isHealthy() {
		return in, nil
	}
	ordered := m.strategyOrderLocked(m.healthyLocked(""))
	if len(ordered) == 0 {
		return nil, noHealthyProviders()
	}
	return ordered[0], nil
}

// EstimateCost asks every healthy provider for a cost estimate of req.
// Providers whose estimate fails are logged and left out of the result.
func (m *Manager) EstimateCost(ctx context.Context, req *providers.CompletionRequest) map[string]*providers.CostEstimate {
	m.mu.RLock()
	healthy := m.healthyLocked("")
	m.mu.RUnlock()

	estimates := make(map[string]*providers.CostEstimate, len(healthy))
	for _, in := range healthy {
		estimate, err := in.provider.EstimateCost(ctx, req)
		if err != nil {
			m.logger.Warn("cost estimation failed", zap.String("provider", in.name), zap.Error(err))
			continue
		}
		estimates[in.name] = estimate
	}
	return estimates
}

// ProviderStatus health-checks every registered provider and reports the
// verdict together with the Manager's metrics and scheduling hints.
// It does not change eligibility; only CheckHealth and attempts do.
func (m *Manager) ProviderStatus(ctx context.Context) map[string]ProviderStatus {
	all := m.snapshotInstances()

	status := make(map[string]ProviderStatus, len(all))
	for _, in := range all {
		health := in.provider.HealthCheck(ctx)
		snapshot, healthy, state := in.snapshot()
		status[in.name] = ProviderStatus{
			Health:   health,
			Kind:     in.provider.Kind(),
			Metrics:  snapshot,
			Priority: in.priority,
			Weight:   in.weight,
			Healthy:  healthy,
			State:    state,
		}
	}
	return status
}

// GlobalMetrics returns the aggregate counters.
func (m *Manager) GlobalMetrics() GlobalMetrics {
	m.globalMu.Lock()
	g := m.global
	m.globalMu.Unlock()

	registered, healthy := m.providerCounts()
	return GlobalMetrics{
		TotalRequests:       g.total,
		TotalSuccessful:     g.successful,
		TotalFailed:         g.failed,
		TotalCost:           g.cost,
		AverageResponseTime: g.avg,
		ActiveProviders:     healthy,
		TotalProviders:      registered,
		Strategy:            m.strategy.Name(),
	}
}

// CheckHealth runs one health sweep. A healthy verdict makes the provider
// eligible and resets its consecutive-failure counter; an unhealthy verdict
// excludes it and advances the counter. The health monitor calls this on
// its schedule.
//
// Each provider's update is applied whole under its own lock. A cancelled
// sweep stops before the next provider.
func (m *Manager) CheckHealth(ctx context.Context) {
	for _, in := range m.snapshotInstances() {
		if ctx.Err() != nil {
			return
		}

		started := m.now()
		verdict := in.provider.HealthCheck(ctx)
		if ctx.Err() != nil {
			return
		}
		ok := verdict.Healthy()
		m.metrics.RecordHealthCheck(in.name, ok, m.now().Sub(started))

		if in.applyHealth(ok) {
			if ok {
				m.logger.Info("provider passed health check", zap.String("provider", in.name))
			} else {
				m.logger.Warn("provider failed health check",
					zap.String("provider", in.name),
					zap.String("error", verdict.Error),
				)
			}
		}
		m.publishHealth(in)
	}
	m.publishProviderCount()
}

// Providers returns the registered provider names in sorted order.
func (m *Manager) Providers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.namesLocked()
}

// Strategy returns the active load balancing strategy name.
func (m *Manager) Strategy() string {
	return m.strategy.Name()
}

// MonitorRunning reports whether the health monitor is scheduled.
func (m *Manager) MonitorRunning() bool {
	return m.monitor.isRunning()
}

// NextHealthCheck returns the time of the next scheduled sweep.
func (m *Manager) NextHealthCheck() (time.Time, bool) {
	return m.monitor.nextRun()
}

// Close stops the health monitor and closes every provider. Further calls
// return ErrManagerClosed; Close itself is idempotent.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	all := make([]*instance, 0, len(m.instances))
	for _, in := range m.instances {
		all = append(all, in)
	}
	m.instances = make(map[string]*instance)
	m.mu.Unlock()

	m.monitor.stop()

	var errs []error
	for _, in := range all {
		in.markRemoved()
		if err := in.provider.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close provider %q: %w", in.name, err))
		}
		m.metrics.RemoveProvider(in.name)
	}
	m.metrics.UpdateProviderCount(0, 0)

	m.logger.Info("provider manager closed", zap.Int("providers_closed", len(all)))
	return errors.Join(errs...)
}

// order builds the candidate ordering for one GenerateCompletion call.
func (m *Manager) order(preferred string, fallback bool) []*instance {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pref, ok := m.instances[preferred]
	if !ok {
		return m.strategyOrderLocked(m.healthyLocked(""))
	}

	var out []*instance
	if pref.isHealthy() {
		out = append(out, pref)
	}
	if !fallback {
		return out
	}
	return append(out, m.strategyOrderLocked(m.healthyLocked(preferred))...)
}

// healthyLocked returns the healthy instances other than exclude, sorted by
// name. Callers hold mu.
func (m *Manager) healthyLocked(exclude string) []*instance {
	out := make([]*instance, 0, len(m.instances))
	for name, in := range m.instances {
		if name != exclude && in.isHealthy() {
			out = append(out, in)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func (m *Manager) strategyOrderLocked(list []*instance) []*instance {
	if len(list) == 0 {
		return nil
	}

	byName := make(map[string]*instance, len(list))
	candidates := make([]strategies.Candidate, len(list))
	for i, in := range list {
		byName[in.name] = in
		candidates[i] = in.candidate()
	}

	ordered := m.strategy.Order(candidates)
	out := make([]*instance, 0, len(ordered))
	for _, c := range ordered {
		out = append(out, byName[c.Name])
	}
	return out
}

func (m *Manager) snapshotInstances() []*instance {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*instance, 0, len(m.instances))
	for _, in := range m.instances {
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func (m *Manager) namesLocked() []string {
	names := make([]string, 0, len(m.instances))
	for name := range m.instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Manager) providerCounts() (registered, healthy int) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, in := range m.instances {
		if in.isHealthy() {
			healthy++
		}
	}
	return len(m.instances), healthy
}

func (m *Manager) isClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

// syncMonitor runs the health monitor exactly while providers are registered.
func (m *Manager) syncMonitor() {
	err := m.monitor.sync(func() bool {
		m.mu.RLock()
		defer m.mu.RUnlock()
		return !m.closed && len(m.instances) > 0
	})
	if err != nil {
		m.logger.Error("failed to start health monitor", zap.Error(err))
	}
}

func (m *Manager) closeProvider(name string, p providers.Provider) {
	if err := p.Close(); err != nil {
		m.logger.Error("error closing provider", zap.String("provider", name), zap.Error(err))
	}
}

func (m *Manager) publishHealth(in *instance) {
	snapshot, healthy, _ := in.snapshot()
	m.metrics.UpdateProviderHealth(in.name, healthy, snapshot.HealthScore)
}

func (m *Manager) publishProviderCount() {
	m.metrics.UpdateProviderCount(m.providerCounts())
}

func (m *Manager) recordGlobal(success bool, elapsed time.Duration, cost float64) {
	m.globalMu.Lock()
	defer m.globalMu.Unlock()
	m.global.record(success, elapsed, cost)
}

// recordRequestFailure records a GenerateCompletion call that no provider
// could serve.
func (m *Manager) recordRequestFailure(span trace.Span, start time.Time, err *providers.Error) {
	elapsed := m.now().Sub(start)
	m.recordGlobal(false, elapsed, 0)
	m.metrics.RecordRequest("none", "unknown", metrics.StatusError, elapsed, 0, 0)
	tracing.SetErrorAttributes(span, err, err.Kind.String())
}

func instanceNames(list []*instance) []string {
	names := make([]string, len(list))
	for i, in := range list {
		names[i] = in.name
	}
	return names
}
