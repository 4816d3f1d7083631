package routing

import (
	"time"

	"go.uber.org/zap"

	"deckforge-hq/atlas/pkg/providerfactory"
	"deckforge-hq/atlas/pkg/routing/strategies"
	"deckforge-hq/atlas/pkg/telemetry/metrics"
	"deckforge-hq/atlas/pkg/telemetry/tracing"
)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the parent logger. The Manager logs as "manager".
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics sets the Prometheus collector fed by the Manager.
func WithMetrics(c *metrics.Collector) Option {
	return func(m *Manager) { m.metrics = c }
}

// WithTracer sets the tracer used for completion and attempt spans.
func WithTracer(t *tracing.Tracer) Option {
	return func(m *Manager) {
		if t != nil {
			m.tracer = t
		}
	}
}

// WithFactory sets the registry used by AddProvider to build providers.
func WithFactory(r *providerfactory.Registry) Option {
	return func(m *Manager) {
		if r != nil {
			m.factory = r
		}
	}
}

// WithProviderDeps sets the collaborators handed to provider constructors.
// A nil Logger in deps is replaced by the Manager's logger.
func WithProviderDeps(deps providerfactory.Deps) Option {
	return func(m *Manager) { m.deps = deps }
}

// WithStrategyOptions customizes the strategy built from the configuration.
func WithStrategyOptions(opts ...strategies.Option) Option {
	return func(m *Manager) { m.strategyOpts = append(m.strategyOpts, opts...) }
}

// WithClock overrides time.Now for latency and last-used bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}
