// Package telemetry groups the observability packages used by Atlas.
//
// # Components
//
//   - logging: zap loggers and credential redaction
//   - metrics: Prometheus collectors for the provider manager
//   - tracing: OpenTelemetry spans for completions, attempts and HTTP calls
//   - health: liveness, readiness and version endpoints
//
// # Usage
//
//	logger, _ := logging.New(logging.Config{Level: cfg.Telemetry.Logging.Level})
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	tracer, _ := tracing.New(&cfg.Telemetry.Tracing)
//	defer tracer.Shutdown(context.Background())
//
//	manager, _ := routing.NewManager(&cfg.Manager,
//		routing.WithLogger(logger),
//		routing.WithMetrics(collector),
//		routing.WithTracer(tracer),
//	)
//
// A nil or disabled collector and a disabled tracer record nothing, so
// components can be wired unconditionally.
//
// # Credentials
//
// API keys are never logged. logging.RedactKey keeps a short prefix when a
// hint is needed:
//
//	logger.Info("provider configured", logging.Secret("api_key", key))
package telemetry
