package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"

	"go.uber.org/zap"

	"deckforge-hq/atlas/pkg/config"
	"deckforge-hq/atlas/pkg/routing"
	"deckforge-hq/atlas/pkg/telemetry/logging"
	"deckforge-hq/atlas/pkg/telemetry/metrics"
	"deckforge-hq/atlas/pkg/telemetry/tracing"
)

// app is the runtime shared by the commands: configuration, telemetry and
// the provider manager with every configured provider registered.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	manager *routing.Manager
}

// newApp loads the configuration and registers its providers. Logs and
// stdout trace exports go to logOut so command results keep stdout.
// Providers that fail to initialize are logged and skipped.
func newApp(ctx context.Context, opts *rootOptions, logOut io.Writer, extra ...routing.Option) (*app, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}

	logCfg := logging.Config{
		Level:       cfg.Telemetry.Logging.Level,
		Format:      cfg.Telemetry.Logging.Format,
		Development: cfg.Telemetry.Logging.Development,
		Writer:      logOut,
	}
	if opts.verbose {
		logCfg.Level = "debug"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, tracing.WithWriter(logOut))
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	managerOpts := []routing.Option{
		routing.WithLogger(logger),
		routing.WithMetrics(collector),
		routing.WithTracer(tracer),
	}
	manager, err := routing.NewManager(&cfg.Manager, append(managerOpts, extra...)...)
	if err != nil {
		_ = tracer.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create provider manager: %w", err)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: collector,
		tracer:  tracer,
		manager: manager,
	}

	if len(cfg.Providers) == 0 {
		logger.Warn("no providers configured")
	}
	if err := manager.Reconcile(ctx, cfg.Providers); err != nil {
		logger.Warn("some providers failed to initialize", zap.Error(err))
	}
	return a, nil
}

// reload applies a changed configuration to the running manager.
// Manager settings are fixed for the life of the process.
func (a *app) reload(ctx context.Context, cfg *config.Config) {
	if !reflect.DeepEqual(cfg.Manager, a.cfg.Manager) {
		a.logger.Warn("manager settings changed; restart to apply",
			zap.String("strategy", cfg.Manager.Strategy),
			zap.Duration("health_check_interval", cfg.Manager.HealthCheckInterval),
			zap.Int("unhealthy_threshold", cfg.Manager.UnhealthyThreshold),
		)
	}
	if err := a.manager.Reconcile(ctx, cfg.Providers); err != nil {
		a.logger.Error("failed to apply provider changes", zap.Error(err))
	}
}

// Close stops the manager and flushes telemetry.
func (a *app) Close(ctx context.Context) error {
	err := errors.Join(
		a.manager.Close(),
		a.tracer.Shutdown(ctx),
	)
	_ = a.logger.Sync()
	return err
}
