// Package routing provides the provider Manager: a registry of named
// provider instances with load balancing, sequential failover, per-provider
// metrics and a cron-scheduled health monitor.
//
// Ordering of healthy providers is delegated to the strategies subpackage.
// Provider construction is delegated to providerfactory.
//
// # Example
//
//	m, err := routing.NewManager(&cfg.Manager, routing.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer m.Close()
//
//	if err := m.Reconcile(ctx, cfg.Providers); err != nil {
//		logger.Warn("some providers failed to start", zap.Error(err))
//	}
//
//	resp, err := m.GenerateCompletion(ctx, &providers.CompletionRequest{
//		Prompt:        "Suggest a title slide",
//		OperationType: providers.OperationContentGeneration,
//	}, "", true)
package routing
