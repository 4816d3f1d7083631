// Package health provides the probe endpoints served by atlas run.
//
// # Endpoints
//
//   - /health: liveness, always 200 while the process runs
//   - /ready: readiness, 200 when every registered check passes, else 503
//   - /version: build information
//
// # Readiness
//
// The gateway is ready while the provider Manager has at least one
// eligible provider:
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("providers", health.ProvidersCheck(manager))
//	checker.Register(mux, version, commit, buildTime)
//
// Checks run concurrently, each bounded by the checker timeout. A check
// that outlives it is reported unhealthy with "health check timeout".
package health
