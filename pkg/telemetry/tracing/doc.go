// Package tracing provides OpenTelemetry tracing for Atlas.
//
// # Overview
//
// The provider manager opens one span per request and one child span per
// provider attempt; the HTTP transport adds a client span for every upstream
// call and propagates W3C Trace Context in the request headers.
//
// # Exporters
//
//   - stdout: Pretty-printed spans on standard output (development)
//   - otlp: OTLP over gRPC to a collector
//
// # Sampling
//
// telemetry.tracing.sample_ratio selects the fraction of root traces that
// are recorded. Child spans follow their parent's decision.
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "atlas.manager.complete",
//	    tracing.NewAttributeBuilder().WithRequest(id, op, false).Build())
//	defer span.End()
//
// When tracing is disabled the tracer is a noop and spans cost almost nothing.
package tracing
