package tracing

import (
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// createSampler creates a sampler for the configured ratio.
//
// A ratio of 1 samples every trace and 0 samples none; anything in between
// samples by trace ID hash, so the same trace ID always gets the same
// decision:
//
//	telemetry:
//	  tracing:
//	    sample_ratio: 0.1  # Sample 10% of traces
//
// The sampler is wrapped in ParentBased(), which respects the parent span's
// sampling decision when available:
//   - If parent span is sampled → child is sampled
//   - If parent span is not sampled → child is not sampled
//   - If no parent span → use the ratio
func createSampler(ratio float64) (sdktrace.Sampler, error) {
	if ratio < 0.0 || ratio > 1.0 {
		return nil, fmt.Errorf("sample ratio must be between 0.0 and 1.0, got %f", ratio)
	}

	var base sdktrace.Sampler
	switch ratio {
	case 1:
		base = sdktrace.AlwaysSample()
	case 0:
		base = sdktrace.NeverSample()
	default:
		base = sdktrace.TraceIDRatioBased(ratio)
	}

	return sdktrace.ParentBased(base), nil
}
