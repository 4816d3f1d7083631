// Package providers defines the contract shared by every generative-text
// backend and the building blocks HTTP adapters are assembled from.
//
// # Overview
//
// The package is organized into several layers:
//
//  1. Provider interface - the capability contract the Manager relies on
//  2. Request/response types - provider-agnostic request, response, usage and cost records
//  3. Error kinds - the failure variant of every operation (*Error with an ErrorKind)
//  4. Retry executor - ladder backoff over transport failures only
//  5. HTTP client - pooled transport, default headers and status classification
//  6. SSE reader - "data: " frame reader terminated by [DONE]
//
// # Results
//
// Complete returns (*CompletionResponse, error). The error is always an
// *Error, so callers branch on its kind:
//
//	resp, err := provider.Complete(ctx, req)
//	switch providers.KindOf(err) {
//	case providers.KindUnknown:
//	    // success
//	case providers.KindRateLimited:
//	    // try another provider, do not demote this one
//	default:
//	    // record a failure
//	}
//
// Callers that need a response value regardless of outcome use ErrorResponse,
// which yields content "Error: ..." with confidence 0.
//
// # Retry Policy
//
// Only KindTransport failures (connection errors, timeouts, 5xx) are retried.
// Authentication failures, rate limiting and model failures surface after one
// attempt. The delay ladder defaults to 1s, 2s, 4s, 8s, 16s and the number of
// attempts is the provider's MaxRetries.
package providers
