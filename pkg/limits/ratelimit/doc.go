// Package ratelimit provides the per-provider admission control used before
// every outbound call.
//
// # Fixed Window
//
// FixedWindow tracks two ceilings over a 60 second window: admitted requests
// and estimated tokens. When either ceiling is reached the call is rejected
// immediately with the time left in the window; nothing is queued.
//
//	limiter := ratelimit.NewFixedWindow(ratelimit.Config{
//	    RequestsPerMinute: 60,
//	    TokensPerMinute:   100000,
//	}, nil)
//
//	res := limiter.Allow(ratelimit.EstimateTokens(prompt, maxTokens))
//	if !res.Allowed {
//	    // res.RetryAfter is the remaining wait
//	}
//
// # Token Estimates
//
// Token usage is estimated as words × 1.3 plus the completion budget. This
// is deliberately rough; the limiter is best-effort and local to the process.
package ratelimit
