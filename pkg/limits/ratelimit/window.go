package ratelimit

import (
	"strings"
	"sync"
	"time"
)

// FixedWindow is an in-process admission controller with two independent
// ceilings: requests and estimated tokens per window.
//
// # Algorithm
//
//  1. If the window has elapsed, reset both counters and start a new window
//  2. Reject if the request ceiling is already met
//  3. Reject if the token ceiling would be exceeded by this request
//  4. Otherwise count the request and its tokens
//
// A rejected call is not counted and never waits; the caller receives the
// remaining time until the window resets.
//
// # Thread Safety
//
// FixedWindow is safe for concurrent use. It does not coordinate across
// processes.
type FixedWindow struct {
	cfg   Config
	clock Clock

	mu          sync.Mutex
	requests    int
	tokens      float64
	windowStart time.Time
}

// NewFixedWindow creates a limiter. A nil clock means time.Now.
//
// Example:
//
//	limiter := ratelimit.NewFixedWindow(ratelimit.Config{RequestsPerMinute: 60}, nil)
//	if res := limiter.Allow(estimate); !res.Allowed {
//	    return fmt.Errorf("rate limited, retry in %s", res.RetryAfter)
//	}
func NewFixedWindow(cfg Config, clock Clock) *FixedWindow {
	if clock == nil {
		clock = time.Now
	}
	return &FixedWindow{
		cfg:         cfg.withDefaults(),
		clock:       clock,
		windowStart: clock(),
	}
}

// Allow admits or rejects a call estimated to use tokens.
func (w *FixedWindow) Allow(tokens float64) CheckResult {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.clock()
	if now.Sub(w.windowStart) >= w.cfg.Window {
		w.requests = 0
		w.tokens = 0
		w.windowStart = now
	}

	reset := w.windowStart.Add(w.cfg.Window)
	wait := reset.Sub(now)

	if w.requests >= w.cfg.RequestsPerMinute {
		return CheckResult{
			Allowed:    false,
			Reason:     ReasonRequests,
			Limit:      int64(w.cfg.RequestsPerMinute),
			Remaining:  0,
			Reset:      reset,
			RetryAfter: wait,
		}
	}

	if w.tokens+tokens > float64(w.cfg.TokensPerMinute) {
		return CheckResult{
			Allowed:    false,
			Reason:     ReasonTokens,
			Limit:      int64(w.cfg.TokensPerMinute),
			Remaining:  int64(w.cfg.RequestsPerMinute - w.requests),
			Reset:      reset,
			RetryAfter: wait,
		}
	}

	w.requests++
	w.tokens += tokens

	return CheckResult{
		Allowed:   true,
		Limit:     int64(w.cfg.RequestsPerMinute),
		Remaining: int64(w.cfg.RequestsPerMinute - w.requests),
		Reset:     reset,
	}
}

// Usage returns the counters of the current window.
func (w *FixedWindow) Usage() Usage {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Usage{Requests: w.requests, Tokens: w.tokens, WindowStart: w.windowStart}
}

// Config returns the effective configuration.
func (w *FixedWindow) Config() Config {
	return w.cfg
}

// EstimateTokens approximates the tokens a request will consume:
// words in the prompt times TokensPerWord plus the completion budget.
func EstimateTokens(prompt string, maxTokens int) float64 {
	return EstimatePromptTokens(prompt) + float64(maxTokens)
}

// EstimatePromptTokens approximates the prompt token count from whitespace
// separated words. It is a heuristic, not a tokenizer.
func EstimatePromptTokens(prompt string) float64 {
	return float64(len(strings.Fields(prompt))) * TokensPerWord
}
