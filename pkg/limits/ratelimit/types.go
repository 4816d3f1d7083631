package ratelimit

import "time"

// Default admission ceilings and window.
const (
	DefaultRequestsPerMinute = 60
	DefaultTokensPerMinute   = 100000
	DefaultWindow            = time.Minute

	// TokensPerWord is the rough word-to-token ratio used for estimates.
	TokensPerWord = 1.3
)

// Config contains the ceilings for a single provider instance.
type Config struct {
	// RequestsPerMinute caps admitted calls per window.
	RequestsPerMinute int

	// TokensPerMinute caps estimated tokens per window.
	TokensPerMinute int

	// Window is the window length (default: one minute).
	Window time.Duration
}

// withDefaults fills zero fields.
func (c Config) withDefaults() Config {
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if c.TokensPerMinute <= 0 {
		c.TokensPerMinute = DefaultTokensPerMinute
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	return c
}

// Reason values reported by CheckResult.
const (
	ReasonRequests = "requests"
	ReasonTokens   = "tokens"
)

// CheckResult contains the result of a rate limit check.
type CheckResult struct {
	// Allowed indicates if the request is permitted.
	Allowed bool

	// Reason names the ceiling that rejected the request (if Allowed=false).
	Reason string

	// Limit is the configured value of the rejecting ceiling.
	Limit int64

	// Remaining is how many requests remain in the window after this check.
	Remaining int64

	// Reset is when the current window ends.
	Reset time.Time

	// RetryAfter is how long until the window resets (if Allowed=false).
	RetryAfter time.Duration
}

// Usage is a snapshot of the current window.
type Usage struct {
	Requests    int
	Tokens      float64
	WindowStart time.Time
}

// Clock returns the current time. Tests inject a fake clock.
type Clock func() time.Time
