package providers

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// DefaultRetryDelays is the backoff ladder between transport attempts.
// Attempts beyond the ladder reuse the last step.
var DefaultRetryDelays = []time.Duration{
	1 * time.Second,
	2 * time.Second,
	4 * time.Second,
	8 * time.Second,
	16 * time.Second,
}

// RetryPolicy controls the retry executor.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first (minimum 1)
	MaxAttempts int

	// Delays is the backoff ladder (defaults to DefaultRetryDelays)
	Delays []time.Duration

	// OnRetry, if set, is called before each backoff sleep
	OnRetry func(attempt int, err error, delay time.Duration)
}

// ladder is a backoff.BackOff walking a fixed delay sequence.
type ladder struct {
	delays []time.Duration
	next   int
}

func (l *ladder) NextBackOff() time.Duration {
	if len(l.delays) == 0 {
		return 0
	}
	i := l.next
	if i >= len(l.delays) {
		i = len(l.delays) - 1
	}
	l.next++
	return l.delays[i]
}

func (l *ladder) Reset() {
	l.next = 0
}

// Retry runs op until it succeeds, fails with a non-retryable kind, or the
// policy's attempts are exhausted. Only KindTransport failures are retried;
// every other failure is returned after a single attempt.
//
// The attempt number passed to op starts at 1.
func Retry[T any](ctx context.Context, policy RetryPolicy, logger *zap.Logger, op func(ctx context.Context, attempt int) (T, error)) (T, error) {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delays := policy.Delays
	if len(delays) == 0 {
		delays = DefaultRetryDelays
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	attempt := 0
	result, err := backoff.Retry(ctx,
		func() (T, error) {
			attempt++
			res, err := op(ctx, attempt)
			if err != nil && !KindOf(err).Retryable() {
				return res, backoff.Permanent(err)
			}
			return res, err
		},
		backoff.WithBackOff(&ladder{delays: delays}),
		backoff.WithMaxTries(uint(attempts)),
		// Attempts are bounded by MaxAttempts alone.
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, delay time.Duration) {
			logger.Warn("request failed, retrying",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", attempts),
				zap.Duration("backoff", delay),
				zap.Error(err),
			)
			if policy.OnRetry != nil {
				policy.OnRetry(attempt, err, delay)
			}
		}),
	)
	if err == nil {
		return result, nil
	}

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Err
	}
	if KindOf(err) == KindUnknown {
		// The backoff sleep was interrupted by ctx, or op returned an
		// unclassified error.
		err = NewError(KindTransport, "", "request aborted", err)
	}
	return result, err
}
