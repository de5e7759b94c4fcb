package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryConfig controls retry behavior. It is passed explicitly to every caller
// so environments and tests can tune it (tests use zero waits).
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultRetryConfig is the primary acquisition path policy.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts: 3,
	InitialWait: 1 * time.Second,
	MaxWait:     8 * time.Second,
	Multiplier:  2.0,
}

// DefaultFallbackRetryConfig is the secondary acquisition path policy.
var DefaultFallbackRetryConfig = RetryConfig{
	MaxAttempts: 2,
	InitialWait: 1 * time.Second,
	MaxWait:     4 * time.Second,
	Multiplier:  2.0,
}

func (rc RetryConfig) attempts() uint {
	if rc.MaxAttempts < 1 {
		return 1
	}
	return uint(rc.MaxAttempts)
}

// backOff doubles (or multiplies) the wait from InitialWait up to MaxWait, without jitter.
func (rc RetryConfig) backOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = rc.InitialWait
	bo.MaxInterval = rc.MaxWait
	bo.Multiplier = rc.Multiplier
	if bo.Multiplier < 1 {
		bo.Multiplier = 2.0
	}
	bo.RandomizationFactor = 0
	return bo
}

// RetryDo runs fn up to MaxAttempts times with exponential backoff between attempts.
// Every error is retried except backoff.Permanent errors and cancellation of ctx.
func RetryDo[T any](ctx context.Context, rc RetryConfig, fn func(context.Context) (T, error)) (T, error) {
	attempt := 0
	operation := func() (T, error) {
		attempt++
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, backoff.Permanent(err)
		}
		result, err := fn(ctx)
		if err != nil && ctx.Err() != nil {
			return result, backoff.Permanent(err)
		}
		return result, err
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(rc.backOff()),
		backoff.WithMaxTries(rc.attempts()),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, wait time.Duration) {
			slog.Debug("retrying",
				slog.Int("attempt", attempt),
				slog.Duration("wait", wait),
				slog.Any("error", err))
		}),
	)
}
