package schemex

import (
	"context"
	"time"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep waits for d, returning early with the context error on cancellation.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RetryPolicy describes how often and how patiently an operation is retried.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// Backoff is the fixed delay between attempts.
	Backoff time.Duration

	// Sleep waits between attempts. Defaults to Sleep.
	Sleep SleepFunc

	// Retryable, if set, reports whether err is worth another attempt.
	// Errors it rejects are returned at once.
	Retryable func(err error) bool

	// OnRetry, if set, is called before each retry with the attempt number
	// that failed (starting at 1) and its error.
	OnRetry func(attempt int, err error)
}

// DefaultRetryPolicy returns the policy used for completion calls:
// 3 attempts, 2s apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Backoff: 2 * time.Second}
}

// NotFoundIsFinal reports whether err is worth retrying: anything except an
// ENOTFOUND error is.
func NotFoundIsFinal(err error) bool {
	return ErrorCode(err) != ENOTFOUND
}

// Retry calls fn until it succeeds or the policy is exhausted, returning the
// last error. Context cancellation stops retrying immediately.
func Retry[T any](ctx context.Context, p RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	attempts := max(p.MaxAttempts, 1)
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	var zero T
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if attempt == attempts || (p.Retryable != nil && !p.Retryable(err)) {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
		if err := sleep(ctx, p.Backoff); err != nil {
			return zero, err
		}
	}
	return zero, lastErr
}
