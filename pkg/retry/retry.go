// Package retry repeats a failing call with a pause between attempts.
package retry

import (
	"context"
	"fmt"
	"time"
)

// A Backoff returns the pause after the given failed attempt (1-based).
type Backoff func(attempt int) time.Duration

// Linear pauses attempt × step.
func Linear(step time.Duration) Backoff {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * step
	}
}

// Constant always pauses d.
func Constant(d time.Duration) Backoff {
	return func(int) time.Duration {
		return d
	}
}

// A Policy describes how a call is repeated.
//
// Zero MaxAttempts means a single attempt. Nil Retryable retries every
// error. OnRetry is called before each pause.
type Policy struct {
	MaxAttempts int
	Backoff     Backoff
	Retryable   func(error) bool
	OnRetry     func(attempt int, err error, wait time.Duration)
}

func (p Policy) attempts() int {
	return max(p.MaxAttempts, 1)
}

func (p Policy) retryable(err error) bool {
	return p.Retryable == nil || p.Retryable(err)
}

func (p Policy) wait(attempt int) time.Duration {
	if p.Backoff == nil {
		return 0
	}
	return p.Backoff(attempt)
}

// Do calls fn until it succeeds, fails with a non-retryable error or the
// attempts run out; the last error is returned. A context canceled during
// a pause ends the loop with both the context error and the last error.
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	n := p.attempts()
	for attempt := 1; ; attempt++ {
		res, err := fn(ctx)
		if err == nil {
			return res, nil
		}
		if attempt == n || !p.retryable(err) {
			return zero, err
		}

		wait := p.wait(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}

		if timer == nil {
			timer = time.NewTimer(wait)
		} else {
			timer.Reset(wait)
		}
		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("%w: %w", ctx.Err(), err)
		case <-timer.C:
		}
	}
}
