// Package retry wraps a single call in bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"time"

	"agendabot/utils/apperr"
)

// Policy bounds how often and how long a call is retried.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	// MaxDelay caps a single wait; zero means no cap.
	MaxDelay time.Duration
	// Retryable decides whether err is worth another attempt. Nil retries
	// only rate-limit errors.
	Retryable func(err error) bool
	// Sleep waits for d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy retries rate limits three times after 2s, 4s and 8s.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// Delay returns the wait after the given failed attempt (1-based):
// BaseDelay * 2^attempt.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	delay := p.BaseDelay << uint(attempt)
	if p.MaxDelay > 0 && (delay > p.MaxDelay || delay <= 0) {
		delay = p.MaxDelay
	}
	return delay
}

func (p Policy) retryable(err error) bool {
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return IsRateLimited(err)
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsRateLimited reports whether err carries the rate-limit kind.
func IsRateLimited(err error) bool {
	return errors.Is(err, apperr.ErrRateLimited)
}

// Do runs fn until it succeeds, fails with a non-retryable error, or the
// policy is exhausted. The last error is returned as is.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn(ctx, attempt)
		if err == nil {
			return result, nil
		}
		if attempt >= p.MaxRetries || !p.retryable(err) {
			return zero, err
		}

		if err := p.sleep(ctx, p.Delay(attempt+1)); err != nil {
			return zero, err
		}
	}
}
