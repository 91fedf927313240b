package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/santiagomed/devspark/internal/llm"
	"github.com/santiagomed/devspark/internal/logger"
	"github.com/santiagomed/devspark/internal/result"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Policy bounds retries: at most MaxRetries retries after the first attempt,
// waiting BaseDelay * 2^(attempt-1) before each.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Sleep      Sleeper
	Retryable  func(error) bool
	Logger     logger.Logger
}

// DefaultPolicy retries transient provider errors 3 times from a 1s base.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: DefaultMaxRetries, BaseDelay: DefaultBaseDelay}
}

// Delay returns the wait before retry number attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	return p.BaseDelay * time.Duration(1<<(attempt-1))
}

func (p Policy) normalized() Policy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.Sleep == nil {
		p.Sleep = sleepContext
	}
	if p.Retryable == nil {
		p.Retryable = llm.IsRetryable
	}
	if p.Logger == nil {
		p.Logger = logger.NewNullLogger()
	}
	return p
}

// Retry runs fn until it succeeds, fails with a non-retryable error, or the
// retry budget is spent. Failures come back as *result.Error: a non-retryable
// error keeps its own tag, exhaustion is a TransportError with Retried set.
func Retry[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.normalized()
	var zero T
	var lastErr error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			d := p.Delay(attempt)
			p.Logger.Warn(fmt.Sprintf("retrying in %s (attempt %d/%d): %v", d, attempt, p.MaxRetries, lastErr))
			if err := p.Sleep(ctx, d); err != nil {
				return zero, result.Wrap("CancelledError", err)
			}
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		var re *result.Error
		if errors.As(err, &re) {
			return zero, re
		}
		if !p.Retryable(err) {
			return zero, result.From(err)
		}
	}

	exhausted := result.Wrap(result.TypeTransport, lastErr)
	exhausted.Retried = p.MaxRetries
	p.Logger.Error(fmt.Sprintf("giving up after %d retries: %v", p.MaxRetries, lastErr))
	return zero, exhausted
}
