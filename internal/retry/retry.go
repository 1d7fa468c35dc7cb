// Package retry runs an operation with exponential backoff between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrMaxAttemptsExceeded wraps the last error once every attempt failed.
var ErrMaxAttemptsExceeded = errors.New("max retry attempts exceeded")

// Config configures a retry loop.
type Config struct {
	// MaxAttempts counts the initial attempt.
	MaxAttempts int
	// InitialDelay is the wait before the first retry; each later wait doubles.
	InitialDelay time.Duration
	MaxDelay     time.Duration
	// OnRetry is called after a failed attempt that will be retried.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// exponential builds a deterministic doubling policy with no elapsed-time limit.
func (c Config) exponential() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.InitialDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.MaxInterval = time.Duration(math.MaxInt64)
	if c.MaxDelay > 0 {
		b.MaxInterval = c.MaxDelay
	}
	b.Reset()
	return b
}

// Delay returns the wait before retry number n (1-based).
func (c Config) Delay(n int) time.Duration {
	b := c.exponential()
	var d time.Duration
	for i := 0; i < n; i++ {
		d = b.NextBackOff()
	}
	return d
}

// Do calls fn until it succeeds, attempts run out or ctx is done.
// fn receives the 1-based attempt number.
func Do(ctx context.Context, cfg Config, fn func(attempt int) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("retry cancelled: %w", err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(cfg.exponential(), uint64(cfg.MaxAttempts-1)),
		ctx,
	)

	attempt := 0
	var lastErr error
	operation := func() error {
		attempt++
		lastErr = fn(attempt)
		return lastErr
	}
	notify := func(err error, wait time.Duration) {
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, wait)
		}
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return fmt.Errorf("retry cancelled: %w", cerr)
		}
		return fmt.Errorf("%w after %d attempts: %w", ErrMaxAttemptsExceeded, attempt, lastErr)
	}
	return nil
}
