// Package retry defines an explicit retry policy for calls to external
// collaborators (skill oracle, scheduling system).
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Default policy constants.
const (
	defaultMaxAttempts = 3
	defaultBackoff     = 7 * time.Second
)

// ErrExhausted wraps the last error once every attempt has failed.
var ErrExhausted = errors.New("retry attempts exhausted")

// Policy describes how many times a call is attempted, how long to wait
// between attempts, how long each attempt may take, and which errors are
// worth another attempt.
type Policy struct {
	maxAttempts    int
	backoff        time.Duration
	attemptTimeout time.Duration
	retryable      func(error) bool
	onRetry        func(attempt int, err error)
	sleep          func(ctx context.Context, d time.Duration) error
}

// Option applies a configuration option to the Policy.
type Option func(*Policy)

// WithMaxAttempts sets the total number of attempts, including the first.
func WithMaxAttempts(n int) Option {
	return func(p *Policy) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithBackoff sets the fixed wait between attempts. Zero disables waiting.
func WithBackoff(d time.Duration) Option {
	return func(p *Policy) {
		if d >= 0 {
			p.backoff = d
		}
	}
}

// WithAttemptTimeout bounds each individual attempt. Zero means no bound
// beyond the caller's context.
func WithAttemptTimeout(d time.Duration) Option {
	return func(p *Policy) {
		if d >= 0 {
			p.attemptTimeout = d
		}
	}
}

// WithRetryable overrides which errors are retried.
func WithRetryable(fn func(error) bool) Option {
	return func(p *Policy) {
		if fn != nil {
			p.retryable = fn
		}
	}
}

// WithOnRetry registers a hook invoked before each retry (attempt is the
// 1-based number of the attempt that just failed).
func WithOnRetry(fn func(attempt int, err error)) Option {
	return func(p *Policy) {
		p.onRetry = fn
	}
}

// WithSleep replaces the wait function; tests use it to avoid real delays.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Policy) {
		if fn != nil {
			p.sleep = fn
		}
	}
}

// NewPolicy creates a Policy with configuration options.
func NewPolicy(opts ...Option) *Policy {
	p := &Policy{
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
		retryable:   DefaultRetryable,
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// MaxAttempts returns the configured attempt budget.
func (p *Policy) MaxAttempts() int { return p.maxAttempts }

// Backoff returns the configured wait between attempts.
func (p *Policy) Backoff() time.Duration { return p.backoff }

// DefaultRetryable retries everything except caller cancellation.
// A per-attempt deadline (context.DeadlineExceeded from the attempt context)
// is retryable; the caller's own cancellation is checked separately in Do.
func DefaultRetryable(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

// Do runs fn until it succeeds, returns a non-retryable error, the attempt
// budget is spent, or ctx is done. The caller's context error is returned
// unwrapped so callers can tell cancellation from exhaustion.
func (p *Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = p.attempt(ctx, fn)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !p.retryable(lastErr) {
			return lastErr
		}
		if attempt == p.maxAttempts {
			break
		}
		if p.onRetry != nil {
			p.onRetry(attempt, lastErr)
		}
		if p.backoff > 0 {
			if err := p.sleep(ctx, p.backoff); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, p.maxAttempts, lastErr)
}

func (p *Policy) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.attemptTimeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, p.attemptTimeout)
	defer cancel()
	return fn(attemptCtx)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
