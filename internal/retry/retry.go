// Package retry provides retry with exponential backoff and jitter for
// fallible operations such as page fetches, built on cenkalti/backoff.
//
// A Policy is an explicit value rather than a wrapper installed around a
// function, so the same operation can be run with different policies and
// the policy can be built from configuration.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Default policy values.
const (
	DefaultMaxRetries    = 3
	DefaultInitialDelay  = 2 * time.Second
	DefaultBackoffFactor = 2.0

	// MaxJitter is the exclusive upper bound of the jitter fraction.
	// Each wait is delay * (1 + jitter) with jitter drawn from [0, MaxJitter).
	MaxJitter = 0.5
)

// Sleeper waits for d or until ctx is done. Pacing between articles and
// extraction attempts uses it; Do waits through the backoff library.
type Sleeper func(ctx context.Context, d time.Duration) error

// Policy describes how an operation is retried.
type Policy struct {
	// MaxRetries is the number of additional attempts after the first one.
	// Zero means the operation runs exactly once.
	MaxRetries int

	// InitialDelay is the base wait before the first retry.
	InitialDelay time.Duration

	// BackoffFactor multiplies the delay after every failed attempt.
	BackoffFactor float64

	// Retryable reports whether an error may be retried.
	// A nil Retryable treats every error as retryable.
	// Nothing is retried once the caller's context is done.
	Retryable func(error) bool

	// Logger receives a warning per retry. Defaults to slog.Default().
	Logger *slog.Logger

	// Jitter returns a fraction in [0, MaxJitter). Defaults to a uniform draw.
	Jitter func() float64
}

// DefaultPolicy returns the policy used for page fetches:
// three retries, two seconds initial delay, doubling each time.
func DefaultPolicy(retryable func(error) bool) Policy {
	return Policy{
		MaxRetries:    DefaultMaxRetries,
		InitialDelay:  DefaultInitialDelay,
		BackoffFactor: DefaultBackoffFactor,
		Retryable:     retryable,
	}
}

// jitteredBackOff is a backoff.BackOff that waits delay*(1+jitter) and then
// multiplies delay by factor. It never returns backoff.Stop; the attempt
// limit is enforced with backoff.WithMaxTries.
type jitteredBackOff struct {
	initial time.Duration
	factor  float64
	jitter  func() float64
	delay   time.Duration
}

var _ backoff.BackOff = (*jitteredBackOff)(nil)

func (b *jitteredBackOff) Reset() {
	b.delay = b.initial
}

func (b *jitteredBackOff) NextBackOff() time.Duration {
	wait := time.Duration(float64(b.delay) * (1 + b.jitter()))
	b.delay = time.Duration(float64(b.delay) * b.factor)
	return wait
}

// backOff returns the wait schedule of p.
func (p Policy) backOff() *jitteredBackOff {
	b := &jitteredBackOff{initial: p.InitialDelay, factor: p.BackoffFactor, jitter: p.Jitter}
	b.Reset()
	return b
}

// Do runs op until it succeeds, fails with a non-retryable error, or
// MaxRetries retries have been used. It performs at most MaxRetries+1 attempts.
//
// When every attempt fails, the last error is returned unchanged so callers
// can inspect it with errors.Is/As exactly as if op had been called directly.
// Non-retryable errors, and any error once ctx is done, are returned
// immediately. If ctx is cancelled while waiting, ctx.Err() is returned.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	p = p.withDefaults()

	attempts := 0
	result, err := backoff.Retry(ctx,
		func() (T, error) {
			attempts++
			result, err := op(ctx)
			if err != nil && (ctx.Err() != nil || !p.retryable(err)) {
				return result, backoff.Permanent(err)
			}
			return result, err
		},
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(uint(p.MaxRetries)+1), //nolint:gosec // MaxRetries is clamped to >= 0
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, wait time.Duration) {
			p.Logger.Warn("operation failed, retrying",
				"attempt", attempts,
				"max_retries", p.MaxRetries,
				"wait", wait.Round(time.Millisecond),
				"error", err,
			)
		}),
	)

	// A permanent error on the last allowed attempt comes back still wrapped.
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}

	switch {
	case err == nil && attempts > 1:
		p.Logger.Debug("operation succeeded after retry", "attempt", attempts)
	case err != nil && p.MaxRetries > 0 && attempts > p.MaxRetries:
		p.Logger.Error("retries exhausted", "attempts", attempts, "error", err)
	}
	return result, err
}

// Sleep waits for d or until ctx is done, returning ctx.Err() in the latter case.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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

// withDefaults fills unset hooks.
func (p Policy) withDefaults() Policy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.InitialDelay < 0 {
		p.InitialDelay = 0
	}
	if p.BackoffFactor <= 0 {
		p.BackoffFactor = 1
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	if p.Jitter == nil {
		p.Jitter = func() float64 { return rand.Float64() * MaxJitter } //nolint:gosec // jitter does not need crypto randomness
	}
	return p
}

// retryable applies the predicate. Cancellation of the caller's context is
// checked separately in Do, so per-attempt timeouts stay retryable.
func (p Policy) retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if p.Retryable == nil {
		return true
	}
	return p.Retryable(err)
}
