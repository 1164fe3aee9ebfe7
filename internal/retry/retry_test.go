package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

var errTransient = errors.New("transient")

func testPolicy() Policy {
	return Policy{
		MaxRetries:    3,
		InitialDelay:  time.Millisecond,
		BackoffFactor: 2,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		Jitter:        func() float64 { return 0.25 },
	}
}

// TestBackOffSchedule tests that each wait is delay*(1+jitter) with the delay
// growing by the backoff factor.
func TestBackOffSchedule(t *testing.T) {
	t.Parallel()

	p := testPolicy()
	p.InitialDelay = 2 * time.Second
	b := p.withDefaults().backOff()

	want := []time.Duration{2500 * time.Millisecond, 5 * time.Second, 10 * time.Second}
	for i, w := range want {
		if got := b.NextBackOff(); got != w {
			t.Errorf("wait %d = %v, want %v", i, got, w)
		}
	}

	b.Reset()
	if got := b.NextBackOff(); got != want[0] {
		t.Errorf("after Reset wait = %v, want %v", got, want[0])
	}
}

// TestBackOffJitterBounds tests that the default jitter stays in [0, MaxJitter).
func TestBackOffJitterBounds(t *testing.T) {
	t.Parallel()

	p := Policy{InitialDelay: time.Second, BackoffFactor: 1}
	b := p.withDefaults().backOff()

	for range 200 {
		got := b.NextBackOff()
		if got < time.Second || got >= time.Duration(float64(time.Second)*(1+MaxJitter)) {
			t.Fatalf("wait %v outside [1s, 1.5s)", got)
		}
	}
}

// TestDoExhaustsAttempts tests that all attempts are used and the last error is returned unchanged.
func TestDoExhaustsAttempts(t *testing.T) {
	t.Parallel()

	var lastErr error

	calls := 0
	_, err := Do(context.Background(), testPolicy(), func(context.Context) (string, error) {
		calls++
		lastErr = &wrappedErr{n: calls, err: errTransient}
		return "", lastErr
	})

	if calls != 4 {
		t.Errorf("expected 4 attempts, got %d", calls)
	}
	if err != lastErr {
		t.Errorf("expected the final attempt's error unchanged, got %v", err)
	}
	var we *wrappedErr
	if !errors.As(err, &we) || we.n != 4 {
		t.Errorf("expected error from attempt 4, got %v", err)
	}
	if !errors.Is(err, errTransient) {
		t.Error("expected errors.Is to see the underlying cause")
	}
}

type wrappedErr struct {
	n   int
	err error
}

func (e *wrappedErr) Error() string { return e.err.Error() }
func (e *wrappedErr) Unwrap() error { return e.err }

// TestDoSucceedsAfterRetry tests that a later success is returned.
func TestDoSucceedsAfterRetry(t *testing.T) {
	t.Parallel()

	calls := 0
	got, err := Do(context.Background(), testPolicy(), func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errTransient
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 || calls != 3 {
		t.Errorf("got %d after %d calls, want 42 after 3", got, calls)
	}
}

// TestDoNonRetryable tests that non-retryable errors stop immediately and
// come back unwrapped, including on the last allowed attempt.
func TestDoNonRetryable(t *testing.T) {
	t.Parallel()

	errPermanent := errors.New("permanent")

	for _, maxRetries := range []int{3, 0} {
		p := testPolicy()
		p.MaxRetries = maxRetries
		p.Retryable = func(err error) bool { return !errors.Is(err, errPermanent) }

		calls := 0
		_, err := Do(context.Background(), p, func(context.Context) (struct{}, error) {
			calls++
			return struct{}{}, errPermanent
		})
		if err != errPermanent {
			t.Errorf("max_retries=%d: expected the permanent error itself, got %v", maxRetries, err)
		}
		if calls != 1 {
			t.Errorf("max_retries=%d: expected a single attempt, got %d", maxRetries, calls)
		}
	}
}

// TestDoZeroRetries tests that MaxRetries of zero runs once.
func TestDoZeroRetries(t *testing.T) {
	t.Parallel()

	p := testPolicy()
	p.MaxRetries = 0

	calls := 0
	_, err := Do(context.Background(), p, func(context.Context) (struct{}, error) {
		calls++
		return struct{}{}, errTransient
	})
	if calls != 1 {
		t.Errorf("expected 1 attempt, got %d", calls)
	}
	if !errors.Is(err, errTransient) {
		t.Errorf("expected the attempt's error, got %v", err)
	}
}

// TestDoCancelled tests that cancellation stops retrying.
func TestDoCancelled(t *testing.T) {
	t.Parallel()

	t.Run("cancelled while waiting", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		p := testPolicy()
		p.InitialDelay = time.Hour

		calls := 0
		_, err := Do(ctx, p, func(context.Context) (struct{}, error) {
			calls++
			time.AfterFunc(10*time.Millisecond, cancel)
			return struct{}{}, errTransient
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 attempt, got %d", calls)
		}
	})

	t.Run("cancelled during attempt", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())

		calls := 0
		_, err := Do(ctx, testPolicy(), func(context.Context) (struct{}, error) {
			calls++
			cancel()
			return struct{}{}, errTransient
		})
		if !errors.Is(err, errTransient) {
			t.Errorf("expected the attempt's error, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 attempt, got %d", calls)
		}
	})
}

// TestSleep tests the context-aware sleep.
func TestSleep(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if err := Sleep(context.Background(), 0); err != nil {
		t.Errorf("expected nil for zero duration, got %v", err)
	}
}
