package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

// hintedErr carries a server-supplied retry-after value.
type hintedErr struct {
	msg  string
	wait time.Duration
}

func (e *hintedErr) Error() string   { return e.msg }
func (e *hintedErr) Retryable() bool { return true }
func (e *hintedErr) RetryAfterHint() (time.Duration, bool) {
	return e.wait, e.wait > 0
}

func TestNewRetry_Defaults(t *testing.T) {
	r := NewRetry(RetryConfig{})

	cfg := r.Config()
	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.MaxAttempts)
	}
	if cfg.BaseDelay != 250*time.Millisecond {
		t.Errorf("BaseDelay = %v, want 250ms", cfg.BaseDelay)
	}
	if cfg.MaxDelay != 10*time.Second {
		t.Errorf("MaxDelay = %v, want 10s", cfg.MaxDelay)
	}
	if cfg.JitterFraction != 0.2 {
		t.Errorf("JitterFraction = %v, want 0.2", cfg.JitterFraction)
	}
}

func TestRetry_SucceedsFirstAttempt(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond})

	attempts := 0
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return nil
	})

	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if attempts != 1 {
		t.Errorf("Attempts = %d, want 1", attempts)
	}
}

func TestRetry_ExhaustsAttemptsAndReturnsLastError(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond})

	attempts := 0
	last := &downstreamErr{msg: "attempt 3"}
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return &downstreamErr{msg: "earlier"}
		}
		return last
	})

	if attempts != 3 {
		t.Errorf("Attempts = %d, want exactly 3", attempts)
	}
	if err != last {
		t.Errorf("Execute() error = %v, want the third attempt's error unchanged", err)
	}
}

func TestRetry_TerminalErrorReturnsImmediately(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 5, BaseDelay: time.Millisecond})

	attempts := 0
	terminal := &clientErr{msg: "unauthorized"}
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return terminal
	})

	if attempts != 1 {
		t.Errorf("Attempts = %d, want 1 (terminal failures are not retried)", attempts)
	}
	if err != terminal {
		t.Errorf("Execute() error = %v, want terminal error unchanged", err)
	}
}

func TestRetry_UnknownErrorsAreTerminal(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 5, BaseDelay: time.Millisecond})

	attempts := 0
	opaque := errors.New("opaque failure")
	err := r.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return opaque
	})

	if attempts != 1 {
		t.Errorf("Attempts = %d, want 1", attempts)
	}
	if err != opaque {
		t.Errorf("Execute() error = %v, want opaque error unchanged", err)
	}
}

func TestRetry_RetryAfterHintOverridesBackoff(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 2, BaseDelay: time.Hour, MaxDelay: time.Hour})

	var observed time.Duration
	hint := 5 * time.Millisecond

	start := time.Now()
	_ = r.Do(context.Background(), func(ctx context.Context) error {
		return &hintedErr{msg: "throttled", wait: hint}
	}, func(attempt int, err error, delay time.Duration) {
		observed = delay
	})
	elapsed := time.Since(start)

	if observed != hint {
		t.Errorf("Observed delay = %v, want the server hint %v", observed, hint)
	}
	if elapsed > time.Second {
		t.Errorf("Elapsed = %v, hint should have overridden the hour-long backoff", elapsed)
	}
}

func TestRetry_ExponentialDelays(t *testing.T) {
	r := NewRetry(RetryConfig{
		MaxAttempts:    4,
		BaseDelay:      4 * time.Millisecond,
		MaxDelay:       6 * time.Millisecond,
		JitterFraction: 0.01,
	})

	var delays []time.Duration
	_ = r.Do(context.Background(), func(ctx context.Context) error {
		return &downstreamErr{msg: "boom"}
	}, func(attempt int, err error, delay time.Duration) {
		delays = append(delays, delay)
	})

	if len(delays) != 3 {
		t.Fatalf("Got %d delays, want 3", len(delays))
	}
	// First delay near BaseDelay, later ones capped near MaxDelay.
	if delays[0] > 5*time.Millisecond {
		t.Errorf("First delay = %v, want around base delay", delays[0])
	}
	if delays[2] > 8*time.Millisecond {
		t.Errorf("Third delay = %v, want capped near max delay", delays[2])
	}
}

func TestRetry_ContextCancelledDuringBackoff(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 3, BaseDelay: time.Hour, MaxDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- r.Execute(ctx, func(ctx context.Context) error {
			return &downstreamErr{msg: "boom"}
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Execute() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Execute did not observe cancellation during backoff")
	}
}

func TestRetry_DeadlineDuringBackoffIsTypedTimeout(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 3, BaseDelay: time.Hour, MaxDelay: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := r.Execute(ctx, func(ctx context.Context) error {
		return &downstreamErr{msg: "boom"}
	})

	if err != ErrTimeout {
		t.Errorf("Execute() error = %v, want ErrTimeout", err)
	}
}
