package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type statusErr struct{ status int }

func (e *statusErr) Error() string   { return fmt.Sprintf("status %d", e.status) }
func (e *statusErr) StatusCode() int { return e.status }

// fakeSleep records waits instead of sleeping.
func fakeSleep(waits *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	var waits []time.Duration
	r := NewRetryer(3)
	r.sleep = fakeSleep(&waits)

	calls := 0
	got, err := Do(context.Background(), r, func() (string, error) {
		calls++
		if calls < 3 {
			return "", &statusErr{status: 529}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if got != "ok" {
		t.Fatalf("unexpected value %q", got)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	if len(waits) != 2 || waits[0] != 2*time.Second || waits[1] != 4*time.Second {
		t.Fatalf("unexpected backoff schedule %v", waits)
	}
}

func TestRetryNonTransientFailsImmediately(t *testing.T) {
	var waits []time.Duration
	r := NewRetryer(3)
	r.sleep = fakeSleep(&waits)

	calls := 0
	_, err := Do(context.Background(), r, func() (string, error) {
		calls++
		return "", &statusErr{status: 401}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected single call, got %d", calls)
	}
	if len(waits) != 0 {
		t.Fatalf("expected no sleeps, got %v", waits)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	var waits []time.Duration
	r := NewRetryer(3)
	r.sleep = fakeSleep(&waits)

	calls := 0
	_, err := Do(context.Background(), r, func() (string, error) {
		calls++
		return "", errors.New("overloaded: please slow down")
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	if len(waits) != 2 {
		t.Fatalf("expected 2 sleeps, got %d", len(waits))
	}
}

func TestRetryContextCancelAbortsBackoff(t *testing.T) {
	r := NewRetryer(3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Do(ctx, r, func() (string, error) {
		return "", errors.New("rate limit exceeded")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{&statusErr{status: 429}, true},
		{&statusErr{status: 503}, true},
		{&statusErr{status: 529}, true},
		{&statusErr{status: 400}, false},
		{&statusErr{status: 401}, false},
		{errors.New("Rate limit hit"), true},
		{errors.New("model OVERLOADED"), true},
		{errors.New("invalid api key"), false},
	}
	for _, c := range cases {
		if got := IsTransient(c.err); got != c.want {
			t.Fatalf("IsTransient(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}

func TestRetryHookFiresPerRetry(t *testing.T) {
	var waits []time.Duration
	r := NewRetryer(3)
	r.sleep = fakeSleep(&waits)

	hooked := 0
	r.SetRetryHook(func(context.Context) { hooked++ })

	calls := 0
	_, err := Do(context.Background(), r, func() (string, error) {
		calls++
		if calls < 3 {
			return "", &statusErr{status: 503}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if hooked != 2 {
		t.Fatalf("expected hook for each retry, got %d", hooked)
	}
}

func TestRetryFailsFastOnOpenBreaker(t *testing.T) {
	b := NewBreaker(1, time.Minute)
	if err := b.Execute(func() error { return errors.New("backend down") }); err == nil {
		t.Fatal("expected failure to open the breaker")
	}

	var waits []time.Duration
	r := NewRetryer(3)
	r.sleep = fakeSleep(&waits)

	calls := 0
	_, err := Do(context.Background(), r, func() (string, error) {
		calls++
		return "", b.Execute(func() error { return nil })
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
	if len(waits) != 0 {
		t.Fatalf("expected no backoff on an open breaker, got %v", waits)
	}
}
