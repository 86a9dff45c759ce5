package resilience

import (
	"context"
	"errors"
	"strings"
	"time"
)

// transientStatuses are the backend statuses treated as retryable:
// rate limits, overload, and server-side failures.
var transientStatuses = map[int]bool{
	429: true,
	500: true,
	502: true,
	503: true,
	529: true,
}

// statusCoder is implemented by errors that carry a backend HTTP status.
type statusCoder interface {
	StatusCode() int
}

// IsTransient reports whether err is worth retrying: either the backend
// returned a rate-limit/overload/server-error status, or the error message
// mentions rate limiting or overload.
func IsTransient(err error) bool {
	var sc statusCoder
	if errors.As(err, &sc) && transientStatuses[sc.StatusCode()] {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate") || strings.Contains(msg, "overloaded")
}

// Retryer retries transient failures with exponential backoff. This is the
// only place in the debate engine that sleeps.
type Retryer struct {
	maxAttempts int
	sleep       func(context.Context, time.Duration) error
	onRetry     func(context.Context)
}

// NewRetryer creates a Retryer with the given attempt bound (minimum 1).
func NewRetryer(maxAttempts int) *Retryer {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Retryer{maxAttempts: maxAttempts, sleep: sleepCtx}
}

// SetRetryHook installs a callback invoked once per retried attempt, e.g.
// for metrics.
func (r *Retryer) SetRetryHook(fn func(context.Context)) {
	r.onRetry = fn
}

// Do runs fn up to the retryer's attempt bound. After a transient failure it
// waits 2^(attempt+1) seconds (2s, 4s, ...) before the next attempt.
// Non-transient failures and the final failed attempt are returned
// immediately. Cancelling ctx aborts a pending backoff wait.
func Do[T any](ctx context.Context, r *Retryer, fn func() (T, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		if attempt >= r.maxAttempts-1 || !IsTransient(err) {
			return zero, err
		}
		if r.onRetry != nil {
			r.onRetry(ctx)
		}
		wait := time.Duration(1<<uint(attempt+1)) * time.Second
		if serr := r.sleep(ctx, wait); serr != nil {
			return zero, serr
		}
	}
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
