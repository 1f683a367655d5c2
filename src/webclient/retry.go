package webclient

import (
	"context"
	"net/http"
	"time"
)

const maxDelay = 30 * time.Second

// AttemptFunc performs one request. ctx carries the per-attempt timeout.
type AttemptFunc func(ctx context.Context) (status int, body []byte, err error)

// Policy controls DoWithRetry.
type Policy struct {
	Attempts       int
	InitialDelay   time.Duration
	AttemptTimeout time.Duration
	// OnAttempt, when set, is called after every attempt.
	OnAttempt func(attempt, status int, err error)
}

// DefaultPolicy is three attempts, 1s then 2s apart, 30s each.
func DefaultPolicy() Policy {
	return Policy{Attempts: 3, InitialDelay: time.Second, AttemptTimeout: 30 * time.Second}
}

// Retryable reports whether an attempt result should be retried.
func Retryable(status int, err error) bool {
	return err != nil || status == http.StatusTooManyRequests || status >= 500
}

// Delay returns the wait before attempt n+1 (n counts from 1).
func (p Policy) Delay(n int) time.Duration {
	d := p.InitialDelay
	if d <= 0 {
		d = time.Second
	}
	for i := 1; i < n && d < maxDelay; i++ {
		d *= 2
	}
	if d > maxDelay {
		d = maxDelay
	}
	return d
}

// DoWithRetry retries fn on transport errors, 429 and 5xx. Other statuses are
// returned as-is after the first attempt.
func DoWithRetry(ctx context.Context, p Policy, fn AttemptFunc) (int, []byte, error) {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	var (
		status int
		body   []byte
		err    error
	)
	for i := 1; i <= attempts; i++ {
		status, body, err = attempt(ctx, p.AttemptTimeout, fn)
		if p.OnAttempt != nil {
			p.OnAttempt(i, status, err)
		}
		if !Retryable(status, err) {
			return status, body, nil
		}
		if i == attempts {
			break
		}
		t := time.NewTimer(p.Delay(i))
		select {
		case <-ctx.Done():
			t.Stop()
			return status, body, ctx.Err()
		case <-t.C:
		}
	}
	return status, body, err
}

func attempt(ctx context.Context, timeout time.Duration, fn AttemptFunc) (int, []byte, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(actx)
}
