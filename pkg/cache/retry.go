package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNetwork marks failures reaching a remote cache backend.
var ErrNetwork = errors.New("cache backend unreachable")

// transientError marks a backend failure worth another attempt.
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Retryable marks err as transient. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsRetryable reports whether err, or anything it wraps, was marked with
// [Retryable].
func IsRetryable(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// Backoff is a retry policy for remote cache calls. The delay doubles after
// every failed attempt.
type Backoff struct {
	Attempts int
	Delay    time.Duration
}

// DefaultBackoff keeps a render request from stalling on an unreachable
// cache for more than a fraction of a second.
var DefaultBackoff = Backoff{Attempts: 3, Delay: 50 * time.Millisecond}

// Do calls fn until it succeeds, returns an error not marked with
// [Retryable], or the attempts run out. The last error is returned.
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay

	var err error
	for i := range attempts {
		if err = fn(); err == nil || !IsRetryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
	}
	return err
}
