package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNetwork marks a failed round trip to a remote backend. Such errors are
// retried; replies from a reachable server are not.
var ErrNetwork = errors.New("cache backend unreachable")

// retryDelays are the waits between attempts. A remote cache that is still
// down after them is treated as a miss by the pipeline.
var retryDelays = []time.Duration{200 * time.Millisecond, 800 * time.Millisecond}

// RetryableError marks an error worth another attempt.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable marks err as retryable. It returns nil for a nil err.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err carries a [RetryableError].
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// networkError wraps a transport failure of a remote backend.
func networkError(err error) error {
	return Retryable(fmt.Errorf("%w: %w", ErrNetwork, err))
}

// RetryWithBackoff calls fn until it succeeds, fails with an error that is
// not retryable, or the retry delays run out. It gives up early with
// ctx.Err() when ctx is done.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	err := fn()
	for _, delay := range retryDelays {
		if !IsRetryable(err) {
			return err
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		err = fn()
	}
	return err
}
