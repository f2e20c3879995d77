// Package retry provides a bounded retry-until-done primitive used by the
// upload reconciliation poll.
package retry

import (
	"context"
	"errors"
	"time"
)

// ErrExhausted is returned when every attempt ran without fn reporting done.
var ErrExhausted = errors.New("retry: attempts exhausted")

// Until calls fn up to attempts times, sleeping delay between calls, until fn
// returns done=true. A non-nil error from fn aborts immediately. The context
// cancels the wait between attempts.
func Until(ctx context.Context, attempts int, delay time.Duration, fn func(ctx context.Context) (done bool, err error)) error {
	if attempts <= 0 {
		return ErrExhausted
	}
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		done, err := fn(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return ErrExhausted
}
