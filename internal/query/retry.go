package query

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// policyBackOff feeds the query policy's retry delays to backoff.Retry.
type policyBackOff struct {
	attempt int
	delay   func(attempt int) time.Duration
}

func (b *policyBackOff) NextBackOff() time.Duration {
	b.attempt++
	return b.delay(b.attempt)
}

func (b *policyBackOff) Reset() { b.attempt = 0 }

// runWithRetry executes fn, retrying per opts. Errors the policy refuses to
// retry are returned after the first failure.
func runWithRetry(ctx context.Context, fn QueryFunc, opts Options, notify backoff.Notify) (any, error) {
	failures := 0
	op := func() (any, error) {
		data, err := fn(ctx)
		if err == nil {
			return data, nil
		}
		failures++
		if !opts.shouldRetry(failures, err) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	data, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(&policyBackOff{delay: opts.retryDelay}),
		backoff.WithMaxTries(uint(opts.retries()+1)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify),
	)
	// the try limit is checked before permanent errors are unwrapped
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}
	return data, err
}
