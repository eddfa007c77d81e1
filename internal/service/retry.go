package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

type retryPolicy struct {
	attempts int
	interval time.Duration
	timeout  time.Duration
}

// retryRead runs an idempotent read with a per-attempt timeout and exponential backoff.
// Writes never go through here.
func retryRead[T any](ctx context.Context, p retryPolicy, op func(context.Context) (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.interval

	return backoff.Retry(ctx, func() (T, error) {
		actx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		v, err := op(actx)
		if err != nil && !retryable(ctx, err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(p.attempts)))
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return !errors.Is(err, sql.ErrNoRows)
}
