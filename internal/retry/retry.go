package retry

import (
	"context"
	"math/rand"
	"time"
)

// IsRetryableFunc decides whether an error is worth another attempt.
type IsRetryableFunc func(err error) bool

// Backoff yields the delay before the given attempt (starting at 1).
type Backoff interface {
	Delay(attempt int) time.Duration
}

// Retrier runs a function until it succeeds, runs out of attempts, or
// hits a non-retryable error.
type Retrier interface {
	Do(ctx context.Context, fn func() error) error
}

type retrier struct {
	maxAttempts int
	backoff     Backoff
	isRetryable IsRetryableFunc
}

type RetryOption func(*retrier)

func WithMaxAttempts(n int) RetryOption {
	return func(r *retrier) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

func WithBackoff(b Backoff) RetryOption {
	return func(r *retrier) {
		r.backoff = b
	}
}

func WithIsRetryableFunc(f IsRetryableFunc) RetryOption {
	return func(r *retrier) {
		r.isRetryable = f
	}
}

func New(opts ...RetryOption) Retrier {
	r := &retrier{
		maxAttempts: 1,
		backoff:     ConstantBackoff{},
		isRetryable: func(error) bool { return true },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *retrier) Do(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !r.isRetryable(err) || attempt == r.maxAttempts {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.backoff.Delay(attempt)):
		}
	}
	return err
}

// ConstantBackoff waits the same delay between every attempt.
type ConstantBackoff struct {
	Delay0 time.Duration
}

func (b ConstantBackoff) Delay(int) time.Duration {
	return b.Delay0
}

// ExponentialBackoff waits Base*Factor^(attempt-1), capped at Max,
// optionally spread with up to 50% random jitter.
type ExponentialBackoff struct {
	Base   time.Duration
	Factor float64
	Max    time.Duration
	Jitter bool
}

func (b ExponentialBackoff) Delay(attempt int) time.Duration {
	d := float64(b.Base)
	for i := 1; i < attempt; i++ {
		d *= b.Factor
	}
	if b.Max > 0 && d > float64(b.Max) {
		d = float64(b.Max)
	}
	if b.Jitter {
		d += d * 0.5 * rand.Float64()
	}
	return time.Duration(d)
}
