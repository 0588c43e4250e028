package retry

import (
	"context"
	"errors"
	"time"

	"github.com/code-payments/code-mint-fixture/pkg/retry/backoff"
)

// Strategy is a function that determines whether or not an action should be
// retried. Strategies are allowed to delay or cause other side effects.
type Strategy func(ctx context.Context, attempts uint, err error) bool

// Limit caps the total number of attempts. maxAttempts should be >= 1, since
// the action is evaluated first.
func Limit(maxAttempts uint) Strategy {
	return func(_ context.Context, attempts uint, _ error) bool {
		return attempts < maxAttempts
	}
}

// RetriableErrors only retries errors matching one of retriableErrors.
func RetriableErrors(retriableErrors ...error) Strategy {
	return func(_ context.Context, _ uint, err error) bool {
		for _, e := range retriableErrors {
			if errors.Is(err, e) {
				return true
			}
		}
		return false
	}
}

// NonRetriableErrors retries every error except those matching
// nonRetriableErrors.
func NonRetriableErrors(nonRetriableErrors ...error) Strategy {
	return func(_ context.Context, _ uint, err error) bool {
		for _, e := range nonRetriableErrors {
			if errors.Is(err, e) {
				return false
			}
		}
		return true
	}
}

// Backoff sleeps for the capped delay before the next attempt. The sleep ends
// early, declining the retry, if ctx is done.
func Backoff(strategy backoff.Strategy, maxBackoff time.Duration) Strategy {
	return delay(backoff.Capped(strategy, maxBackoff))
}

// BackoffWithJitter is Backoff with the capped delay spread by +/- jitter
// (a fraction of the delay).
func BackoffWithJitter(strategy backoff.Strategy, maxBackoff time.Duration, jitter float64) Strategy {
	return delay(backoff.Jittered(backoff.Capped(strategy, maxBackoff), jitter))
}

func delay(strategy backoff.Strategy) Strategy {
	return func(ctx context.Context, attempts uint, _ error) bool {
		return sleeperImpl.Sleep(ctx, strategy(attempts))
	}
}

type sleeper interface {
	// Sleep returns false if ctx finished before d elapsed.
	Sleep(ctx context.Context, d time.Duration) bool
}

type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

var sleeperImpl sleeper = realSleeper{}
