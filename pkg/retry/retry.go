// Package retry runs actions repeatedly according to composable strategies.
package retry

import "context"

// Action is a function to be performed in a retriable manner.
type Action func() error

// Retrier retries the provided action.
type Retrier interface {
	Retry(ctx context.Context, action Action) (uint, error)
}

type retrier struct {
	strategies []Strategy
}

// NewRetrier returns a Retrier that will retry actions based off of the
// provided strategies. If no strategies are provided, the retrier acts
// as a tight-loop, retrying until no error is returned from the action.
func NewRetrier(strategies ...Strategy) Retrier {
	return &retrier{
		strategies: strategies,
	}
}

func (r *retrier) Retry(ctx context.Context, action Action) (uint, error) {
	return Retry(ctx, action, r.strategies...)
}

// Retry executes action until it succeeds, one of the strategies declines a
// further attempt, or ctx is done. The number of attempts made is returned
// along with the last error, or ctx.Err() if the context ended the loop.
//
// Strategies run in the provided order, so any strategies that induce delays
// should be specified last.
func Retry(ctx context.Context, action Action, strategies ...Strategy) (uint, error) {
	for i := uint(1); ; i++ {
		err := action()
		if err == nil {
			return i, nil
		}

		if !shouldRetry(ctx, strategies, i, err) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return i, ctxErr
			}
			return i, err
		}
	}
}

// Loop executes action indefinitely. Unlike Retry, a successful attempt
// resets the attempt counter instead of returning.
func Loop(ctx context.Context, action Action, strategies ...Strategy) error {
	for i := uint(1); ; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := action()
		if err == nil {
			i = 0
			continue
		}

		if !shouldRetry(ctx, strategies, i, err) {
			return err
		}
	}
}

func shouldRetry(ctx context.Context, strategies []Strategy, attempts uint, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	for _, s := range strategies {
		if !s(ctx, attempts, err) {
			return false
		}
	}
	return ctx.Err() == nil
}
