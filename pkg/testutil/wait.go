package testutil

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// WaitFor polls condition every interval until it reports true, returns an
// error, or timeout elapses.
func WaitFor(ctx context.Context, timeout, interval time.Duration, condition func(ctx context.Context) (bool, error)) error {
	if timeout < interval {
		return errors.New("timeout must be greater than interval")
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		done, err := condition(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "condition not met within %v", timeout)
		case <-ticker.C:
		}
	}
}
