// Package backoff provides delay schedules for retry.
package backoff

import (
	"math"
	"math/rand"
	"time"
)

// Strategy is a function that provides the amount of time to wait before trying
// again. Note: attempts starts at 1
type Strategy func(attempts uint) time.Duration

// Constant always waits interval.
func Constant(interval time.Duration) Strategy {
	return func(uint) time.Duration {
		return interval
	}
}

// Linear grows the delay by baseDelay per attempt.
//
// Ex. Linear(2*time.Second) = 2s, 4s, 6s, 8s, ...
func Linear(baseDelay time.Duration) Strategy {
	return func(attempts uint) time.Duration {
		return saturate(float64(baseDelay) * float64(attempts))
	}
}

// Exponential multiplies the delay by base on every attempt.
//
// Ex. Exponential(2*time.Second, 3) = 2s, 6s, 18s, 54s, ...
func Exponential(baseDelay time.Duration, base float64) Strategy {
	return func(attempts uint) time.Duration {
		return saturate(float64(baseDelay) * math.Pow(base, float64(attempts-1)))
	}
}

// BinaryExponential is Exponential with a base of 2.
//
// Ex. BinaryExponential(2*time.Second) = 2s, 4s, 8s, 16s, ...
func BinaryExponential(baseDelay time.Duration) Strategy {
	return Exponential(baseDelay, 2)
}

// Capped limits the delay produced by strategy to max.
func Capped(strategy Strategy, max time.Duration) Strategy {
	return func(attempts uint) time.Duration {
		if delay := strategy(attempts); delay < max {
			return delay
		}
		return max
	}
}

// Jittered spreads the delay produced by strategy uniformly over
// [delay*(1-jitter), delay*(1+jitter)].
func Jittered(strategy Strategy, jitter float64) Strategy {
	return func(attempts uint) time.Duration {
		delay := float64(strategy(attempts))
		return saturate(delay * (1 + (rand.Float64()*jitter*2 - jitter)))
	}
}

func saturate(delay float64) time.Duration {
	if delay < 0 || delay >= math.MaxInt64 {
		return math.MaxInt64
	}
	return time.Duration(delay)
}
