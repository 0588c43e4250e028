package config

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNoValue indicates no value was set for the config
	ErrNoValue = errors.New("config: no value set")

	// ErrShutdown indicates the use of a Config after calling Shutdown
	ErrShutdown = errors.New("config: shutdown")
)

// Config is a raw configuration source. Values are either []byte, as read
// from the environment, or already typed values set programmatically.
type Config interface {
	// Get returns the latest config value
	Get(ctx context.Context) (interface{}, error)

	// Shutdown signals the config to stop all underlying resources
	Shutdown()
}

// Value is a typed config value with a default.
type Value[T any] interface {
	// Get returns the current value, falling back to the last known value
	// when the source fails.
	Get(ctx context.Context) T

	// GetSafe is like Get, but also reports source and conversion errors.
	GetSafe(ctx context.Context) (T, error)

	Shutdown()
}

type (
	Bool     = Value[bool]
	Duration = Value[time.Duration]
	String   = Value[string]
	Uint64   = Value[uint64]
)
