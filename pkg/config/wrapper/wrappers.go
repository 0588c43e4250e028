package wrapper

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/code-payments/code-mint-fixture/pkg/config"
)

// ErrUnsupportedConversion indicates the wrapper does not implement conversion
// from the source type.
var ErrUnsupportedConversion = errors.New("config: wrapper conversion from source type not implemented")

// typedConfig converts a raw config.Config into T. Sources yield either raw
// bytes, which are parsed, or a T directly.
type typedConfig[T any] struct {
	override     config.Config
	defaultValue T
	parse        func(string) (T, error)

	stateMu   sync.RWMutex
	lastValue T
}

func newTypedConfig[T any](override config.Config, defaultValue T, parse func(string) (T, error)) *typedConfig[T] {
	return &typedConfig[T]{
		override:     override,
		defaultValue: defaultValue,
		parse:        parse,
		lastValue:    defaultValue,
	}
}

// NewBoolConfig returns a bool config that accepts any value understood by
// strconv.ParseBool.
func NewBoolConfig(override config.Config, defaultValue bool) config.Bool {
	return newTypedConfig(override, defaultValue, strconv.ParseBool)
}

// NewDurationConfig returns a duration config that accepts any value
// understood by time.ParseDuration.
func NewDurationConfig(override config.Config, defaultValue time.Duration) config.Duration {
	return newTypedConfig(override, defaultValue, time.ParseDuration)
}

func NewStringConfig(override config.Config, defaultValue string) config.String {
	return newTypedConfig(override, defaultValue, func(s string) (string, error) {
		return s, nil
	})
}

func NewUint64Config(override config.Config, defaultValue uint64) config.Uint64 {
	return newTypedConfig(override, defaultValue, func(s string) (uint64, error) {
		return strconv.ParseUint(s, 10, 64)
	})
}

// GetSafe gets a config value and propagates any errors that arise. A best-effort
// attempt is made to return the last known value
func (c *typedConfig[T]) GetSafe(ctx context.Context) (T, error) {
	override, err := c.override.Get(ctx)
	if err == config.ErrNoValue {
		c.setLast(c.defaultValue)
		return c.defaultValue, nil
	} else if err != nil {
		return c.last(), err
	}

	var newValue T
	switch override := override.(type) {
	case T:
		newValue = override
	case []byte:
		newValue, err = c.parse(string(override))
		if err != nil {
			return c.last(), err
		}
	default:
		return c.last(), ErrUnsupportedConversion
	}

	c.setLast(newValue)
	return newValue, nil
}

// Get is a wrapper for GetSafe that ignores the returned error
func (c *typedConfig[T]) Get(ctx context.Context) T {
	val, _ := c.GetSafe(ctx)
	return val
}

// Shutdown signals the config to stop all underlying resources
func (c *typedConfig[T]) Shutdown() {
	c.override.Shutdown()
}

func (c *typedConfig[T]) last() T {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.lastValue
}

func (c *typedConfig[T]) setLast(value T) {
	c.stateMu.Lock()
	c.lastValue = value
	c.stateMu.Unlock()
}
