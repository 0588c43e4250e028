package wrapper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-mint-fixture/pkg/config"
	"github.com/code-payments/code-mint-fixture/pkg/config/memory"
)

func TestUint64Config(t *testing.T) {
	ctx := context.Background()
	source := memory.NewConfig(nil)
	c := NewUint64Config(source, 9)

	val, err := c.GetSafe(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 9, val)

	source.SetValue([]byte("1000"))
	assert.EqualValues(t, 1000, c.Get(ctx))

	source.SetValue(uint64(42))
	assert.EqualValues(t, 42, c.Get(ctx))

	// Failures keep the last good value
	source.SetValue([]byte("not a number"))
	val, err = c.GetSafe(ctx)
	assert.Error(t, err)
	assert.EqualValues(t, 42, val)

	source.SetValue(int64(5))
	val, err = c.GetSafe(ctx)
	assert.Equal(t, ErrUnsupportedConversion, err)
	assert.EqualValues(t, 42, val)

	source.InduceErrors()
	val, err = c.GetSafe(ctx)
	assert.Error(t, err)
	assert.EqualValues(t, 42, val)

	source.StopInducingErrors()
	source.ClearValue()
	assert.EqualValues(t, 9, c.Get(ctx))

	c.Shutdown()
	_, err = c.GetSafe(ctx)
	assert.Equal(t, config.ErrShutdown, err)
}

func TestBoolConfig(t *testing.T) {
	ctx := context.Background()
	source := memory.NewConfig([]byte("1"))
	c := NewBoolConfig(source, false)
	assert.True(t, c.Get(ctx))

	source.SetValue(false)
	assert.False(t, c.Get(ctx))
}

func TestDurationConfig(t *testing.T) {
	ctx := context.Background()
	source := memory.NewConfig([]byte("2m"))
	c := NewDurationConfig(source, time.Second)
	assert.Equal(t, 2*time.Minute, c.Get(ctx))

	source.SetValue(15 * time.Second)
	assert.Equal(t, 15*time.Second, c.Get(ctx))

	source.ClearValue()
	assert.Equal(t, time.Second, c.Get(ctx))
}

func TestStringConfig(t *testing.T) {
	ctx := context.Background()
	source := memory.NewConfig(nil)
	c := NewStringConfig(source, "http://localhost:8899")
	assert.Equal(t, "http://localhost:8899", c.Get(ctx))

	source.SetValue([]byte("https://api.devnet.solana.com"))
	assert.Equal(t, "https://api.devnet.solana.com", c.Get(ctx))
}
