package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-mint-fixture/pkg/config"
)

func TestConfigLifecycle(t *testing.T) {
	ctx := context.Background()

	c := NewConfig(nil)
	_, err := c.Get(ctx)
	assert.Equal(t, config.ErrNoValue, err)

	c.SetValue([]byte("http://localhost:8899"))
	val, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("http://localhost:8899"), val)

	c.SetValue(uint64(6))
	val, err = c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), val)

	c.InduceErrors()
	_, err = c.Get(ctx)
	assert.Equal(t, errDeveloperInduced, err)

	c.StopInducingErrors()
	c.ClearValue()
	_, err = c.Get(ctx)
	assert.Equal(t, config.ErrNoValue, err)

	c.Shutdown()
	_, err = c.Get(ctx)
	assert.Equal(t, config.ErrShutdown, err)
}
