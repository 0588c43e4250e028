package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, NewContext(ctx, nil))

	_, ok := applicationFromContext(ctx)
	assert.False(t, ok)

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName("mint-fixture-test"),
		newrelic.ConfigEnabled(false),
	)
	require.NoError(t, err)

	actual, ok := applicationFromContext(NewContext(ctx, app))
	require.True(t, ok)
	assert.Equal(t, app, actual)
}

func TestRecording_NoApplication(t *testing.T) {
	ctx := context.Background()

	RecordCount(ctx, "count", 1)
	RecordDuration(ctx, "duration", time.Second)
	RecordEvent(ctx, "event", map[string]interface{}{"key": "value"})
}

func TestTraceMethodCall_NoTransaction(t *testing.T) {
	tracer := TraceMethodCall(context.Background(), "metrics", "Test")
	require.Nil(t, tracer)

	tracer.AddAttribute("key", "value")
	tracer.AddAttributes(map[string]interface{}{"key": "value"})
	tracer.OnError(errors.New("failure"))
	tracer.End()
}

func TestNewRelicMessage(t *testing.T) {
	e := logrus.NewEntry(logrus.New())
	e.Message = "transaction failed"
	assert.Equal(t, "transaction failed", newRelicMessage(e))

	e = e.WithFields(logrus.Fields{
		"mint":          "mint-address",
		logrus.ErrorKey: errors.New("blockhash not found"),
	})
	e.Message = "transaction failed"
	assert.Equal(
		t,
		`message="transaction failed", error="blockhash not found", data={"mint":"mint-address"}`,
		newRelicMessage(e),
	)
}
