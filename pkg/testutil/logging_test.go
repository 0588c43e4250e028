package testutil

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLogging_LevelUnchanged(t *testing.T) {
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}

func TestDisableLogging(t *testing.T) {
	original := logrus.StandardLogger().Out

	reset := DisableLogging()
	assert.Equal(t, io.Discard, logrus.StandardLogger().Out)

	reset()
	assert.Equal(t, original, logrus.StandardLogger().Out)
}
