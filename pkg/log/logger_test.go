package log

import (
	"testing"

	"github.com/rentstack/rentstack/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerLevelFollowsEnvironment(t *testing.T) {
	dev, err := NewLogger(config.Config{AppName: "rentstack", Environment: "development"})
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(zapcore.DebugLevel))

	prod, err := NewLogger(config.Config{AppName: "rentstack", Environment: "production"})
	require.NoError(t, err)
	assert.False(t, prod.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, prod.Core().Enabled(zapcore.InfoLevel))
}
