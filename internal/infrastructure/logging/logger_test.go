package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/aegis-lab/bridge/internal/infrastructure/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.LogConfig
		wantErr   bool
		wantLevel zapcore.Level
	}{
		{name: "production", cfg: config.LogConfig{Level: "info"}, wantLevel: zapcore.InfoLevel},
		{name: "development", cfg: config.LogConfig{Level: "debug", Development: true}, wantLevel: zapcore.DebugLevel},
		{name: "empty level defaults to info", cfg: config.LogConfig{}, wantLevel: zapcore.InfoLevel},
		{name: "warn level", cfg: config.LogConfig{Level: "warn"}, wantLevel: zapcore.WarnLevel},
		{name: "invalid level", cfg: config.LogConfig{Level: "loud"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "loud")
				return
			}
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.wantLevel))
			if tt.wantLevel > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tt.wantLevel-1))
			}
		})
	}
}

func TestComponent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := &Logger{Logger: zap.New(core).Named(RootName)}

	logger.Component("launcher").Info("Trigger complete")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, RootName, entry.LoggerName)
	assert.Equal(t, "launcher", entry.ContextMap()[FieldComponent])
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	require.NotNil(t, logger)
	logger.Component("http").Info("discarded")
	logger.Sync()
}
