package observability_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/stashplan/internal/config"
	"github.com/cory-johannsen/stashplan/internal/observability"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LoggingConfig
		enabled zapcore.Level
		muted   zapcore.Level
		wantErr string
	}{
		{name: "json info", cfg: config.LoggingConfig{Level: "info", Format: "json"}, enabled: zap.InfoLevel, muted: zap.DebugLevel},
		{name: "console debug", cfg: config.LoggingConfig{Level: "debug", Format: "console"}, enabled: zap.DebugLevel, muted: zap.DebugLevel - 1},
		{name: "json warn", cfg: config.LoggingConfig{Level: "warn", Format: "json"}, enabled: zap.WarnLevel, muted: zap.InfoLevel},
		{name: "json error", cfg: config.LoggingConfig{Level: "error", Format: "json"}, enabled: zap.ErrorLevel, muted: zap.WarnLevel},
		{name: "unknown level", cfg: config.LoggingConfig{Level: "trace", Format: "json"}, wantErr: "parsing log level"},
		{name: "unknown format", cfg: config.LoggingConfig{Level: "info", Format: "xml"}, wantErr: "unknown log format"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			logger, err := observability.NewLogger(tc.cfg)
			if tc.wantErr != "" {
				assert.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tc.enabled))
			assert.False(t, logger.Core().Enabled(tc.muted))
		})
	}
}

func TestNewLoggerTo_JSONEntry(t *testing.T) {
	var buf bytes.Buffer
	logger, err := observability.NewLoggerTo(config.LoggingConfig{Level: "info", Format: "json"}, zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("plan computed", zap.String("plan_id", "abc"))
	require.NoError(t, observability.Sync(logger))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry), "exactly one entry expected, got %q", buf.String())
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "plan computed", entry["msg"])
	assert.Equal(t, "abc", entry["plan_id"])
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T`, entry["ts"])
	assert.Contains(t, entry["caller"], "logging_test.go")
}

func TestSync_Nop(t *testing.T) {
	assert.NoError(t, observability.Sync(zap.NewNop()))
}
