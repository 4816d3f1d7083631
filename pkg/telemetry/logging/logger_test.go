package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "json", config: Config{Level: "info", Format: "json"}},
		{name: "console", config: Config{Level: "debug", Format: "console"}},
		{name: "text alias", config: Config{Level: "warn", Format: "text"}},
		{name: "defaults", config: Config{}},
		{name: "invalid level", config: Config{Level: "loud"}, wantErr: true},
		{name: "invalid format", config: Config{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: "json", Writer: &buf})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("provider added", zap.String("name", "primary"))
	require.NoError(t, logger.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "provider added", entry["msg"])
	assert.Equal(t, "primary", entry["name"])
	assert.Contains(t, entry, "timestamp")
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("WARNING")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, level)

	level, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, level)
}

func TestContextFields(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ContextFields(ctx))

	ctx = WithRequestID(ctx, "req-1")
	ctx = WithProvider(ctx, "primary")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "primary", GetProvider(ctx))
	assert.Equal(t, []zap.Field{
		zap.String("request_id", "req-1"),
		zap.String("provider", "primary"),
	}, ContextFields(ctx))
}

func TestRedactKey(t *testing.T) {
	assert.Equal(t, "", RedactKey(""))
	assert.Equal(t, "***", RedactKey("short"))
	assert.Equal(t, "sk-a***", RedactKey("sk-abc123xyz"))
}

func TestRedactHeaders(t *testing.T) {
	in := map[string]string{
		"Authorization": "Bearer sk-abcdefghijkl",
		"X-API-Key":     "abcdefghijkl",
		"User-Agent":    "AI-PPT-System/1.0.0",
	}
	out := RedactHeaders(in)

	assert.Equal(t, "Bearer sk-a***", out["Authorization"])
	assert.Equal(t, "abcd***", out["X-API-Key"])
	assert.Equal(t, "AI-PPT-System/1.0.0", out["User-Agent"])
	assert.Equal(t, "Bearer sk-abcdefghijkl", in["Authorization"], "input must not be mutated")
}
