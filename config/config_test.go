package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http", cfg.Server.Mode)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.True(t, cfg.Server.Prewarm)
	assert.Zero(t, cfg.Server.RateLimit)
	assert.EqualValues(t, 10<<20, cfg.Server.MaxBodyBytes)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "Spin.Sdk.HttpHandlerAttribute", cfg.Bridge.AttributeType)
	assert.Equal(t, "/", cfg.Bridge.WarmupURI)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("BRIDGE_SERVER_MODE", "LAMBDA")
	t.Setenv("BRIDGE_SERVER_RATE_LIMIT", "12.5")
	t.Setenv("BRIDGE_SERVER_BURST", "4")
	t.Setenv("BRIDGE_SERVER_MAX_BODY_BYTES", "2048")
	t.Setenv("BRIDGE_BRIDGE_WARMUP_URI", "/health")
	t.Setenv("BRIDGE_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "lambda", cfg.Server.Mode)
	assert.Equal(t, 12.5, cfg.Server.RateLimit)
	assert.Equal(t, 4, cfg.Server.Burst)
	assert.EqualValues(t, 2048, cfg.Server.MaxBodyBytes)
	assert.Equal(t, "/health", cfg.Bridge.WarmupURI)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.env")
	require.NoError(t, os.WriteFile(path, []byte("BRIDGE_SERVER_ADDR=127.0.0.1:9000\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("BRIDGE_SERVER_ADDR") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"mode", "BRIDGE_SERVER_MODE", "grpc"},
		{"level", "BRIDGE_LOG_LEVEL", "verbose"},
		{"rate", "BRIDGE_SERVER_RATE_LIMIT", "-1"},
		{"warmup uri", "BRIDGE_BRIDGE_WARMUP_URI", "health"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	log, err := NewLogger(LogConfig{Level: "warn"})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))

	dev, err := NewLogger(LogConfig{Level: "debug", Development: true})
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(zapcore.DebugLevel))

	_, err = NewLogger(LogConfig{Level: "loud"})
	assert.Error(t, err)
}
