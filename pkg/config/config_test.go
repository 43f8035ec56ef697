package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.False(t, cfg.BinarySupport)
		assert.Empty(t, cfg.Sentry.DSN)
		assert.False(t, cfg.Telemetry.Enabled())
		assert.Equal(t, 30*time.Second, cfg.Telemetry.PublishInterval)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("EDGEAPP_BINARY_SUPPORT", "true")
		t.Setenv("EDGEAPP_LOG_LEVEL", "debug")
		t.Setenv("EDGEAPP_SENTRY_DSN", "https://key@sentry.example.org/1")
		t.Setenv("EDGEAPP_SENTRY_ENVIRONMENT", "staging")
		t.Setenv("EDGEAPP_TELEMETRY_ENDPOINT", "otel.example.org:4318")
		t.Setenv("EDGEAPP_TELEMETRY_PUBLISH_INTERVAL", "5s")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.True(t, cfg.BinarySupport)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "https://key@sentry.example.org/1", cfg.Sentry.DSN)
		assert.Equal(t, "staging", cfg.Sentry.Environment)
		assert.True(t, cfg.Telemetry.Enabled())
		assert.Equal(t, 5*time.Second, cfg.Telemetry.PublishInterval)

		tc := cfg.Telemetry.ToTelemetryConfig("edgeapp", cfg.Sentry.Environment)
		assert.Equal(t, "edgeapp", tc.ServiceName)
		assert.Equal(t, "otel.example.org:4318", tc.Endpoint)
		assert.Equal(t, "staging", tc.Environment)
	})

	t.Run("invalid log level", func(t *testing.T) {
		t.Setenv("EDGEAPP_LOG_LEVEL", "loud")
		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "LogLevel")
	})

	t.Run("invalid sentry dsn", func(t *testing.T) {
		t.Setenv("EDGEAPP_SENTRY_DSN", "not a url")
		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DSN")
	})
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edgeapp.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
binary_support = true

[telemetry]
endpoint = "localhost:4318"
insecure = true
publish_interval = "1m"

[telemetry.headers]
authorization = "Bearer token"
`), 0o600))

	v, err := NewViper(path)
	require.NoError(t, err)
	cfg, err := Load[Edge](v)
	require.NoError(t, err)

	assert.True(t, cfg.BinarySupport)
	assert.True(t, cfg.Telemetry.Insecure)
	assert.Equal(t, time.Minute, cfg.Telemetry.PublishInterval)
	assert.Equal(t, "Bearer token", cfg.Telemetry.Headers["authorization"])

	t.Run("environment beats file", func(t *testing.T) {
		t.Setenv("EDGEAPP_BINARY_SUPPORT", "false")
		cfg, err := Load[Edge](v)
		require.NoError(t, err)
		assert.False(t, cfg.BinarySupport)
	})
}

func TestMissingConfigFile(t *testing.T) {
	_, err := NewViper(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
