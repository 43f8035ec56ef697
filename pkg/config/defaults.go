package config

import (
	"time"

	"github.com/spf13/viper"
)

// Key is a configuration key path used with Viper.
type Key string

const (
	BinarySupport Key = "binary_support"
	LogLevel      Key = "log_level"
)

const (
	SentryDSN         Key = "sentry.dsn"
	SentryEnvironment Key = "sentry.environment"
)

const (
	TelemetryEndpoint        Key = "telemetry.endpoint"
	TelemetryInsecure        Key = "telemetry.insecure"
	TelemetryPublishInterval Key = "telemetry.publish_interval"
)

// Every key has a default so that AutomaticEnv can resolve it during
// Unmarshal, even when no config file mentions it.
var defaultValues = map[Key]any{
	BinarySupport:            false,
	LogLevel:                 "",
	SentryDSN:                "",
	SentryEnvironment:        "",
	TelemetryEndpoint:        "",
	TelemetryInsecure:        false,
	TelemetryPublishInterval: 30 * time.Second,
}

// SetDefaults sets all defaults on v.
func SetDefaults(v *viper.Viper) {
	for k, val := range defaultValues {
		v.SetDefault(string(k), val)
	}
}
