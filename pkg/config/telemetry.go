package config

import (
	"time"

	"github.com/storacha/edgeapp/pkg/build"
	"github.com/storacha/edgeapp/pkg/telemetry"
)

type Telemetry struct {
	Endpoint        string            `mapstructure:"endpoint"`
	Insecure        bool              `mapstructure:"insecure"`
	Headers         map[string]string `mapstructure:"headers"`
	PublishInterval time.Duration     `mapstructure:"publish_interval" validate:"gte=0"`
}

func (t Telemetry) Validate() error {
	return validateConfig(t)
}

// Enabled reports whether an OTLP collector is configured.
func (t Telemetry) Enabled() bool {
	return t.Endpoint != ""
}

func (t Telemetry) ToTelemetryConfig(serviceName, environment string) telemetry.Config {
	return telemetry.Config{
		ServiceName:     serviceName,
		ServiceVersion:  build.Version,
		Environment:     environment,
		Endpoint:        t.Endpoint,
		Insecure:        t.Insecure,
		Headers:         t.Headers,
		PublishInterval: t.PublishInterval,
	}
}
