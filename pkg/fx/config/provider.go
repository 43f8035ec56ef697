package config

import (
	logging "github.com/ipfs/go-log/v2"
	"go.uber.org/fx"

	"github.com/storacha/edgeapp/pkg/config"
)

var Module = fx.Module("config",
	fx.Provide(
		ProvideConfig,
		ProvideSentry,
		ProvideTelemetry,
	),
)

// ProvideConfig loads the edge config from the environment and applies its
// log level.
func ProvideConfig() (config.Edge, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return config.Edge{}, err
	}
	if cfg.LogLevel != "" {
		ll, err := logging.LevelFromString(cfg.LogLevel)
		if err != nil {
			return config.Edge{}, err
		}
		logging.SetAllLoggers(ll)
	}
	return cfg, nil
}

func ProvideSentry(cfg config.Edge) config.Sentry {
	return cfg.Sentry
}

func ProvideTelemetry(cfg config.Edge) config.Telemetry {
	return cfg.Telemetry
}
