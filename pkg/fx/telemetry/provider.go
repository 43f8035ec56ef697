package telemetry

import (
	"context"
	"fmt"

	logging "github.com/ipfs/go-log/v2"
	"go.uber.org/fx"

	errreporting "github.com/storacha/edgeapp/internal/telemetry"
	"github.com/storacha/edgeapp/pkg/config"
	"github.com/storacha/edgeapp/pkg/telemetry"
)

var log = logging.Logger("fx/telemetry")

// ServiceName is reported as service.name on every metric and span.
const ServiceName = "edgeapp"

var Module = fx.Module("telemetry",
	fx.Provide(ProvideTelemetry),
	fx.Invoke(SetupErrorReporting),
)

// ProvideTelemetry initializes the global telemetry instance when a collector
// is configured and returns it. Without one the no-op instance is returned.
func ProvideTelemetry(lc fx.Lifecycle, tcfg config.Telemetry, scfg config.Sentry) (*telemetry.Telemetry, error) {
	if !tcfg.Enabled() {
		log.Debug("no telemetry endpoint configured, metrics disabled")
		return telemetry.Global(), nil
	}

	if err := telemetry.Initialize(context.Background(), tcfg.ToTelemetryConfig(ServiceName, scfg.Environment)); err != nil {
		return nil, fmt.Errorf("initializing telemetry: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return telemetry.Shutdown(ctx)
		},
	})
	return telemetry.Global(), nil
}

func SetupErrorReporting(cfg config.Sentry) {
	errreporting.SetupErrorReporting(cfg.DSN, cfg.Environment)
}
