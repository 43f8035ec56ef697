package edge

import (
	logging "github.com/ipfs/go-log/v2"
	"github.com/samber/lo"
	"go.uber.org/fx"

	"github.com/storacha/edgeapp/pkg/config"
	"github.com/storacha/edgeapp/pkg/edge"
	"github.com/storacha/edgeapp/pkg/event"
	"github.com/storacha/edgeapp/pkg/telemetry"
)

var log = logging.Logger("fx/edge")

// Module provides the *edge.Handler. The edge.PhaseApps it serves must be
// supplied by the caller.
var Module = fx.Module("edge",
	fx.Provide(NewHandler),
)

func NewHandler(cfg config.Edge, apps edge.PhaseApps, tel *telemetry.Telemetry) (*edge.Handler, error) {
	h, err := edge.NewHandler(apps,
		edge.WithBinarySupport(cfg.BinarySupport),
		edge.WithTelemetry(tel),
	)
	if err != nil {
		return nil, err
	}
	phases := lo.Map(apps.Configured(), func(p event.Phase, _ int) string { return p.String() })
	log.Infow("edge handler ready", "phases", phases, "binarySupport", cfg.BinarySupport)
	return h, nil
}
