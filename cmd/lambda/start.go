package lambda

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	logging "github.com/ipfs/go-log/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap/zapcore"

	"github.com/storacha/edgeapp/internal/telemetry"
	"github.com/storacha/edgeapp/pkg/config"
	"github.com/storacha/edgeapp/pkg/edge"
	"github.com/storacha/edgeapp/pkg/event"
	fxconfig "github.com/storacha/edgeapp/pkg/fx/config"
	fxedge "github.com/storacha/edgeapp/pkg/fx/edge"
	fxtelemetry "github.com/storacha/edgeapp/pkg/fx/telemetry"
	"github.com/storacha/edgeapp/pkg/response"
	edgetelemetry "github.com/storacha/edgeapp/pkg/telemetry"
)

var log = logging.Logger("lambda")

const (
	startTimeout = 10 * time.Second
	stopTimeout  = 2 * time.Second
	flushTimeout = time.Second
)

// EdgeEventHandler is a function that handles edge events, suitable to use as
// a lambda handler.
type EdgeEventHandler func(context.Context, event.Event) (*response.EdgeResponse, error)

// PhaseAppsBuilder creates the phase applications from the config.
type PhaseAppsBuilder func(config.Edge) (edge.PhaseApps, error)

// StartEdgeHandler starts a lambda handler that serves edge events with the
// applications returned by makeApps.
func StartEdgeHandler(makeApps PhaseAppsBuilder) {
	ctx := context.Background()

	var (
		handler *edge.Handler
		tel     *edgetelemetry.Telemetry
	)
	fxApp := fx.New(
		fx.WithLogger(func() fxevent.Logger {
			el := &fxevent.ZapLogger{Logger: log.Desugar()}
			el.UseLogLevel(zapcore.DebugLevel)
			return el
		}),
		fx.StartTimeout(startTimeout),
		fx.StopTimeout(stopTimeout),

		fxconfig.Module,
		fxtelemetry.Module,
		fxedge.Module,
		fx.Provide(makeApps),

		fx.Populate(&handler, &tel),
	)
	if err := fxApp.Err(); err != nil {
		telemetry.ReportError(ctx, err)
		panic(err)
	}

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()
	if err := fxApp.Start(startCtx); err != nil {
		telemetry.ReportError(ctx, err)
		panic(err)
	}

	lambda.StartWithOptions(
		instrumentEdgeEventHandler(handler.Handle, tel),
		lambda.WithContext(ctx),
		lambda.WithEnableSIGTERM(func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
			defer cancel()
			if err := fxApp.Stop(stopCtx); err != nil {
				log.Warnw("stopping", "error", err)
			}
		}),
	)
}

// instrumentEdgeEventHandler wraps an EdgeEventHandler with error reporting
// and flushes metrics before the invocation returns, since the execution
// environment may be frozen right after.
func instrumentEdgeEventHandler(handler EdgeEventHandler, tel *edgetelemetry.Telemetry) EdgeEventHandler {
	return func(ctx context.Context, ev event.Event) (*response.EdgeResponse, error) {
		resp, err := handler(ctx, ev)
		if err != nil {
			telemetry.ReportError(ctx, err)
		}

		flushCtx, cancel := context.WithTimeout(ctx, flushTimeout)
		defer cancel()
		if ferr := tel.ForceFlush(flushCtx); ferr != nil {
			log.Warnw("flushing telemetry", "error", ferr)
		}
		return resp, err
	}
}
