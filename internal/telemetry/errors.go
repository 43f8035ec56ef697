// Package telemetry reports errors from the entry points to Sentry.
package telemetry

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/getsentry/sentry-go"
	logging "github.com/ipfs/go-log/v2"

	"github.com/storacha/edgeapp/pkg/build"
)

var log = logging.Logger("telemetry/errors")

const flushTimeout = 2 * time.Second

// SetupErrorReporting initializes the Sentry client. With an empty dsn
// nothing is set up and ReportError only logs.
func SetupErrorReporting(dsn, environment string) {
	if dsn == "" {
		return
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
		Release:     build.Version,
	})
	if err != nil {
		log.Errorw("initializing sentry", "error", err)
	}
}

// ReportError logs err and sends it to Sentry, tagged with the lambda request
// id when ctx carries one. It blocks until the event is flushed, as a lambda
// may be frozen as soon as the invocation returns.
func ReportError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	log.Errorw("reporting error", "error", err)

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}
	if hub.Client() == nil {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		if lc, ok := lambdacontext.FromContext(ctx); ok {
			scope.SetTag("aws_request_id", lc.AwsRequestID)
		}
		hub.CaptureException(err)
	})
	hub.Flush(flushTimeout)
}
