// Package edge dispatches edge events to the application configured for
// the event's phase and returns the serialized response.
package edge

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-lambda-go/lambdacontext"
	logging "github.com/ipfs/go-log/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/storacha/edgeapp/pkg/app"
	"github.com/storacha/edgeapp/pkg/environ"
	"github.com/storacha/edgeapp/pkg/event"
	"github.com/storacha/edgeapp/pkg/response"
	"github.com/storacha/edgeapp/pkg/telemetry"
)

const tracerName = "github.com/storacha/edgeapp/pkg/edge"

// Logger is the structured logger the handler reports to. Both go-log
// loggers and *zap.SugaredLogger satisfy it.
type Logger interface {
	Debugw(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)
}

// Handler serves edge events. It keeps no state between invocations: every
// call builds a fresh Environment and Collector.
type Handler struct {
	apps          PhaseApps
	binarySupport bool
	log           Logger
	metrics       *telemetry.InvocationMetrics
	tracer        trace.Tracer
}

type options struct {
	binarySupport bool
	log           Logger
	tel           *telemetry.Telemetry
	tracer        trace.Tracer
}

type Option func(*options)

// WithBinarySupport enables base64 bodies for non-text content types. It is
// off by default, in which case every body is sent as text.
func WithBinarySupport(enabled bool) Option {
	return func(o *options) {
		o.binarySupport = enabled
	}
}

// WithLogger sets the logger. Defaults to the "edge" go-log logger.
func WithLogger(l Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithTelemetry sets where invocation metrics are recorded. Defaults to
// telemetry.Global().
func WithTelemetry(tel *telemetry.Telemetry) Option {
	return func(o *options) {
		o.tel = tel
	}
}

// WithTracer sets the tracer used for the invocation span. Defaults to the
// global tracer provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}

func NewHandler(apps PhaseApps, opts ...Option) (*Handler, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logging.Logger("edge")
	}
	if o.tel == nil {
		o.tel = telemetry.Global()
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}

	metrics, err := telemetry.NewInvocationMetrics(o.tel)
	if err != nil {
		return nil, fmt.Errorf("creating invocation metrics: %w", err)
	}

	return &Handler{
		apps:          apps,
		binarySupport: o.binarySupport,
		log:           o.log,
		metrics:       metrics,
		tracer:        o.tracer,
	}, nil
}

// Handle serves one edge event. A nil response with a nil error means no
// application is configured for the event's phase and the platform should
// carry on with the unmodified request or response. Errors reported by the
// application are returned unchanged.
func (h *Handler) Handle(ctx context.Context, ev event.Event) (*response.EdgeResponse, error) {
	cf, err := ev.CF()
	if err != nil {
		return nil, err
	}
	tag := cf.Config.EventType

	ctx, span := h.tracer.Start(ctx, "edge.handle", trace.WithAttributes(
		attribute.String("edge.phase", tag),
		attribute.String("http.request.method", cf.Request.Method),
		attribute.String("url.path", cf.Request.URI),
	))
	defer span.End()
	op := h.metrics.Start(ctx, tag)

	logKV := []any{"phase", tag, "method", cf.Request.Method, "uri", cf.Request.URI}
	if cf.Config.RequestID != "" {
		logKV = append(logKV, "requestId", cf.Config.RequestID)
	}
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		logKV = append(logKV, "awsRequestId", lc.AwsRequestID)
	}
	h.log.Debugw("handler event", logKV...)

	var a app.App
	if phase, ok := cf.Config.Phase(); ok {
		a = h.apps.For(phase)
	}
	if a == nil {
		h.log.Debugw("no application for phase, passing through", logKV...)
		h.metrics.Done(ctx, op, tag, telemetry.OutcomePassthrough)
		return nil, nil
	}

	resp, err := h.invoke(ctx, cf, a)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.metrics.Done(ctx, op, tag, telemetry.OutcomeError)
		h.log.Errorw("handling edge event", append(logKV, "error", err)...)
		return nil, err
	}

	if resp.IsRaw() {
		h.metrics.Done(ctx, op, tag, telemetry.OutcomeRaw)
		h.log.Debugw("handler response", append(logKV, "raw", string(resp.Raw()))...)
		return resp, nil
	}

	span.SetAttributes(attribute.String("http.response.status_code", resp.Status))
	if resp.Body != "" {
		h.metrics.ResponseBody(ctx, tag, resp.BodyEncoding, len(resp.Body))
	}
	h.metrics.Done(ctx, op, tag, telemetry.OutcomeServed)
	h.log.Debugw("handler response", append(logKV, "status", resp.Status, "bodyEncoding", resp.BodyEncoding)...)
	return resp, nil
}

func (h *Handler) invoke(ctx context.Context, cf *event.CF, a app.App) (*response.EdgeResponse, error) {
	env, err := environ.Build(cf, environ.WithErrors(errorsWriter{log: h.log}))
	if err != nil {
		return nil, fmt.Errorf("building environment: %w", err)
	}

	c := response.NewCollector(h.binarySupport)
	body, err := a.ServeEdge(ctx, env, c.Start)
	if err == nil {
		err = c.Err()
	}
	if err != nil {
		// the body is never read, but it is still released
		if closer, ok := body.(io.Closer); ok {
			if cerr := closer.Close(); cerr != nil {
				h.log.Warnw("closing response body", "error", cerr)
			}
		}
		return nil, err
	}

	if err := c.Consume(body); err != nil {
		return nil, err
	}
	return c.Serialize()
}

// errorsWriter backs the app.errors stream with the handler's logger.
type errorsWriter struct {
	log Logger
}

func (w errorsWriter) Write(p []byte) (int, error) {
	if msg := strings.TrimRight(string(p), "\n"); msg != "" {
		w.log.Warnw(msg)
	}
	return len(p), nil
}
