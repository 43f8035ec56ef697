package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/multierr"
)

const (
	defaultPublishInterval = 30 * time.Second
	// exportTimeout bounds each export so a slow collector cannot hold an
	// invocation open.
	exportTimeout = 3 * time.Second
)

type Provider struct {
	meters *sdkmetric.MeterProvider
	traces *sdktrace.TracerProvider
	meter  metric.Meter
}

type Config struct {
	ServiceName     string
	ServiceVersion  string
	Environment     string
	Endpoint        string
	Insecure        bool
	Headers         map[string]string
	PublishInterval time.Duration
}

// NewProvider exports metrics and traces over OTLP/HTTP to cfg.Endpoint and
// installs both providers globally.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.ServiceName == "" {
		return nil, fmt.Errorf("telemetry service name required")
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("telemetry endpoint required")
	}
	if cfg.PublishInterval == 0 {
		cfg.PublishInterval = defaultPublishInterval
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	metricExporter, err := otlpmetrichttp.New(ctx, exporterOptions(cfg,
		otlpmetrichttp.WithEndpoint, otlpmetrichttp.WithInsecure, otlpmetrichttp.WithHeaders, otlpmetrichttp.WithTimeout)...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}
	traceExporter, err := otlptracehttp.New(ctx, exporterOptions(cfg,
		otlptracehttp.WithEndpoint, otlptracehttp.WithInsecure, otlptracehttp.WithHeaders, otlptracehttp.WithTimeout)...)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}

	meters := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(metricExporter,
				sdkmetric.WithInterval(cfg.PublishInterval),
			),
		),
		sdkmetric.WithResource(res),
	)
	traces := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
		// Only sample when the platform propagated a sampled parent.
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.NeverSample())),
	)

	otel.SetMeterProvider(meters)
	otel.SetTracerProvider(traces)

	return &Provider{
		meters: meters,
		traces: traces,
		meter:  meters.Meter(cfg.ServiceName),
	}, nil
}

func (p *Provider) Meter() metric.Meter {
	return p.meter
}

// Shutdown flushes and stops both providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	return multierr.Combine(p.meters.Shutdown(ctx), p.traces.Shutdown(ctx))
}

// ForceFlush exports pending telemetry without stopping the providers.
// Lambda freezes the process between invocations, so entry points flush at
// the end of every invocation.
func (p *Provider) ForceFlush(ctx context.Context) error {
	return multierr.Combine(p.meters.ForceFlush(ctx), p.traces.ForceFlush(ctx))
}

// exporterOptions builds the options shared by the metric and trace
// exporters, which each define their own option type.
func exporterOptions[T any](
	cfg Config,
	withEndpoint func(string) T,
	withInsecure func() T,
	withHeaders func(map[string]string) T,
	withTimeout func(time.Duration) T,
) []T {
	opts := []T{withEndpoint(cfg.Endpoint), withTimeout(exportTimeout)}
	if cfg.Insecure {
		opts = append(opts, withInsecure())
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, withHeaders(cfg.Headers))
	}
	return opts
}
