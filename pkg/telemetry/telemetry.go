// Package telemetry provides OpenTelemetry metrics for the edge handler.
//
// # Quick Start
//
//	tel, err := telemetry.New(ctx, telemetry.Config{
//	    ServiceName:    "edgeapp",
//	    ServiceVersion: build.Version,
//	    Endpoint:       "localhost:4318",
//	})
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(ctx)
//
//	metrics, err := telemetry.NewInvocationMetrics(tel)
//
// Without New the package falls back to a no-op meter, see Global.
//
// # Metric Types
//
// Counters track monotonically increasing values:
//
//	counter, _ := tel.NewCounter(telemetry.CounterConfig{
//	    Name:        "edge_invocations_total",
//	    Description: "Total number of edge invocations",
//	})
//	counter.Inc(ctx, telemetry.StringAttr("phase", "viewer-request"))
//
// Timers measure the duration of operations:
//
//	op := timer.Start(ctx, telemetry.StringAttr("phase", "origin-response"))
//	defer op.End()
//
// Histograms track distributions of arbitrary values such as body sizes.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Telemetry struct {
	provider *Provider
	meter    metric.Meter
}

func New(ctx context.Context, cfg Config) (*Telemetry, error) {
	provider, err := NewProvider(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry provider: %w", err)
	}

	return &Telemetry{
		provider: provider,
		meter:    provider.Meter(),
	}, nil
}

// NewWithMeter creates a new Telemetry instance with a custom meter.
// This is useful for testing with in-memory exporters or manual readers.
func NewWithMeter(meter metric.Meter) *Telemetry {
	return &Telemetry{
		meter: meter,
	}
}

func (t *Telemetry) Meter() metric.Meter {
	return t.meter
}

func (t *Telemetry) NewCounter(cfg CounterConfig) (*Counter, error) {
	return NewCounter(t.meter, cfg)
}

func (t *Telemetry) NewTimer(cfg TimerConfig) (*Timer, error) {
	return NewTimer(t.meter, cfg)
}

func (t *Telemetry) NewHistogram(cfg HistogramConfig) (*Histogram, error) {
	return NewHistogram(t.meter, cfg)
}

func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t.provider != nil {
		return t.provider.Shutdown(ctx)
	}
	return nil
}

// ForceFlush exports pending telemetry. It is a no-op for instances built
// with NewWithMeter.
func (t *Telemetry) ForceFlush(ctx context.Context) error {
	if t.provider != nil {
		return t.provider.ForceFlush(ctx)
	}
	return nil
}

func StringAttr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// LatencyBoundaries are histogram buckets in milliseconds. Edge functions
// are short lived, so the buckets stop at the platform's 30s ceiling.
var LatencyBoundaries = []float64{
	1, 2, 5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000, 10000, 30000,
}

const (
	KiB float64 = 1024
	MiB         = KiB * 1024
)

// SizeBoundaries are histogram buckets for body sizes in bytes, up to the
// largest body an edge function may return.
var SizeBoundaries = []float64{
	256, KiB, 4 * KiB, 16 * KiB, 40 * KiB, 64 * KiB, 256 * KiB, MiB,
}
