package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Timer records durations in milliseconds.
type Timer struct {
	histogram metric.Float64Histogram
	attrs     []attribute.KeyValue
}

type TimerConfig struct {
	Name        string
	Description string
	Attributes  map[string]string
	Boundaries  []float64
}

func NewTimer(meter metric.Meter, cfg TimerConfig) (*Timer, error) {
	opts := []metric.Float64HistogramOption{
		metric.WithDescription(cfg.Description),
		metric.WithUnit("ms"),
	}
	if len(cfg.Boundaries) > 0 {
		opts = append(opts, metric.WithExplicitBucketBoundaries(cfg.Boundaries...))
	}

	histogram, err := meter.Float64Histogram(cfg.Name, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create timer %s: %w", cfg.Name, err)
	}

	return &Timer{
		histogram: histogram,
		attrs:     staticAttrs(cfg.Attributes),
	}, nil
}

func (t *Timer) Record(ctx context.Context, duration time.Duration, attrs ...attribute.KeyValue) {
	ms := float64(duration) / float64(time.Millisecond)
	t.histogram.Record(ctx, ms, metric.WithAttributes(mergeAttrs(t.attrs, attrs)...))
}

type TimedContext struct {
	ctx       context.Context
	timer     *Timer
	startTime time.Time
	attrs     []attribute.KeyValue
}

func (t *Timer) Start(ctx context.Context, attrs ...attribute.KeyValue) *TimedContext {
	return &TimedContext{
		ctx:       ctx,
		timer:     t,
		startTime: time.Now(),
		attrs:     attrs,
	}
}

// End records the time since Start. Attributes known only at the end, such
// as the outcome, are added to the ones given to Start.
func (tc *TimedContext) End(attrs ...attribute.KeyValue) {
	tc.timer.Record(tc.ctx, time.Since(tc.startTime), mergeAttrs(tc.attrs, attrs)...)
}

type Histogram struct {
	histogram metric.Int64Histogram
	attrs     []attribute.KeyValue
}

type HistogramConfig struct {
	Name        string
	Description string
	Unit        string
	Attributes  map[string]string
	Boundaries  []float64
}

func NewHistogram(meter metric.Meter, cfg HistogramConfig) (*Histogram, error) {
	opts := []metric.Int64HistogramOption{
		metric.WithDescription(cfg.Description),
	}
	if cfg.Unit != "" {
		opts = append(opts, metric.WithUnit(cfg.Unit))
	}
	if len(cfg.Boundaries) > 0 {
		opts = append(opts, metric.WithExplicitBucketBoundaries(cfg.Boundaries...))
	}

	histogram, err := meter.Int64Histogram(cfg.Name, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram %s: %w", cfg.Name, err)
	}

	return &Histogram{
		histogram: histogram,
		attrs:     staticAttrs(cfg.Attributes),
	}, nil
}

func (h *Histogram) Record(ctx context.Context, value int64, attrs ...attribute.KeyValue) {
	h.histogram.Record(ctx, value, metric.WithAttributes(mergeAttrs(h.attrs, attrs)...))
}
