package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *metric.ManualReader, name string) *metricdata.Metrics {
	t.Helper()
	rm := metricdata.ResourceMetrics{}
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return &m
			}
		}
	}
	return nil
}

func TestInvocationMetrics(t *testing.T) {
	ctx := context.Background()
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer func() {
		require.NoError(t, provider.Shutdown(ctx))
	}()

	m, err := NewInvocationMetrics(NewWithMeter(provider.Meter("test")))
	require.NoError(t, err)

	op := m.Start(ctx, "viewer-request")
	time.Sleep(time.Millisecond)
	m.Done(ctx, op, "viewer-request", OutcomeServed)
	m.Done(ctx, m.Start(ctx, "origin-response"), "origin-response", OutcomePassthrough)
	m.ResponseBody(ctx, "viewer-request", "text", 11)

	t.Run("Counter", func(t *testing.T) {
		invocations := collect(t, reader, "edge_invocations_total")
		require.NotNil(t, invocations)

		sum, ok := invocations.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		assert.True(t, sum.IsMonotonic)
		require.Len(t, sum.DataPoints, 2)

		var total int64
		for _, dp := range sum.DataPoints {
			total += dp.Value
			phase, ok := dp.Attributes.Value(attribute.Key("phase"))
			require.True(t, ok)
			outcome, ok := dp.Attributes.Value(attribute.Key("outcome"))
			require.True(t, ok)
			switch phase.AsString() {
			case "viewer-request":
				assert.Equal(t, OutcomeServed, outcome.AsString())
			case "origin-response":
				assert.Equal(t, OutcomePassthrough, outcome.AsString())
			default:
				t.Fatalf("unexpected phase %q", phase.AsString())
			}
		}
		assert.Equal(t, int64(2), total)
	})

	t.Run("Timer", func(t *testing.T) {
		duration := collect(t, reader, "edge_invocation_duration")
		require.NotNil(t, duration)
		assert.Equal(t, "ms", duration.Unit)

		hist, ok := duration.Data.(metricdata.Histogram[float64])
		require.True(t, ok)
		require.Len(t, hist.DataPoints, 2)
		for _, dp := range hist.DataPoints {
			assert.Equal(t, uint64(1), dp.Count)
		}
	})

	t.Run("BodySize", func(t *testing.T) {
		size := collect(t, reader, "edge_response_body_size")
		require.NotNil(t, size)

		hist, ok := size.Data.(metricdata.Histogram[int64])
		require.True(t, ok)
		require.Len(t, hist.DataPoints, 1)
		assert.Equal(t, int64(11), hist.DataPoints[0].Sum)
	})
}

func TestCounterStaticAttributes(t *testing.T) {
	ctx := context.Background()
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	tel := NewWithMeter(provider.Meter("test"))

	counter, err := tel.NewCounter(CounterConfig{
		Name:       "static_counter",
		Attributes: map[string]string{"region": "us-east-1"},
	})
	require.NoError(t, err)
	counter.Add(ctx, 3, StringAttr("phase", "viewer-request"))
	counter.Inc(ctx, StringAttr("phase", "viewer-request"))

	m := collect(t, reader, "static_counter")
	require.NotNil(t, m)
	sum := m.Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(4), sum.DataPoints[0].Value)
	region, ok := sum.DataPoints[0].Attributes.Value("region")
	require.True(t, ok)
	assert.Equal(t, "us-east-1", region.AsString())
}

func TestGlobalTelemetry(t *testing.T) {
	t.Run("Global returns noop before initialization", func(t *testing.T) {
		setGlobalForTesting(nil)
		tel := Global()
		require.NotNil(t, tel)

		m, err := NewInvocationMetrics(tel)
		require.NoError(t, err)
		m.Done(context.Background(), m.Start(context.Background(), "viewer-request"), "viewer-request", OutcomeServed)
	})

	t.Run("Global returns the installed instance", func(t *testing.T) {
		testTel := NewWithMeter(noop.NewMeterProvider().Meter("test"))
		setGlobalForTesting(testTel)
		assert.Same(t, testTel, Global())
		require.NoError(t, Shutdown(context.Background()))
		setGlobalForTesting(nil)
	})
}

func TestNewProviderRequiresEndpoint(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{ServiceName: "edgeapp"})
	require.Error(t, err)

	_, err = NewProvider(context.Background(), Config{Endpoint: "localhost:4318"})
	require.Error(t, err)
}

func TestExporterOptions(t *testing.T) {
	build := func(cfg Config) []string {
		return exporterOptions(cfg,
			func(string) string { return "endpoint" },
			func() string { return "insecure" },
			func(map[string]string) string { return "headers" },
			func(time.Duration) string { return "timeout" },
		)
	}

	assert.Equal(t, []string{"endpoint", "timeout"}, build(Config{Endpoint: "localhost:4318"}))
	assert.Equal(t,
		[]string{"endpoint", "timeout", "insecure", "headers"},
		build(Config{Endpoint: "localhost:4318", Insecure: true, Headers: map[string]string{"a": "b"}}),
	)
}
