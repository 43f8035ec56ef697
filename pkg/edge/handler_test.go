package edge_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"

	"github.com/storacha/edgeapp/pkg/app"
	"github.com/storacha/edgeapp/pkg/edge"
	"github.com/storacha/edgeapp/pkg/environ"
	"github.com/storacha/edgeapp/pkg/event"
	"github.com/storacha/edgeapp/pkg/response"
	"github.com/storacha/edgeapp/pkg/telemetry"
)

const viewerRequestEvent = `{
	"Records": [
		{
			"cf": {
				"config": {"eventType": "viewer-request"},
				"request": {
					"method": "GET",
					"uri": "/",
					"clientIp": "127.0.0.1",
					"headers": {
						"host": [{"key": "Host", "value": "localhost"}]
					}
				}
			}
		}
	]
}`

func decodeEvent(t *testing.T, data string) event.Event {
	t.Helper()
	var ev event.Event
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	return ev
}

func newHandler(t *testing.T, apps edge.PhaseApps, opts ...edge.Option) *edge.Handler {
	t.Helper()
	opts = append([]edge.Option{edge.WithLogger(zaptest.NewLogger(t).Sugar())}, opts...)
	h, err := edge.NewHandler(apps, opts...)
	require.NoError(t, err)
	return h
}

func helloApp(contentType string, body []byte) app.App {
	return app.AppFunc(func(ctx context.Context, env environ.Environment, start app.StartResponse) (app.Body, error) {
		if _, err := start("200 OK", []app.Header{{Name: "Content-type", Value: contentType}}, nil); err != nil {
			return nil, err
		}
		return app.Chunks(body), nil
	})
}

func TestHelloWorld(t *testing.T) {
	h := newHandler(t, edge.PhaseApps{ViewerRequest: helloApp("text/plain", []byte("Hello World"))})

	resp, err := h.Handle(t.Context(), decodeEvent(t, viewerRequestEvent))
	require.NoError(t, err)
	require.NotNil(t, resp)
	require.Equal(t, "200", resp.Status)
	require.Equal(t, "OK", resp.StatusDescription)
	require.NotEmpty(t, resp.Headers["content-type"])
	require.Equal(t, "Hello World", resp.Body)
	require.Equal(t, "text", resp.BodyEncoding)
}

func TestBinaryBody(t *testing.T) {
	payload := []byte{0xde, 0xad, 0xbe, 0xef}
	h := newHandler(t,
		edge.PhaseApps{ViewerRequest: helloApp("application/octet-stream", payload)},
		edge.WithBinarySupport(true),
	)

	resp, err := h.Handle(t.Context(), decodeEvent(t, viewerRequestEvent))
	require.NoError(t, err)
	require.Equal(t, "base64", resp.BodyEncoding)
	require.Equal(t, base64.StdEncoding.EncodeToString(payload), resp.Body)
}

func TestPassthrough(t *testing.T) {
	h := newHandler(t, edge.PhaseApps{OriginRequest: helloApp("text/plain", []byte("unused"))})

	resp, err := h.Handle(t.Context(), decodeEvent(t, viewerRequestEvent))
	require.NoError(t, err)
	require.Nil(t, resp)

	out, err := json.Marshal(resp)
	require.NoError(t, err)
	require.Equal(t, "null", string(out))
}

func TestUnknownPhasePassesThrough(t *testing.T) {
	h := newHandler(t, edge.PhaseApps{
		ViewerRequest:  helloApp("text/plain", nil),
		ViewerResponse: helloApp("text/plain", nil),
		OriginRequest:  helloApp("text/plain", nil),
		OriginResponse: helloApp("text/plain", nil),
	})

	ev := decodeEvent(t, viewerRequestEvent)
	ev.Records[0].CF.Config.EventType = "origin-sideways"
	resp, err := h.Handle(t.Context(), ev)
	require.NoError(t, err)
	require.Nil(t, resp)
}

type closeTracker struct {
	app.Body
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestApplicationErrorThroughStart(t *testing.T) {
	boom := errors.New("boom")
	body := &closeTracker{Body: app.String("never read")}
	failing := app.AppFunc(func(ctx context.Context, env environ.Environment, start app.StartResponse) (app.Body, error) {
		_, _ = start("200 OK", []app.Header{{Name: "X-Speculative", Value: "1"}}, nil)
		// the application ignores the error returned by start
		_, _ = start("500 Internal Server Error", nil, boom)
		return body, nil
	})
	h := newHandler(t, edge.PhaseApps{ViewerRequest: failing})

	resp, err := h.Handle(t.Context(), decodeEvent(t, viewerRequestEvent))
	require.Nil(t, resp)
	require.Same(t, boom, err)
	require.True(t, body.closed)
}

func TestApplicationReturnedError(t *testing.T) {
	boom := errors.New("boom")
	failing := app.AppFunc(func(ctx context.Context, env environ.Environment, start app.StartResponse) (app.Body, error) {
		return nil, boom
	})
	h := newHandler(t, edge.PhaseApps{ViewerRequest: failing})

	resp, err := h.Handle(t.Context(), decodeEvent(t, viewerRequestEvent))
	require.Nil(t, resp)
	require.Same(t, boom, err)
}

func TestRawResponse(t *testing.T) {
	raw := map[string]any{
		"status":            "302",
		"statusDescription": "Found",
		"headers": map[string]any{
			"location": []map[string]string{{"key": "Location", "value": "https://example.org/"}},
		},
	}
	rawApp := app.AppFunc(func(ctx context.Context, env environ.Environment, start app.StartResponse) (app.Body, error) {
		write, err := start("200 OK", []app.Header{{Name: "Content-Type", Value: response.RawResponseContentType}}, nil)
		if err != nil {
			return nil, err
		}
		if err := json.NewEncoder(write).Encode(raw); err != nil {
			return nil, err
		}
		return app.Empty(), nil
	})
	h := newHandler(t, edge.PhaseApps{ViewerRequest: rawApp})

	resp, err := h.Handle(t.Context(), decodeEvent(t, viewerRequestEvent))
	require.NoError(t, err)
	require.True(t, resp.IsRaw())

	want, err := json.Marshal(raw)
	require.NoError(t, err)
	got, err := json.Marshal(resp)
	require.NoError(t, err)
	require.JSONEq(t, string(want), string(got))
}

func TestNoRecords(t *testing.T) {
	h := newHandler(t, edge.PhaseApps{ViewerRequest: helloApp("text/plain", nil)})
	_, err := h.Handle(t.Context(), event.Event{})
	require.ErrorIs(t, err, event.ErrNoRecords)
}

func TestEnvironmentSeenByApplication(t *testing.T) {
	const originResponseEvent = `{
		"Records": [{"cf": {
			"config": {"eventType": "origin-response", "requestId": "req-1"},
			"request": {
				"method": "POST",
				"uri": "/upload",
				"querystring": {"a": "1"},
				"clientIp": "10.1.2.3",
				"headers": {"content-type": [{"key": "Content-Type", "value": "text/plain"}]},
				"body": {"data": "aGVsbG8=", "encoding": "base64"}
			},
			"response": {"status": "200", "statusDescription": "OK", "headers": {}}
		}}]
	}`

	var seen environ.Environment
	var input []byte
	spy := app.AppFunc(func(ctx context.Context, env environ.Environment, start app.StartResponse) (app.Body, error) {
		seen = env
		var err error
		input, err = io.ReadAll(env.Input())
		if err != nil {
			return nil, err
		}
		if _, err := start("204 No Content", nil, nil); err != nil {
			return nil, err
		}
		return app.Empty(), nil
	})
	h := newHandler(t, edge.PhaseApps{OriginResponse: spy})

	resp, err := h.Handle(t.Context(), decodeEvent(t, originResponseEvent))
	require.NoError(t, err)
	require.Equal(t, "204", resp.Status)
	require.Empty(t, resp.Body)
	require.Empty(t, resp.BodyEncoding)

	require.Equal(t, "POST", seen.Method())
	require.Equal(t, "a=1", seen.Query())
	require.Equal(t, "5", seen[environ.ContentLength])
	require.Equal(t, "hello", string(input))
	require.Equal(t, "text/plain", seen[environ.ContentType])
	require.Equal(t, "origin-response", seen.EventType())
	require.Equal(t, "/upload", seen.RequestField("uri").String())
	require.JSONEq(t, `{"eventType": "origin-response", "requestId": "req-1"}`, string(seen.RawConfig()))
	require.Equal(t, "200", seen.ResponseField("status").String())
}

func TestNetHTTPApplication(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Length", "13")
		fmt.Fprintf(w, "hello, %s", r.Host)
	})
	h := newHandler(t, edge.PhaseApps{ViewerRequest: app.FromHandler(mux)})

	resp, err := h.Handle(t.Context(), decodeEvent(t, viewerRequestEvent))
	require.NoError(t, err)
	require.Equal(t, "200", resp.Status)
	require.Equal(t, "hello, localhost", resp.Body)
	require.NotContains(t, resp.Headers, "content-length")
}

func TestInvocationMetrics(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	tel := telemetry.NewWithMeter(provider.Meter("test"))

	h := newHandler(t, edge.PhaseApps{ViewerRequest: helloApp("text/plain", []byte("hi"))}, edge.WithTelemetry(tel))

	_, err := h.Handle(t.Context(), decodeEvent(t, viewerRequestEvent))
	require.NoError(t, err)
	ev := decodeEvent(t, viewerRequestEvent)
	ev.Records[0].CF.Config.EventType = "origin-request"
	_, err = h.Handle(t.Context(), ev)
	require.NoError(t, err)

	rm := metricdata.ResourceMetrics{}
	require.NoError(t, reader.Collect(t.Context(), &rm))

	outcomes := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "edge_invocations_total" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				outcome, _ := dp.Attributes.Value("outcome")
				outcomes[outcome.AsString()] += dp.Value
			}
		}
	}
	require.Equal(t, map[string]int64{
		telemetry.OutcomeServed:      1,
		telemetry.OutcomePassthrough: 1,
	}, outcomes)
}

func TestPhaseApps(t *testing.T) {
	hello := helloApp("text/plain", nil)
	apps := edge.PhaseApps{OriginRequest: hello, ViewerResponse: hello}

	require.Nil(t, apps.For(event.ViewerRequest))
	require.NotNil(t, apps.For(event.OriginRequest))
	require.Nil(t, apps.For(event.Phase(42)))
	require.Equal(t, []event.Phase{event.OriginRequest, event.ViewerResponse}, apps.Configured())
	require.Empty(t, edge.PhaseApps{}.Configured())
}
