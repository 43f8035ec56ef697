package app

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/storacha/edgeapp/pkg/environ"
)

type envKey struct{}

// EnvironmentFromContext returns the Environment a request was built from
// when the request is served through FromHandler. Handlers use it to reach
// the raw event objects, which have no net/http equivalent.
func EnvironmentFromContext(ctx context.Context) (environ.Environment, bool) {
	env, ok := ctx.Value(envKey{}).(environ.Environment)
	return env, ok
}

// responseWriter is an http.ResponseWriter that starts the edge response on
// the first WriteHeader or Write and forwards body bytes to the WriteFunc.
type responseWriter struct {
	start  StartResponse
	header http.Header
	write  WriteFunc
	err    error
}

func (w *responseWriter) Header() http.Header {
	return w.header
}

func (w *responseWriter) WriteHeader(code int) {
	if w.write != nil || w.err != nil {
		return
	}
	status := fmt.Sprintf("%d %s", code, http.StatusText(code))
	w.write, w.err = w.start(status, flattenHeader(w.header), nil)
}

func (w *responseWriter) Write(p []byte) (int, error) {
	if w.write == nil && w.err == nil {
		if w.header.Get("Content-Type") == "" {
			w.header.Set("Content-Type", http.DetectContentType(p))
		}
		w.WriteHeader(http.StatusOK)
	}
	if w.err != nil {
		return 0, w.err
	}
	return w.write(p)
}

// FromHandler allows an http.Handler to be used as an App. The request is
// rebuilt from the Environment and the handler's output is written straight
// through to the collector, so the returned Body is always empty.
func FromHandler(h http.Handler) App {
	return AppFunc(func(ctx context.Context, env environ.Environment, start StartResponse) (Body, error) {
		ctx = context.WithValue(ctx, envKey{}, env)
		r, err := env.Request(ctx)
		if err != nil {
			return nil, err
		}

		w := &responseWriter{start: start, header: http.Header{}}
		h.ServeHTTP(w, r)
		w.WriteHeader(http.StatusOK)
		if w.err != nil {
			return nil, w.err
		}
		return Empty(), nil
	})
}

func flattenHeader(h http.Header) []Header {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []Header
	for _, name := range names {
		for _, v := range h[name] {
			out = append(out, Header{Name: name, Value: v})
		}
	}
	return out
}
