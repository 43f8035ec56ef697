package apps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/storacha/edgeapp/pkg/app"
	"github.com/storacha/edgeapp/pkg/environ"
	"github.com/storacha/edgeapp/pkg/event"
	"github.com/storacha/edgeapp/pkg/response"
)

// ErrNoOriginResponse is returned when the security headers app runs in a
// request phase.
var ErrNoOriginResponse = errors.New("event carries no response")

// SecurityHeaders are added to every origin response. Values already set by
// the origin are kept.
var SecurityHeaders = map[string]string{
	"Strict-Transport-Security": "max-age=63072000; includeSubDomains; preload",
	"X-Content-Type-Options":    "nosniff",
	"X-Frame-Options":           "DENY",
	"Referrer-Policy":           "same-origin",
}

// HTMLSecurityHeaders are added only when the origin served HTML.
var HTMLSecurityHeaders = map[string]string{
	"Content-Security-Policy": "default-src 'self'; object-src 'none'; frame-ancestors 'none'",
}

// NewSecurityHeaders returns the origin-response application. It returns the
// origin's response unchanged apart from the added headers.
func NewSecurityHeaders() app.App {
	return app.AppFunc(func(ctx context.Context, env environ.Environment, start app.StartResponse) (app.Body, error) {
		raw := env.RawResponse()
		if raw == nil {
			return nil, ErrNoOriginResponse
		}

		var resp map[string]json.RawMessage
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, fmt.Errorf("decoding origin response: %w", err)
		}
		headers := event.Headers{}
		if h, ok := resp["headers"]; ok {
			if err := json.Unmarshal(h, &headers); err != nil {
				return nil, fmt.Errorf("decoding origin response headers: %w", err)
			}
		}

		addMissing(headers, SecurityHeaders)
		contentType := env.ResponseField("headers.content-type.0.value").String()
		if strings.HasPrefix(contentType, "text/html") {
			addMissing(headers, HTMLSecurityHeaders)
		}

		data, err := json.Marshal(headers)
		if err != nil {
			return nil, err
		}
		resp["headers"] = data
		out, err := json.Marshal(resp)
		if err != nil {
			return nil, fmt.Errorf("encoding origin response: %w", err)
		}

		if _, err := start("200 OK", []app.Header{{Name: "Content-Type", Value: response.RawResponseContentType}}, nil); err != nil {
			return nil, err
		}
		return app.Chunks(out), nil
	})
}

func addMissing(headers event.Headers, add map[string]string) {
	names := lo.Keys(add)
	sort.Strings(names)
	for _, name := range names {
		if _, ok := headers.First(name); ok {
			continue
		}
		headers.Set(name, add[name])
	}
}
