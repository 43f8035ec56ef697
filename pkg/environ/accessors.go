package environ

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

func (e Environment) Method() string     { return e.str(RequestMethod) }
func (e Environment) Path() string       { return e.str(PathInfo) }
func (e Environment) Query() string      { return e.str(QueryString) }
func (e Environment) RemoteAddr() string { return e.str(RemoteAddr) }
func (e Environment) ServerName() string { return e.str(ServerName) }
func (e Environment) EventType() string  { return e.str(EventType) }

// ContentLength returns the decoded request body length.
func (e Environment) ContentLength() int64 {
	n, err := strconv.ParseInt(e.str(ContentLength), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Input returns the request body stream.
func (e Environment) Input() io.Reader {
	if r, ok := e[Input].(io.Reader); ok {
		return r
	}
	return strings.NewReader("")
}

// Errors returns the writer applications should report diagnostics to.
func (e Environment) Errors() io.Writer {
	if w, ok := e[Errors].(io.Writer); ok {
		return w
	}
	return io.Discard
}

// Header returns the first value of the named request header.
func (e Environment) Header(name string) (string, bool) {
	v, ok := e[HeaderPrefix+headerKey(name)].(string)
	return v, ok
}

// Headers reconstructs the request headers from the HTTP_ keys.
func (e Environment) Headers() http.Header {
	h := http.Header{}
	for k, v := range e {
		s, ok := v.(string)
		if !ok || !strings.HasPrefix(k, HeaderPrefix) {
			continue
		}
		name := textproto.CanonicalMIMEHeaderKey(strings.ReplaceAll(strings.TrimPrefix(k, HeaderPrefix), "_", "-"))
		h.Set(name, s)
	}
	return h
}

// RawConfig, RawRequest and RawResponse return the event objects as they
// arrived. RawResponse is nil for request phases.
func (e Environment) RawConfig() json.RawMessage   { return e.raw(RawConfig) }
func (e Environment) RawRequest() json.RawMessage  { return e.raw(RawRequest) }
func (e Environment) RawResponse() json.RawMessage { return e.raw(RawResponse) }

// RequestField looks up a gjson path, e.g. "headers.host.0.value", in the raw
// request object.
func (e Environment) RequestField(path string) gjson.Result {
	return gjson.GetBytes(e.RawRequest(), path)
}

// ResponseField looks up a gjson path in the raw response object. The result
// does not exist for request phases.
func (e Environment) ResponseField(path string) gjson.Result {
	return gjson.GetBytes(e.RawResponse(), path)
}

// Request rebuilds a net/http request from the environment so that ordinary
// http.Handlers can serve edge events.
func (e Environment) Request(ctx context.Context) (*http.Request, error) {
	scheme := e.str(URLScheme)
	if scheme == "" {
		scheme = "https"
	}
	path := e.Path()
	if path == "" {
		path = "/"
	}
	// the platform sends the uri still percent-encoded
	u, err := url.ParseRequestURI(path)
	if err != nil {
		return nil, fmt.Errorf("parsing request uri %q: %w", path, err)
	}
	u.Scheme = scheme
	u.Host = e.ServerName()
	u.RawQuery = e.Query()

	r, err := http.NewRequestWithContext(ctx, e.Method(), "/", e.Input())
	if err != nil {
		return nil, fmt.Errorf("building http request: %w", err)
	}
	r.URL = u
	r.RequestURI = u.RequestURI()
	r.Host = u.Host
	r.Proto = "HTTP/1.1"
	r.ProtoMajor = 1
	r.ProtoMinor = 1
	r.Header = e.Headers()
	r.RemoteAddr = e.RemoteAddr()
	r.ContentLength = e.ContentLength()
	if r.ContentLength == 0 {
		r.Body = http.NoBody
	}
	return r, nil
}
