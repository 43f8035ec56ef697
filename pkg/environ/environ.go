// Package environ builds the per-invocation Environment handed to an edge
// application from an inbound edge event.
package environ

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	logging "github.com/ipfs/go-log/v2"

	"github.com/storacha/edgeapp/pkg/event"
)

var log = logging.Logger("edge/environ")

// Request metadata keys.
const (
	RequestMethod  = "REQUEST_METHOD"
	PathInfo       = "PATH_INFO"
	QueryString    = "QUERY_STRING"
	ContentLength  = "CONTENT_LENGTH"
	ContentType    = "CONTENT_TYPE"
	ServerName     = "SERVER_NAME"
	ServerProtocol = "SERVER_PROTOCOL"
	RemoteAddr     = "REMOTE_ADDR"
	ScriptName     = "SCRIPT_NAME"
	HTTPS          = "HTTPS"

	// HeaderPrefix prefixes every request header key, e.g. HTTP_USER_AGENT.
	HeaderPrefix = "HTTP_"
)

// Application interface keys.
const (
	Input        = "app.input"
	Errors       = "app.errors"
	URLScheme    = "app.url_scheme"
	Version      = "app.version"
	Multiprocess = "app.multiprocess"
	Multithread  = "app.multithread"
	RunOnce      = "app.run_once"
)

// Adapter extension keys carrying the raw event for phase-aware applications.
const (
	EventType   = "edge.event_type"
	RawConfig   = "edge.config"
	RawRequest  = "edge.request"
	RawResponse = "edge.response"
)

// Environment is the input mapping presented to an application. It is built
// fresh for each invocation and must not be reused.
type Environment map[string]any

type options struct {
	errors io.Writer
}

// Option configures Build.
type Option func(*options)

// WithErrors sets the writer exposed under app.errors. By default writes are
// forwarded to the package logger.
func WithErrors(w io.Writer) Option {
	return func(o *options) {
		o.errors = w
	}
}

// Build converts one edge event payload into an Environment. Input is not
// validated beyond what is needed to decode it: a body that claims base64
// but isn't, or a header with no values, is returned as an error.
func Build(cf *event.CF, opts ...Option) (Environment, error) {
	o := options{errors: logWriter{}}
	for _, opt := range opts {
		opt(&o)
	}

	req := cf.Request
	body, err := decodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	env := Environment{
		ContentLength:  strconv.Itoa(len(body)),
		HTTPS:          "on",
		PathInfo:       req.URI,
		QueryString:    req.QueryString.String(),
		RemoteAddr:     req.ClientIP,
		RequestMethod:  req.Method,
		ScriptName:     "",
		ServerProtocol: "HTTP/1.1",
		Input:          bytes.NewReader(body),
		Errors:         o.errors,
		URLScheme:      "https",
		Version:        [2]int{1, 0},
		Multiprocess:   false,
		Multithread:    false,
		RunOnce:        true,
	}

	// Sorted so that names differing only in case resolve the same way on
	// every run: the last one processed wins.
	names := make([]string, 0, len(req.Headers))
	for name := range req.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		entries := req.Headers[name]
		if len(entries) == 0 {
			return nil, fmt.Errorf("header %q has no values", name)
		}
		key := headerKey(name)
		value := entries[0].Value
		switch key {
		case "CONTENT_TYPE":
			env[ContentType] = value
		case "HOST":
			env[ServerName] = value
		}
		env[HeaderPrefix+key] = value
	}

	env[EventType] = cf.Config.EventType
	env[RawConfig] = cf.RawConfig()
	env[RawRequest] = cf.RawRequest()
	if cf.HasResponse() {
		env[RawResponse] = cf.Response
	}

	log.Debugw("built environment", "method", req.Method, "path", req.URI, "contentLength", len(body))
	return env, nil
}

func decodeBody(b *event.Body) ([]byte, error) {
	if b == nil {
		return []byte{}, nil
	}
	if b.IsBase64() {
		data, err := base64.StdEncoding.DecodeString(b.Data)
		if err != nil {
			return nil, fmt.Errorf("decoding base64 request body: %w", err)
		}
		return data, nil
	}
	return []byte(b.Data), nil
}

func headerKey(name string) string {
	return strings.ReplaceAll(strings.ToUpper(name), "-", "_")
}

// logWriter forwards application error output to the structured logger.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	if msg := strings.TrimRight(string(p), "\n"); msg != "" {
		log.Warn(msg)
	}
	return len(p), nil
}

func (e Environment) str(key string) string {
	s, _ := e[key].(string)
	return s
}

func (e Environment) raw(key string) json.RawMessage {
	m, _ := e[key].(json.RawMessage)
	return m
}
