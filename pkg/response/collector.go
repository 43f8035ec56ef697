package response

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"go.uber.org/multierr"

	"github.com/storacha/edgeapp/pkg/app"
	"github.com/storacha/edgeapp/pkg/event"
)

var (
	// ErrMalformedStatus is returned by Start for a status line without a
	// space separating code and reason.
	ErrMalformedStatus = errors.New("malformed status line")
	// ErrNoStatus is returned by Serialize when the application never
	// started the response.
	ErrNoStatus = errors.New("response was never started")
	// ErrSerialized is returned when a collector is used after Serialize.
	ErrSerialized = errors.New("response already serialized")
	// ErrInvalidRawResponse is returned when a raw response body is not JSON.
	ErrInvalidRawResponse = errors.New("raw response body is not valid JSON")
	// ErrInvalidTextBody is returned when a body sent as text is not UTF-8.
	ErrInvalidTextBody = errors.New("text response body is not valid UTF-8")
)

type state int

const (
	awaitingStatus state = iota
	started
	serialized
)

// Collector accumulates the status, headers and body emitted by one
// application invocation. It moves from awaiting a status, to started once
// Start succeeds, to serialized; it is discarded afterwards.
type Collector struct {
	binarySupport bool

	state   state
	code    string
	reason  string
	headers []app.Header
	body    bytes.Buffer
	appErr  error
}

func NewCollector(binarySupport bool) *Collector {
	return &Collector{binarySupport: binarySupport}
}

// Start implements app.StartResponse.
func (c *Collector) Start(status string, headers []app.Header, appErr error) (app.WriteFunc, error) {
	if appErr != nil {
		c.appErr = appErr
		return nil, appErr
	}
	if c.state == serialized {
		return nil, ErrSerialized
	}

	code, reason, ok := strings.Cut(status, " ")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMalformedStatus, status)
	}
	c.code = code
	c.reason = reason
	c.headers = append(c.headers, headers...)
	c.state = started
	return c.write, nil
}

func (c *Collector) write(p []byte) (int, error) {
	if c.state == serialized {
		return 0, ErrSerialized
	}
	return c.body.Write(p)
}

// Err returns the error the application reported through Start, if any.
func (c *Collector) Err() error {
	return c.appErr
}

// Consume appends every non-empty chunk of body in order. body is closed
// afterwards if it is an io.Closer, including when iteration fails.
func (c *Collector) Consume(body app.Body) (err error) {
	if body == nil {
		return nil
	}
	if closer, ok := body.(io.Closer); ok {
		defer func() {
			if cerr := closer.Close(); cerr != nil {
				err = multierr.Append(err, fmt.Errorf("closing response body: %w", cerr))
			}
		}()
	}

	for {
		chunk, nerr := body.Next()
		if len(chunk) > 0 {
			if _, werr := c.write(chunk); werr != nil {
				return werr
			}
		}
		if errors.Is(nerr, io.EOF) {
			return nil
		}
		if nerr != nil {
			return fmt.Errorf("reading response body: %w", nerr)
		}
	}
}

// Len returns the number of body bytes collected so far.
func (c *Collector) Len() int {
	return c.body.Len()
}

// Serialize builds the edge response. It may only be called once, after
// the response was started.
func (c *Collector) Serialize() (*EdgeResponse, error) {
	if c.appErr != nil {
		return nil, c.appErr
	}
	switch c.state {
	case awaitingStatus:
		return nil, ErrNoStatus
	case serialized:
		return nil, ErrSerialized
	}
	c.state = serialized

	headers := c.groupHeaders()
	contentType, _ := headers.First("content-type")
	body := c.body.Bytes()

	if contentType == RawResponseContentType {
		if !json.Valid(body) {
			return nil, ErrInvalidRawResponse
		}
		raw := make(json.RawMessage, len(body))
		copy(raw, body)
		return &EdgeResponse{raw: raw}, nil
	}

	resp := &EdgeResponse{
		Status:            c.code,
		StatusDescription: c.reason,
		Headers:           headers,
	}
	if len(body) == 0 {
		return resp, nil
	}

	contentEncoding, _ := headers.First("content-encoding")
	if ShouldSendBinary(c.binarySupport, contentType, contentEncoding) {
		resp.BodyEncoding = event.EncodingBase64
		resp.Body = base64.StdEncoding.EncodeToString(body)
		return resp, nil
	}
	if !utf8.Valid(body) {
		return nil, ErrInvalidTextBody
	}
	resp.BodyEncoding = event.EncodingText
	resp.Body = string(body)
	return resp, nil
}

// groupHeaders keys headers by lowercased name. When several headers share
// a name the last one wins. Content-Length is dropped since the platform
// computes it.
func (c *Collector) groupHeaders() event.Headers {
	headers := event.Headers{}
	for _, h := range c.headers {
		if strings.EqualFold(h.Name, "Content-Length") {
			continue
		}
		headers[strings.ToLower(h.Name)] = []event.HeaderEntry{{Key: h.Name, Value: h.Value}}
	}
	return headers
}
