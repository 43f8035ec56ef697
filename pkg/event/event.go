// Package event models the CloudFront Lambda@Edge event delivered to the
// handler for each request/response phase.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoRecords is returned when an event carries no records to process.
var ErrNoRecords = errors.New("event has no records")

// Event is the inbound edge event. The platform always sends exactly one
// record; only the first is consulted.
type Event struct {
	Records []Record `json:"Records"`
}

type Record struct {
	CF CF `json:"cf"`
}

// CF returns the payload of the first record.
func (e Event) CF() (*CF, error) {
	if len(e.Records) == 0 {
		return nil, ErrNoRecords
	}
	return &e.Records[0].CF, nil
}

// CF is the per-phase payload. Config and Request are decoded for the
// adapter's own use; their raw JSON is kept so it can be handed to
// applications untouched. Response is only present for response phases and
// is never decoded.
type CF struct {
	Config   Config          `json:"config"`
	Request  Request         `json:"request"`
	Response json.RawMessage `json:"response,omitempty"`

	rawConfig  json.RawMessage
	rawRequest json.RawMessage
}

func (c *CF) UnmarshalJSON(data []byte) error {
	var raw struct {
		Config   json.RawMessage `json:"config"`
		Request  json.RawMessage `json:"request"`
		Response json.RawMessage `json:"response"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.Config) > 0 {
		if err := json.Unmarshal(raw.Config, &c.Config); err != nil {
			return fmt.Errorf("decoding config: %w", err)
		}
	}
	if len(raw.Request) > 0 {
		if err := json.Unmarshal(raw.Request, &c.Request); err != nil {
			return fmt.Errorf("decoding request: %w", err)
		}
	}
	c.rawConfig = raw.Config
	c.rawRequest = raw.Request
	if !isNull(raw.Response) {
		c.Response = raw.Response
	}
	return nil
}

func (c CF) MarshalJSON() ([]byte, error) {
	type plain CF
	return json.Marshal(plain(c))
}

// RawConfig is the config object as it arrived on the wire. Events built in
// code fall back to the encoded Config.
func (c *CF) RawConfig() json.RawMessage {
	if c.rawConfig != nil {
		return c.rawConfig
	}
	b, _ := json.Marshal(c.Config)
	return b
}

// RawRequest is the request object as it arrived on the wire. Events built
// in code fall back to the encoded Request.
func (c *CF) RawRequest() json.RawMessage {
	if c.rawRequest != nil {
		return c.rawRequest
	}
	b, _ := json.Marshal(c.Request)
	return b
}

// HasResponse reports whether the payload carries a response object, which
// is the case for viewer-response and origin-response events.
func (c *CF) HasResponse() bool {
	return len(c.Response) > 0
}

type Config struct {
	EventType              string `json:"eventType"`
	DistributionID         string `json:"distributionId,omitempty"`
	DistributionDomainName string `json:"distributionDomainName,omitempty"`
	RequestID              string `json:"requestId,omitempty"`
}

// Phase decodes the event type tag. ok is false for tags outside the four
// known phases.
func (c Config) Phase() (Phase, bool) {
	return ParsePhase(c.EventType)
}

type Request struct {
	Method      string      `json:"method"`
	URI         string      `json:"uri"`
	QueryString QueryString `json:"querystring,omitempty"`
	ClientIP    string      `json:"clientIp"`
	Headers     Headers     `json:"headers,omitempty"`
	Body        *Body       `json:"body,omitempty"`
}

// Body is the request body as exposed to origin-request and viewer-request
// functions configured to include it.
type Body struct {
	Data           string `json:"data"`
	Encoding       string `json:"encoding,omitempty"`
	InputTruncated bool   `json:"inputTruncated,omitempty"`
	Action         string `json:"action,omitempty"`
}

const (
	EncodingBase64 = "base64"
	EncodingText   = "text"
)

// IsBase64 reports whether Data carries base64 rather than plain text.
func (b *Body) IsBase64() bool {
	return b != nil && b.Encoding == EncodingBase64
}

func isNull(m json.RawMessage) bool {
	return len(m) == 0 || string(m) == "null"
}
