// Package response collects what an edge application emits and serializes
// it into the response shape expected by the edge platform.
package response

import (
	"encoding/json"

	"github.com/storacha/edgeapp/pkg/event"
)

// RawResponseContentType is the reserved media type an application sets to
// take full control of the edge response: the body is then returned
// verbatim as the response object, bypassing status and header wrapping.
const RawResponseContentType = "application/vnd.edgeapp.response+json"

// EdgeResponse is the serialized response. It is either the wrapped shape
// built from the application's status, headers and body, or a raw object
// written by the application under RawResponseContentType.
type EdgeResponse struct {
	Status            string        `json:"status"`
	StatusDescription string        `json:"statusDescription"`
	Headers           event.Headers `json:"headers"`
	Body              string        `json:"body,omitempty"`
	BodyEncoding      string        `json:"bodyEncoding,omitempty"`

	raw json.RawMessage
}

// Raw returns the application supplied response object, or nil when the
// response is wrapped.
func (r *EdgeResponse) Raw() json.RawMessage {
	return r.raw
}

// IsRaw reports whether the response came through the raw escape hatch.
func (r *EdgeResponse) IsRaw() bool {
	return r.raw != nil
}

func (r EdgeResponse) MarshalJSON() ([]byte, error) {
	if r.raw != nil {
		return r.raw, nil
	}
	type wrapped EdgeResponse
	return json.Marshal(wrapped(r))
}
