package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
)

// QueryString is the request query string. The platform sends it as an
// already encoded string; hand-written test events commonly send a
// parameter object instead, which is URL-encoded on decode.
type QueryString string

func (q *QueryString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*q = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = QueryString(s)
		return nil
	case '{':
		var params map[string]json.RawMessage
		if err := json.Unmarshal(data, &params); err != nil {
			return err
		}
		values := url.Values{}
		for name, raw := range params {
			vs, err := paramValues(raw)
			if err != nil {
				return fmt.Errorf("query parameter %q: %w", name, err)
			}
			values[name] = vs
		}
		*q = QueryString(values.Encode())
		return nil
	default:
		return fmt.Errorf("unsupported querystring value: %s", data)
	}
}

// paramValues accepts a scalar, a list of scalars, or the platform's
// {"value": ...} / [{"value": ...}] shapes.
func paramValues(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		var out []string
		for _, item := range items {
			vs, err := paramValues(item)
			if err != nil {
				return nil, err
			}
			out = append(out, vs...)
		}
		return out, nil
	case '{':
		var obj struct {
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, err
		}
		return paramValues(obj.Value)
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return []string{s}, nil
	default:
		// numbers, booleans, null
		if string(raw) == "null" {
			return []string{""}, nil
		}
		return []string{string(raw)}, nil
	}
}

func (q QueryString) String() string {
	return string(q)
}
