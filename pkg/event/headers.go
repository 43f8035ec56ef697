package event

import "strings"

// HeaderEntry is a single header as the platform represents it: Key keeps
// the original casing, the map key it lives under is lowercased.
type HeaderEntry struct {
	Key   string `json:"key,omitempty"`
	Value string `json:"value"`
}

// Headers maps a lowercased header name to its entries.
type Headers map[string][]HeaderEntry

// First returns the first value stored under name. The lookup is
// case-insensitive.
func (h Headers) First(name string) (string, bool) {
	entries, ok := h[strings.ToLower(name)]
	if !ok {
		for k, v := range h {
			if strings.EqualFold(k, name) {
				entries, ok = v, true
				break
			}
		}
	}
	if !ok || len(entries) == 0 {
		return "", false
	}
	return entries[0].Value, true
}

// Set replaces all entries for name with a single key/value pair.
func (h Headers) Set(name, value string) {
	h[strings.ToLower(name)] = []HeaderEntry{{Key: name, Value: value}}
}

// Add appends an entry for name, keeping any existing ones.
func (h Headers) Add(name, value string) {
	k := strings.ToLower(name)
	h[k] = append(h[k], HeaderEntry{Key: name, Value: value})
}
