package response

import "strings"

// ShouldSendBinary decides whether a response body is sent base64 encoded.
// With binary support off everything is text. Otherwise only text/* and
// application/json bodies (parameters such as charset allowed) are text,
// and even those are binary when the body is gzip compressed.
func ShouldSendBinary(binarySupport bool, contentType, contentEncoding string) bool {
	if !binarySupport {
		return false
	}
	if !strings.HasPrefix(contentType, "text/") && !strings.HasPrefix(contentType, "application/json") {
		return true
	}
	return strings.Contains(strings.ToLower(contentEncoding), "gzip")
}
