package event

// Phase is one of the four request lifecycle points at which the edge
// platform invokes a function.
type Phase int

const (
	ViewerRequest Phase = iota
	ViewerResponse
	OriginRequest
	OriginResponse
)

// Phases lists every phase in lifecycle order.
var Phases = []Phase{ViewerRequest, OriginRequest, OriginResponse, ViewerResponse}

var phaseTags = map[Phase]string{
	ViewerRequest:  "viewer-request",
	ViewerResponse: "viewer-response",
	OriginRequest:  "origin-request",
	OriginResponse: "origin-response",
}

// ParsePhase maps a wire tag such as "origin-response" to its Phase.
func ParsePhase(tag string) (Phase, bool) {
	for p, t := range phaseTags {
		if t == tag {
			return p, true
		}
	}
	return 0, false
}

func (p Phase) String() string {
	if t, ok := phaseTags[p]; ok {
		return t
	}
	return "unknown"
}

// IsResponse reports whether events for this phase carry a response object.
func (p Phase) IsResponse() bool {
	return p == ViewerResponse || p == OriginResponse
}
