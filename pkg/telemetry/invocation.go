package telemetry

import "context"

// Outcomes of a single edge invocation.
const (
	OutcomeServed      = "served"
	OutcomeRaw         = "raw"
	OutcomePassthrough = "passthrough"
	OutcomeError       = "error"
)

// InvocationMetrics are the metrics recorded for every edge invocation.
type InvocationMetrics struct {
	invocations *Counter
	duration    *Timer
	bodySize    *Histogram
}

func NewInvocationMetrics(tel *Telemetry) (*InvocationMetrics, error) {
	invocations, err := tel.NewCounter(CounterConfig{
		Name:        "edge_invocations_total",
		Description: "Edge invocations by phase and outcome",
	})
	if err != nil {
		return nil, err
	}
	duration, err := tel.NewTimer(TimerConfig{
		Name:        "edge_invocation_duration",
		Description: "Time spent handling an edge invocation",
		Boundaries:  LatencyBoundaries,
	})
	if err != nil {
		return nil, err
	}
	bodySize, err := tel.NewHistogram(HistogramConfig{
		Name:        "edge_response_body_size",
		Description: "Size of response bodies written by applications",
		Unit:        "By",
		Boundaries:  SizeBoundaries,
	})
	if err != nil {
		return nil, err
	}
	return &InvocationMetrics{
		invocations: invocations,
		duration:    duration,
		bodySize:    bodySize,
	}, nil
}

// Start begins timing an invocation. The caller ends it with Done.
func (m *InvocationMetrics) Start(ctx context.Context, phase string) *TimedContext {
	return m.duration.Start(ctx, StringAttr("phase", phase))
}

// Done records the outcome of an invocation and stops its timer.
func (m *InvocationMetrics) Done(ctx context.Context, op *TimedContext, phase, outcome string) {
	m.invocations.Inc(ctx, StringAttr("phase", phase), StringAttr("outcome", outcome))
	op.End(StringAttr("outcome", outcome))
}

// ResponseBody records the size of a serialized response body.
func (m *InvocationMetrics) ResponseBody(ctx context.Context, phase, encoding string, size int) {
	m.bodySize.Record(ctx, int64(size), StringAttr("phase", phase), StringAttr("encoding", encoding))
}
