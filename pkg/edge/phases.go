package edge

import (
	"github.com/samber/lo"

	"github.com/storacha/edgeapp/pkg/app"
	"github.com/storacha/edgeapp/pkg/event"
)

// PhaseApps holds the application for each phase. Any slot may be nil, in
// which case events for that phase pass through.
type PhaseApps struct {
	ViewerRequest  app.App
	ViewerResponse app.App
	OriginRequest  app.App
	OriginResponse app.App
}

// For returns the application configured for phase, or nil.
func (p PhaseApps) For(phase event.Phase) app.App {
	switch phase {
	case event.ViewerRequest:
		return p.ViewerRequest
	case event.ViewerResponse:
		return p.ViewerResponse
	case event.OriginRequest:
		return p.OriginRequest
	case event.OriginResponse:
		return p.OriginResponse
	default:
		return nil
	}
}

// Configured lists the phases that have an application.
func (p PhaseApps) Configured() []event.Phase {
	return lo.Filter(event.Phases, func(phase event.Phase, _ int) bool {
		return p.For(phase) != nil
	})
}
