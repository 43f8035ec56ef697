package apps

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/storacha/edgeapp/pkg/app"
	"github.com/storacha/edgeapp/pkg/edge"
	"github.com/storacha/edgeapp/pkg/event"
)

var registry = map[string]func() app.App{
	"rewrite":          func() app.App { return NewViewerRequest(DefaultIndexDocument) },
	"security-headers": NewSecurityHeaders,
	"hello":            NewHello,
}

// Names lists the registered applications.
func Names() []string {
	names := lo.Keys(registry)
	sort.Strings(names)
	return names
}

// New returns the registered application called name.
func New(name string) (app.App, error) {
	mk, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown application %q, expected one of %v", name, Names())
	}
	return mk(), nil
}

// Default is the deployment's phase assignment: URI rewriting on viewer
// requests and security headers on origin responses.
func Default() edge.PhaseApps {
	return edge.PhaseApps{
		ViewerRequest:  NewViewerRequest(DefaultIndexDocument),
		OriginResponse: NewSecurityHeaders(),
	}
}

// Single assigns one application to one phase.
func Single(phase event.Phase, a app.App) edge.PhaseApps {
	var p edge.PhaseApps
	switch phase {
	case event.ViewerRequest:
		p.ViewerRequest = a
	case event.ViewerResponse:
		p.ViewerResponse = a
	case event.OriginRequest:
		p.OriginRequest = a
	case event.OriginResponse:
		p.OriginResponse = a
	}
	return p
}
