package main

import (
	"github.com/storacha/edgeapp/cmd/lambda"
	"github.com/storacha/edgeapp/pkg/apps"
	"github.com/storacha/edgeapp/pkg/config"
	"github.com/storacha/edgeapp/pkg/edge"
)

func main() {
	lambda.StartEdgeHandler(makeApps)
}

// makeApps serves viewer requests and origin responses, so one function can
// be associated with both events of a cache behavior.
func makeApps(cfg config.Edge) (edge.PhaseApps, error) {
	return apps.Default(), nil
}
