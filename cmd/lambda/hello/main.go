package main

import (
	"github.com/storacha/edgeapp/cmd/lambda"
	"github.com/storacha/edgeapp/pkg/apps"
	"github.com/storacha/edgeapp/pkg/config"
	"github.com/storacha/edgeapp/pkg/edge"
	"github.com/storacha/edgeapp/pkg/event"
)

func main() {
	lambda.StartEdgeHandler(makeApps)
}

func makeApps(cfg config.Edge) (edge.PhaseApps, error) {
	return apps.Single(event.ViewerRequest, apps.NewHello()), nil
}
