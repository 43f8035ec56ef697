package apps

import (
	"context"
	"fmt"

	"github.com/storacha/edgeapp/pkg/app"
	"github.com/storacha/edgeapp/pkg/build"
	"github.com/storacha/edgeapp/pkg/environ"
)

// NewHello returns an application that answers every request itself with a
// short plain text greeting.
func NewHello() app.App {
	return app.AppFunc(func(ctx context.Context, env environ.Environment, start app.StartResponse) (app.Body, error) {
		write, err := start("200 OK", []app.Header{
			{Name: "Content-Type", Value: "text/plain; charset=utf-8"},
			{Name: "Cache-Control", Value: "no-store"},
		}, nil)
		if err != nil {
			return nil, err
		}
		if _, err := fmt.Fprintf(write, "edgeapp %s\n", build.Version); err != nil {
			return nil, err
		}
		return app.String(fmt.Sprintf("%s %s %s\n", env.Method(), env.Path(), env.EventType())), nil
	})
}
