// Package app defines the application interface served at the edge: an
// application receives an Environment and a StartResponse callback, and
// returns a Body.
package app

import (
	"context"

	"github.com/storacha/edgeapp/pkg/environ"
)

// Header is a single response header. Order is preserved and duplicates are
// allowed.
type Header struct {
	Name  string
	Value string
}

// WriteFunc appends raw bytes to the response body. It is returned from
// StartResponse for applications that prefer writing over returning a Body.
type WriteFunc func(p []byte) (int, error)

func (w WriteFunc) Write(p []byte) (int, error) {
	return w(p)
}

// StartResponse begins the response. status is a status line such as
// "200 OK". Calling it again appends headers and replaces the status. A
// non-nil appErr reports an unrecoverable application error: it is returned
// unchanged and the invocation fails with it.
type StartResponse func(status string, headers []Header, appErr error) (WriteFunc, error)

// App is an application invoked once per edge event.
type App interface {
	ServeEdge(ctx context.Context, env environ.Environment, start StartResponse) (Body, error)
}

// AppFunc adapts a function to App.
type AppFunc func(ctx context.Context, env environ.Environment, start StartResponse) (Body, error)

func (f AppFunc) ServeEdge(ctx context.Context, env environ.Environment, start StartResponse) (Body, error) {
	return f(ctx, env, start)
}
