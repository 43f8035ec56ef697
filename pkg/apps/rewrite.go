// Package apps contains the phase applications deployed by the lambdas and
// run by the CLI.
package apps

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/storacha/edgeapp/pkg/app"
	"github.com/storacha/edgeapp/pkg/response"
)

var log = logging.Logger("apps")

// DefaultIndexDocument is appended to directory URIs by the viewer-request app.
const DefaultIndexDocument = "index.html"

// HealthPath is answered at the edge without reaching the origin.
const HealthPath = "/_edge/health"

// NewViewerRequest returns the viewer-request application. It answers
// HealthPath itself and forwards every other request to the origin, with
// directory URIs rewritten to their index document.
func NewViewerRequest(indexDocument string) app.App {
	if indexDocument == "" {
		indexDocument = DefaultIndexDocument
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(logErrors)

	e.GET(HealthPath, func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.Any("/*", forwardToOrigin(indexDocument))

	return app.FromHandler(e)
}

// forwardToOrigin hands the (possibly rewritten) request object back to the
// platform through the raw response escape hatch.
func forwardToOrigin(indexDocument string) echo.HandlerFunc {
	return func(c echo.Context) error {
		env, ok := app.EnvironmentFromContext(c.Request().Context())
		if !ok {
			return echo.NewHTTPError(http.StatusInternalServerError, "request was not built from an edge event")
		}

		var req map[string]json.RawMessage
		if err := json.Unmarshal(env.RawRequest(), &req); err != nil {
			return fmt.Errorf("decoding edge request: %w", err)
		}

		uri := env.Path()
		if strings.HasSuffix(uri, "/") {
			rewritten := uri + indexDocument
			log.Debugw("rewriting uri", "from", uri, "to", rewritten)
			data, err := json.Marshal(rewritten)
			if err != nil {
				return err
			}
			req["uri"] = data
		}

		out, err := json.Marshal(req)
		if err != nil {
			return fmt.Errorf("encoding edge request: %w", err)
		}
		return c.Blob(http.StatusOK, response.RawResponseContentType, out)
	}
}

func logErrors(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		if err != nil {
			// HTTP errors have already been handled
			if _, ok := err.(*echo.HTTPError); !ok {
				log.Errorw("serving viewer request", "path", c.Request().URL.Path, "error", err)
			}
		}
		return err
	}
}
