// Package function is the serverless-style entrypoint for POST /api/analyze.
// Platforms that invoke a bare http.HandlerFunc per route (Vercel Go
// functions, Cloudflare containers, Lambda adapters) mount Analyze directly;
// it runs the same boundary chain as the chi server.
package function

import (
	"net/http"
	"os"
	"sync"

	"github.com/projectaghoy/aghoy/internal/api"
	"github.com/projectaghoy/aghoy/internal/api/handlers"
	apmiddleware "github.com/projectaghoy/aghoy/internal/api/middleware"
	"github.com/projectaghoy/aghoy/internal/app"
	"github.com/projectaghoy/aghoy/internal/infra/config"
)

var (
	once    sync.Once
	handler http.Handler
)

// Analyze lazily wires the broker from the environment on the first call and
// reuses it for every later call on the same instance, so the rate-limit
// counters live as long as the instance does.
func Analyze(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		handler = build(config.Load())
	})
	handler.ServeHTTP(w, r)
}

// build constructs the handler chain. A startup failure (unopenable counter
// store) still yields a handler: preflight succeeds and every other request
// gets a 500 naming the problem.
func build(cfg config.Config) http.Handler {
	a, err := app.New(cfg, os.Stderr)
	if err != nil {
		msg := "service misconfigured: " + err.Error()
		return apmiddleware.RequestID(apmiddleware.CORS(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			apmiddleware.WriteError(w, http.StatusInternalServerError, msg)
		})))
	}
	return NewHandler(a.Deps)
}

// NewHandler is the full serverless chain over already-built dependencies.
func NewHandler(deps api.Deps) http.Handler {
	analyze := handlers.NewAnalyzeHandler(deps.Broker, deps.Logger)
	return apmiddleware.RequestID(apmiddleware.CORS(api.Boundary(deps, http.HandlerFunc(analyze.Analyze))))
}
