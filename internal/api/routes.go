// Package api wires the HTTP surface: chi router, boundary middleware and handlers.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/projectaghoy/aghoy/internal/api/handlers"
	apmiddleware "github.com/projectaghoy/aghoy/internal/api/middleware"
	"github.com/projectaghoy/aghoy/internal/domain/dojo"
	"github.com/projectaghoy/aghoy/internal/domain/scan"
	"github.com/projectaghoy/aghoy/internal/infra/llm"
)

// Deps are the collaborators the HTTP layer needs. Everything is built by
// the caller (cmd/aghoy or the function entrypoint); nothing here is global.
type Deps struct {
	Broker          llm.Completer
	Providers       []llm.ProviderConfig
	Limiter         apmiddleware.Admitter
	Logger          log.FieldLogger
	TrustedIPHeader string
	FingerprintKey  string
}

// Boundary wraps a POST-only broker endpoint: method guard first, then
// client identity, then admission. CORS is applied by the caller so that it
// also covers 404s and preflight.
func Boundary(deps Deps, h http.Handler) http.Handler {
	admit := apmiddleware.RateLimit(deps.Limiter, deps.Logger, deps.FingerprintKey)
	identify := apmiddleware.Identity(deps.TrustedIPHeader)
	return apmiddleware.RequirePOST(identify(admit(h)))
}

// NewRouter creates and configures a new chi router with all routes.
func NewRouter(deps Deps) *chi.Mux {
	if deps.Logger == nil {
		deps.Logger = log.StandardLogger()
	}
	r := chi.NewRouter()

	// Global middleware (runs on all routes)
	r.Use(apmiddleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: deps.Logger, NoColor: true}))
	r.Use(middleware.Recoverer)
	r.Use(apmiddleware.CORS)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		apmiddleware.WriteError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		apmiddleware.WriteError(w, http.StatusMethodNotAllowed, apmiddleware.MsgMethodNotAllowed)
	})

	// Health check, used by load balancers and health probes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	providersHandler := handlers.NewProvidersHandler(deps.Providers)
	r.Get("/api/providers", providersHandler.List)

	// Broker endpoints. Handle (not Post) so RequirePOST owns the 405 body.
	analyzeHandler := handlers.NewAnalyzeHandler(deps.Broker, deps.Logger)
	scanHandler := handlers.NewScanHandler(scan.NewService(deps.Broker, deps.Logger), deps.Logger)
	dojoHandler := handlers.NewDojoHandler(dojo.NewService(deps.Broker, deps.Logger), deps.Logger)

	r.Handle("/api/analyze", Boundary(deps, http.HandlerFunc(analyzeHandler.Analyze)))
	r.Handle("/api/scan", Boundary(deps, http.HandlerFunc(scanHandler.Scan)))
	r.Handle("/api/dojo", Boundary(deps, http.HandlerFunc(dojoHandler.Reply)))

	return r
}
