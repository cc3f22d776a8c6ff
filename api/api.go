// Package api exposes the session and score-submission endpoints over REST.
package api

import (
	_ "embed"
	"log/slog"
	"net/http"
	"net/netip"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/runtime/middleware"

	"github.com/dstern/flapgate/admit"
	"github.com/dstern/flapgate/storage"
	"github.com/dstern/flapgate/token"
)

// API holds the dependencies needed by the REST handlers.
type API struct {
	issuer         *token.Issuer
	controller     *admit.Controller
	board          storage.Leaderboard
	rateLimiter    *submitRateLimiter
	audit          *auditLogger
	alertFn        AlertFunc
	trustedProxies []netip.Prefix
}

//go:embed openapi.yaml
var openapiSpec []byte

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger for audit events.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.audit = newAuditLogger(logger)
	}
}

// WithAlertFunc installs a callback invoked when rejection anomalies
// (forged-token or physics-violation spikes) are detected.
func WithAlertFunc(fn AlertFunc) Option {
	return func(a *API) {
		a.alertFn = fn
	}
}

// WithTrustedProxies sets the CIDR ranges whose proxy headers are honored
// when extracting the client IP for rate limiting. Empty means proxy headers
// are never trusted.
func WithTrustedProxies(prefixes []netip.Prefix) Option {
	return func(a *API) {
		a.trustedProxies = prefixes
	}
}

// New creates a new API instance.
func New(issuer *token.Issuer, controller *admit.Controller, board storage.Leaderboard, opts ...Option) *API {
	a := &API{
		issuer:      issuer,
		controller:  controller,
		board:       board,
		rateLimiter: newSubmitRateLimiter(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.audit == nil {
		a.audit = newAuditLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}
	if a.alertFn != nil {
		a.audit.metrics = newMetricsCollector(a.alertFn)
	}
	return a
}

// Router returns a chi.Router with all API routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})

	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/api/v1/openapi.yaml",
		Path:    "api/v1/docs",
	}, nil))

	r.Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: "/api/v1/openapi.yaml",
		Path:    "api/v1/redoc",
	}, nil))

	r.Get("/session", a.NewSession)
	r.Post("/scores", a.SubmitScore)
	r.Get("/leaderboard", a.Leaderboard)

	return r
}
