package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	mw "github.com/kiranshivaraju/acrasync/internal/api/middleware"
	"github.com/kiranshivaraju/acrasync/internal/api/response"
	"github.com/kiranshivaraju/acrasync/internal/apikey"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler      http.HandlerFunc
	TriggerSync        http.HandlerFunc
	ListRuns           http.HandlerFunc
	GetRun             http.HandlerFunc
	GetRunStatus       http.HandlerFunc
	PreviewDescription http.HandlerFunc
	CreateKey          http.HandlerFunc
	ListKeys           http.HandlerFunc
	RevokeKey          http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.With(deps.Auth.RequireScope(apikey.ScopeSync)).
			Post("/api/v1/sync", orNotImplemented(deps.TriggerSync))

		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireScope(apikey.ScopeRead))

			r.Get("/api/v1/sync/runs", orNotImplemented(deps.ListRuns))
			r.Get("/api/v1/sync/runs/{runID}", orNotImplemented(deps.GetRun))
			r.Get("/api/v1/sync/runs/{runID}/status", orNotImplemented(deps.GetRunStatus))
			r.Post("/api/v1/descriptions/preview", orNotImplemented(deps.PreviewDescription))
		})

		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireScope(apikey.ScopeAdmin))

			r.Post("/api/v1/admin/keys", orNotImplemented(deps.CreateKey))
			r.Get("/api/v1/admin/keys", orNotImplemented(deps.ListKeys))
			r.Delete("/api/v1/admin/keys/{keyID}", orNotImplemented(deps.RevokeKey))
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
