package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/bhanukaranwal/Satyashield/internal/api/middleware"
	"github.com/bhanukaranwal/Satyashield/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler      http.HandlerFunc
	SubmitHandler      http.HandlerFunc
	BatchSubmitHandler http.HandlerFunc
	StatusHandler      http.HandlerFunc
	ResultHandler      http.HandlerFunc
	RecentHandler      http.HandlerFunc
	WaitHandler        http.HandlerFunc
	QueueDepthsHandler http.HandlerFunc
	MetricsHandler     http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public health check
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	// Protected routes
	r.Group(func(r chi.Router) {
		if deps.Auth != nil {
			r.Use(deps.Auth.Authenticate)
		}
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}

		r.Post("/api/v1/analyses", orNotImplemented(deps.SubmitHandler))
		r.Post("/api/v1/analyses/batch", orNotImplemented(deps.BatchSubmitHandler))
		r.Get("/api/v1/analyses", orNotImplemented(deps.RecentHandler))
		r.Get("/api/v1/analyses/{analysisID}", orNotImplemented(deps.ResultHandler))
		r.Get("/api/v1/analyses/{analysisID}/status", orNotImplemented(deps.StatusHandler))
		r.Get("/api/v1/analyses/{analysisID}/wait", orNotImplemented(deps.WaitHandler))

		r.Get("/api/v1/queues", orNotImplemented(deps.QueueDepthsHandler))
		r.Get("/api/v1/metrics", orNotImplemented(deps.MetricsHandler))
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
