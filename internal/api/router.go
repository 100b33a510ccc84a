package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	mw "github.com/retainhq/churnscope/internal/api/middleware"
	"github.com/retainhq/churnscope/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	RateLimit *mw.RateLimit

	RootHandler      http.HandlerFunc
	HealthHandler    http.HandlerFunc
	UploadHandler    http.HandlerFunc
	GetAnalysis      http.HandlerFunc
	ListAnalyses     http.HandlerFunc
	DeleteAnalysis   http.HandlerFunc
	SampleCSVHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	// Liveness endpoints stay outside the rate limiter
	r.Get("/", orNotImplemented(deps.RootHandler))
	r.Get("/api/health", orNotImplemented(deps.HealthHandler))

	r.Group(func(r chi.Router) {
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}

		r.Post("/api/upload-csv", orNotImplemented(deps.UploadHandler))
		r.Get("/api/analysis/{analysisID}", orNotImplemented(deps.GetAnalysis))
		r.Get("/api/analyses", orNotImplemented(deps.ListAnalyses))
		r.Delete("/api/analysis/{analysisID}", orNotImplemented(deps.DeleteAnalysis))
		r.Get("/api/sample-csv", orNotImplemented(deps.SampleCSVHandler))
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
