package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/retainhq/churnscope/internal/api/response"
)

const healthCheckTimeout = 5 * time.Second

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRootHandler returns an http.HandlerFunc for GET /.
func NewRootHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]string{
			"message": "Customer Churn Prediction API is running!",
		})
	}
}

// NewHealthHandler returns an http.HandlerFunc for GET /api/health. It pings
// the database and cache and reports 500 with per-dependency detail when
// either is unreachable.
func NewHealthHandler(db, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		details := map[string]string{}
		if err := db.Ping(ctx); err != nil {
			details["database"] = err.Error()
		}
		if err := cache.Ping(ctx); err != nil {
			details["cache"] = err.Error()
		}

		if len(details) > 0 {
			response.Error(w, http.StatusInternalServerError,
				"HEALTH_CHECK_FAILED", "Health check failed", details)
			return
		}

		response.OK(w, map[string]string{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
