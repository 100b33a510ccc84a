package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/retainhq/churnscope/internal/api/response"
	"github.com/retainhq/churnscope/internal/store"
	"github.com/retainhq/churnscope/pkg/models"
)

// listLimit caps how many records the list endpoint returns.
const listLimit = 20

// AnalysisReader defines the read interface the polling handlers depend on.
type AnalysisReader interface {
	GetAnalysis(ctx context.Context, analysisID string) (*models.Analysis, error)
	ListRecent(ctx context.Context, limit int) ([]*models.Analysis, error)
}

// AnalysisDeleter defines the interface the delete handler depends on.
type AnalysisDeleter interface {
	Delete(ctx context.Context, analysisID string) error
}

// NewGetAnalysisHandler returns an http.HandlerFunc for GET /api/analysis/{analysisID}.
// Clients poll it until the record's status is terminal.
func NewGetAnalysisHandler(svc AnalysisReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		analysisID := chi.URLParam(r, "analysisID")

		analysis, err := svc.GetAnalysis(r.Context(), analysisID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND",
					"Analysis not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to fetch analysis", nil)
			return
		}

		response.OK(w, analysis)
	}
}

// NewListAnalysesHandler returns an http.HandlerFunc for GET /api/analyses.
func NewListAnalysesHandler(svc AnalysisReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		analyses, err := svc.ListRecent(r.Context(), listLimit)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to list analyses", nil)
			return
		}

		if analyses == nil {
			analyses = []*models.Analysis{}
		}
		response.OK(w, map[string]any{"analyses": analyses})
	}
}

// NewDeleteAnalysisHandler returns an http.HandlerFunc for DELETE /api/analysis/{analysisID}.
func NewDeleteAnalysisHandler(svc AnalysisDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		analysisID := chi.URLParam(r, "analysisID")

		if err := svc.Delete(r.Context(), analysisID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND",
					"Analysis not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to delete analysis", nil)
			return
		}

		response.OK(w, map[string]string{"message": "Analysis deleted successfully"})
	}
}
