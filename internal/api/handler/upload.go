package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/retainhq/churnscope/internal/ai"
	"github.com/retainhq/churnscope/internal/api/response"
	"github.com/retainhq/churnscope/pkg/models"
)

// maxUploadBytes caps the size of an uploaded CSV.
const maxUploadBytes = 10 << 20 // 10 MiB

// Submitter defines the interface the upload handler depends on.
type Submitter interface {
	Submit(ctx context.Context, filename string, content []byte) (*models.Analysis, error)
}

// NewUploadHandler returns an http.HandlerFunc for POST /api/upload-csv.
// It accepts a multipart form with a "file" part, creates the analysis
// record, and returns before any analysis has run.
func NewUploadHandler(svc Submitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

		file, header, err := r.FormFile("file")
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"Multipart form field 'file' is required", nil)
			return
		}
		defer file.Close()

		content, err := io.ReadAll(file)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"Failed to read uploaded file", nil)
			return
		}

		analysis, err := svc.Submit(r.Context(), header.Filename, content)
		if err != nil {
			if errors.Is(err, ai.ErrInvalidFileType) {
				response.Error(w, http.StatusBadRequest, "INVALID_FILE_TYPE",
					"Only CSV files are allowed", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to start analysis", nil)
			return
		}

		response.OK(w, map[string]string{
			"analysis_id": analysis.AnalysisID,
			"message":     "File uploaded successfully. Analysis started.",
			"status":      analysis.Status,
		})
	}
}
