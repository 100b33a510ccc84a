package handler

import (
	"net/http"

	"github.com/retainhq/churnscope/internal/api/response"
	"github.com/retainhq/churnscope/internal/dataset"
)

// NewSampleCSVHandler returns an http.HandlerFunc for GET /api/sample-csv.
// The dataset is fixed so clients can exercise the upload flow predictably.
func NewSampleCSVHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, dataset.Sample())
	}
}
