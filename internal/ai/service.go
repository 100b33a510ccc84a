package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retainhq/churnscope/internal/cache"
	"github.com/retainhq/churnscope/internal/dataset"
	"github.com/retainhq/churnscope/internal/store"
	"github.com/retainhq/churnscope/internal/upload"
	"github.com/retainhq/churnscope/pkg/models"
)

const statusCacheTTL = 30 * time.Minute

// AnalysisService owns the churn-analysis job lifecycle: it creates records,
// dispatches the background analyzer, and serves polling reads and deletes.
type AnalysisService struct {
	provider models.AIProvider
	store    store.Store
	cache    cache.Cache
	files    *upload.Storage
	timeout  time.Duration
}

// NewAnalysisService creates a new AnalysisService. A timeout of zero means
// the external AI call is never cancelled by this layer.
func NewAnalysisService(provider models.AIProvider, st store.Store, ca cache.Cache, files *upload.Storage, timeout time.Duration) *AnalysisService {
	return &AnalysisService{
		provider: provider,
		store:    st,
		cache:    ca,
		files:    files,
		timeout:  timeout,
	}
}

// Submit stores the upload, creates a processing record, and dispatches the
// analyzer in a background goroutine. It returns the new record immediately,
// before any analysis has happened.
func (s *AnalysisService) Submit(ctx context.Context, filename string, content []byte) (*models.Analysis, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return nil, ErrInvalidFileType
	}

	analysisID := uuid.New().String()

	path, err := s.files.Save(analysisID, filename, content)
	if err != nil {
		return nil, fmt.Errorf("saving upload: %w", err)
	}

	analysis := &models.Analysis{
		AnalysisID: analysisID,
		Filename:   filename,
		FilePath:   path,
		Status:     models.StatusProcessing,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.store.CreateAnalysis(ctx, analysis); err != nil {
		_ = s.files.Remove(path)
		return nil, fmt.Errorf("creating analysis: %w", err)
	}

	_ = s.cache.SetAnalysisStatus(ctx, analysisID, models.StatusProcessing, statusCacheTTL)

	go s.runAnalysis(analysisID, path, filename)

	return analysis, nil
}

// GetAnalysis returns the current record verbatim; callers poll until the
// status is terminal.
func (s *AnalysisService) GetAnalysis(ctx context.Context, analysisID string) (*models.Analysis, error) {
	return s.store.GetAnalysis(ctx, analysisID)
}

// ListRecent returns up to limit records, newest first.
func (s *AnalysisService) ListRecent(ctx context.Context, limit int) ([]*models.Analysis, error) {
	return s.store.ListAnalyses(ctx, limit)
}

// Delete removes the uploaded file (best effort) and the analysis record.
// A file that is already gone never blocks record deletion.
func (s *AnalysisService) Delete(ctx context.Context, analysisID string) error {
	analysis, err := s.store.GetAnalysis(ctx, analysisID)
	if err != nil {
		return err
	}

	if err := s.files.Remove(analysis.FilePath); err != nil {
		slog.Warn("failed to remove uploaded file, deleting record anyway",
			"analysis_id", analysisID, "path", analysis.FilePath, "error", err)
	}

	if err := s.store.DeleteAnalysis(ctx, analysisID); err != nil {
		return err
	}

	_ = s.cache.DeleteAnalysisStatus(ctx, analysisID)
	return nil
}

// runAnalysis performs one analysis end-to-end in a goroutine. Every exit path
// leaves the record in a terminal state; panics are recovered and recorded as
// failures so a bad job never takes the process down.
func (s *AnalysisService) runAnalysis(analysisID, path, filename string) {
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in runAnalysis", "error", r, "analysis_id", analysisID)
			s.fail(ctx, analysisID, fmt.Sprintf("panic: %v", r))
		}
	}()

	content, err := s.files.Read(path)
	if err != nil {
		s.fail(ctx, analysisID, fmt.Sprintf("reading uploaded file: %v", err))
		return
	}

	totalCustomers, err := dataset.CountRows(content)
	if err != nil {
		s.fail(ctx, analysisID, fmt.Sprintf("parsing uploaded file: %v", err))
		return
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	raw, err := s.provider.AnalyzeChurn(callCtx, models.ChurnRequest{
		SystemPrompt:  systemPrompt,
		UserMessage:   userMessage(totalCustomers),
		Filename:      filename,
		MimeType:      "text/csv",
		FileContent:   content,
		CustomerCount: totalCustomers,
	})
	if err != nil {
		s.fail(ctx, analysisID, err.Error())
		return
	}

	report, perr := ParseReport(raw)
	if perr != nil {
		s.transition(ctx, analysisID, models.StatusCompletedWithErrors,
			store.WithErrorMessage(fmt.Sprintf("JSON parsing error: %v", perr)),
			store.WithRawResponse(raw),
			store.WithTotalCustomers(totalCustomers))
		return
	}

	applyReportDefaults(&report, totalCustomers)
	s.transition(ctx, analysisID, models.StatusCompleted, store.WithReport(report))
}

func (s *AnalysisService) fail(ctx context.Context, analysisID, msg string) {
	s.transition(ctx, analysisID, models.StatusFailed, store.WithErrorMessage(msg))
}

// transition applies a terminal update. A record deleted mid-flight is a
// silent drop: last write wins, and the winner was the delete.
func (s *AnalysisService) transition(ctx context.Context, analysisID, status string, opts ...store.AnalysisUpdateOption) {
	err := s.store.UpdateAnalysisStatus(ctx, analysisID, status, opts...)
	switch {
	case errors.Is(err, store.ErrNotFound):
		slog.Warn("analysis deleted before analyzer finished, dropping result",
			"analysis_id", analysisID, "status", status)
		return
	case err != nil:
		slog.Error("failed to update analysis status",
			"analysis_id", analysisID, "status", status, "error", err)
		return
	}

	_ = s.cache.SetAnalysisStatus(ctx, analysisID, status, statusCacheTTL)
	slog.Info("analysis reached terminal state", "analysis_id", analysisID, "status", status)
}

// applyReportDefaults fills the optional response fields the way the API
// contract promises: row count for totals, zero high-risk, empty collections.
func applyReportDefaults(report *models.ChurnReport, totalCustomers int) {
	if report.TotalCustomers == nil {
		report.TotalCustomers = &totalCustomers
	}
	if report.HighRiskCustomers == nil {
		zero := 0
		report.HighRiskCustomers = &zero
	}
	if report.Predictions == nil {
		report.Predictions = []models.ChurnPrediction{}
	}
	if report.Insights == nil {
		empty := ""
		report.Insights = &empty
	}
	if report.Recommendations == nil {
		empty := ""
		report.Recommendations = &empty
	}
}
