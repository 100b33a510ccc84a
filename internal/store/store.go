package store

import (
	"context"
	"errors"

	"github.com/retainhq/churnscope/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	CreateAnalysis(ctx context.Context, analysis *models.Analysis) error
	GetAnalysis(ctx context.Context, analysisID string) (*models.Analysis, error)
	ListAnalyses(ctx context.Context, limit int) ([]*models.Analysis, error)
	UpdateAnalysisStatus(ctx context.Context, analysisID string, status string, opts ...AnalysisUpdateOption) error
	DeleteAnalysis(ctx context.Context, analysisID string) error
}

// AnalysisUpdate collects the optional result fields of a terminal
// transition. It is exported so every Store implementation, including test
// doubles, can apply the same options.
type AnalysisUpdate struct {
	Report         *models.ChurnReport
	ErrorMessage   *string
	RawResponse    *string
	TotalCustomers *int
}

type AnalysisUpdateOption func(*AnalysisUpdate)

// ApplyOptions folds opts into a zero AnalysisUpdate.
func ApplyOptions(opts []AnalysisUpdateOption) AnalysisUpdate {
	var u AnalysisUpdate
	for _, opt := range opts {
		opt(&u)
	}
	return u
}

// WithReport attaches the parsed churn report on the completed transition.
func WithReport(report models.ChurnReport) AnalysisUpdateOption {
	return func(u *AnalysisUpdate) {
		u.Report = &report
	}
}

func WithErrorMessage(msg string) AnalysisUpdateOption {
	return func(u *AnalysisUpdate) {
		u.ErrorMessage = &msg
	}
}

func WithRawResponse(raw string) AnalysisUpdateOption {
	return func(u *AnalysisUpdate) {
		u.RawResponse = &raw
	}
}

func WithTotalCustomers(n int) AnalysisUpdateOption {
	return func(u *AnalysisUpdate) {
		u.TotalCustomers = &n
	}
}
