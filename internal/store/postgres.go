package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/retainhq/churnscope/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const analysisColumns = `analysis_id, filename, file_path, status, total_customers, high_risk_customers,
	 predictions, insights, recommendations, error_message, raw_response, completed_at, created_at`

func (s *PostgresStore) CreateAnalysis(ctx context.Context, analysis *models.Analysis) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO churn_analyses (analysis_id, filename, file_path, status, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		analysis.AnalysisID, analysis.Filename, analysis.FilePath, analysis.Status, analysis.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create analysis: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAnalysis(ctx context.Context, analysisID string) (*models.Analysis, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+analysisColumns+` FROM churn_analyses WHERE analysis_id = $1`, analysisID)

	a, err := scanAnalysis(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) ListAnalyses(ctx context.Context, limit int) ([]*models.Analysis, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+analysisColumns+` FROM churn_analyses ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	analyses := []*models.Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

// Only forward transitions are legal; a terminal record is never rewritten.
var validTransitions = map[string][]string{
	models.StatusProcessing: {
		models.StatusCompleted,
		models.StatusCompletedWithErrors,
		models.StatusFailed,
	},
}

// UpdateAnalysisStatus transitions an analysis to a terminal status, applying
// any result fields carried by the options. Updates against a record that was
// deleted mid-flight return ErrNotFound (the analyzer treats that as a no-op
// rather than resurrecting the record).
func (s *PostgresStore) UpdateAnalysisStatus(ctx context.Context, analysisID string, status string, opts ...AnalysisUpdateOption) error {
	params := ApplyOptions(opts)

	var currentStatus string
	err := s.pool.QueryRow(ctx,
		`SELECT status FROM churn_analyses WHERE analysis_id = $1`, analysisID).Scan(&currentStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get analysis status: %w", err)
	}

	allowed := validTransitions[currentStatus]
	valid := false
	for _, a := range allowed {
		if a == status {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid analysis status transition: %s -> %s", currentStatus, status)
	}

	query := `UPDATE churn_analyses SET status = $2`
	args := []any{analysisID, status}
	argIdx := 3

	if models.IsTerminal(status) {
		query += fmt.Sprintf(", completed_at = $%d", argIdx)
		args = append(args, time.Now().UTC())
		argIdx++
	}
	if params.Report != nil {
		predictions, err := json.Marshal(params.Report.Predictions)
		if err != nil {
			return fmt.Errorf("marshal predictions: %w", err)
		}
		query += fmt.Sprintf(
			", total_customers = $%d, high_risk_customers = $%d, predictions = $%d, insights = $%d, recommendations = $%d",
			argIdx, argIdx+1, argIdx+2, argIdx+3, argIdx+4)
		args = append(args, params.Report.TotalCustomers, params.Report.HighRiskCustomers,
			predictions, params.Report.Insights, params.Report.Recommendations)
		argIdx += 5
	}
	if params.TotalCustomers != nil {
		query += fmt.Sprintf(", total_customers = $%d", argIdx)
		args = append(args, *params.TotalCustomers)
		argIdx++
	}
	if params.ErrorMessage != nil {
		query += fmt.Sprintf(", error_message = $%d", argIdx)
		args = append(args, *params.ErrorMessage)
		argIdx++
	}
	if params.RawResponse != nil {
		query += fmt.Sprintf(", raw_response = $%d", argIdx)
		args = append(args, *params.RawResponse)
		argIdx++
	}

	query += " WHERE analysis_id = $1"

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update analysis status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteAnalysis(ctx context.Context, analysisID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM churn_analyses WHERE analysis_id = $1`, analysisID)
	if err != nil {
		return fmt.Errorf("delete analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanAnalysis reads one churn_analyses row, decoding the predictions JSONB.
func scanAnalysis(row pgx.Row) (*models.Analysis, error) {
	var a models.Analysis
	var predictions []byte
	if err := row.Scan(&a.AnalysisID, &a.Filename, &a.FilePath, &a.Status,
		&a.TotalCustomers, &a.HighRiskCustomers, &predictions,
		&a.Insights, &a.Recommendations, &a.Error, &a.RawResponse,
		&a.CompletedAt, &a.CreatedAt); err != nil {
		return nil, err
	}
	if predictions != nil {
		if err := json.Unmarshal(predictions, &a.Predictions); err != nil {
			return nil, fmt.Errorf("decode predictions: %w", err)
		}
	}
	return &a, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
