// Package models contains shared data models used across the ChurnScope codebase.
package models

import "time"

const (
	StatusProcessing          = "processing"
	StatusCompleted           = "completed"
	StatusCompletedWithErrors = "completed_with_errors"
	StatusFailed              = "failed"
)

// IsTerminal reports whether a status admits no further transitions.
func IsTerminal(status string) bool {
	switch status {
	case StatusCompleted, StatusCompletedWithErrors, StatusFailed:
		return true
	}
	return false
}

// Analysis tracks one churn-analysis request from upload to terminal state.
// The API returns an analysis_id on POST /api/upload-csv; the client polls
// GET /api/analysis/{analysis_id} until status is terminal.
type Analysis struct {
	AnalysisID        string            `db:"analysis_id"         json:"analysis_id"`
	Filename          string            `db:"filename"            json:"filename"`
	FilePath          string            `db:"file_path"           json:"-"`
	Status            string            `db:"status"              json:"status"`
	TotalCustomers    *int              `db:"total_customers"     json:"total_customers,omitempty"`
	HighRiskCustomers *int              `db:"high_risk_customers" json:"high_risk_customers,omitempty"`
	Predictions       []ChurnPrediction `db:"predictions"         json:"predictions,omitempty"`
	Insights          *string           `db:"insights"            json:"insights,omitempty"`
	Recommendations   *string           `db:"recommendations"     json:"recommendations,omitempty"`
	Error             *string           `db:"error_message"       json:"error,omitempty"`
	RawResponse       *string           `db:"raw_response"        json:"raw_response,omitempty"`
	CompletedAt       *time.Time        `db:"completed_at"        json:"completed_at,omitempty"`
	CreatedAt         time.Time         `db:"created_at"          json:"created_at"`
}

// ChurnPrediction is one per-customer risk entry produced by the AI model.
type ChurnPrediction struct {
	CustomerID         string   `json:"customer_id"`
	CustomerName       *string  `json:"customer_name,omitempty"`
	ChurnProbability   float64  `json:"churn_probability"`
	RiskLevel          string   `json:"risk_level"`
	KeyFactors         []string `json:"key_factors"`
	RecommendedActions []string `json:"recommended_actions"`
}

// ChurnReport is the structured payload decoded from the AI response.
// Every field is optional on the wire; the analyzer fills in defaults.
type ChurnReport struct {
	TotalCustomers    *int              `json:"total_customers"`
	HighRiskCustomers *int              `json:"high_risk_customers"`
	Predictions       []ChurnPrediction `json:"predictions"`
	Insights          *string           `json:"insights"`
	Recommendations   *string           `json:"recommendations"`
}
