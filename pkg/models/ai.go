package models

import "context"

// AIProvider is the core interface that all AI integrations must implement.
// Never call specific AI providers directly — always inject this interface.
type AIProvider interface {
	// AnalyzeChurn sends one churn-analysis request and returns the raw
	// model text. The caller is responsible for parsing it into a ChurnReport.
	AnalyzeChurn(ctx context.Context, req ChurnRequest) (string, error)
	// Name returns the provider identifier (e.g., "gemini", "anthropic").
	Name() string
}

// ChurnRequest is the input to an AI churn-analysis operation. Prompts are
// built by the analysis service; providers only decide how to attach the file
// (inline data for APIs that support it, appended text otherwise).
type ChurnRequest struct {
	SystemPrompt  string
	UserMessage   string
	Filename      string
	MimeType      string // declared media type of the attached file, "text/csv"
	FileContent   []byte
	CustomerCount int // row count computed directly from the CSV
}
