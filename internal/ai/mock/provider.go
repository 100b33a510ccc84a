// Package mock provides an AIProvider test double.
package mock

import (
	"context"

	"github.com/retainhq/churnscope/pkg/models"
)

// MockProvider satisfies models.AIProvider for testing.
type MockProvider struct {
	Name_            string
	AnalyzeChurnFunc func(ctx context.Context, req models.ChurnRequest) (string, error)
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) AnalyzeChurn(ctx context.Context, req models.ChurnRequest) (string, error) {
	if m.AnalyzeChurnFunc != nil {
		return m.AnalyzeChurnFunc(ctx, req)
	}
	return "{}", nil
}

// NewMockProvider returns a MockProvider that answers with a small valid report.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock",
		AnalyzeChurnFunc: func(_ context.Context, req models.ChurnRequest) (string, error) {
			return `{
  "total_customers": 5,
  "high_risk_customers": 1,
  "predictions": [
    {
      "customer_id": "CUST004",
      "customer_name": "Alice Brown",
      "churn_probability": 0.82,
      "risk_level": "High",
      "key_factors": ["support_calls", "customer_satisfaction"],
      "recommended_actions": ["Priority support follow-up"]
    }
  ],
  "insights": "Customers with many support calls and low satisfaction churn most.",
  "recommendations": "Target retention offers at high support-call customers."
}`, nil
		},
	}
}

// NewFencedProvider wraps the default mock response in a ```json code fence.
func NewFencedProvider() *MockProvider {
	inner := NewMockProvider()
	return &MockProvider{
		Name_: "mock-fenced",
		AnalyzeChurnFunc: func(ctx context.Context, req models.ChurnRequest) (string, error) {
			raw, err := inner.AnalyzeChurn(ctx, req)
			if err != nil {
				return "", err
			}
			return "```json\n" + raw + "\n```", nil
		},
	}
}

// NewCannedProvider returns a MockProvider that always answers with raw.
func NewCannedProvider(raw string) *MockProvider {
	return &MockProvider{
		Name_: "mock",
		AnalyzeChurnFunc: func(_ context.Context, _ models.ChurnRequest) (string, error) {
			return raw, nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		AnalyzeChurnFunc: func(_ context.Context, _ models.ChurnRequest) (string, error) {
			return "", err
		},
	}
}

// NewBlockingProvider returns a MockProvider that blocks until the context is
// cancelled, simulating a hung external service.
func NewBlockingProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock-blocking",
		AnalyzeChurnFunc: func(ctx context.Context, _ models.ChurnRequest) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
}

// Compile-time check that MockProvider implements AIProvider.
var _ models.AIProvider = (*MockProvider)(nil)
