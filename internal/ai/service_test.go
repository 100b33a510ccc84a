package ai

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/retainhq/churnscope/internal/ai/mock"
	"github.com/retainhq/churnscope/internal/store"
	"github.com/retainhq/churnscope/internal/upload"
	"github.com/retainhq/churnscope/pkg/models"
)

const csvFiveRows = "customer_id,age,support_calls\n" +
	"CUST001,35,2\nCUST002,28,5\nCUST003,45,1\nCUST004,31,8\nCUST005,52,3\n"

// --- mocks ---

// memStore applies updates with the same transition rules as PostgresStore.
type memStore struct {
	mu        sync.Mutex
	analyses  map[string]*models.Analysis
	createErr error
}

func newMemStore() *memStore {
	return &memStore{analyses: make(map[string]*models.Analysis)}
}

func (s *memStore) Ping(_ context.Context) error { return nil }

func (s *memStore) CreateAnalysis(_ context.Context, a *models.Analysis) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.analyses[a.AnalysisID] = &cp
	return nil
}

func (s *memStore) GetAnalysis(_ context.Context, id string) (*models.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.analyses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *memStore) ListAnalyses(_ context.Context, limit int) ([]*models.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.Analysis{}
	for _, a := range s.analyses {
		cp := *a
		out = append(out, &cp)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *memStore) UpdateAnalysisStatus(_ context.Context, id string, status string, opts ...store.AnalysisUpdateOption) error {
	params := store.ApplyOptions(opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.analyses[id]
	if !ok {
		return store.ErrNotFound
	}
	if a.Status != models.StatusProcessing {
		return errors.New("invalid analysis status transition")
	}

	a.Status = status
	now := time.Now().UTC()
	a.CompletedAt = &now
	if params.Report != nil {
		a.TotalCustomers = params.Report.TotalCustomers
		a.HighRiskCustomers = params.Report.HighRiskCustomers
		a.Predictions = params.Report.Predictions
		a.Insights = params.Report.Insights
		a.Recommendations = params.Report.Recommendations
	}
	if params.TotalCustomers != nil {
		a.TotalCustomers = params.TotalCustomers
	}
	if params.ErrorMessage != nil {
		a.Error = params.ErrorMessage
	}
	if params.RawResponse != nil {
		a.RawResponse = params.RawResponse
	}
	return nil
}

func (s *memStore) DeleteAnalysis(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.analyses[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.analyses, id)
	return nil
}

type memCache struct {
	mu       sync.Mutex
	statuses map[string]string
}

func newMemCache() *memCache {
	return &memCache{statuses: make(map[string]string)}
}

func (c *memCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil }
func (c *memCache) Get(_ context.Context, _ string) ([]byte, bool, error)            { return nil, false, nil }
func (c *memCache) Delete(_ context.Context, _ string) error                          { return nil }
func (c *memCache) Ping(_ context.Context) error                                      { return nil }
func (c *memCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 0, nil
}

func (c *memCache) SetAnalysisStatus(_ context.Context, id string, status string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[id] = status
	return nil
}

func (c *memCache) GetAnalysisStatus(_ context.Context, id string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.statuses[id]
	return s, ok, nil
}

func (c *memCache) DeleteAnalysisStatus(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.statuses, id)
	return nil
}

// --- helpers ---

type fixture struct {
	svc   *AnalysisService
	store *memStore
	cache *memCache
	files *upload.Storage
}

func newFixture(t *testing.T, provider models.AIProvider) *fixture {
	t.Helper()
	files, err := upload.NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	st := newMemStore()
	ca := newMemCache()
	return &fixture{
		svc:   NewAnalysisService(provider, st, ca, files, 5*time.Second),
		store: st,
		cache: ca,
		files: files,
	}
}

// waitTerminal polls the store until the analysis leaves processing.
func waitTerminal(t *testing.T, st *memStore, id string) *models.Analysis {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		a, err := st.GetAnalysis(context.Background(), id)
		if err == nil && models.IsTerminal(a.Status) {
			return a
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("analysis %s never reached a terminal state", id)
	return nil
}

func jsonProvider(raw string) *mock.MockProvider {
	return mock.NewCannedProvider(raw)
}

const validReport = `{
  "total_customers": 5,
  "high_risk_customers": 2,
  "predictions": [
    {"customer_id": "CUST002", "churn_probability": 0.85, "risk_level": "High",
     "key_factors": ["support_calls"], "recommended_actions": ["Outreach"]},
    {"customer_id": "CUST004", "churn_probability": 0.78, "risk_level": "High",
     "key_factors": ["satisfaction"], "recommended_actions": ["Discount"]}
  ],
  "insights": "Two customers are at high risk.",
  "recommendations": "Focus on support experience."
}`

// --- tests ---

func TestSubmit_ReturnsImmediatelyWithProcessing(t *testing.T) {
	blocked := make(chan struct{})
	f := newFixture(t, &mock.MockProvider{Name_: "slow", AnalyzeChurnFunc: func(_ context.Context, _ models.ChurnRequest) (string, error) {
		<-blocked
		return validReport, nil
	}})
	defer close(blocked)

	analysis, err := f.svc.Submit(context.Background(), "test_customers.csv", []byte(csvFiveRows))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if analysis.AnalysisID == "" {
		t.Fatal("expected a generated analysis_id")
	}
	if analysis.Status != models.StatusProcessing {
		t.Errorf("expected processing, got %q", analysis.Status)
	}

	got, err := f.svc.GetAnalysis(context.Background(), analysis.AnalysisID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != models.StatusProcessing {
		t.Errorf("immediate poll should see processing, got %q", got.Status)
	}
}

func TestSubmit_RejectsNonCSV(t *testing.T) {
	f := newFixture(t, jsonProvider(validReport))

	_, err := f.svc.Submit(context.Background(), "customers.xlsx", []byte("data"))
	if !errors.Is(err, ErrInvalidFileType) {
		t.Fatalf("expected ErrInvalidFileType, got %v", err)
	}

	// No record may exist after a rejected submit.
	list, _ := f.store.ListAnalyses(context.Background(), 20)
	if len(list) != 0 {
		t.Errorf("expected no records, got %d", len(list))
	}
}

func TestSubmit_UniqueIDs(t *testing.T) {
	f := newFixture(t, jsonProvider(validReport))
	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		a, err := f.svc.Submit(context.Background(), "test_customers.csv", []byte(csvFiveRows))
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if seen[a.AnalysisID] {
			t.Fatalf("duplicate analysis_id %s", a.AnalysisID)
		}
		seen[a.AnalysisID] = true
	}
}

func TestAnalysis_CompletesWithReport(t *testing.T) {
	f := newFixture(t, jsonProvider(validReport))

	a, err := f.svc.Submit(context.Background(), "test_customers.csv", []byte(csvFiveRows))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	got := waitTerminal(t, f.store, a.AnalysisID)
	if got.Status != models.StatusCompleted {
		t.Fatalf("expected completed, got %q (error: %v)", got.Status, got.Error)
	}
	if got.TotalCustomers == nil || *got.TotalCustomers != 5 {
		t.Errorf("expected total_customers=5, got %v", got.TotalCustomers)
	}
	if got.HighRiskCustomers == nil || *got.HighRiskCustomers != 2 {
		t.Errorf("expected high_risk_customers=2, got %v", got.HighRiskCustomers)
	}
	if len(got.Predictions) != 2 {
		t.Errorf("expected 2 predictions, got %d", len(got.Predictions))
	}
	if got.CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}
	if got.Error != nil {
		t.Errorf("completed analysis must not carry an error, got %q", *got.Error)
	}

	status, ok, _ := f.cache.GetAnalysisStatus(context.Background(), a.AnalysisID)
	if !ok || status != models.StatusCompleted {
		t.Errorf("cache should hold completed, got %q (found=%v)", status, ok)
	}
}

func TestAnalysis_FencedResponseParsesIdentically(t *testing.T) {
	f := newFixture(t, mock.NewFencedProvider())

	a, _ := f.svc.Submit(context.Background(), "test_customers.csv", []byte(csvFiveRows))
	got := waitTerminal(t, f.store, a.AnalysisID)

	if got.Status != models.StatusCompleted {
		t.Fatalf("expected completed, got %q", got.Status)
	}
	if got.TotalCustomers == nil || *got.TotalCustomers != 5 {
		t.Errorf("expected total_customers=5, got %v", got.TotalCustomers)
	}
}

func TestAnalysis_MissingFieldsGetDefaults(t *testing.T) {
	f := newFixture(t, jsonProvider(`{"insights": "Sparse answer."}`))

	a, _ := f.svc.Submit(context.Background(), "test_customers.csv", []byte(csvFiveRows))
	got := waitTerminal(t, f.store, a.AnalysisID)

	if got.Status != models.StatusCompleted {
		t.Fatalf("expected completed, got %q", got.Status)
	}
	if got.TotalCustomers == nil || *got.TotalCustomers != 5 {
		t.Errorf("total_customers should default to the computed row count, got %v", got.TotalCustomers)
	}
	if got.HighRiskCustomers == nil || *got.HighRiskCustomers != 0 {
		t.Errorf("high_risk_customers should default to 0, got %v", got.HighRiskCustomers)
	}
	if got.Predictions == nil || len(got.Predictions) != 0 {
		t.Errorf("predictions should default to empty, got %v", got.Predictions)
	}
	if got.Recommendations == nil || *got.Recommendations != "" {
		t.Errorf("recommendations should default to empty string, got %v", got.Recommendations)
	}
}

func TestAnalysis_UnparsableResponseCompletesWithErrors(t *testing.T) {
	raw := "I am terribly sorry, but JSON eludes me today."
	f := newFixture(t, jsonProvider(raw))

	a, _ := f.svc.Submit(context.Background(), "test_customers.csv", []byte(csvFiveRows))
	got := waitTerminal(t, f.store, a.AnalysisID)

	if got.Status != models.StatusCompletedWithErrors {
		t.Fatalf("expected completed_with_errors, got %q", got.Status)
	}
	if got.RawResponse == nil || *got.RawResponse != raw {
		t.Errorf("raw_response must hold the exact text received, got %v", got.RawResponse)
	}
	if got.Error == nil || !strings.Contains(*got.Error, "JSON parsing error") {
		t.Errorf("expected JSON parsing error, got %v", got.Error)
	}
	if got.TotalCustomers == nil || *got.TotalCustomers != 5 {
		t.Errorf("total_customers must still come from the direct row count, got %v", got.TotalCustomers)
	}
	if got.CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}
}

func TestAnalysis_ProviderErrorFailsJob(t *testing.T) {
	f := newFixture(t, mock.NewFailingProvider(errors.New("GEMINI_API_KEY not found in environment variables")))

	a, _ := f.svc.Submit(context.Background(), "test_customers.csv", []byte(csvFiveRows))
	got := waitTerminal(t, f.store, a.AnalysisID)

	if got.Status != models.StatusFailed {
		t.Fatalf("expected failed, got %q", got.Status)
	}
	if got.Error == nil || !strings.Contains(*got.Error, "GEMINI_API_KEY") {
		t.Errorf("expected credential error text, got %v", got.Error)
	}
	if got.Predictions != nil {
		t.Error("failed analysis must not carry predictions")
	}
}

func TestAnalysis_MalformedCSVFailsJob(t *testing.T) {
	f := newFixture(t, jsonProvider(validReport))

	a, _ := f.svc.Submit(context.Background(), "broken.csv", []byte("a,b\n\"unterminated,1\n"))
	got := waitTerminal(t, f.store, a.AnalysisID)

	if got.Status != models.StatusFailed {
		t.Fatalf("expected failed, got %q", got.Status)
	}
	if got.Error == nil || !strings.Contains(*got.Error, "parsing uploaded file") {
		t.Errorf("expected parse failure text, got %v", got.Error)
	}
}

func TestAnalysis_MissingFileFailsJob(t *testing.T) {
	f := newFixture(t, jsonProvider(validReport))

	a, err := f.svc.Submit(context.Background(), "test_customers.csv", []byte(csvFiveRows))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Yank the file out from under the analyzer. The submit goroutine may
	// have already read it, so force a fresh run against the missing path.
	stored, _ := f.store.GetAnalysis(context.Background(), a.AnalysisID)
	waitTerminal(t, f.store, a.AnalysisID)

	b := &models.Analysis{
		AnalysisID: "second-run",
		Filename:   "test_customers.csv",
		FilePath:   stored.FilePath + ".gone",
		Status:     models.StatusProcessing,
		CreatedAt:  time.Now().UTC(),
	}
	if err := f.store.CreateAnalysis(context.Background(), b); err != nil {
		t.Fatalf("create: %v", err)
	}
	f.svc.runAnalysis(b.AnalysisID, b.FilePath, b.Filename)

	got, _ := f.store.GetAnalysis(context.Background(), b.AnalysisID)
	if got.Status != models.StatusFailed {
		t.Fatalf("expected failed, got %q", got.Status)
	}
	if got.Error == nil || !strings.Contains(*got.Error, "reading uploaded file") {
		t.Errorf("expected read failure text, got %v", got.Error)
	}
}

func TestAnalysis_TimeoutFailsJob(t *testing.T) {
	files, err := upload.NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	st := newMemStore()
	svc := NewAnalysisService(mock.NewBlockingProvider(), st, newMemCache(), files, 20*time.Millisecond)

	a, err := svc.Submit(context.Background(), "test_customers.csv", []byte(csvFiveRows))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	got := waitTerminal(t, st, a.AnalysisID)
	if got.Status != models.StatusFailed {
		t.Fatalf("expected failed after timeout, got %q", got.Status)
	}
}

func TestAnalysis_DeleteMidFlightDropsResult(t *testing.T) {
	release := make(chan struct{})
	f := newFixture(t, &mock.MockProvider{Name_: "slow", AnalyzeChurnFunc: func(_ context.Context, _ models.ChurnRequest) (string, error) {
		<-release
		return validReport, nil
	}})

	a, err := f.svc.Submit(context.Background(), "test_customers.csv", []byte(csvFiveRows))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := f.svc.Delete(context.Background(), a.AnalysisID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	close(release)

	// The analyzer's late write must not resurrect the record.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, err := f.store.GetAnalysis(context.Background(), a.AnalysisID); !errors.Is(err, store.ErrNotFound) {
			t.Fatal("deleted analysis reappeared")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestDelete_MissingFileStillRemovesRecord(t *testing.T) {
	f := newFixture(t, jsonProvider(validReport))

	a, _ := f.svc.Submit(context.Background(), "test_customers.csv", []byte(csvFiveRows))
	waitTerminal(t, f.store, a.AnalysisID)

	stored, _ := f.store.GetAnalysis(context.Background(), a.AnalysisID)
	if err := os.Remove(stored.FilePath); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if err := f.svc.Delete(context.Background(), a.AnalysisID); err != nil {
		t.Fatalf("delete with missing file: %v", err)
	}
	if _, err := f.svc.GetAnalysis(context.Background(), a.AnalysisID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestDelete_UnknownID(t *testing.T) {
	f := newFixture(t, jsonProvider(validReport))
	err := f.svc.Delete(context.Background(), "nope")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSubmit_SavesFileUnderPrefixedName(t *testing.T) {
	f := newFixture(t, jsonProvider(validReport))

	a, err := f.svc.Submit(context.Background(), "test_customers.csv", []byte(csvFiveRows))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	stored, _ := f.store.GetAnalysis(context.Background(), a.AnalysisID)
	want := a.AnalysisID + "_test_customers.csv"
	if filepath.Base(stored.FilePath) != want {
		t.Errorf("expected stored name %q, got %q", want, filepath.Base(stored.FilePath))
	}
}
