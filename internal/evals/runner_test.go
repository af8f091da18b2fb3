package evals

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/haasonsaas/evaldeck/internal/store"
	"github.com/haasonsaas/evaldeck/internal/upstream"
	"github.com/haasonsaas/evaldeck/pkg/models"
)

func newTestRunner(t *testing.T, handler http.HandlerFunc, recordStore store.RecordStore) (*Runner, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := upstream.New(upstream.Config{URL: server.URL, APIKey: "k"})
	if err != nil {
		t.Fatalf("upstream.New() error: %v", err)
	}
	return NewRunner(client, recordStore, nil, nil), server
}

func TestExtractDisplayAnswer(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{"json with output", `{"output":"X"}`, "X"},
		{"plain text", "plain text", "plain text"},
		{"json without output", `{"other":1}`, `{"other":1}`},
		{"json with non-string output", `{"output":42}`, `{"output":42}`},
		{"json array", `[1,2,3]`, `[1,2,3]`},
		{"empty body", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractDisplayAnswer([]byte(tt.body)); got != tt.expected {
				t.Errorf("ExtractDisplayAnswer(%q) = %q, want %q", tt.body, got, tt.expected)
			}
		})
	}
}

func TestGenerateSuccess(t *testing.T) {
	var gotPayload InvocationRequest
	runner, _ := newTestRunner(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotPayload); err != nil {
			t.Errorf("invalid payload: %v", err)
		}
		w.Write([]byte(`{"output":"Check the redirect URI."}`))
	}, nil)

	result, err := runner.Generate(context.Background(), SubmissionInput{
		Question:   "Why does OAuth fail?",
		ModelLabel: "Claude 3 Haiku",
		RunID:      "run-1",
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if result.Answer != "Check the redirect URI." {
		t.Errorf("Answer = %q", result.Answer)
	}
	if result.Failed {
		t.Error("Failed = true on success")
	}
	if result.LatencyMs < 0 {
		t.Errorf("LatencyMs = %d, want non-negative", result.LatencyMs)
	}
	if gotPayload.Model != "claude-3-haiku" {
		t.Errorf("sent model = %q", gotPayload.Model)
	}
	if len(gotPayload.Messages) != 1 || gotPayload.Messages[0].Content != "Why does OAuth fail?" {
		t.Errorf("sent messages = %+v", gotPayload.Messages)
	}
}

func TestGenerateNonSuccessStatusSynthesizesError(t *testing.T) {
	runner, _ := newTestRunner(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("agent overloaded"))
	}, nil)

	result, err := runner.Generate(context.Background(), SubmissionInput{Question: "Q"})
	if err != nil {
		t.Fatalf("Generate() error: %v, non-2xx is a displayable failure", err)
	}
	if !result.Failed {
		t.Error("Failed = false for 503")
	}
	want := "Error: 503 Service Unavailable - agent overloaded"
	if result.Answer != want {
		t.Errorf("Answer = %q, want %q", result.Answer, want)
	}
}

func TestGenerateUnreachableUpstream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := upstream.New(upstream.Config{URL: url})
	if err != nil {
		t.Fatalf("upstream.New() error: %v", err)
	}
	runner := NewRunner(client, nil, nil, nil)

	_, err = runner.Generate(context.Background(), SubmissionInput{Question: "Q"})
	if !errors.Is(err, upstream.ErrUnavailable) {
		t.Errorf("Generate() error = %v, want ErrUnavailable", err)
	}
}

func TestGenerateRequiresQuestion(t *testing.T) {
	runner := NewRunner(nil, nil, nil, nil)
	if _, err := runner.Generate(context.Background(), SubmissionInput{Question: "   "}); err == nil {
		t.Error("Generate() with blank question expected error")
	}
}

func TestRecordSkipsWithoutStore(t *testing.T) {
	runner := NewRunner(nil, nil, nil, nil)
	skipped, err := runner.Record(context.Background(), SubmissionInput{RunID: "run-1"}, &GenerationResult{Answer: "A"})
	if err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	if !skipped {
		t.Error("skipped = false without a store")
	}
}

func TestRecordWritesSnapshot(t *testing.T) {
	memStore := store.NewMemoryRecordStore()
	runner := NewRunner(nil, memStore, nil, nil)

	input := SubmissionInput{
		Question:   "Q",
		ModelLabel: "GPT 5",
		RunID:      "run-9",
		Guidelines: Guidelines{
			Role:                 "R",
			Communication:        "C",
			ContextClarification: "X",
			HandoverEscalation:   "H",
		},
	}
	skipped, err := runner.Record(context.Background(), input, &GenerationResult{Answer: "A", LatencyMs: 777})
	if err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	if skipped {
		t.Error("skipped = true with a configured store")
	}

	result, err := memStore.ScanRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("ScanRecent() error: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("stored %d records, want 1", len(result.Items))
	}
	rec := result.Items[0]
	if rec.Query != "Q" || rec.Response != "A" || rec.LatencyMs != 777 || rec.RunID != "run-9" {
		t.Errorf("record = %+v", rec)
	}
	if rec.Model != "gpt-5" {
		t.Errorf("Model = %q, want normalized label", rec.Model)
	}
	if rec.Role != "R" || rec.CommunicationGuideline != "C" ||
		rec.ContextClarificationGuideline != "X" || rec.HandoverEscalationGuideline != "H" {
		t.Errorf("snapshot fields = %+v", rec)
	}
	if !strings.HasPrefix(rec.PK, "RUN#run-9") {
		t.Errorf("PK = %q", rec.PK)
	}
}

func TestRecordPropagatesStoreError(t *testing.T) {
	runner := NewRunner(nil, failingStore{}, nil, nil)
	_, err := runner.Record(context.Background(), SubmissionInput{}, &GenerationResult{})
	if err == nil {
		t.Error("Record() expected wrapped store error")
	}
}

// failingStore implements store.RecordStore with a failing Put.
type failingStore struct{}

func (failingStore) Put(ctx context.Context, record *models.EvaluationRecord) error {
	return errors.New("throttled")
}

func (failingStore) GetByKey(ctx context.Context, pk, sk string) (*models.EvaluationRecord, error) {
	return nil, store.ErrNotFound
}

func (failingStore) ScanRecent(ctx context.Context, limit int32) (*store.ScanResult, error) {
	return nil, errors.New("throttled")
}
