package evals

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/haasonsaas/evaldeck/internal/observability"
	"github.com/haasonsaas/evaldeck/internal/store"
	"github.com/haasonsaas/evaldeck/internal/upstream"
	"github.com/haasonsaas/evaldeck/pkg/models"
)

// SubmissionInput is one developer question with its prompt configuration.
type SubmissionInput struct {
	Question   string
	ModelLabel string
	RunID      string
	Guidelines Guidelines
}

// GenerationResult is the outcome of a generation call.
type GenerationResult struct {
	// Answer is the displayable answer: the extracted output on
	// success, or a synthesized error string on a non-2xx status.
	Answer string

	// LatencyMs is the wall-clock time around the upstream call.
	LatencyMs int64

	// StatusCode is the upstream HTTP status.
	StatusCode int

	// Failed reports the non-2xx path. This is a user-visible failure,
	// not an error: transport failures return an error instead.
	Failed bool
}

// Runner drives evaluations end to end. A nil Store is the valid
// unconfigured state: generation still works, recording is skipped.
type Runner struct {
	Upstream *upstream.Client
	Store    store.RecordStore
	Logger   *slog.Logger
	Metrics  *observability.Metrics

	// now is the wall clock, overridable in tests.
	now func() time.Time
}

// NewRunner creates a runner.
func NewRunner(client *upstream.Client, recordStore store.RecordStore, logger *slog.Logger, metrics *observability.Metrics) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		Upstream: client,
		Store:    recordStore,
		Logger:   logger,
		Metrics:  metrics,
		now:      time.Now,
	}
}

// Generate invokes the agent endpoint and interprets the reply. Latency is
// measured strictly around the upstream call, so it is a client-observed
// round trip, not a server-reported figure.
func (r *Runner) Generate(ctx context.Context, input SubmissionInput) (*GenerationResult, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, fmt.Errorf("question is required")
	}
	if r.Upstream == nil {
		return nil, fmt.Errorf("upstream client not configured")
	}

	payload := BuildInvocationRequest(input.Question, input.ModelLabel, input.Guidelines)
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal invocation payload: %w", err)
	}

	start := r.now()
	resp, err := r.Upstream.Invoke(ctx, body)
	elapsed := r.now().Sub(start)
	if err != nil {
		if r.Metrics != nil {
			r.Metrics.UpstreamRequest("unavailable", elapsed)
		}
		return nil, err
	}
	latencyMs := elapsed.Milliseconds()
	if r.Metrics != nil {
		r.Metrics.UpstreamRequest(fmt.Sprintf("%d", resp.StatusCode), elapsed)
	}

	result := &GenerationResult{
		LatencyMs:  latencyMs,
		StatusCode: resp.StatusCode,
	}
	if resp.OK() {
		result.Answer = ExtractDisplayAnswer(resp.Body)
	} else {
		result.Answer = fmt.Sprintf("Error: %d %s - %s", resp.StatusCode, http.StatusText(resp.StatusCode), resp.Body)
		result.Failed = true
	}

	r.Logger.Debug("generation finished",
		"status", resp.StatusCode,
		"latency_ms", latencyMs,
		"failed", result.Failed,
	)
	return result, nil
}

// Record persists the evaluation together with the prompt-configuration
// snapshot. When the store is unconfigured the write is skipped and
// reported as such, never as an error.
func (r *Runner) Record(ctx context.Context, input SubmissionInput, result *GenerationResult) (skipped bool, err error) {
	if r.Store == nil {
		r.Logger.Info("record store not configured, skipping write", "run_id", input.RunID)
		return true, nil
	}

	record := &models.EvaluationRecord{
		Query:                         input.Question,
		Response:                      result.Answer,
		LatencyMs:                     result.LatencyMs,
		RunID:                         input.RunID,
		Model:                         NormalizeModelLabel(input.ModelLabel),
		Role:                          input.Guidelines.Role,
		CommunicationGuideline:        input.Guidelines.Communication,
		ContextClarificationGuideline: input.Guidelines.ContextClarification,
		HandoverEscalationGuideline:   input.Guidelines.HandoverEscalation,
	}
	if err := r.Store.Put(ctx, record); err != nil {
		return false, fmt.Errorf("record evaluation: %w", err)
	}
	if r.Metrics != nil {
		r.Metrics.EvaluationRecorded()
	}
	r.Logger.Info("evaluation recorded", "pk", record.PK, "sk", record.SK, "latency_ms", record.LatencyMs)
	return false, nil
}

// ExtractDisplayAnswer interprets an upstream body for display. When the
// body is a JSON object with a string "output" field, that value is the
// answer; in every other case (non-JSON text, JSON without the field, a
// non-string field) the raw body text is used unchanged.
func ExtractDisplayAnswer(body []byte) string {
	var parsed map[string]json.RawMessage
	if err := json.Unmarshal(body, &parsed); err != nil {
		return string(body)
	}
	raw, ok := parsed["output"]
	if !ok {
		return string(body)
	}
	var output string
	if err := json.Unmarshal(raw, &output); err != nil {
		return string(body)
	}
	return output
}
