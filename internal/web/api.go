package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/haasonsaas/evaldeck/internal/store"
	"github.com/haasonsaas/evaldeck/internal/upstream"
	"github.com/haasonsaas/evaldeck/pkg/models"
)

// EvaluationListResponse is the JSON response for the evaluation list.
type EvaluationListResponse struct {
	Items []*models.EvaluationRecord `json:"items"`
	Stats models.RecordStats         `json:"stats"`
}

// EvaluationItemResponse is the JSON response for a single-record lookup.
type EvaluationItemResponse struct {
	Item *models.EvaluationRecord `json:"item"`
}

// recordEvalRequest is the JSON body for recording an evaluation. Pointer
// fields distinguish missing keys from zero values.
type recordEvalRequest struct {
	Query     *string `json:"query"`
	Response  *string `json:"response"`
	LatencyMs *int64  `json:"latencyMs"`
	RunID     *string `json:"runId"`

	Model                         string `json:"model,omitempty"`
	Role                          string `json:"role,omitempty"`
	CommunicationGuideline        string `json:"communicationGuideline,omitempty"`
	ContextClarificationGuideline string `json:"contextClarificationGuideline,omitempty"`
	HandoverEscalationGuideline   string `json:"handoverEscalationGuideline,omitempty"`
}

// apiGetEvaluations handles GET /api/get-evaluations.
func (h *Handler) apiGetEvaluations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.config.Store == nil {
		h.jsonError(w, "Record store not configured", http.StatusInternalServerError)
		return
	}

	limit := parseIntParam(r, "limit", 50)
	if limit < 1 || limit > 100 {
		limit = 50
	}

	result, err := h.config.Store.ScanRecent(r.Context(), int32(limit))
	if err != nil {
		h.config.Logger.Error("scan evaluations failed", "error", err)
		h.jsonError(w, "Failed to load evaluations", http.StatusInternalServerError)
		return
	}

	items := result.Items
	stats := result.Stats

	start, startOK, _ := parseDateParam(r, "startDate")
	end, endOK, endDateOnly := parseDateParam(r, "endDate")
	if startOK || endOK {
		if endDateOnly {
			// A bare calendar date is inclusive of that whole day.
			end = end.Add(24*time.Hour - time.Millisecond)
		}
		items = filterByDate(items, start, startOK, end, endOK)
		stats = store.ComputeStats(items)
	}

	h.jsonResponse(w, EvaluationListResponse{Items: items, Stats: stats})
}

// apiGetEvaluation handles GET /api/get-evaluation.
func (h *Handler) apiGetEvaluation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.config.Store == nil {
		h.jsonError(w, "Record store not configured", http.StatusInternalServerError)
		return
	}

	pk := r.URL.Query().Get("pk")
	sk := r.URL.Query().Get("sk")
	if pk == "" || sk == "" {
		h.jsonError(w, "Missing pk or sk parameter", http.StatusBadRequest)
		return
	}

	record, err := h.config.Store.GetByKey(r.Context(), pk, sk)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.jsonError(w, "Evaluation not found", http.StatusNotFound)
			return
		}
		h.config.Logger.Error("get evaluation failed", "error", err, "pk", pk, "sk", sk)
		h.jsonError(w, "Failed to load evaluation", http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, EvaluationItemResponse{Item: record})
}

// apiRecordEval handles POST /api/record-eval.
func (h *Handler) apiRecordEval(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req recordEvalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Query == nil || req.Response == nil || req.LatencyMs == nil || req.RunID == nil {
		h.jsonError(w, "Missing required fields: query, response, latencyMs, runId", http.StatusBadRequest)
		return
	}

	if h.config.Store == nil {
		// Running without a store is a supported deployment; the write is
		// acknowledged but skipped.
		h.jsonResponse(w, map[string]any{"ok": true, "skipped": true})
		return
	}

	record := &models.EvaluationRecord{
		Query:                         *req.Query,
		Response:                      *req.Response,
		LatencyMs:                     *req.LatencyMs,
		RunID:                         *req.RunID,
		Model:                         req.Model,
		Role:                          req.Role,
		CommunicationGuideline:        req.CommunicationGuideline,
		ContextClarificationGuideline: req.ContextClarificationGuideline,
		HandoverEscalationGuideline:   req.HandoverEscalationGuideline,
	}
	if err := h.config.Store.Put(r.Context(), record); err != nil {
		h.config.Logger.Error("record evaluation failed", "error", err, "run_id", record.RunID)
		h.jsonError(w, "Failed to record evaluation", http.StatusInternalServerError)
		return
	}
	if h.config.Metrics != nil {
		h.config.Metrics.EvaluationRecorded()
	}

	h.jsonResponse(w, map[string]any{"ok": true})
}

// apiLambdaProxy handles POST /api/lambda-proxy. The request body is
// forwarded to the agent endpoint verbatim and the upstream response is
// relayed back with its original status code.
func (h *Handler) apiLambdaProxy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.config.Upstream == nil {
		h.jsonError(w, "Upstream endpoint not configured", http.StatusBadGateway)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.jsonError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	if !json.Valid(body) {
		h.jsonError(w, "Request body must be valid JSON", http.StatusBadRequest)
		return
	}

	resp, err := h.config.Upstream.Invoke(r.Context(), body)
	if err != nil {
		if errors.Is(err, upstream.ErrUnavailable) {
			h.config.Logger.Error("upstream unreachable", "error", err)
			h.jsonError(w, "Upstream endpoint unavailable", http.StatusBadGateway)
			return
		}
		h.config.Logger.Error("upstream invocation failed", "error", err)
		h.jsonError(w, "Upstream invocation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(resp.StatusCode)
	w.Write(resp.Body)
}

// jsonResponse writes a JSON response.
func (h *Handler) jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.config.Logger.Error("json encode error", "error", err)
	}
}

// jsonError writes a JSON error response.
func (h *Handler) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// Helper functions

func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	result := 0
	for _, c := range val {
		if c < '0' || c > '9' {
			return defaultVal
		}
		result = result*10 + int(c-'0')
	}
	return result
}

// parseDateParam parses a date query parameter, accepting either a bare
// calendar date or a full RFC 3339 timestamp. dateOnly reports which form
// matched, so an RFC 3339 instant that happens to fall on midnight is not
// mistaken for a whole-day bound.
func parseDateParam(r *http.Request, name string) (t time.Time, ok, dateOnly bool) {
	val := r.URL.Query().Get(name)
	if val == "" {
		return time.Time{}, false, false
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t.UTC(), true, false
	}
	if t, err := time.Parse("2006-01-02", val); err == nil {
		return t.UTC(), true, true
	}
	return time.Time{}, false, false
}

// filterByDate keeps records whose sort-key timestamp falls inside the
// requested window.
func filterByDate(items []*models.EvaluationRecord, start time.Time, startOK bool, end time.Time, endOK bool) []*models.EvaluationRecord {
	filtered := make([]*models.EvaluationRecord, 0, len(items))
	for _, rec := range items {
		ts, err := models.SortKeyTime(rec.SK)
		if err != nil {
			continue
		}
		if startOK && ts.Before(start) {
			continue
		}
		if endOK && ts.After(end) {
			continue
		}
		filtered = append(filtered, rec)
	}
	return filtered
}
