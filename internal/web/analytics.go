package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/haasonsaas/evaldeck/internal/store"
	"github.com/haasonsaas/evaldeck/pkg/models"
)

// Truncation widths by display context.
const (
	previewWidth    = 80
	comparisonWidth = 150
	badgeWidth      = 24
)

// AnalyticsViewResponse is the JSON response for the analytics view.
// Grouped mode fills Groups; flat mode fills Records.
type AnalyticsViewResponse struct {
	Groups  []*QueryGroup      `json:"groups,omitempty"`
	Records []*MemberRow       `json:"records,omitempty"`
	Stats   models.RecordStats `json:"stats"`
}

// QueryGroup is one summary row plus its member records, grouped by exact
// query text.
type QueryGroup struct {
	Query   string       `json:"query"`
	Preview string       `json:"preview"`
	Count   int          `json:"count"`
	Members []*MemberRow `json:"members"`
}

// MemberRow is one record inside a group, with truncated previews.
type MemberRow struct {
	PK              string `json:"pk"`
	SK              string `json:"sk"`
	RunID           string `json:"runId"`
	Model           string `json:"model,omitempty"`
	ResponsePreview string `json:"responsePreview"`
	PromptBadge     string `json:"promptBadge"`
	LatencyMs       int64  `json:"latencyMs"`
}

// AnalyticsDetailResponse is the JSON response for the record detail view.
type AnalyticsDetailResponse struct {
	Record  *models.EvaluationRecord `json:"record"`
	Related []*ComparisonRow         `json:"related"`
}

// ComparisonRow is a related record sharing the same query text.
type ComparisonRow struct {
	PK              string `json:"pk"`
	SK              string `json:"sk"`
	RunID           string `json:"runId"`
	Model           string `json:"model,omitempty"`
	ResponsePreview string `json:"responsePreview"`
	PromptBadge     string `json:"promptBadge"`
	LatencyMs       int64  `json:"latencyMs"`
}

// Truncate shortens s to at most n characters, appending a single ellipsis
// when anything was cut. Counting is by rune, not byte.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

// FilterRecords keeps records whose query or response contains the filter
// substring, case-insensitively. An empty filter keeps everything.
func FilterRecords(items []*models.EvaluationRecord, filter string) []*models.EvaluationRecord {
	if filter == "" {
		return items
	}
	needle := strings.ToLower(filter)
	matched := make([]*models.EvaluationRecord, 0, len(items))
	for _, rec := range items {
		if strings.Contains(strings.ToLower(rec.Query), needle) ||
			strings.Contains(strings.ToLower(rec.Response), needle) {
			matched = append(matched, rec)
		}
	}
	return matched
}

// GroupByQuery groups records by exact query text, preserving first-appearance
// order of the queries and fetch order within each group.
func GroupByQuery(items []*models.EvaluationRecord) []*QueryGroup {
	index := make(map[string]*QueryGroup)
	groups := make([]*QueryGroup, 0)
	for _, rec := range items {
		g, ok := index[rec.Query]
		if !ok {
			g = &QueryGroup{
				Query:   rec.Query,
				Preview: Truncate(rec.Query, previewWidth),
			}
			index[rec.Query] = g
			groups = append(groups, g)
		}
		g.Members = append(g.Members, memberRow(rec))
		g.Count++
	}
	return groups
}

// PromptBadge builds a compact label from the non-empty guideline fields,
// joined by a bare pipe and truncated for display.
func PromptBadge(rec *models.EvaluationRecord) string {
	parts := make([]string, 0, 4)
	for _, field := range rec.PromptFields() {
		if field != "" {
			parts = append(parts, field)
		}
	}
	return Truncate(strings.Join(parts, "|"), badgeWidth)
}

// RelatedRecords returns all other records sharing the selected record's
// exact query text.
func RelatedRecords(items []*models.EvaluationRecord, selected *models.EvaluationRecord) []*ComparisonRow {
	related := make([]*ComparisonRow, 0)
	for _, rec := range items {
		if rec.Query != selected.Query {
			continue
		}
		if rec.PK == selected.PK && rec.SK == selected.SK {
			continue
		}
		related = append(related, &ComparisonRow{
			PK:              rec.PK,
			SK:              rec.SK,
			RunID:           rec.DisplayRunID(),
			Model:           rec.Model,
			ResponsePreview: Truncate(rec.Response, comparisonWidth),
			PromptBadge:     PromptBadge(rec),
			LatencyMs:       rec.LatencyMs,
		})
	}
	return related
}

func memberRow(rec *models.EvaluationRecord) *MemberRow {
	return &MemberRow{
		PK:              rec.PK,
		SK:              rec.SK,
		RunID:           rec.DisplayRunID(),
		Model:           rec.Model,
		ResponsePreview: Truncate(rec.Response, previewWidth),
		PromptBadge:     PromptBadge(rec),
		LatencyMs:       rec.LatencyMs,
	}
}

// apiAnalyticsView handles GET /api/analytics/view. Records are fetched,
// optionally filtered, then grouped by query text unless grouping is
// switched off. Filtering never triggers a wider fetch; it only narrows
// the already-bounded result set.
func (h *Handler) apiAnalyticsView(w http.ResponseWriter, r *http.Request) {
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

	items := FilterRecords(result.Items, r.URL.Query().Get("q"))
	stats := result.Stats
	if len(items) != len(result.Items) {
		stats = store.ComputeStats(items)
	}

	resp := AnalyticsViewResponse{Stats: stats}
	if grouped := r.URL.Query().Get("group"); grouped == "false" || grouped == "0" {
		rows := make([]*MemberRow, 0, len(items))
		for _, rec := range items {
			rows = append(rows, memberRow(rec))
		}
		resp.Records = rows
	} else {
		resp.Groups = GroupByQuery(items)
	}
	h.jsonResponse(w, resp)
}

// apiAnalyticsDetail handles GET /api/analytics/detail. It loads the
// selected record and cross-references the recent set for other evaluations
// of the same question.
func (h *Handler) apiAnalyticsDetail(w http.ResponseWriter, r *http.Request) {
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

	h.jsonResponse(w, AnalyticsDetailResponse{
		Record:  record,
		Related: RelatedRecords(result.Items, record),
	})
}
