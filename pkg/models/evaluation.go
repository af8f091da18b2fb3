// Package models provides domain types for the Evaldeck evaluation dashboard.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Key prefixes for the evaluation table. The partition key groups records
// by run, the sort key orders them by wall-clock time. The sort key uses a
// fixed-width millisecond timestamp so lexical order equals chronological
// order.
const (
	PartitionKeyPrefix = "RUN#"
	SortKeyPrefix      = "TIME#"

	sortKeyTimeLayout = "2006-01-02T15:04:05.000Z"
)

// EvaluationRecord is one persisted evaluation of an agent answer.
//
// Records are created exactly once after a generation call and are never
// updated or deleted. (PK, SK) is unique and immutable; multiple records
// may share the same Query text across runs, which is the expected case
// for repeated evaluation under varying prompt configurations.
type EvaluationRecord struct {
	// PK is "RUN#<runId>".
	PK string `json:"PK" dynamodbav:"PK"`

	// SK is "TIME#<timestamp>" where the timestamp is a fixed-width
	// millisecond UTC instant.
	SK string `json:"SK" dynamodbav:"SK"`

	// Query is the developer's question text.
	Query string `json:"query" dynamodbav:"query"`

	// Response is the agent's answer text.
	Response string `json:"response" dynamodbav:"response"`

	// LatencyMs is the client-observed round-trip time of the
	// generation call in milliseconds. Never negative.
	LatencyMs int64 `json:"latencyMs" dynamodbav:"latencyMs"`

	// RunID is the logical batch identifier for a group of evaluations.
	RunID string `json:"runId" dynamodbav:"runId"`

	// Prompt-configuration snapshot, captured at write time so later
	// analysis can correlate answer quality with the exact prompt
	// configuration used. All optional.
	Model                         string `json:"model,omitempty" dynamodbav:"model,omitempty"`
	Role                          string `json:"role,omitempty" dynamodbav:"role,omitempty"`
	CommunicationGuideline        string `json:"communicationGuideline,omitempty" dynamodbav:"communicationGuideline,omitempty"`
	ContextClarificationGuideline string `json:"contextClarificationGuideline,omitempty" dynamodbav:"contextClarificationGuideline,omitempty"`
	HandoverEscalationGuideline   string `json:"handoverEscalationGuideline,omitempty" dynamodbav:"handoverEscalationGuideline,omitempty"`
}

// RecordStats summarizes a scanned set of evaluation records. The figures
// cover only the returned set, not the whole table.
type RecordStats struct {
	// TotalCount is the number of records in the set.
	TotalCount int `json:"totalCount"`

	// AvgLatency is the mean LatencyMs rounded to the nearest integer.
	AvgLatency int64 `json:"avgLatency"`

	// UniqueQueries is the number of distinct Query values in the set.
	UniqueQueries int `json:"uniqueQueries"`
}

// PartitionKey derives the partition key for a run.
func PartitionKey(runID string) string {
	return PartitionKeyPrefix + runID
}

// SortKey derives the sort key for a recording instant.
func SortKey(t time.Time) string {
	return SortKeyPrefix + t.UTC().Format(sortKeyTimeLayout)
}

// SortKeyTime extracts the recording instant from a sort key.
func SortKeyTime(sk string) (time.Time, error) {
	raw, ok := strings.CutPrefix(sk, SortKeyPrefix)
	if !ok {
		return time.Time{}, fmt.Errorf("sort key %q missing %q prefix", sk, SortKeyPrefix)
	}
	t, err := time.Parse(sortKeyTimeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse sort key time: %w", err)
	}
	return t, nil
}

// Key returns the record's composite key.
func (r *EvaluationRecord) Key() (pk, sk string) {
	return r.PK, r.SK
}

// DisplayRunID strips the conventional "run-" prefix for display.
func (r *EvaluationRecord) DisplayRunID() string {
	return strings.TrimPrefix(r.RunID, "run-")
}

// PromptFields returns the snapshot guideline fields in display order.
func (r *EvaluationRecord) PromptFields() []string {
	return []string{
		r.Role,
		r.CommunicationGuideline,
		r.ContextClarificationGuideline,
		r.HandoverEscalationGuideline,
	}
}
