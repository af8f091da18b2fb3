// Package store persists evaluation records in a key-value table keyed by
// (partition key, sort key).
package store

import (
	"context"
	"errors"

	"github.com/haasonsaas/evaldeck/pkg/models"
)

// ErrNotFound is returned by point lookups when no record exists for the
// given key.
var ErrNotFound = errors.New("not found")

// ScanResult is a bounded page of records together with statistics derived
// from that page only.
type ScanResult struct {
	Items []*models.EvaluationRecord `json:"items"`
	Stats models.RecordStats         `json:"stats"`
}

// RecordStore persists evaluation records. Records are create-once: there
// is no update or delete path.
//
// Implementations must be safe for concurrent use.
type RecordStore interface {
	// Put derives the record's keys from its RunID and the current UTC
	// time when they are unset, then persists it. Underlying store
	// failures propagate wrapped; there is no retry.
	Put(ctx context.Context, record *models.EvaluationRecord) error

	// GetByKey is a point lookup. Returns ErrNotFound when absent.
	GetByKey(ctx context.Context, pk, sk string) (*models.EvaluationRecord, error)

	// ScanRecent returns up to limit records sorted by sort key
	// descending, with stats computed over the returned set. The store
	// itself gives no order guarantee, so this is a bounded approximate
	// recency view: when the table exceeds the scan page it is not a
	// true top-N by time.
	ScanRecent(ctx context.Context, limit int32) (*ScanResult, error)
}
