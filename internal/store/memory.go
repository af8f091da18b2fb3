package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/haasonsaas/evaldeck/pkg/models"
)

// MemoryRecordStore provides an in-memory RecordStore for tests and local
// development. Items are kept in insertion order, which plays the role of
// the backing table's store-native order.
type MemoryRecordStore struct {
	mu    sync.RWMutex
	items []*models.EvaluationRecord
	now   func() time.Time
}

var _ RecordStore = (*MemoryRecordStore)(nil)

// NewMemoryRecordStore creates an in-memory record store.
func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{now: time.Now}
}

// SetClock overrides the wall clock used for key derivation. Test hook.
func (s *MemoryRecordStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryRecordStore) Put(ctx context.Context, record *models.EvaluationRecord) error {
	if record == nil {
		return fmt.Errorf("record is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	deriveKeys(record, s.now)

	stored := *record
	s.items = append(s.items, &stored)
	return nil
}

func (s *MemoryRecordStore) GetByKey(ctx context.Context, pk, sk string) (*models.EvaluationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.PK == pk && item.SK == sk {
			found := *item
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryRecordStore) ScanRecent(ctx context.Context, limit int32) (*ScanResult, error) {
	if limit <= 0 {
		limit = 50
	}
	s.mu.RLock()
	n := len(s.items)
	if int32(n) > limit {
		n = int(limit)
	}
	items := make([]*models.EvaluationRecord, 0, n)
	for _, item := range s.items[:n] {
		copied := *item
		items = append(items, &copied)
	}
	s.mu.RUnlock()

	SortByRecency(items)
	return &ScanResult{
		Items: items,
		Stats: ComputeStats(items),
	}, nil
}

// Len reports the number of stored records. Test hook.
func (s *MemoryRecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
