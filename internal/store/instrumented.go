package store

import (
	"context"
	"time"

	"github.com/haasonsaas/evaldeck/internal/observability"
	"github.com/haasonsaas/evaldeck/pkg/models"
)

// instrumentedStore decorates a RecordStore with operation counters and
// latency histograms.
type instrumentedStore struct {
	inner   RecordStore
	metrics *observability.Metrics
}

// WithMetrics wraps a record store so that every operation is counted and
// timed. A nil store or nil metrics returns the store unchanged.
func WithMetrics(inner RecordStore, metrics *observability.Metrics) RecordStore {
	if inner == nil || metrics == nil {
		return inner
	}
	return &instrumentedStore{inner: inner, metrics: metrics}
}

func (s *instrumentedStore) Put(ctx context.Context, record *models.EvaluationRecord) error {
	start := time.Now()
	err := s.inner.Put(ctx, record)
	s.metrics.StoreOperation("put", err, time.Since(start))
	return err
}

func (s *instrumentedStore) GetByKey(ctx context.Context, pk, sk string) (*models.EvaluationRecord, error) {
	start := time.Now()
	record, err := s.inner.GetByKey(ctx, pk, sk)
	s.metrics.StoreOperation("get", err, time.Since(start))
	return record, err
}

func (s *instrumentedStore) ScanRecent(ctx context.Context, limit int32) (*ScanResult, error) {
	start := time.Now()
	result, err := s.inner.ScanRecent(ctx, limit)
	s.metrics.StoreOperation("scan", err, time.Since(start))
	return result, err
}
