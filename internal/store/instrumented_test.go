package store

import (
	"context"
	"testing"

	"github.com/haasonsaas/evaldeck/internal/observability"
	"github.com/haasonsaas/evaldeck/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestWithMetricsNilPassthrough(t *testing.T) {
	if got := WithMetrics(nil, nil); got != nil {
		t.Errorf("WithMetrics(nil, nil) = %v, want nil", got)
	}
	mem := NewMemoryRecordStore()
	if got := WithMetrics(mem, nil); got != RecordStore(mem) {
		t.Error("WithMetrics(store, nil) should return the store unchanged")
	}
}

func TestWithMetricsCountsOperations(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	s := WithMetrics(NewMemoryRecordStore(), metrics)

	if err := s.Put(ctx, &models.EvaluationRecord{RunID: "run-1", Query: "Q"}); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if _, err := s.ScanRecent(ctx, 10); err != nil {
		t.Fatalf("ScanRecent() error: %v", err)
	}
	if _, err := s.GetByKey(ctx, "RUN#nope", "TIME#x"); err == nil {
		t.Fatal("GetByKey() expected ErrNotFound")
	}

	counter := metrics.StoreOperationCounter
	if got := testutil.ToFloat64(counter.WithLabelValues("put", "success")); got != 1 {
		t.Errorf("put success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("scan", "success")); got != 1 {
		t.Errorf("scan success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(counter.WithLabelValues("get", "error")); got != 1 {
		t.Errorf("get error = %v, want 1", got)
	}
}
