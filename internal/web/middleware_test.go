package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/haasonsaas/evaldeck/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
)

func TestResponseWriterCapturesStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	wrapped := &responseWriter{ResponseWriter: rr, status: http.StatusOK}

	wrapped.WriteHeader(http.StatusTeapot)
	wrapped.WriteHeader(http.StatusOK) // second call ignored
	wrapped.Write([]byte("short and stout"))

	if wrapped.status != http.StatusTeapot {
		t.Errorf("status = %d, want 418", wrapped.status)
	}
	if rr.Code != http.StatusTeapot {
		t.Errorf("recorded = %d, want 418", rr.Code)
	}
}

func TestResponseWriterImplicitOK(t *testing.T) {
	rr := httptest.NewRecorder()
	wrapped := &responseWriter{ResponseWriter: rr, status: http.StatusOK}

	wrapped.Write([]byte("body"))

	if wrapped.status != http.StatusOK {
		t.Errorf("status = %d, want 200", wrapped.status)
	}
}

func TestMetricsMiddlewareCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	handler := MetricsMiddleware(metrics)(next)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/get-evaluations", nil))

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, fam := range families {
		if fam.GetName() == "evaldeck_http_requests_total" {
			found = true
			for _, m := range fam.GetMetric() {
				if m.GetCounter().GetValue() != 1 {
					t.Errorf("counter = %v, want 1", m.GetCounter().GetValue())
				}
			}
		}
	}
	if !found {
		t.Error("evaldeck_http_requests_total not registered")
	}
}
