package metrics

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	if r.HTTPRequestsTotal == nil {
		t.Error("HTTPRequestsTotal not initialized")
	}
	if r.TraversalsTotal == nil {
		t.Error("TraversalsTotal not initialized")
	}
	if r.StoreQueriesTotal == nil {
		t.Error("StoreQueriesTotal not initialized")
	}
	if r.EnrichmentSourceErrors == nil {
		t.Error("EnrichmentSourceErrors not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	r1 := DefaultRegistry()
	r2 := DefaultRegistry()

	if r1 != r2 {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	r := NewRegistry()

	r.RecordHTTPRequest("POST", "/graph", "200", 100*time.Millisecond)
	r.RecordHTTPRequest("POST", "/graph", "400", 5*time.Millisecond)

	counter, err := r.HTTPRequestsTotal.GetMetricWithLabelValues("POST", "/graph", "200")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 1 {
		t.Errorf("Counter value = %v, want 1", metric.Counter.GetValue())
	}
}

func TestRecordTraversal(t *testing.T) {
	r := NewRegistry()

	r.RecordTraversal("ok", 50*time.Millisecond, 2, 10, 12)
	r.RecordTraversal("partial", 10*time.Second, 3, 1000, 2000)

	counter, err := r.TraversalsTotal.GetMetricWithLabelValues("partial")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 1 {
		t.Errorf("Counter value = %v, want 1", metric.Counter.GetValue())
	}
}

func TestRecordSourceError(t *testing.T) {
	r := NewRegistry()

	r.RecordSourceError("cnep")
	r.RecordSourceError("cnep")

	counter, err := r.EnrichmentSourceErrors.GetMetricWithLabelValues("cnep")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	if metric.Counter.GetValue() != 2 {
		t.Errorf("Counter value = %v, want 2", metric.Counter.GetValue())
	}
}
