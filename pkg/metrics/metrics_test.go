package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewManagerRegistersOnCustomRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewManager(WithRegistry(registry), WithNamespace("test"), WithSubsystem("advisor"))
	if m == nil {
		t.Fatal("expected manager")
	}

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(families) != 0 {
		// Plain counters, gauges and histograms gather from registration;
		// the labelled vectors appear once a label set is touched.
		t.Logf("gathered %d families", len(families))
	}
}

func TestGlobalHelpersDoNotPanic(t *testing.T) {
	RecordObservationIngested()
	RecordObservationRejected()
	RecordSuggestionServed()
	RecordSuggestionFailure()
	RecordCurveRequest()
	RecordFitDuration(1.5)
	UpdateStatesTracked(3)
	RecordStoreError()
	RecordHTTPRequest("/v1/config", "GET", "200")
	RecordHTTPRequestDuration("/v1/config", "GET", "200", 2.5)

	families, err := Registry().Gather()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(families) == 0 {
		t.Error("expected gathered metric families after recording")
	}
}
