package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPromObsMetrics(t *testing.T) {
	origReg := prometheus.DefaultRegisterer
	origGatherer := prometheus.DefaultGatherer
	t.Cleanup(func() {
		prometheus.DefaultRegisterer = origReg
		prometheus.DefaultGatherer = origGatherer
	})

	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg

	obs := NewPromObs(false)

	obs.IncCounter("serensync_values_forwarded_total", 5)
	if got := testutil.ToFloat64(obs.counters["serensync_values_forwarded_total"]); got != 5 {
		t.Fatalf("expected forwarded counter 5, got %f", got)
	}

	obs.IncCounter("serensync_values_throttled_total", 2)
	if got := testutil.ToFloat64(obs.counters["serensync_values_throttled_total"]); got != 2 {
		t.Fatalf("expected throttled counter 2, got %f", got)
	}

	obs.SetGauge("serensync_throttle_paths", 42)
	if got := testutil.ToFloat64(obs.gauges["serensync_throttle_paths"]); got != 42 {
		t.Fatalf("expected throttle paths gauge 42, got %f", got)
	}

	obs.ObserveLatency("serensync_archive_flush_seconds", 0.5)
	hCollector := obs.histos["serensync_archive_flush_seconds"].(prometheus.Collector)
	if samples := testutil.CollectAndCount(hCollector); samples != 1 {
		t.Fatalf("expected flush histogram to record 1 sample, got %d", samples)
	}

	// Unknown names are ignored rather than panicking.
	obs.IncCounter("serensync_unknown_total", 1)
	obs.SetGauge("serensync_unknown", 1)
	obs.ObserveLatency("serensync_unknown_seconds", 1)
}
