package rangelock

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewMetrics_RegistersWithRegistry(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected at least one registered metric family")
	}

	m.observeAcquire(Exclusive, StatusGranted)
	m.observeRelease("h1")
	m.setBlocked(1)
	m.observeBlockingDuration(10 * time.Millisecond)
	m.observeDeadlock(3)
}

func TestNewMetrics_NilRegistrySkipsRegistration(t *testing.T) {
	t.Parallel()

	m := NewMetrics(nil)
	if m.registered {
		t.Fatal("metrics with a nil registry should not report themselves as registered")
	}
	// Nil-safe methods must not panic even though nothing is registered.
	m.observeAcquire(Shared, StatusDenied)
}

func TestMetrics_NilReceiverIsSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.observeAcquire(Exclusive, StatusGranted)
	m.observeRelease("h")
	m.setActive(Shared, 1)
	m.setBlocked(-1)
	m.observeBlockingDuration(time.Second)
	m.observeDeadlock(1)
}

func TestMetrics_AcquireCounterLabeled(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.observeAcquire(Exclusive, StatusGranted)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	var found bool
	for _, f := range families {
		if f.GetName() != "rangelockd_locks_acquire_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			if metricHasLabel(metric, LabelType, "exclusive") && metricHasLabel(metric, LabelStatus, StatusGranted) {
				found = true
			}
		}
	}
	if !found {
		t.Fatal("expected a granted/exclusive sample in rangelockd_locks_acquire_total")
	}
}

func metricHasLabel(m *dto.Metric, name, value string) bool {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}
