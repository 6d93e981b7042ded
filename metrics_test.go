package sesskit

import (
	"sync"
	"testing"
)

func TestMetricsDisabledIsNoOp(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricLoginSuccess)

	snap := m.Snapshot()
	if len(snap.Counters) != 0 {
		t.Fatalf("disabled metrics must report empty counters, got %v", snap.Counters)
	}
}

func TestMetricsCountsConcurrently(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Inc(MetricGuardAllowed)
			}
		}()
	}
	wg.Wait()

	if got := m.Snapshot().Counters[MetricGuardAllowed]; got != 800 {
		t.Fatalf("expected 800, got %d", got)
	}
}

func TestMetricsIgnoresOutOfRangeID(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricID(MetricIDCount))

	for id, v := range m.Snapshot().Counters {
		if v != 0 {
			t.Fatalf("expected all counters zero, got %d for %d", v, id)
		}
	}
}
