package sesskit

import "sync/atomic"

// MetricID identifies a specific counter in the in-process metrics system.
type MetricID uint16

const (
	// MetricBootstrapVerified counts bootstraps that confirmed a session.
	MetricBootstrapVerified MetricID = iota
	// MetricBootstrapExpired counts bootstraps the server rejected.
	MetricBootstrapExpired
	// MetricBootstrapInconclusive counts bootstraps ended by transient failure.
	MetricBootstrapInconclusive
	// MetricBootstrapSuperseded counts late bootstrap logins discarded by an
	// intervening teardown.
	MetricBootstrapSuperseded
	// MetricBootstrapSkipped counts bootstrap attempts stopped by a precondition.
	MetricBootstrapSkipped
	// MetricLoginSuccess counts completed logins.
	MetricLoginSuccess
	// MetricLoginFailure counts rejected or partially failed logins.
	MetricLoginFailure
	// MetricLogout counts explicit logouts.
	MetricLogout
	// MetricForcedLogout counts server-directed teardowns.
	MetricForcedLogout
	// MetricForcedLogoutDuplicate counts directives coalesced into an
	// already-running teardown.
	MetricForcedLogoutDuplicate
	// MetricSessionExpired counts transitions into the expired state.
	MetricSessionExpired
	// MetricGuardAllowed counts guard checks that admitted the request.
	MetricGuardAllowed
	// MetricGuardRedirect counts guard checks that redirected to login.
	MetricGuardRedirect

	metricIDCount
)

// MetricsConfig controls the in-process metrics system.
type MetricsConfig struct {
	Enabled bool
}

// Metrics holds atomic counters. When disabled, all operations are no-ops.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]atomic.Uint64
}

// NewMetrics creates a [Metrics] instance configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc increments the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// Snapshot returns a deep copy of the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, int(metricIDCount))}
	if m == nil || !m.enabled {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	return snap
}

// MetricIDCount is the number of defined metric IDs, exported for renderers.
const MetricIDCount = int(metricIDCount)
