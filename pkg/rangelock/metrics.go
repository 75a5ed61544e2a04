package rangelock

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Label constants for metrics.
const (
	LabelHandle = "handle"
	LabelType   = "type"
	LabelStatus = "status"
)

// Status constants for set_lock outcomes.
const (
	StatusGranted  = "granted"
	StatusDenied   = "denied"
	StatusDeadlock = "deadlock"
	StatusBlocked  = "blocked"
)

// Metrics provides Prometheus metrics for the lock manager.
type Metrics struct {
	acquireTotal     *prometheus.CounterVec
	releaseTotal     *prometheus.CounterVec
	activeGauge      *prometheus.GaugeVec
	blockedGauge     prometheus.Gauge
	blockingDuration prometheus.Histogram
	deadlockDetected prometheus.Counter
	chainDepth       prometheus.Histogram

	registered bool
}

// NewMetrics creates and registers lock manager metrics. If registry is
// nil, metrics are created but not registered (useful for testing).
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		acquireTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "rangelockd",
				Subsystem: "locks",
				Name:      "acquire_total",
				Help:      "Total number of set_lock attempts by outcome",
			},
			[]string{LabelType, LabelStatus},
		),
		releaseTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "rangelockd",
				Subsystem: "locks",
				Name:      "release_total",
				Help:      "Total number of clear_lock calls",
			},
			[]string{LabelHandle},
		),
		activeGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "rangelockd",
				Subsystem: "locks",
				Name:      "active",
				Help:      "Number of currently held lock records, by type",
			},
			[]string{LabelType},
		),
		blockedGauge: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "rangelockd",
				Subsystem: "locks",
				Name:      "blocked",
				Help:      "Number of requests currently suspended across all files",
			},
		),
		blockingDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "rangelockd",
				Subsystem: "locks",
				Name:      "blocking_duration_seconds",
				Help:      "Time a granted request spent suspended before acquiring",
				Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
		),
		deadlockDetected: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "rangelockd",
				Subsystem: "locks",
				Name:      "deadlock_detected_total",
				Help:      "Total number of EDEADLK outcomes",
			},
		),
		chainDepth: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "rangelockd",
				Subsystem: "locks",
				Name:      "deadlock_chain_depth",
				Help:      "Depth reached while walking the wait-for chain",
				Buckets:   []float64{1, 2, 4, 8, 16, 32, 50},
			},
		),
	}

	if registry != nil {
		registry.MustRegister(
			m.acquireTotal,
			m.releaseTotal,
			m.activeGauge,
			m.blockedGauge,
			m.blockingDuration,
			m.deadlockDetected,
			m.chainDepth,
		)
		m.registered = true
	}

	return m
}

func (m *Metrics) observeAcquire(typ LockType, status string) {
	if m == nil {
		return
	}
	m.acquireTotal.WithLabelValues(typ.String(), status).Inc()
}

func (m *Metrics) observeRelease(handle string) {
	if m == nil {
		return
	}
	m.releaseTotal.WithLabelValues(handle).Inc()
}

func (m *Metrics) setActive(typ LockType, delta float64) {
	if m == nil {
		return
	}
	m.activeGauge.WithLabelValues(typ.String()).Add(delta)
}

func (m *Metrics) setBlocked(delta float64) {
	if m == nil {
		return
	}
	m.blockedGauge.Add(delta)
}

func (m *Metrics) observeBlockingDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.blockingDuration.Observe(d.Seconds())
}

func (m *Metrics) observeDeadlock(depth int) {
	if m == nil {
		return
	}
	m.deadlockDetected.Inc()
	m.chainDepth.Observe(float64(depth))
}
