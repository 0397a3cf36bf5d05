package goAdmin

import (
	"sort"
	"sync/atomic"
	"time"
)

// MetricID identifies one engine counter.
type MetricID uint16

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricLoginRateLimited
	MetricAuthenticateSuccess
	MetricAuthenticateSkipped
	MetricTokenRenewed
	MetricTokenMissing
	MetricTokenInvalid
	MetricSessionExpired
	MetricFingerprintMismatch
	MetricSessionRevoked
	MetricLogout
	MetricStoreError
	// MetricAuthenticateLatency is the only histogram-backed metric.
	MetricAuthenticateLatency
	metricIDCount
)

var metricNames = [metricIDCount]string{
	MetricLoginSuccess:        "login_success",
	MetricLoginFailure:        "login_failure",
	MetricLoginRateLimited:    "login_rate_limited",
	MetricAuthenticateSuccess: "authenticate_success",
	MetricAuthenticateSkipped: "authenticate_skipped",
	MetricTokenRenewed:        "token_renewed",
	MetricTokenMissing:        "token_missing",
	MetricTokenInvalid:        "token_invalid",
	MetricSessionExpired:      "session_expired",
	MetricFingerprintMismatch: "fingerprint_mismatch",
	MetricSessionRevoked:      "session_revoked",
	MetricLogout:              "logout",
	MetricStoreError:          "store_error",
	MetricAuthenticateLatency: "authenticate_latency",
}

// String returns the snake_case name used by exporters.
func (id MetricID) String() string {
	if id >= metricIDCount {
		return "unknown"
	}
	return metricNames[id]
}

const latencyBucketCount = 8

// HistogramBounds are the inclusive upper bounds of the latency buckets.
// The last bucket is unbounded.
var HistogramBounds = [latencyBucketCount - 1]time.Duration{
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

// counterCell occupies a full cache line so hot counters updated from
// different cores do not share one.
type counterCell struct {
	n atomic.Uint64
	_ [56]byte
}

type latencyHistogram [latencyBucketCount]atomic.Uint64

func (h *latencyHistogram) record(d time.Duration) {
	idx := sort.Search(len(HistogramBounds), func(i int) bool { return d <= HistogramBounds[i] })
	h[idx].Add(1)
}

func (h *latencyHistogram) copyTo(dst []uint64) {
	for i := range h {
		dst[i] = h[i].Load()
	}
}

// Metrics holds lock-free counters. A nil or disabled *Metrics ignores
// every call.
type Metrics struct {
	on      bool
	latency bool
	cells   [metricIDCount]counterCell
	authLat latencyHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns a Metrics configured by cfg. Latency histograms are
// only collected when metrics as a whole are on.
func NewMetrics(cfg MetricsConfig) *Metrics {
	m := &Metrics{on: cfg.Enabled}
	m.latency = m.on && cfg.EnableLatencyHistograms
	return m
}

func (m *Metrics) LatencyEnabled() bool {
	if m == nil {
		return false
	}
	return m.latency
}

func (m *Metrics) counting(id MetricID) bool {
	return m != nil && m.on && id < MetricAuthenticateLatency
}

// Inc adds one to counter id.
func (m *Metrics) Inc(id MetricID) {
	if m.counting(id) {
		m.cells[id].n.Add(1)
	}
}

// Observe records d in the histogram for id. Only MetricAuthenticateLatency
// has a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if id != MetricAuthenticateLatency || !m.LatencyEnabled() {
		return
	}
	m.authLat.record(d)
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= MetricAuthenticateLatency {
		return 0
	}
	return m.cells[id].n.Load()
}

// Snapshot copies every counter, and the latency histogram when enabled.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Counters:   map[MetricID]uint64{},
		Histograms: map[MetricID][]uint64{},
	}
	if m == nil || !m.on {
		return snap
	}
	for id := MetricLoginSuccess; id < MetricAuthenticateLatency; id++ {
		snap.Counters[id] = m.cells[id].n.Load()
	}
	if m.latency {
		buckets := make([]uint64, latencyBucketCount)
		m.authLat.copyTo(buckets)
		snap.Histograms[MetricAuthenticateLatency] = buckets
	}
	return snap
}
