package goAdmin

import (
	"testing"
	"time"
)

// requestPathMetricIDs is the counter mix one authenticated request with
// an occasional renewal produces.
var requestPathMetricIDs = [...]MetricID{
	MetricAuthenticateSuccess,
	MetricAuthenticateSuccess,
	MetricAuthenticateSuccess,
	MetricAuthenticateSkipped,
	MetricTokenRenewed,
	MetricTokenMissing,
	MetricSessionExpired,
	MetricFingerprintMismatch,
}

func BenchmarkMetricsInc(b *testing.B) {
	for _, enabled := range []bool{true, false} {
		name := "enabled"
		if !enabled {
			name = "disabled"
		}
		b.Run(name, func(b *testing.B) {
			m := NewMetrics(MetricsConfig{Enabled: enabled})
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				m.Inc(MetricAuthenticateSuccess)
			}
		})
		b.Run(name+"/parallel", func(b *testing.B) {
			m := NewMetrics(MetricsConfig{Enabled: enabled})
			b.ReportAllocs()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					m.Inc(MetricAuthenticateSuccess)
				}
			})
		})
	}
}

func BenchmarkMetricsIncRequestMixParallel(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		idx := 0
		for pb.Next() {
			m.Inc(requestPathMetricIDs[idx%len(requestPathMetricIDs)])
			idx++
		}
	})
}

func BenchmarkMetricsObserveAuthenticateLatency(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	samples := [...]time.Duration{
		800 * time.Microsecond,
		7 * time.Millisecond,
		30 * time.Millisecond,
		400 * time.Millisecond,
		2 * time.Second,
	}
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		idx := 0
		for pb.Next() {
			m.Observe(MetricAuthenticateLatency, samples[idx%len(samples)])
			idx++
		}
	})
}

func BenchmarkMetricsSnapshot(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	for _, id := range requestPathMetricIDs {
		m.Inc(id)
	}
	m.Observe(MetricAuthenticateLatency, 3*time.Millisecond)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = m.Snapshot()
	}
}
