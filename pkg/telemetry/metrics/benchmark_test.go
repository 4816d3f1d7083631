package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Benchmark_Collector_RecordRequest benchmarks request recording
func Benchmark_Collector_RecordRequest(b *testing.B) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordRequest("primary", "deepseek-chat", StatusSuccess, time.Second, 1500, 0.002)
	}
}

// Benchmark_Collector_RecordRequest_Parallel benchmarks parallel request recording
func Benchmark_Collector_RecordRequest_Parallel(b *testing.B) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			collector.RecordRequest("primary", "deepseek-chat", StatusSuccess, time.Second, 1500, 0.002)
		}
	})
}

// Benchmark_Collector_RecordAttempt benchmarks attempt recording
func Benchmark_Collector_RecordAttempt(b *testing.B) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordAttempt("primary", OutcomeSuccess, 950*time.Millisecond)
	}
}

// Benchmark_Collector_UpdateProviderHealth benchmarks health updates
func Benchmark_Collector_UpdateProviderHealth(b *testing.B) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.UpdateProviderHealth("primary", true, 0.98)
	}
}

// Benchmark_Collector_Disabled benchmarks the no-op path
func Benchmark_Collector_Disabled(b *testing.B) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, prometheus.NewRegistry())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector.RecordRequest("primary", "deepseek-chat", StatusSuccess, time.Second, 1500, 0.002)
	}
}
