package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestNewMetrics(t *testing.T) {
	m := New()

	if m.TotalSamples() != 0 {
		t.Errorf("expected 0 total samples, got %d", m.TotalSamples())
	}
	if m.CompletedWorkers() != 0 {
		t.Errorf("expected 0 completed workers, got %d", m.CompletedWorkers())
	}
	if m.SamplesPerSecond() != 0 {
		t.Errorf("expected 0 throughput, got %f", m.SamplesPerSecond())
	}
	if m.P99WorkerLatency() != 0 {
		t.Errorf("expected 0 p99, got %v", m.P99WorkerLatency())
	}
}

func TestMetricsRecordWorker(t *testing.T) {
	m := New()

	m.RecordWorker(1000, 780, 10*time.Millisecond)
	m.RecordWorker(1000, 790, 20*time.Millisecond)
	m.RecordWorker(2000, 1570, 30*time.Millisecond)

	if m.TotalSamples() != 4000 {
		t.Errorf("expected 4000 samples, got %d", m.TotalSamples())
	}
	if m.InsideSamples() != 3140 {
		t.Errorf("expected 3140 inside, got %d", m.InsideSamples())
	}
	if m.CompletedWorkers() != 3 {
		t.Errorf("expected 3 completed, got %d", m.CompletedWorkers())
	}
	if avg := m.AverageWorkerLatency(); avg != 20*time.Millisecond {
		t.Errorf("expected 20ms average, got %v", avg)
	}
	// 4000 samples / 0.06s
	if sps := m.SamplesPerSecond(); sps < 66666 || sps > 66667 {
		t.Errorf("expected ~66666.7 samples/s, got %f", sps)
	}
}

func TestMetricsRecordFailure(t *testing.T) {
	m := New()

	m.RecordFailure()
	m.RecordWorker(10, 8, time.Millisecond)

	if m.FailedWorkers() != 1 {
		t.Errorf("expected 1 failed worker, got %d", m.FailedWorkers())
	}
	if m.CompletedWorkers() != 1 {
		t.Errorf("expected 1 completed worker, got %d", m.CompletedWorkers())
	}
}

func TestMetricsP99(t *testing.T) {
	m := New()

	for i := 1; i <= 100; i++ {
		m.RecordWorker(1, 1, time.Duration(i)*time.Millisecond)
	}

	if p99 := m.P99WorkerLatency(); p99 != 100*time.Millisecond {
		t.Errorf("expected p99 100ms, got %v", p99)
	}
}

func TestMetricsMaxLatencySamples(t *testing.T) {
	m := NewWithConfig(Config{MaxLatencySamples: 5})

	for range 10 {
		m.RecordWorker(1, 0, time.Millisecond)
	}

	m.mu.RLock()
	n := len(m.latencies)
	m.mu.RUnlock()
	if n != 5 {
		t.Errorf("expected 5 retained latencies, got %d", n)
	}
	if m.CompletedWorkers() != 10 {
		t.Errorf("expected 10 completed workers, got %d", m.CompletedWorkers())
	}
}

func TestMetricsReset(t *testing.T) {
	m := New()
	m.RecordWorker(100, 80, time.Millisecond)
	m.RecordFailure()

	m.Reset()

	snap := m.Snapshot()
	if snap.TotalSamples != 0 || snap.FailedWorkers != 0 || snap.P99WorkerLatency != 0 {
		t.Errorf("expected zeroed snapshot, got %+v", snap)
	}
}

func TestMetricsConcurrent(t *testing.T) {
	m := New()
	var wg sync.WaitGroup

	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				m.RecordWorker(10, 7, time.Microsecond)
			}
		}()
	}
	wg.Wait()

	if m.TotalSamples() != 10000 {
		t.Errorf("expected 10000 samples, got %d", m.TotalSamples())
	}
	if m.InsideSamples() != 7000 {
		t.Errorf("expected 7000 inside, got %d", m.InsideSamples())
	}
}

func TestMetricsSnapshot(t *testing.T) {
	m := New()
	m.RecordWorker(500, 400, 5*time.Millisecond)

	snap := m.Snapshot()
	if snap.TotalSamples != 500 {
		t.Errorf("expected 500 samples, got %d", snap.TotalSamples)
	}
	if snap.InsideSamples != 400 {
		t.Errorf("expected 400 inside, got %d", snap.InsideSamples)
	}
	if snap.Elapsed <= 0 {
		t.Error("expected positive elapsed time")
	}
}
