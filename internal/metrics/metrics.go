package metrics

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Config はメトリクスの設定
type Config struct {
	MaxLatencySamples int // P99 計算用に保持するレイテンシ数
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		MaxLatencySamples: 1000,
	}
}

// Metrics はワーカー実行のメトリクスを収集する
type Metrics struct {
	totalSamples     atomic.Int64
	insideSamples    atomic.Int64
	completedWorkers atomic.Uint64
	failedWorkers    atomic.Uint64
	totalBusyNs      atomic.Int64

	mu                sync.RWMutex
	startTime         time.Time
	latencies         []time.Duration
	maxLatencySamples int
}

// New は新しいメトリクスを作成する
func New() *Metrics {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig は設定を指定してメトリクスを作成する
func NewWithConfig(config Config) *Metrics {
	maxSamples := config.MaxLatencySamples
	if maxSamples <= 0 {
		maxSamples = DefaultConfig().MaxLatencySamples
	}
	return &Metrics{
		startTime:         time.Now(),
		latencies:         make([]time.Duration, 0, maxSamples),
		maxLatencySamples: maxSamples,
	}
}

// RecordWorker は完了したパーティションを記録する
func (m *Metrics) RecordWorker(samples, inside int64, elapsed time.Duration) {
	m.totalSamples.Add(samples)
	m.insideSamples.Add(inside)
	m.completedWorkers.Add(1)
	m.totalBusyNs.Add(elapsed.Nanoseconds())

	m.mu.Lock()
	if len(m.latencies) < m.maxLatencySamples {
		m.latencies = append(m.latencies, elapsed)
	}
	m.mu.Unlock()
}

// RecordFailure は失敗したパーティションを記録する
func (m *Metrics) RecordFailure() {
	m.failedWorkers.Add(1)
}

// TotalSamples は総試行数を返す
func (m *Metrics) TotalSamples() int64 {
	return m.totalSamples.Load()
}

// InsideSamples は円の内側に入った試行数を返す
func (m *Metrics) InsideSamples() int64 {
	return m.insideSamples.Load()
}

// CompletedWorkers は完了したパーティション数を返す
func (m *Metrics) CompletedWorkers() uint64 {
	return m.completedWorkers.Load()
}

// FailedWorkers は失敗したパーティション数を返す
func (m *Metrics) FailedWorkers() uint64 {
	return m.failedWorkers.Load()
}

// SamplesPerSecond はワーカー1つあたりの稼働時間で割ったスループットを返す
func (m *Metrics) SamplesPerSecond() float64 {
	busy := time.Duration(m.totalBusyNs.Load()).Seconds()
	if busy == 0 {
		return 0
	}
	return float64(m.totalSamples.Load()) / busy
}

// AverageWorkerLatency は平均パーティション実行時間を返す
func (m *Metrics) AverageWorkerLatency() time.Duration {
	completed := m.completedWorkers.Load()
	if completed == 0 {
		return 0
	}
	return time.Duration(m.totalBusyNs.Load() / int64(completed))
}

// P99WorkerLatency はP99実行時間を返す（サンプルベース）
func (m *Metrics) P99WorkerLatency() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.latencies) == 0 {
		return 0
	}

	sorted := slices.Clone(m.latencies)
	slices.Sort(sorted)

	idx := int(float64(len(sorted)) * 0.99)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// Reset は全メトリクスをリセットする
func (m *Metrics) Reset() {
	m.totalSamples.Store(0)
	m.insideSamples.Store(0)
	m.completedWorkers.Store(0)
	m.failedWorkers.Store(0)
	m.totalBusyNs.Store(0)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.startTime = time.Now()
	m.latencies = m.latencies[:0]
}

// Snapshot はメトリクスのスナップショット
type Snapshot struct {
	TotalSamples         int64         `json:"total_samples"`
	InsideSamples        int64         `json:"inside_samples"`
	CompletedWorkers     uint64        `json:"completed_workers"`
	FailedWorkers        uint64        `json:"failed_workers"`
	SamplesPerSecond     float64       `json:"samples_per_second"`
	AverageWorkerLatency time.Duration `json:"average_worker_latency"`
	P99WorkerLatency     time.Duration `json:"p99_worker_latency"`
	Elapsed              time.Duration `json:"elapsed"`
}

// Snapshot は現在のメトリクスのスナップショットを返す
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	start := m.startTime
	m.mu.RUnlock()

	return Snapshot{
		TotalSamples:         m.TotalSamples(),
		InsideSamples:        m.InsideSamples(),
		CompletedWorkers:     m.CompletedWorkers(),
		FailedWorkers:        m.FailedWorkers(),
		SamplesPerSecond:     m.SamplesPerSecond(),
		AverageWorkerLatency: m.AverageWorkerLatency(),
		P99WorkerLatency:     m.P99WorkerLatency(),
		Elapsed:              time.Since(start),
	}
}
