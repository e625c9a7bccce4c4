package sweep

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"montecarlo-pi/internal/estimator"
	"montecarlo-pi/internal/events"
	"montecarlo-pi/internal/logger"
	"montecarlo-pi/internal/metrics"
	"montecarlo-pi/internal/partition"
	"montecarlo-pi/internal/sampler"
)

// Config はスイープの設定
type Config struct {
	Name        string  // スイープ名
	Description string  // 説明
	SampleSizes []int64 // 推定するサンプル数の列
	Workers     int     // ワーカー数
	Seed        uint64  // 0 なら毎回ランダムなシード
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Name:        "default",
		Description: "Default sweep",
		SampleSizes: Geomspace(10000, 1000000, 5),
		Workers:     estimator.DefaultWorkers,
	}
}

// Validate は設定を検証する
func (c Config) Validate() error {
	if len(c.SampleSizes) == 0 {
		return fmt.Errorf("at least one sample size is required")
	}
	for _, n := range c.SampleSizes {
		if n <= 0 {
			return fmt.Errorf("sample sizes must be positive, got %d", n)
		}
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.Workers > partition.MaxWorkers {
		return fmt.Errorf("workers must not exceed %d, got %d", partition.MaxWorkers, c.Workers)
	}
	return nil
}

// Geomspace は start から stop までを等比に num 分割した整数列を返す
// 端点はそのまま、途中の値は切り捨て
func Geomspace(start, stop int64, num int) []int64 {
	if num <= 0 || start <= 0 || stop <= 0 {
		return nil
	}
	if num == 1 {
		return []int64{start}
	}
	out := make([]int64, num)
	ratio := float64(stop) / float64(start)
	for i := range num {
		switch i {
		case 0:
			out[i] = start
		case num - 1:
			out[i] = stop
		default:
			out[i] = int64(float64(start) * math.Pow(ratio, float64(i)/float64(num-1)))
		}
	}
	return out
}

// Row は1サンプル数分の結果
type Row struct {
	Samples  int64         `json:"samples"`
	Pi       float64       `json:"pi"`
	AbsError float64       `json:"abs_error"`
	Elapsed  time.Duration `json:"elapsed"`
	RunID    string        `json:"run_id"`
}

// Result はスイープ実行結果
type Result struct {
	SweepName string           `json:"sweep_name"`
	Workers   int              `json:"workers"`
	StartTime time.Time        `json:"start_time"`
	EndTime   time.Time        `json:"end_time"`
	Elapsed   time.Duration    `json:"elapsed"`
	Rows      []Row            `json:"rows"`
	Metrics   metrics.Snapshot `json:"metrics"`
}

// Engine はスイープ実行エンジン
type Engine struct {
	config   Config
	eventBus *events.Bus
	metrics  *metrics.Metrics

	mu      sync.RWMutex
	running bool
	current int64
}

// New は新しい Engine を作成する
func New(config Config) *Engine {
	return &Engine{
		config:  config,
		metrics: metrics.New(),
	}
}

// SetEventBus はイベントバスを設定する
func (e *Engine) SetEventBus(bus *events.Bus) {
	e.eventBus = bus
}

// Config は設定を返す
func (e *Engine) Config() Config {
	return e.config
}

// Run はスイープを実行する
// いずれかの推定が失敗した時点で中断し、そのエラーを返す
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if err := e.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sweep config: %w", err)
	}

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil, fmt.Errorf("sweep is already running")
	}
	e.running = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.current = 0
		e.mu.Unlock()
	}()

	logger.Info("", "=== Sweep '%s' started ===", e.config.Name)
	logger.Info("", "Description: %s", e.config.Description)

	result := &Result{
		SweepName: e.config.Name,
		Workers:   e.config.Workers,
		StartTime: time.Now(),
	}

	for i, n := range e.config.SampleSizes {
		e.mu.Lock()
		e.current = n
		e.mu.Unlock()

		est := estimator.New(estimator.Config{
			Workers: e.config.Workers,
			Seed:    e.rowSeed(i),
			Bus:     e.eventBus,
			Metrics: e.metrics,
		})
		res, err := est.Estimate(ctx, n)
		if err != nil {
			return nil, fmt.Errorf("sample size %d: %w", n, err)
		}

		result.Rows = append(result.Rows, Row{
			Samples:  n,
			Pi:       res.Pi,
			AbsError: math.Abs(math.Pi - res.Pi),
			Elapsed:  res.Elapsed,
			RunID:    res.RunID,
		})
	}

	result.EndTime = time.Now()
	result.Elapsed = result.EndTime.Sub(result.StartTime)
	result.Metrics = e.metrics.Snapshot()

	logger.Info("", "=== Sweep '%s' completed ===", e.config.Name)

	return result, nil
}

// rowSeed は行ごとのシードを返す（シード未指定なら 0）
func (e *Engine) rowSeed(row int) uint64 {
	if e.config.Seed == 0 {
		return 0
	}
	return sampler.DeriveSeed(e.config.Seed, row)
}

// IsRunning は実行中かどうかを返す
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// CurrentSamples は実行中のサンプル数を返す（停止中は0）
func (e *Engine) CurrentSamples() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current
}

// Metrics はワーカーメトリクスのスナップショットを返す
func (e *Engine) Metrics() metrics.Snapshot {
	return e.metrics.Snapshot()
}

// Report は結果をフォーマットして返す
func (r *Result) Report() string {
	var b strings.Builder

	fmt.Fprintf(&b, `
================================================================================
                         SWEEP REPORT: %s
================================================================================

EXECUTION SUMMARY
-----------------
  Start Time:     %s
  End Time:       %s
  Workers:        %d

ESTIMATES
---------
`,
		r.SweepName,
		r.StartTime.Format("2006-01-02 15:04:05"),
		r.EndTime.Format("2006-01-02 15:04:05"),
		r.Workers,
	)

	for _, row := range r.Rows {
		fmt.Fprintf(&b, "  Sample size: %d. Pi estimate: %.5f (error %.5f, %v)\n",
			row.Samples, row.Pi, row.AbsError, row.Elapsed.Round(time.Microsecond))
	}

	fmt.Fprintf(&b, `
WORKER STATISTICS
-----------------
  Total Samples:    %d
  Workers Run:      %d
  Throughput:       %.0f samples/s per worker
  Avg Latency:      %v
  P99 Latency:      %v

Total Execution Time: %.3f seconds
================================================================================`,
		r.Metrics.TotalSamples,
		r.Metrics.CompletedWorkers,
		r.Metrics.SamplesPerSecond,
		r.Metrics.AverageWorkerLatency.Round(time.Microsecond),
		r.Metrics.P99WorkerLatency.Round(time.Microsecond),
		r.Elapsed.Seconds(),
	)

	return b.String()
}
