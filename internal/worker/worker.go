package worker

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"montecarlo-pi/internal/logger"

	"golang.org/x/sync/errgroup"
)

// Job はワーカーが実行するジョブを表す
type Job func(ctx context.Context) error

// PoolConfig はワーカープールの設定
type PoolConfig struct {
	NumWorkers int // 同時実行数（0でCPU数）
}

// DefaultPoolConfig はデフォルト設定を返す
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		NumWorkers: 0, // CPU数
	}
}

// Pool はゴルーチンのプールを管理する
type Pool struct {
	numWorkers int
	group      *errgroup.Group
	ctx        context.Context
	cancel     context.CancelFunc
	started    bool
	stopped    atomic.Bool
	submitted  atomic.Int64
	mu         sync.Mutex
}

// NewPool は新しいワーカープールを作成する
// numWorkers が 0 以下の場合は CPU 数を使用
func NewPool(numWorkers int) *Pool {
	config := DefaultPoolConfig()
	config.NumWorkers = numWorkers
	return NewPoolWithConfig(config)
}

// NewPoolWithConfig は設定を指定してワーカープールを作成する
func NewPoolWithConfig(config PoolConfig) *Pool {
	numWorkers := config.NumWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Pool{
		numWorkers: numWorkers,
	}
}

// Start はワーカープールを起動する
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started || p.stopped.Load() {
		return
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.group, p.ctx = errgroup.WithContext(p.ctx)
	p.group.SetLimit(p.numWorkers)
	p.started = true

	logger.Debug("", "WorkerPool started with %d workers", p.numWorkers)
}

// accepting はジョブを受け付けられる状態かを返す
func (p *Pool) accepting() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started || p.stopped.Load() {
		return false
	}
	return p.ctx.Err() == nil
}

// Submit はジョブをプールに送信する
// 空きワーカーがなければ即座に false を返す
func (p *Pool) Submit(job Job) bool {
	if !p.accepting() {
		return false
	}
	if !p.group.TryGo(p.wrap(job)) {
		return false
	}
	p.submitted.Add(1)
	return true
}

// SubmitWait はジョブを送信し、空きワーカーがなければブロックする
func (p *Pool) SubmitWait(job Job) bool {
	if !p.accepting() {
		return false
	}
	p.group.Go(p.wrap(job))
	p.submitted.Add(1)
	return true
}

// wrap はジョブにプールのコンテキストを渡す
func (p *Pool) wrap(job Job) func() error {
	ctx := p.ctx
	return func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return job(ctx)
	}
}

// Wait は全ジョブの完了を待ち、プールを破棄する
// 最初に失敗したジョブのエラーを返す
func (p *Pool) Wait() error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return nil
	}
	group := p.group
	p.mu.Unlock()

	err := group.Wait()

	p.mu.Lock()
	p.stopped.Store(true)
	p.started = false
	p.cancel()
	p.mu.Unlock()

	logger.Debug("", "WorkerPool stopped after %d jobs", p.submitted.Load())
	return err
}

// Stop は実行中のジョブをキャンセルしてプールを破棄する
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.cancel()
	p.mu.Unlock()

	_ = p.Wait()
}

// NumWorkers はワーカー数を返す
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Submitted は受け付けたジョブ数を返す
func (p *Pool) Submitted() int64 {
	return p.submitted.Load()
}
