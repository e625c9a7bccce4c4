package estimator

import (
	"context"
	"fmt"
	"time"

	"montecarlo-pi/internal/aggregate"
	"montecarlo-pi/internal/errs"
	"montecarlo-pi/internal/events"
	"montecarlo-pi/internal/logger"
	"montecarlo-pi/internal/metrics"
	"montecarlo-pi/internal/partition"
	"montecarlo-pi/internal/sampler"
	"montecarlo-pi/internal/worker"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultWorkers はワーカー数のデフォルト値
const DefaultWorkers = 4

const tracerName = "montecarlo-pi/internal/estimator"

// Config は Estimator の設定
type Config struct {
	Workers    int              // ワーカー数（正の整数）
	Seed       uint64           // NewSampler が nil のときの PCG シード（0 なら呼び出しごとにランダム）
	NewSampler SamplerFactory   // nil なら Seed から PCG を使う
	Bus        *events.Bus      // 進捗通知先（任意）
	Metrics    *metrics.Metrics // ワーカー統計（任意）
	Logger     *logger.Logger   // nil なら logger.Default
	Tracer     trace.Tracer     // nil ならグローバルプロバイダのトレーサー
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Workers: DefaultWorkers,
	}
}

// Result は1回の推定結果
type Result struct {
	RunID     string          `json:"run_id"`
	Pi        float64         `json:"pi"`
	Samples   int64           `json:"samples"`
	Inside    int64           `json:"inside"`
	Workers   int             `json:"workers"`
	Partition []int64         `json:"partition"`
	Results   []worker.Result `json:"-"`
	Elapsed   time.Duration   `json:"elapsed"`
}

// Estimator は並列モンテカルロ推定を行う
type Estimator struct {
	config Config
	log    *logger.Logger
	tracer trace.Tracer
}

// New は新しい Estimator を作成する
func New(config Config) *Estimator {
	log := config.Logger
	if log == nil {
		log = logger.Default
	}
	tracer := config.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return &Estimator{
		config: config,
		log:    log,
		tracer: tracer,
	}
}

// Workers は設定されたワーカー数を返す
func (e *Estimator) Workers() int {
	return e.config.Workers
}

// Estimate はデフォルト設定で n サンプル、workers 並列の推定を行う
func Estimate(ctx context.Context, n int64, workers int) (Result, error) {
	config := DefaultConfig()
	config.Workers = workers
	return New(config).Estimate(ctx, n)
}

// run は1回の Estimate 呼び出しの状態を持つ
type run struct {
	id    string
	state State
	e     *Estimator
	span  trace.Span
}

func (r *run) transition(next State) {
	r.e.log.Debug(r.id, "%s -> %s", r.state, next)
	r.state = next
	r.span.AddEvent(next.String())
	r.e.config.Bus.Publish(events.NewStateChangedEvent(r.id, next.String()))
}

// fail は Failed に遷移してエラーを返す
func (r *run) fail(err error) (Result, error) {
	r.transition(StateFailed)
	r.span.RecordError(err)
	r.span.SetStatus(codes.Error, err.Error())
	r.e.log.Warn(r.id, "estimate failed: %v", err)
	r.e.config.Bus.Publish(events.NewEstimateFailedEvent(r.id, err))
	return Result{}, err
}

// Estimate は n サンプルで π を推定する
// 全ワーカーの完了を待ってから集計し、途中の結果は返さない
func (e *Estimator) Estimate(ctx context.Context, n int64) (Result, error) {
	workers := e.config.Workers
	ctx, span := e.tracer.Start(ctx, "estimator.Estimate", trace.WithAttributes(
		attribute.Int64("pi.samples", n),
		attribute.Int("pi.workers", workers),
	))
	defer span.End()

	r := &run{id: uuid.NewString(), state: StateIdle, e: e, span: span}
	start := time.Now()

	r.transition(StatePartitioning)
	sizes, err := partition.Split(n, int64(workers))
	if err != nil {
		return r.fail(err)
	}
	chunks := partition.Chunks(sizes)
	active := partition.NonEmpty(chunks)

	factory := e.config.NewSampler
	if factory == nil {
		seed := e.config.Seed
		if seed == 0 {
			seed, err = sampler.NewSeed()
			if err != nil {
				return r.fail(err)
			}
		}
		factory = PCGFactory(seed)
	}

	samplers := make([]sampler.Sampler, len(active))
	for i, c := range active {
		s, err := factory(c)
		if err != nil {
			return r.fail(fmt.Errorf("sampler for partition %d: %w", c.Index, err))
		}
		samplers[i] = s
	}

	agg := aggregate.New(len(chunks))
	for _, c := range chunks {
		if c.Size == 0 {
			// 0件のワーカーは結果0
			if err := agg.Record(worker.Result{Index: c.Index}); err != nil {
				return r.fail(err)
			}
		}
	}

	e.config.Bus.Publish(events.NewEstimateStartedEvent(r.id, n, workers))
	e.log.Debug(r.id, "partition %v (%d active)", sizes, len(active))

	if err := e.dispatch(ctx, r, active, samplers, agg); err != nil {
		return r.fail(err)
	}
	r.transition(StateAllWorkersComplete)

	total, err := agg.Total()
	if err != nil {
		return r.fail(err)
	}
	r.transition(StateAggregated)

	result := Result{
		RunID:     r.id,
		Pi:        4 * float64(total) / float64(n),
		Samples:   n,
		Inside:    total,
		Workers:   workers,
		Partition: sizes,
		Results:   agg.Results(),
		Elapsed:   time.Since(start),
	}
	span.SetAttributes(attribute.Float64("pi.estimate", result.Pi))
	r.transition(StateDone)

	e.config.Bus.Publish(events.NewEstimateCompletedEvent(r.id, n, total, result.Pi, result.Elapsed))
	e.log.Info(r.id, "samples=%d workers=%d pi=%.5f elapsed=%v", n, workers, result.Pi, result.Elapsed)

	return result, nil
}

// dispatch はパーティションごとにワーカーを起動し、全完了まで待つ
// プールはこの呼び出しの中で生成・破棄される
func (e *Estimator) dispatch(ctx context.Context, r *run, active []partition.Chunk, samplers []sampler.Sampler, agg *aggregate.Aggregator) error {
	if len(active) == 0 {
		return nil
	}

	pool := worker.NewPool(len(active))
	pool.Start(ctx)
	defer pool.Stop()

	r.transition(StateDispatched)

	for i, c := range active {
		s := samplers[i]
		ok := pool.SubmitWait(func(ctx context.Context) error {
			return e.runPartition(ctx, r.id, c, s, agg)
		})
		if !ok {
			break
		}
	}

	if err := pool.Wait(); err != nil {
		return err
	}
	if submitted := pool.Submitted(); submitted < int64(len(active)) {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("dispatched %d of %d partitions: %w", submitted, len(active), err)
		}
		return fmt.Errorf("%w: dispatched %d of %d partitions", errs.ErrAggregationIncomplete, submitted, len(active))
	}
	return nil
}

// runPartition は1パーティションを実行して Aggregator に記録する
func (e *Estimator) runPartition(ctx context.Context, runID string, c partition.Chunk, s sampler.Sampler, agg *aggregate.Aggregator) error {
	ctx, span := e.tracer.Start(ctx, "estimator.worker", trace.WithAttributes(
		attribute.Int("pi.partition", c.Index),
		attribute.Int64("pi.samples", c.Size),
	))
	defer span.End()

	res, err := worker.Run(ctx, c, s)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if e.config.Metrics != nil {
			e.config.Metrics.RecordFailure()
		}
		e.config.Bus.Publish(events.NewWorkerFailedEvent(runID, c.Index, err))
		return err
	}
	if err := agg.Record(res); err != nil {
		return err
	}

	span.SetAttributes(attribute.Int64("pi.inside", res.Inside))
	if e.config.Metrics != nil {
		e.config.Metrics.RecordWorker(res.Samples, res.Inside, res.Elapsed)
	}
	e.config.Bus.Publish(events.NewWorkerCompletedEvent(runID, c.Index, res.Samples, res.Inside, res.Elapsed))
	e.log.Debug(fmt.Sprintf("%s/worker-%d", runID, c.Index), "inside=%d/%d elapsed=%v", res.Inside, res.Samples, res.Elapsed)
	return nil
}

// Sequential は1つのサンプラーで n 回試行する逐次版の推定
func Sequential(ctx context.Context, n int64, s sampler.Sampler) (Result, error) {
	if n <= 0 {
		return Result{}, fmt.Errorf("sample count must be positive, got %d: %w", n, errs.ErrInvalidInput)
	}
	start := time.Now()
	inside, err := worker.Count(ctx, s, n)
	if err != nil {
		return Result{}, err
	}
	return Result{
		RunID:     uuid.NewString(),
		Pi:        4 * float64(inside) / float64(n),
		Samples:   n,
		Inside:    inside,
		Workers:   1,
		Partition: []int64{n},
		Results:   []worker.Result{{Index: 0, Samples: n, Inside: inside, Elapsed: time.Since(start)}},
		Elapsed:   time.Since(start),
	}, nil
}
