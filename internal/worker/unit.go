package worker

import (
	"context"
	"fmt"
	"time"

	"montecarlo-pi/internal/errs"
	"montecarlo-pi/internal/partition"
	"montecarlo-pi/internal/sampler"
)

// checkInterval ごとにキャンセルを確認する
const checkInterval = 4096

// Result は1パーティション分の結果
type Result struct {
	Index   int           // パーティション番号
	Samples int64         // 試行数
	Inside  int64         // 円の内側に入った数
	Elapsed time.Duration // 実行時間
}

// Count は s を n 回呼び出し、円の内側に入った数を返す
// 乱数源の失敗は ErrSamplingFailure として返し、リトライしない
func Count(ctx context.Context, s sampler.Sampler, n int64) (int64, error) {
	var inside int64
	for i := range n {
		if i%checkInterval == 0 {
			if err := ctx.Err(); err != nil {
				return 0, fmt.Errorf("stopped after %d of %d samples: %w", i, n, err)
			}
		}
		ok, err := s.Sample()
		if err != nil {
			return 0, fmt.Errorf("%w at sample %d of %d: %w", errs.ErrSamplingFailure, i, n, err)
		}
		if ok {
			inside++
		}
	}
	return inside, nil
}

// Run はチャンク1つ分を実行して Result を返す
func Run(ctx context.Context, c partition.Chunk, s sampler.Sampler) (Result, error) {
	start := time.Now()
	inside, err := Count(ctx, s, c.Size)
	if err != nil {
		return Result{}, fmt.Errorf("partition %d: %w", c.Index, err)
	}
	return Result{
		Index:   c.Index,
		Samples: c.Size,
		Inside:  inside,
		Elapsed: time.Since(start),
	}, nil
}
