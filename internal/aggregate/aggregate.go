// Package aggregate sums worker results into the inside-circle total.
//
// An Aggregator has one slot per partition. Each worker records into its own
// slot, so recording needs no lock; Total is read only after every worker
// has finished and fails with ErrAggregationIncomplete if any slot is still
// empty. A failed worker never gets a zero substituted for it.
package aggregate

import (
	"fmt"

	"montecarlo-pi/internal/errs"
	"montecarlo-pi/internal/worker"
)

// Aggregator はパーティションごとの結果を集める
type Aggregator struct {
	results  []worker.Result
	reported []bool
}

// New は expected 個のパーティション用の Aggregator を作成する
func New(expected int) *Aggregator {
	return &Aggregator{
		results:  make([]worker.Result, expected),
		reported: make([]bool, expected),
	}
}

// Expected は集計対象のパーティション数を返す
func (a *Aggregator) Expected() int {
	return len(a.results)
}

// Record はパーティション r.Index の結果を記録する
// 同じパーティションへの並行呼び出しは想定しない
func (a *Aggregator) Record(r worker.Result) error {
	if r.Index < 0 || r.Index >= len(a.results) {
		return fmt.Errorf("partition %d out of range [0,%d)", r.Index, len(a.results))
	}
	if r.Inside < 0 || r.Inside > r.Samples {
		return fmt.Errorf("partition %d: inside count %d outside [0,%d]", r.Index, r.Inside, r.Samples)
	}
	if a.reported[r.Index] {
		return fmt.Errorf("partition %d reported twice", r.Index)
	}
	a.results[r.Index] = r
	a.reported[r.Index] = true
	return nil
}

// Pending はまだ報告していないパーティション番号を返す
func (a *Aggregator) Pending() []int {
	var pending []int
	for i, ok := range a.reported {
		if !ok {
			pending = append(pending, i)
		}
	}
	return pending
}

// Total は全パーティションの内側カウントの合計を返す
func (a *Aggregator) Total() (int64, error) {
	if pending := a.Pending(); len(pending) > 0 {
		return 0, fmt.Errorf("%w: %d of %d partitions pending %v",
			errs.ErrAggregationIncomplete, len(pending), len(a.results), pending)
	}
	var total int64
	for _, r := range a.results {
		total += r.Inside
	}
	return total, nil
}

// Samples は記録済みパーティションの試行数の合計を返す
func (a *Aggregator) Samples() int64 {
	var total int64
	for i, r := range a.results {
		if a.reported[i] {
			total += r.Samples
		}
	}
	return total
}

// Results は記録済みの結果をパーティション順で返す
func (a *Aggregator) Results() []worker.Result {
	out := make([]worker.Result, 0, len(a.results))
	for i, r := range a.results {
		if a.reported[i] {
			out = append(out, r)
		}
	}
	return out
}
