// Package errs defines the sentinel errors shared by the estimation pipeline.
//
// Callers wrap them with fmt.Errorf("...: %w", err) and test with errors.Is.
package errs

import "errors"

var (
	// ErrInvalidInput は sampleCount / workerCount が正の範囲外のとき返される
	ErrInvalidInput = errors.New("invalid input")
	// ErrSamplingFailure はワーカーの乱数源がパーティション途中で失敗したとき返される
	ErrSamplingFailure = errors.New("sampling failure")
	// ErrAggregationIncomplete は全ワーカーの報告前に集計が呼ばれたとき返される
	ErrAggregationIncomplete = errors.New("aggregation incomplete")
)
