// Package partition splits a sample budget across workers.
//
// Split gives every worker n/w samples and hands the remainder to the last
// worker, so the partition always sums to n. With n < w the leading workers
// receive zero samples; that is not an error. The worker count is bounded by
// MaxWorkers because every worker gets a slot.
package partition

import (
	"fmt"

	"montecarlo-pi/internal/errs"
)

// MaxWorkers はワーカー数の上限
const MaxWorkers = 1 << 16

// Split は n 個のサンプルを w 個のワーカーに分割する
// 先頭 w-1 個は n/w、最後のワーカーが余りを含めて受け取る
func Split(n, w int64) ([]int64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("sample count must be positive, got %d: %w", n, errs.ErrInvalidInput)
	}
	if w <= 0 {
		return nil, fmt.Errorf("worker count must be positive, got %d: %w", w, errs.ErrInvalidInput)
	}
	if w > MaxWorkers {
		return nil, fmt.Errorf("worker count must not exceed %d, got %d: %w", MaxWorkers, w, errs.ErrInvalidInput)
	}

	base := n / w
	sizes := make([]int64, w)
	for i := range w - 1 {
		sizes[i] = base
	}
	sizes[w-1] = n - base*(w-1)
	return sizes, nil
}

// Chunk は1ワーカー分のパーティション
type Chunk struct {
	Index  int   // パーティション番号
	Offset int64 // 全体の中での最初のサンプル番号
	Size   int64 // サンプル数
}

// Chunks はサイズ列に通し番号とオフセットを付ける
func Chunks(sizes []int64) []Chunk {
	chunks := make([]Chunk, len(sizes))
	var offset int64
	for i, size := range sizes {
		chunks[i] = Chunk{Index: i, Offset: offset, Size: size}
		offset += size
	}
	return chunks
}

// NonEmpty はサンプル数が0のチャンクを除いたものを返す
func NonEmpty(chunks []Chunk) []Chunk {
	out := make([]Chunk, 0, len(chunks))
	for _, c := range chunks {
		if c.Size > 0 {
			out = append(out, c)
		}
	}
	return out
}

// Sum はサイズの合計を返す
func Sum(sizes []int64) int64 {
	var total int64
	for _, s := range sizes {
		total += s
	}
	return total
}
