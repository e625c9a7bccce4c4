package estimator

import (
	"fmt"

	"montecarlo-pi/internal/partition"
	"montecarlo-pi/internal/sampler"
)

// SamplerFactory はパーティションごとに独立したサンプラーを作成する
// 返すサンプラーを他のパーティションと共有してはならない
type SamplerFactory func(c partition.Chunk) (sampler.Sampler, error)

// PCGFactory はルートシードからパーティションごとの PCG サンプラーを作る
func PCGFactory(seed uint64) SamplerFactory {
	return func(c partition.Chunk) (sampler.Sampler, error) {
		return sampler.NewCircle(sampler.NewPCG(sampler.DeriveSeed(seed, c.Index))), nil
	}
}

// LCGFactory はパーティションごとに seed + index*67890 の LCG サンプラーを作る
func LCGFactory(seed uint32) SamplerFactory {
	return func(c partition.Chunk) (sampler.Sampler, error) {
		return sampler.NewCircle(sampler.NewLCG(seed + uint32(c.Index)*67890)), nil
	}
}

// SequenceFactory は共有の乱数列からパーティション順に連続区間を割り当てる
// 1試行につき2つの値を消費する
func SequenceFactory(seq *sampler.Sequence) SamplerFactory {
	return func(c partition.Chunk) (sampler.Sampler, error) {
		if seq == nil {
			return nil, fmt.Errorf("nil sequence")
		}
		from := int(2 * c.Offset)
		to := int(2 * (c.Offset + c.Size))
		return sampler.NewCircle(seq.Slice(from, to)), nil
	}
}

// ConstantFactory は全パーティションに同じ固定結果のサンプラーを返す
func ConstantFactory(c sampler.Constant) SamplerFactory {
	return func(partition.Chunk) (sampler.Sampler, error) {
		return c, nil
	}
}
