package sampler

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// PCG は math/rand/v2 の PCG を包む乱数源
type PCG struct {
	rng *rand.Rand
}

// NewPCG はシードから PCG 乱数源を作成する
func NewPCG(seed uint64) *PCG {
	return &PCG{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Float64 は [0,1) の一様乱数を返す
func (p *PCG) Float64() (float64, error) {
	return p.rng.Float64(), nil
}

// LCG は32ビット線形合同法の乱数源
type LCG struct {
	state uint32
}

// NewLCG はシードから LCG 乱数源を作成する
func NewLCG(seed uint32) *LCG {
	return &LCG{state: seed}
}

// Float64 は [0,1) の一様乱数を返す
// 状態の下位31ビットを 2^31 で割る
func (l *LCG) Float64() (float64, error) {
	l.state = l.state*1664525 + 1013904223
	return float64(l.state&0x7FFFFFFF) / (1 << 31), nil
}

// Sequence は有限の乱数列。使い切ると ErrExhausted を返す
type Sequence struct {
	values []float64
	pos    int
}

// NewSequence は値の列から Sequence を作成する
func NewSequence(values []float64) *Sequence {
	return &Sequence{values: values}
}

// Float64 は次の値を返す
func (s *Sequence) Float64() (float64, error) {
	if s.pos >= len(s.values) {
		return 0, ErrExhausted
	}
	v := s.values[s.pos]
	s.pos++
	return v, nil
}

// Remaining は未消費の値の数を返す
func (s *Sequence) Remaining() int {
	return len(s.values) - s.pos
}

// Slice は [from, to) の値だけを持つ独立した Sequence を返す
// 範囲外は切り詰められる。元の Sequence の読み出し位置には影響しない
func (s *Sequence) Slice(from, to int) *Sequence {
	from = clamp(from, 0, len(s.values))
	to = clamp(to, from, len(s.values))
	return &Sequence{values: s.values[from:to:to]}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NewSeed は crypto/rand からルートシードを生成する
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// DeriveSeed はルートシードとワーカー番号から独立したシードを導出する (splitmix64)
func DeriveSeed(root uint64, index int) uint64 {
	x := root + uint64(index+1)*0x9e3779b97f4a7c15
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
