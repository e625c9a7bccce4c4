package sampler

import "errors"

// ErrExhausted は有限の乱数源を使い切ったときに返される
var ErrExhausted = errors.New("random source exhausted")

// Source は [0,1) の一様乱数を返す乱数源
type Source interface {
	Float64() (float64, error)
}

// Sampler は1回の試行で「円の内側か」を返す
type Sampler interface {
	Sample() (bool, error)
}

// Inside は点 (x, y) が単位円の内側（境界を含む）かどうかを返す
func Inside(x, y float64) bool {
	return x*x+y*y <= 1
}

// Circle は Source から2点を引いて円判定するサンプラー
type Circle struct {
	src Source
}

// NewCircle は新しい Circle を作成する
func NewCircle(src Source) *Circle {
	return &Circle{src: src}
}

// Sample は x, y を引いて円の内側かどうかを返す
func (c *Circle) Sample() (bool, error) {
	u, err := c.src.Float64()
	if err != nil {
		return false, err
	}
	v, err := c.src.Float64()
	if err != nil {
		return false, err
	}
	return Inside(remap(u), remap(v)), nil
}

// remap は [0,1) を [-1,1) に線形変換する
func remap(u float64) float64 {
	return 2*u - 1
}

// Constant は常に同じ結果を返すサンプラー
type Constant bool

// Sample は固定値を返す
func (c Constant) Sample() (bool, error) {
	return bool(c), nil
}

const (
	// AlwaysInside は常に円の内側を返す
	AlwaysInside Constant = true
	// AlwaysOutside は常に円の外側を返す
	AlwaysOutside Constant = false
)
