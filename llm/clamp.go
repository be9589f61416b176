package llm

import "math"

// Bound 描述采样参数的合法区间。越界值被替换为 LowTo / HighTo，
// 不会报错。LowOpen 为 true 时等于 Low 也视为越界，HighOpen 同理。
type Bound struct {
	Low, High     float64
	LowOpen       bool
	HighOpen      bool
	LowTo, HighTo float64
}

// Closed 返回闭区间 [low, high]。
func Closed(low, high float64) *Bound {
	return &Bound{Low: low, High: high, LowTo: low, HighTo: high}
}

// Clamp 把 v 收敛到区间内。NaN 视为下越界。
func (b *Bound) Clamp(v float64) float64 {
	if b == nil {
		return v
	}
	if math.IsNaN(v) || v < b.Low || (b.LowOpen && v == b.Low) {
		return b.LowTo
	}
	if v > b.High || (b.HighOpen && v == b.High) {
		return b.HighTo
	}
	return v
}

// Apply 对可选参数做收敛，nil 保持 nil。
func (b *Bound) Apply(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := b.Clamp(*v)
	return &c
}
