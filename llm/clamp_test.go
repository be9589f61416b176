package llm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestBound_Clamp(t *testing.T) {
	glmTemp := &Bound{Low: 0, LowOpen: true, LowTo: 0.1, High: 1, HighTo: 1}
	glmTop := &Bound{Low: 0, LowOpen: true, LowTo: 0.1, High: 1, HighOpen: true, HighTo: 0.9}
	aliTemp := &Bound{Low: 0, LowTo: 0, High: 2, HighOpen: true, HighTo: 1.9}

	tests := []struct {
		name  string
		bound *Bound
		in    float64
		want  float64
	}{
		{"closed below", Closed(0, 1), -0.5, 0},
		{"closed above", Closed(0, 1), 1.5, 1},
		{"closed inside", Closed(0, 1), 0.3, 0.3},
		{"closed edge", Closed(0, 1), 1, 1},
		{"zero bumped", glmTemp, 0, 0.1},
		{"negative bumped", glmTemp, -1, 0.1},
		{"open high edge", glmTop, 1, 0.9},
		{"open high inside", glmTop, 0.95, 0.95},
		{"aliyun temp at 2", aliTemp, 2, 1.9},
		{"aliyun temp inside", aliTemp, 1.2, 1.2},
		{"nan", Closed(0, 1), math.NaN(), 0},
		{"nil bound passes through", nil, 7, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.bound.Clamp(tt.in), 1e-9)
		})
	}
}

func TestBound_ApplyNil(t *testing.T) {
	assert.Nil(t, Closed(0, 1).Apply(nil))
	got := Closed(0, 1).Apply(Float(3))
	if assert.NotNil(t, got) {
		assert.Equal(t, 1.0, *got)
	}
}

// 收敛结果总在区间内，且再次收敛不变。
func TestProperty_ClampIdempotentAndInRange(t *testing.T) {
	bounds := []*Bound{
		Closed(0, 1),
		Closed(0, 2),
		{Low: 0, LowOpen: true, LowTo: 0.1, High: 1, HighTo: 1},
		{Low: 0, LowOpen: true, LowTo: 0.1, High: 1, HighOpen: true, HighTo: 0.9},
		{Low: 0, LowTo: 0, High: 2, HighOpen: true, HighTo: 1.9},
	}
	rapid.Check(t, func(rt *rapid.T) {
		b := bounds[rapid.IntRange(0, len(bounds)-1).Draw(rt, "bound")]
		v := rapid.Float64Range(-10, 10).Draw(rt, "v")

		got := b.Clamp(v)
		if got < b.Low || got > b.High {
			rt.Fatalf("clamp(%v)=%v outside [%v,%v]", v, got, b.Low, b.High)
		}
		if b.LowOpen && got == b.Low {
			rt.Fatalf("clamp(%v) hit open low edge", v)
		}
		if b.HighOpen && got == b.High {
			rt.Fatalf("clamp(%v) hit open high edge", v)
		}
		if again := b.Clamp(got); again != got {
			rt.Fatalf("clamp not idempotent: %v -> %v", got, again)
		}
	})
}
