package strategy

import (
	"github.com/alanyoungcy/lottostats/internal/domain"
	"github.com/alanyoungcy/lottostats/internal/lotto"
)

// weightFunc maps a number's count and the window maximum to a weight.
type weightFunc func(count, max int) float64

// weighted samples without replacement in proportion to weightFunc.
type weighted struct {
	kind   Kind
	weight weightFunc
}

func (w weighted) Kind() Kind { return w.kind }

func (w weighted) Pick(src lotto.Source, counts []int) ([]int, error) {
	return lotto.WeightedSample(src, weightsOf(counts, w.weight), domain.PickSize)
}

// weightsOf applies fn to each count.
func weightsOf(counts []int, fn weightFunc) []float64 {
	m := 0
	for _, c := range counts {
		m = max(m, c)
	}
	out := make([]float64, len(counts))
	for i, c := range counts {
		out[i] = fn(c, m)
	}
	return out
}

func hotWeight(c, _ int) float64 {
	return float64(c) * float64(c)
}

func balancedWeight(c, _ int) float64 {
	return 0.5*float64(c) + 0.5
}

func coldWeight(c, m int) float64 {
	d := float64(m - c + 1)
	return d * d
}

func uniformWeight(_, _ int) float64 {
	return 1
}

// NewHot weights each number by its count squared.
func NewHot() Strategy { return weighted{kind: Hot, weight: hotWeight} }

// NewBalanced weights each number by half its count plus a half.
func NewBalanced() Strategy { return weighted{kind: Balanced, weight: balancedWeight} }

// NewCold weights each number by (max-count+1) squared.
func NewCold() Strategy { return weighted{kind: Cold, weight: coldWeight} }

// NewUniform gives every number equal weight.
func NewUniform() Strategy { return weighted{kind: Uniform, weight: uniformWeight} }
