package strategy

import (
	"slices"

	"github.com/alanyoungcy/lottostats/internal/domain"
	"github.com/alanyoungcy/lottostats/internal/lotto"
)

const (
	mixedPool = 15
	mixedHalf = domain.PickSize / 2
)

type mixed struct{}

// NewMixed picks three numbers uniformly from the fifteen most frequent and
// three from the fifteen least frequent. The pools never overlap.
func NewMixed() Strategy { return mixed{} }

func (mixed) Kind() Kind { return Mixed }

func (mixed) Pick(src lotto.Source, counts []int) ([]int, error) {
	hot, cold := Pools(counts)
	a, err := lotto.SampleFrom(src, hot, mixedHalf)
	if err != nil {
		return nil, err
	}
	b, err := lotto.SampleFrom(src, cold, mixedHalf)
	if err != nil {
		return nil, err
	}
	return append(a, b...), nil
}

// Pools returns the hot and cold pools used by the mixed strategy. Ties rank
// the lower number first; numbers already in the hot pool are skipped when
// filling the cold one.
func Pools(counts []int) (hot, cold []int) {
	hot = lotto.Rank(counts)[:mixedPool]
	cold = make([]int, 0, mixedPool)
	for _, n := range lotto.RankAscending(counts) {
		if len(cold) == mixedPool {
			break
		}
		if !slices.Contains(hot, n) {
			cold = append(cold, n)
		}
	}
	return hot, cold
}
