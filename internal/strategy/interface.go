package strategy

import "github.com/alanyoungcy/lottostats/internal/lotto"

// Strategy picks one six-number set from per-number counts.
type Strategy interface {
	Kind() Kind
	// Pick returns six distinct numbers. counts is indexed by number-1.
	Pick(src lotto.Source, counts []int) ([]int, error)
}
