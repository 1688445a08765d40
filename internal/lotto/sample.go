package lotto

import (
	"fmt"
	"math"

	"github.com/alanyoungcy/lottostats/internal/domain"
)

// Normalize scales weights so they sum to 1. Weights must be finite and
// non-negative with a positive sum.
func Normalize(weights []float64) ([]float64, error) {
	sum, err := weightSum(weights)
	if err != nil {
		return nil, err
	}
	if sum <= 0 {
		return nil, fmt.Errorf("lotto: weights sum to zero: %w", domain.ErrInvalidInput)
	}
	out := make([]float64, len(weights))
	for i, w := range weights {
		out[i] = w / sum
	}
	return out, nil
}

func weightSum(weights []float64) (float64, error) {
	sum := 0.0
	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return 0, fmt.Errorf("lotto: weight %d is %v: %w", i+domain.MinNumber, w, domain.ErrInvalidInput)
		}
		sum += w
	}
	return sum, nil
}

// WeightedSample draws k distinct numbers from 1-45 without replacement. At
// each step a remaining number is chosen with probability proportional to its
// weight. weights is indexed by number-1. Once every remaining number has
// zero weight, the rest of the picks are uniform over what is left. Picks are
// returned in draw order.
func WeightedSample(src Source, weights []float64, k int) ([]int, error) {
	if len(weights) != domain.NumberCount {
		return nil, fmt.Errorf("lotto: expected %d weights, got %d: %w", domain.NumberCount, len(weights), domain.ErrInvalidInput)
	}
	if k <= 0 || k > domain.NumberCount {
		return nil, fmt.Errorf("lotto: sample size %d: %w", k, domain.ErrInvalidInput)
	}
	sum, err := weightSum(weights)
	if err != nil {
		return nil, err
	}
	p := make([]float64, len(weights))
	if sum > 0 {
		for i, w := range weights {
			p[i] = w / sum
		}
	}

	var taken [domain.NumberCount]bool
	picks := make([]int, 0, k)
	for len(picks) < k {
		idx := pickWeighted(src, p, &taken)
		if idx < 0 {
			idx = pickUniform(src, &taken)
		}
		taken[idx] = true
		picks = append(picks, idx+domain.MinNumber)
	}
	return picks, nil
}

// pickWeighted returns the index of a weighted pick among untaken entries, or
// -1 when no untaken entry carries weight.
func pickWeighted(src Source, p []float64, taken *[domain.NumberCount]bool) int {
	total := 0.0
	last := -1
	for i, w := range p {
		if taken[i] || w <= 0 {
			continue
		}
		total += w
		last = i
	}
	if last < 0 {
		return -1
	}
	r := src.Float64() * total
	for i, w := range p {
		if taken[i] || w <= 0 {
			continue
		}
		r -= w
		if r < 0 {
			return i
		}
	}
	// Rounding left r marginally above zero.
	return last
}

func pickUniform(src Source, taken *[domain.NumberCount]bool) int {
	free := make([]int, 0, domain.NumberCount)
	for i := range taken {
		if !taken[i] {
			free = append(free, i)
		}
	}
	return free[src.IntN(len(free))]
}

// SampleFrom picks k distinct values uniformly from pool.
func SampleFrom(src Source, pool []int, k int) ([]int, error) {
	if k < 0 || k > len(pool) {
		return nil, fmt.Errorf("lotto: cannot pick %d from %d: %w", k, len(pool), domain.ErrInvalidInput)
	}
	tmp := make([]int, len(pool))
	copy(tmp, pool)
	for i := 0; i < k; i++ {
		j := i + src.IntN(len(tmp)-i)
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	return tmp[:k], nil
}
