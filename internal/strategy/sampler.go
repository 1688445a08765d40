package strategy

import (
	"fmt"
	"slices"

	"github.com/alanyoungcy/lottostats/internal/domain"
	"github.com/alanyoungcy/lottostats/internal/lotto"
)

// Sampler turns a frequency table into recommended sets.
type Sampler struct {
	registry *Registry
}

// NewSampler returns a Sampler dispatching through registry.
func NewSampler(registry *Registry) *Sampler {
	return &Sampler{registry: registry}
}

// Recommend produces count sets of six distinct ascending numbers using the
// named strategy over table's counts under mode.
func (s *Sampler) Recommend(src lotto.Source, table domain.FrequencyTable, name string, count int, mode domain.CountMode) ([]domain.RecommendedSet, error) {
	if count <= 0 {
		return nil, fmt.Errorf("strategy: recommend %d sets: %w", count, domain.ErrInvalidInput)
	}
	st, err := s.registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	counts := table.Counts(mode)
	sets := make([]domain.RecommendedSet, 0, count)
	for i := 0; i < count; i++ {
		picks, err := st.Pick(src, counts)
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", st.Kind(), err)
		}
		slices.Sort(picks)
		sets = append(sets, domain.RecommendedSet(picks))
	}
	return sets, nil
}
