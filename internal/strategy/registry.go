package strategy

import (
	"fmt"
	"slices"
	"sync"

	"github.com/alanyoungcy/lottostats/internal/domain"
)

// Registry maps strategy kinds to their handlers. It is safe for concurrent
// use.
type Registry struct {
	strategies map[Kind]Strategy
	mu         sync.RWMutex
}

// NewRegistry returns an empty, ready-to-use Registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[Kind]Strategy),
	}
}

// DefaultRegistry returns a Registry holding every built-in strategy.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, s := range []Strategy{NewHot(), NewBalanced(), NewCold(), NewMixed(), NewUniform()} {
		r.Register(s)
	}
	return r
}

// Register adds s under its kind, replacing any existing handler.
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[s.Kind()] = s
}

// Get retrieves the handler for k.
func (r *Registry) Get(k Kind) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.strategies[k]
	if !ok {
		return nil, fmt.Errorf("strategy %s: not registered: %w", k, domain.ErrInvalidStrategy)
	}
	return s, nil
}

// Lookup resolves a name or alias and returns its handler.
func (r *Registry) Lookup(name string) (Strategy, error) {
	k, err := ParseKind(name)
	if err != nil {
		return nil, err
	}
	return r.Get(k)
}

// List returns the registered kinds in declaration order.
func (r *Registry) List() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]Kind, 0, len(r.strategies))
	for k := range r.strategies {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}
