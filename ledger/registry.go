package ledger

import (
	"fmt"
	"sort"
)

// Registry indexes strategies by kind. It is immutable after construction and
// safe for concurrent use.
type Registry struct {
	strategies map[Kind]Strategy
}

// NewRegistry indexes strategies by kind. Registering two strategies for the
// same kind fails with ErrDuplicateStrategy.
func NewRegistry(strategies ...Strategy) (*Registry, error) {
	r := &Registry{strategies: make(map[Kind]Strategy, len(strategies))}
	for _, s := range strategies {
		if s == nil {
			continue
		}
		if _, ok := r.strategies[s.Kind()]; ok {
			return nil, fmt.Errorf("register %s: %w", s.Kind(), ErrDuplicateStrategy)
		}
		r.strategies[s.Kind()] = s
	}
	return r, nil
}

// Resolve returns the strategy registered for kind.
func (r *Registry) Resolve(kind Kind) (Strategy, error) {
	s, ok := r.strategies[kind]
	if !ok {
		return nil, &StrategyNotFoundError{Kind: kind}
	}
	return s, nil
}

func (r *Registry) Has(kind Kind) bool {
	_, ok := r.strategies[kind]
	return ok
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.strategies))
	for k := range r.strategies {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
