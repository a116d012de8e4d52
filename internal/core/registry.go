package core

import (
	"context"
	"sort"
	"sync"

	"resizer/internal/core/engine"
)

// Registry holds all known strategies and applies a resolved route
// policy to produce an ordered, filtered candidate list per request.
// Registration happens at startup; afterwards the registry is
// read-mostly and safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
	}
}

// Register inserts the strategy, replacing any previous registration
// with the same name.
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[s.Name()] = s
}

// Names returns the registered strategy names sorted by priority.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]Strategy, 0, len(r.strategies))
	for _, s := range r.strategies {
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Priority() < all[j].Priority()
	})
	names := make([]string, len(all))
	for i, s := range all {
		names[i] = s.Name()
	}
	return names
}

// ResolveOrder returns all registered strategies sorted by position in
// the policy's priority order when listed there, else by the strategy's
// own numeric priority. Ties break by priority ascending.
func (r *Registry) ResolveOrder(policy *engine.RoutePolicy) []Strategy {
	r.mu.RLock()
	all := make([]Strategy, 0, len(r.strategies))
	for _, s := range r.strategies {
		all = append(all, s)
	}
	r.mu.RUnlock()

	position := make(map[string]int, len(policy.PriorityOrder))
	for i, name := range policy.PriorityOrder {
		position[name] = i
	}
	rank := func(s Strategy) int {
		if pos, ok := position[s.Name()]; ok {
			return pos
		}
		// Unlisted strategies sort after every listed one.
		return len(position) + s.Priority()
	}

	sort.SliceStable(all, func(i, j int) bool {
		ri, rj := rank(all[i]), rank(all[j])
		if ri != rj {
			return ri < rj
		}
		return all[i].Priority() < all[j].Priority()
	})
	return all
}

// FindEligible returns the resolved order filtered by the policy's
// enabled/disabled sets and each strategy's capability predicate. An
// empty result is a valid outcome; the dispatcher degrades.
func (r *Registry) FindEligible(ctx context.Context, req *Request, policy *engine.RoutePolicy) []Strategy {
	ordered := r.ResolveOrder(policy)
	eligible := make([]Strategy, 0, len(ordered))
	for _, s := range ordered {
		if policy.IsDisabled(s.Name()) {
			continue
		}
		if !s.CanHandle(ctx, req) {
			continue
		}
		eligible = append(eligible, s)
	}
	return eligible
}
