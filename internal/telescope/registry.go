package telescope

import (
	"context"
	"sync"
	"time"
)

// Registry holds the telescopes served by this process.
type Registry struct {
	mu     sync.RWMutex
	scopes map[string]*Simulator
	order  []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{scopes: make(map[string]*Simulator)}
}

// Add registers a telescope under its ID.
func (r *Registry) Add(s *Simulator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.scopes[s.ID()]; !ok {
		r.order = append(r.order, s.ID())
	}
	r.scopes[s.ID()] = s
}

// Get looks up a telescope by ID.
func (r *Registry) Get(id string) (*Simulator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.scopes[id]
	return s, ok
}

// List returns all telescopes in registration order.
func (r *Registry) List() []*Simulator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Simulator, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.scopes[id])
	}
	return out
}

// Monitor steps every telescope once per interval until ctx is done. A
// non-positive interval falls back to UpdateInterval.
func (r *Registry) Monitor(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = UpdateInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			for _, s := range r.List() {
				s.Step(interval)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
