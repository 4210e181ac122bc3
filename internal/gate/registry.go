package gate

import (
	"sync"
	"time"
)

// Registry maps provider ids to their gates, loading persisted state
// lazily on first access. It is replaceable rather than a hard singleton
// so tests can inject a fresh one backed by an in-memory store.
type Registry struct {
	mu    sync.Mutex
	store Store
	gates map[string]*Gate
	now   func() time.Time
}

// NewRegistry creates a registry backed by the given store. A nil store
// yields a purely in-memory registry.
func NewRegistry(store Store) *Registry {
	return &Registry{
		store: store,
		gates: make(map[string]*Gate),
		now:   time.Now,
	}
}

// SetClock replaces the registry's time source. Gates already handed out
// keep the clock they were created with, so call this before For.
func (r *Registry) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// For returns the gate for a provider, creating it from persisted state on
// first access.
func (r *Registry) For(providerID string) *Gate {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.gates[providerID]; ok {
		return g
	}

	g := &Gate{providerID: providerID, store: r.store, now: r.now}
	if r.store != nil {
		if st := r.store.Load(providerID); st != nil {
			g.state = *st
		}
	}
	r.gates[providerID] = g
	return g
}

// Clear resets the gate for a provider, or every known gate when
// providerID is empty.
func (r *Registry) Clear(providerID string) {
	if providerID != "" {
		r.For(providerID).Clear()
		return
	}
	r.mu.Lock()
	gates := make([]*Gate, 0, len(r.gates))
	for _, g := range r.gates {
		gates = append(gates, g)
	}
	r.mu.Unlock()
	for _, g := range gates {
		g.Clear()
	}
}
