package service

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

type registryEntry struct {
	mu    sync.Mutex
	agent *Agent
}

// Registry hosts many agents. Each agent has its own lock, so work on one agent never
// waits on another, and a tick is never interleaved with an API mutation.
type Registry struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*registryEntry
	order   []uuid.UUID
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[uuid.UUID]*registryEntry)}
}

func (r *Registry) Register(a *Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[a.ID()]; ok {
		return ErrAgentConflict
	}
	r.entries[a.ID()] = &registryEntry{agent: a}
	r.order = append(r.order, a.ID())
	return nil
}

// Remove unregisters id. Work already holding the agent's lock runs to completion.
func (r *Registry) Remove(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return ErrAgentNotFound
	}
	delete(r.entries, id)
	r.order = slices.DeleteFunc(r.order, func(x uuid.UUID) bool { return x == id })
	return nil
}

// IDs lists registered agents in registration order.
func (r *Registry) IDs() []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// With runs fn while holding the agent's lock.
func (r *Registry) With(id uuid.UUID, fn func(a *Agent) error) error {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return ErrAgentNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.agent)
}

// Tick runs one deliberation cycle for id.
func (r *Registry) Tick(ctx context.Context, id uuid.UUID) (*TickReport, error) {
	var report *TickReport
	err := r.With(id, func(a *Agent) error {
		var err error
		report, err = a.Tick(ctx)
		return err
	})
	return report, err
}
