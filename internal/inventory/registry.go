package inventory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/invmap/engine/internal/store"
)

// Registry hands out one Synchronizer per owner, created and loaded on first use.
type Registry struct {
	store store.Adapter
	opts  []Option

	mu        sync.Mutex
	syncs     map[uuid.UUID]*Synchronizer
	listeners []Listener
}

func NewRegistry(s store.Adapter, opts ...Option) *Registry {
	return &Registry{store: s, opts: opts, syncs: map[uuid.UUID]*Synchronizer{}}
}

// Subscribe attaches fn to every Synchronizer, present and future.
func (r *Registry) Subscribe(fn Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
	for _, sy := range r.syncs {
		sy.Subscribe(fn)
	}
}

// For returns the owner's Synchronizer, loading it if this is the first call.
func (r *Registry) For(ctx context.Context, ownerID uuid.UUID) (*Synchronizer, error) {
	r.mu.Lock()
	sy, ok := r.syncs[ownerID]
	if !ok {
		sy = NewSynchronizer(ownerID, r.store, r.opts...)
		for _, fn := range r.listeners {
			sy.Subscribe(fn)
		}
		r.syncs[ownerID] = sy
	}
	r.mu.Unlock()

	if err := sy.EnsureLoaded(ctx); err != nil {
		return nil, err
	}
	return sy, nil
}

// Forget drops the cached Synchronizer so the next For reloads from the store.
func (r *Registry) Forget(ownerID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.syncs, ownerID)
}
