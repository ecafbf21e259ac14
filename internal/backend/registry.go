package backend

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages dialect instances.
type Registry struct {
	dialects map[BackendProvider]Dialect
	mu       sync.RWMutex
}

// NewRegistry creates a new dialect registry.
func NewRegistry() *Registry {
	return &Registry{
		dialects: make(map[BackendProvider]Dialect),
	}
}

// Register adds a dialect to the registry.
func (r *Registry) Register(d Dialect) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := d.Provider()
	if _, exists := r.dialects[p]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, p)
	}

	r.dialects[p] = d
	return nil
}

// Replace adds or overwrites the dialect for its provider.
func (r *Registry) Replace(d Dialect) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.dialects[d.Provider()] = d
}

// Get retrieves a dialect by provider.
func (r *Registry) Get(p BackendProvider) (Dialect, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.dialects[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return d, nil
}

// Providers returns the registered providers in name order.
func (r *Registry) Providers() []BackendProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]BackendProvider, 0, len(r.dialects))
	for p := range r.dialects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}
