package model

import (
	"sort"
	"sync"
)

// Origin records where a catalog entry came from.
type Origin string

const (
	OriginConfig Origin = "config"
	OriginScan   Origin = "scan"
)

// Entry is a selectable model file.
type Entry struct {
	ID          string
	Path        string
	Description string
	Origin      Origin
	Size        int64
}

// Registry stores catalog entries by ID.
type Registry struct {
	entries map[string]Entry
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
	}
}

// Set adds or replaces an entry.
func (r *Registry) Set(entry Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[entry.ID] = entry
}

// Get returns the entry with the given ID.
func (r *Registry) Get(id string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[id]
	return entry, ok
}

// List returns all entries sorted by ID.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}

// Delete deletes the entry with the given ID.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, id)
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}
