package registry

import (
	"fmt"
	"slices"
	"sync"
)

// Registry is a concurrency-safe name index. The solver keeps its search
// strategy factories in one; adapters may register their own.
type Registry[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

// New creates an empty registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{
		items: make(map[string]T),
	}
}

// Register adds an entry.
// If an entry with the same name exists, it is overwritten.
func (r *Registry[T]) Register(name string, item T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[name] = item
}

// Get looks up an entry by name.
// Returns an error if the name is not registered.
func (r *Registry[T]) Get(name string) (T, error) {
	r.mu.RLock()
	item, ok := r.items[name]
	r.mu.RUnlock()

	if !ok {
		var zero T
		return zero, fmt.Errorf("not registered: %s", name)
	}
	return item, nil
}

// Names lists the registered names in sorted order.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
