package inspect

import (
	"sort"
	"sync"

	"github.com/vango-dev/hookbind/pkg/hook"
)

// Registry maps names to the stores exposed by the inspector.
type Registry struct {
	mu     sync.RWMutex
	stores map[string]*hook.Store[string]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]*hook.Store[string])}
}

// Add registers stores under their names, replacing stores with the same
// name.
func (r *Registry) Add(stores ...*hook.Store[string]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range stores {
		r.stores[s.Name()] = s
	}
}

// Remove unregisters a store.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, name)
}

// Get returns the store registered under name.
func (r *Registry) Get(name string) (*hook.Store[string], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stores[name]
	return s, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.stores))
	for name := range r.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
