package feed

import (
	"fmt"
	"sync"
)

// ---------------------------------------------------------------------------
// Adapter Registry
// ---------------------------------------------------------------------------

// AdapterRegistry holds the adapter constructors known to the system,
// keyed by API type. It is safe for concurrent use.
type AdapterRegistry struct {
	mu           sync.RWMutex
	constructors map[string]AdapterConstructor
}

// NewAdapterRegistry creates an empty registry.
func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{
		constructors: make(map[string]AdapterConstructor),
	}
}

// Register adds a constructor for the given API type, replacing any
// previous registration.
func (r *AdapterRegistry) Register(apiType string, constructor AdapterConstructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[apiType] = constructor
}

// Resolve builds an adapter for the given API type and configuration.
func (r *AdapterRegistry) Resolve(apiType string, cfg AdapterConfig) (VendorAdapter, error) {
	r.mu.RLock()
	constructor, ok := r.constructors[apiType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAdapterNotRegistered, apiType)
	}
	return constructor(cfg)
}

// Types returns the registered API types.
func (r *AdapterRegistry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.constructors))
	for t := range r.constructors {
		types = append(types, t)
	}
	return types
}
