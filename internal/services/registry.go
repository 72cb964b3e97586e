package services

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Constructor builds a fresh service instance for one request.
type Constructor func() Service

// Registry maps service names to constructors. Services are
// constructed per request so handlers never share mutable state.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// Register adds a service constructor under its name. Registering the
// same name twice is a programming error.
func (r *Registry) Register(name string, constructor Constructor) error {
	key := strings.ToLower(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.constructors[key]; exists {
		return fmt.Errorf("service %q is already registered", name)
	}
	r.constructors[key] = constructor
	return nil
}

// MustRegister is Register that panics on conflict. Use during startup
// wiring where a duplicate name is fatal.
func (r *Registry) MustRegister(name string, constructor Constructor) {
	if err := r.Register(name, constructor); err != nil {
		panic(err)
	}
}

// Resolve constructs a fresh instance of the named service.
func (r *Registry) Resolve(name string) (Service, bool) {
	r.mu.RLock()
	constructor, ok := r.constructors[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return constructor(), true
}

// Names returns the registered service names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
