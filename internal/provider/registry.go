// Package provider holds the backend-independent machinery shared by task
// provider adapters: the type registry, typed errors, event emission, polling
// and identifier resolution caching.
package provider

import (
	"sort"
	"sync"

	"github.com/example/deck/internal/models"
	"github.com/example/deck/internal/ports/secondary"
)

// Constructor builds an uninitialized provider. It must not perform I/O.
type Constructor func(opts Options) (secondary.TaskProvider, error)

// Factory maps provider-type tags to constructors.
type Factory struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewFactory creates a Factory with no registrations.
func NewFactory() *Factory {
	return &Factory{ctors: make(map[string]Constructor)}
}

// Register adds or replaces the constructor for providerType.
func (f *Factory) Register(providerType string, ctor Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctors[providerType] = ctor
}

// Create looks up cfg.Type and constructs a new provider with cfg.Options.
func (f *Factory) Create(cfg models.ProviderConfig) (secondary.TaskProvider, error) {
	f.mu.RLock()
	ctor, ok := f.ctors[cfg.Type]
	f.mu.RUnlock()
	if !ok {
		return nil, &UnknownProviderTypeError{Type: cfg.Type}
	}
	return ctor(Options(cfg.Options))
}

// RegisteredTypes returns the registered tags in sorted order.
func (f *Factory) RegisteredTypes() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	types := make([]string, 0, len(f.ctors))
	for t := range f.ctors {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
