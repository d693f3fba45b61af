package connector

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/inletlabs/inlet/pkg/errors"
	"github.com/inletlabs/inlet/pkg/logger"
)

// Factory creates a fresh connector instance for one run.
type Factory func() Connector

// Registry maps connector names to factories. Connector packages
// self-register in init(); the CLI pulls them in with blank imports and
// resolves names through the global instance.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	logger    *zap.Logger
}

var globalRegistry = NewRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		logger:    logger.Get().With(zap.String("component", "connector_registry")),
	}
}

// Register adds a factory under name. Empty names, nil factories and
// duplicate registrations are configuration errors.
func (r *Registry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		return errors.New(errors.ErrorTypeConfig, "connector name must not be empty")
	}
	if factory == nil {
		return errors.Newf(errors.ErrorTypeConfig, "connector %s registered without a factory", name)
	}
	if _, exists := r.factories[name]; exists {
		return errors.Newf(errors.ErrorTypeConfig, "connector %s already registered", name)
	}

	r.factories[name] = factory
	r.logger.Debug("connector registered", zap.String("name", name))
	return nil
}

// Create instantiates the named connector.
func (r *Registry) Create(name string) (Connector, error) {
	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown connector %s", name)
	}
	return factory(), nil
}

// List returns registered connector names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a connector is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[name]
	return exists
}

// Clear removes all registrations. Tests only.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories = make(map[string]Factory)
}

// Global registry functions

// Register adds a connector factory to the global registry.
func Register(name string, factory Factory) error {
	return globalRegistry.Register(name, factory)
}

// Create instantiates a connector from the global registry.
func Create(name string) (Connector, error) {
	return globalRegistry.Create(name)
}

// List returns the global registry's connector names, sorted.
func List() []string {
	return globalRegistry.List()
}

// Has reports whether the global registry knows the named connector.
func Has(name string) bool {
	return globalRegistry.Has(name)
}
