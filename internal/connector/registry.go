package connector

import (
	"fmt"
	"sort"
	"sync"
)

// Factory creates a new, unconnected connector instance.
type Factory func() Connector

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a connector factory available by type name. Connector
// implementations call this from init().
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Get returns the factory registered for the given type name.
func Get(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	factory, ok := registry[name]
	return factory, ok
}

// IsRegistered reports whether a connector type is registered.
func IsRegistered(name string) bool {
	_, ok := Get(name)
	return ok
}

// ListConnectors returns the registered type names, sorted.
func ListConnectors() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownConnectorError is returned when a config names a type that has no
// registered connector.
type UnknownConnectorError struct {
	Type      string
	Available []string
}

func (e *UnknownConnectorError) Error() string {
	return fmt.Sprintf("unknown connector type %q (available: %v); check the database section of quarry.yaml", e.Type, e.Available)
}

// NewConnector creates an unconnected connector for the configured type.
func NewConnector(cfg Config) (Connector, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("connector type not specified")
	}

	factory, ok := Get(cfg.Type)
	if !ok {
		return nil, &UnknownConnectorError{Type: cfg.Type, Available: ListConnectors()}
	}

	return factory(), nil
}
