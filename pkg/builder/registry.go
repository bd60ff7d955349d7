package builder

import (
	"fmt"
	"sort"
	"sync"
)

var (
	mu       sync.RWMutex
	builders = make(map[string]Builder)
)

// init registers the built-in builders. The docker builder registers itself
// from its own package so this one stays free of the docker dependency.
func init() {
	if err := Register(NewHugo()); err != nil {
		panic(fmt.Sprintf("failed to register hugo builder: %v", err))
	}
	if err := Register(NewJekyll()); err != nil {
		panic(fmt.Sprintf("failed to register jekyll builder: %v", err))
	}
	if err := Register(NewCommand()); err != nil {
		panic(fmt.Sprintf("failed to register command builder: %v", err))
	}
}

// Register registers a builder under its name.
// If a builder with the same name is already registered, it returns an error.
func Register(b Builder) error {
	if b == nil {
		return fmt.Errorf("cannot register nil builder")
	}

	name := b.Name()
	if name == "" {
		return fmt.Errorf("builder name cannot be empty")
	}

	mu.Lock()
	defer mu.Unlock()

	if _, exists := builders[name]; exists {
		return fmt.Errorf("builder '%s' is already registered", name)
	}

	builders[name] = b
	return nil
}

// Unregister removes a builder from the registry.
func Unregister(name string) error {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := builders[name]; !exists {
		return fmt.Errorf("builder '%s' is not registered", name)
	}

	delete(builders, name)
	return nil
}

// Get retrieves a builder by name.
// Returns nil if the builder is not found.
func Get(name string) Builder {
	mu.RLock()
	defer mu.RUnlock()

	return builders[name]
}

// List returns all registered builder names in sorted order.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a builder with the given name is registered.
func IsRegistered(name string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, exists := builders[name]
	return exists
}

// Resolve retrieves a builder by name and errors with the registered names
// when the lookup fails.
func Resolve(name string) (Builder, error) {
	b := Get(name)
	if b == nil {
		return nil, fmt.Errorf("unknown builder '%s' (registered: %v)", name, List())
	}
	return b, nil
}
