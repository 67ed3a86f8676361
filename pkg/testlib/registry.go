package testlib

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

var (
	// ErrInvalidDefinition is returned when registering a definition without a name or constructor.
	ErrInvalidDefinition = errors.New("invalid test-set definition")
	// ErrDuplicateTestset is returned when a name is registered twice.
	ErrDuplicateTestset = errors.New("test-set already registered")
	// ErrUnknownTestset is returned when looking up a name that was never registered.
	ErrUnknownTestset = errors.New("unknown test-set")
)

// Registry holds the test-sets known to the driver.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{definitions: map[string]Definition{}}
}

// Register adds a definition.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" || def.New == nil {
		return fmt.Errorf("%w: name and constructor are required", ErrInvalidDefinition)
	}

	err := validateTestNames(def)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.definitions[def.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTestset, def.Name)
	}

	r.definitions[def.Name] = def

	return nil
}

// MustRegister is Register for static registration tables; it panics on error.
func (r *Registry) MustRegister(defs ...Definition) {
	for _, def := range defs {
		err := r.Register(def)
		if err != nil {
			panic(err)
		}
	}
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.definitions[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknownTestset, name)
	}

	return def, nil
}

// Definitions returns every registered definition sorted by name.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := slices.Sorted(maps.Keys(r.definitions))
	defs := make([]Definition, 0, len(names))

	for _, name := range names {
		defs = append(defs, r.definitions[name])
	}

	return defs
}

func validateTestNames(def Definition) error {
	seen := make(map[string]struct{}, len(def.Tests))

	for _, name := range def.Tests {
		if name == "" || strings.Contains(name, ".") {
			return fmt.Errorf("%w: %s: invalid test name %q", ErrInvalidDefinition, def.Name, name)
		}

		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: %s: test %q declared twice", ErrInvalidDefinition, def.Name, name)
		}

		seen[name] = struct{}{}
	}

	return nil
}
