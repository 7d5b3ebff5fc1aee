package core

import (
	"fmt"
	"sync"
)

// BuildFunc normalizes one validated row into a record for the store.
// Returned errors are row-local: their message is recorded verbatim.
type BuildFunc func(row RawRow, env *RowEnv) (Record, error)

// TemplateDefinition contains everything needed to import one kind.
type TemplateDefinition struct {
	Template ImportTemplate
	Build    BuildFunc
}

var (
	registry   = make(map[Kind]TemplateDefinition)
	registryMu sync.RWMutex
)

// Register adds a template definition to the registry.
// Panics if the kind is already registered or has no build function.
func Register(def TemplateDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	kind := def.Template.Kind
	if _, exists := registry[kind]; exists {
		panic(fmt.Sprintf("import template already registered: %s", kind))
	}
	if def.Build == nil {
		panic(fmt.Sprintf("import template %s has no build function", kind))
	}

	registry[kind] = def
}

// Get returns a template definition by kind.
// Returns false if not found.
func Get(kind Kind) (TemplateDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[kind]
	return def, ok
}

// GetTemplate returns the column schema of a kind.
func GetTemplate(kind Kind) (ImportTemplate, bool) {
	def, ok := Get(kind)
	return def.Template, ok
}

// All returns all registered definitions in Kinds order.
func All() []TemplateDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]TemplateDefinition, 0, len(registry))
	for _, kind := range Kinds {
		if def, ok := registry[kind]; ok {
			result = append(result, def)
		}
	}
	return result
}

// TemplateCount returns the number of registered templates.
func TemplateCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered templates.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[Kind]TemplateDefinition)
}
