package imports

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// EntityDefinition contains everything needed to import one entity type.
// Adding an entity type is a registration, not a new branch in the
// dispatcher.
type EntityDefinition struct {
	Type     EntityType
	Slug     string // URL path segment: "products", "sales-orders"
	Label    string // Display name: "Products"
	Protocol CommitProtocol

	// Decode parses a raw payload row into the entity's row schema.
	// It rejects malformed shapes (wrong JSON type, mistyped fields) so
	// submissions fail fast; business rules run later, during processing.
	Decode func(json.RawMessage) (Row, error)

	// Processor executes the entity's commit protocol against a claimed
	// batch, mutating its summary and error details in place.
	Processor Processor
}

var (
	registry   = make(map[EntityType]EntityDefinition)
	registryMu sync.RWMutex
)

// Register adds an entity definition to the registry.
// Panics if the entity type or slug is already registered.
func Register(def EntityDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Type]; exists {
		panic(fmt.Sprintf("entity type already registered: %s", def.Type))
	}
	for _, existing := range registry {
		if existing.Slug == def.Slug {
			panic(fmt.Sprintf("entity slug already registered: %s", def.Slug))
		}
	}

	registry[def.Type] = def
}

// Get returns the definition for an entity type.
// Returns false if not found.
func Get(entityType EntityType) (EntityDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[entityType]
	return def, ok
}

// BySlug returns the definition whose URL slug matches.
// Returns false if not found.
func BySlug(slug string) (EntityDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, def := range registry {
		if def.Slug == slug {
			return def, true
		}
	}
	return EntityDefinition{}, false
}

// All returns every registered definition, sorted by entity type for
// consistent ordering.
func All() []EntityDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]EntityDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Type < result[j].Type
	})

	return result
}

// Count returns the number of registered entity types.
func Count() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered definitions.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[EntityType]EntityDefinition)
}
