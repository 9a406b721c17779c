// Package registry caches the provider/model catalog fetched from the backend.
package registry

import (
	"sync"
	"sync/atomic"
	"time"
)

// Model is one selectable provider/model pair.
type Model struct {
	// ID is "providerID/modelID", the identifier clients select by.
	ID           string `json:"id"`
	ProviderID   string `json:"provider_id"`
	ModelID      string `json:"model_id"`
	Name         string `json:"name"`
	ProviderName string `json:"provider_name,omitempty"`
	Source       string `json:"source,omitempty"`
	// Free is true when the backend reports zero input and output cost.
	Free bool `json:"free"`
}

// ModelRegistry uses copy-on-write for lock-free reads.
// Reads load the atomic pointer and work with an immutable snapshot.
// Writes lock writerMu, build a new state and store it atomically.
type ModelRegistry struct {
	state    atomic.Pointer[registryState]
	writerMu sync.Mutex
}

// NewModelRegistry returns an empty registry.
func NewModelRegistry() *ModelRegistry {
	r := &ModelRegistry{}
	r.state.Store(newRegistryState(nil, time.Time{}))
	return r
}

func (r *ModelRegistry) snapshot() *registryState {
	return r.state.Load()
}

// ModelID joins a provider and model into a registry id.
func ModelID(providerID, modelID string) string {
	return providerID + "/" + modelID
}
