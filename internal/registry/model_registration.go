package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/nghyane/oc-bridge/internal/backend"
	log "github.com/nghyane/oc-bridge/internal/logging"
)

// CatalogSource is the backend call the registry refreshes from.
type CatalogSource interface {
	Providers(ctx context.Context) ([]backend.Provider, error)
}

// Replace swaps the whole catalog for models.
func (r *ModelRegistry) Replace(models []Model) {
	r.writerMu.Lock()
	defer r.writerMu.Unlock()
	r.state.Store(newRegistryState(models, time.Now()))
}

// Refresh fetches the provider catalog and replaces the registry wholesale.
// On error the previous snapshot stays in place.
func (r *ModelRegistry) Refresh(ctx context.Context, src CatalogSource) error {
	providers, err := src.Providers(ctx)
	if err != nil {
		return fmt.Errorf("refresh model registry: %w", err)
	}
	models := FromProviders(providers)
	r.Replace(models)
	log.Infof("model registry refreshed: %d models from %d providers", len(models), len(providers))
	return nil
}

// FromProviders flattens a provider catalog into registry models.
func FromProviders(providers []backend.Provider) []Model {
	var models []Model
	for _, p := range providers {
		for _, m := range p.Models {
			name := m.Name
			if name == "" {
				name = m.ID
			}
			models = append(models, Model{
				ID:           ModelID(p.ID, m.ID),
				ProviderID:   p.ID,
				ModelID:      m.ID,
				Name:         name,
				ProviderName: p.Name,
				Source:       p.Source,
				Free:         m.HasCostInfo && m.InputCost == 0 && m.OutputCost == 0,
			})
		}
	}
	return models
}
