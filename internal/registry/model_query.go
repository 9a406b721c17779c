package registry

import (
	"sort"
	"time"
)

// Lookup returns the model registered under id.
func (r *ModelRegistry) Lookup(id string) (Model, bool) {
	m, ok := r.snapshot().models[id]
	return m, ok
}

// Has reports whether id is registered.
func (r *ModelRegistry) Has(id string) bool {
	_, ok := r.Lookup(id)
	return ok
}

// List returns every model sorted by id.
func (r *ModelRegistry) List() []Model {
	s := r.snapshot()
	out := make([]Model, 0, len(s.ordered))
	for _, id := range s.ordered {
		out = append(out, s.models[id])
	}
	return out
}

// ByProvider returns the models of one provider sorted by id.
func (r *ModelRegistry) ByProvider(providerID string) []Model {
	s := r.snapshot()
	ids := s.byProvider[providerID]
	out := make([]Model, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.models[id])
	}
	return out
}

// Providers returns the provider ids present in the registry, sorted.
func (r *ModelRegistry) Providers() []string {
	s := r.snapshot()
	out := make([]string, 0, len(s.byProvider))
	for p := range s.byProvider {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered models.
func (r *ModelRegistry) Len() int {
	return len(r.snapshot().models)
}

// UpdatedAt returns when the registry was last replaced; zero if never.
func (r *ModelRegistry) UpdatedAt() time.Time {
	return r.snapshot().updatedAt
}
