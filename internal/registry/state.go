package registry

import (
	"sort"
	"time"
)

// registryState is an immutable snapshot. Never modify in place.
type registryState struct {
	models     map[string]Model
	ordered    []string
	byProvider map[string][]string
	updatedAt  time.Time
}

func newRegistryState(models []Model, updatedAt time.Time) *registryState {
	s := &registryState{
		models:     make(map[string]Model, len(models)),
		byProvider: make(map[string][]string),
		updatedAt:  updatedAt,
	}
	for _, m := range models {
		if m.ID == "" {
			continue
		}
		if _, dup := s.models[m.ID]; dup {
			continue
		}
		s.models[m.ID] = m
		s.ordered = append(s.ordered, m.ID)
		s.byProvider[m.ProviderID] = append(s.byProvider[m.ProviderID], m.ID)
	}
	sort.Strings(s.ordered)
	for _, ids := range s.byProvider {
		sort.Strings(ids)
	}
	return s
}
