package management

import "time"

// SelectModelRequest is the POST /api/model body.
type SelectModelRequest struct {
	ModelID string `json:"modelId"`
}

// DashboardModel is one row of the dashboard model picker.
type DashboardModel struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Free     bool   `json:"free"`
	Current  bool   `json:"current"`
}

// ProviderGroup names one provider and the ids of its models, in the
// order they appear in Models.
type ProviderGroup struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Models []string `json:"models"`
}

// ModelsResponse is the GET /api/models payload. Models are grouped by
// provider.
type ModelsResponse struct {
	CurrentModel string           `json:"currentModel"`
	UpdatedAt    *time.Time       `json:"updatedAt,omitempty"`
	Providers    []ProviderGroup  `json:"providers"`
	Models       []DashboardModel `json:"models"`
}
