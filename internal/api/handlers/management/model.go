package management

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nghyane/oc-bridge/internal/bridge"
	log "github.com/nghyane/oc-bridge/internal/logging"
)

// SelectModel switches the current model. Unknown ids answer 400.
func (h *Handler) SelectModel(c *gin.Context) {
	var body SelectModelRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "invalid body")
		return
	}
	if err := h.translator.SelectModel(body.ModelID); err != nil {
		if errors.Is(err, bridge.ErrUnknownModel) {
			respondBadRequest(c, "Model not found")
			return
		}
		respondInternalError(c, err.Error())
		return
	}
	respondOK(c, gin.H{"model": body.ModelID})
}

// ListModels returns the registry for the dashboard, grouped by provider,
// with the current model marked.
func (h *Handler) ListModels(c *gin.Context) {
	current := h.translator.CurrentModel()
	providers := h.translator.Providers()

	resp := ModelsResponse{
		CurrentModel: current,
		Providers:    make([]ProviderGroup, 0, len(providers)),
		Models:       make([]DashboardModel, 0, len(h.translator.Models())),
	}
	if updated := h.translator.ModelsUpdatedAt(); !updated.IsZero() {
		resp.UpdatedAt = &updated
	}
	for _, providerID := range providers {
		group := ProviderGroup{ID: providerID, Name: providerID}
		for _, m := range h.translator.ModelsByProvider(providerID) {
			if m.ProviderName != "" {
				group.Name = m.ProviderName
			}
			name := m.Name
			if name == "" {
				name = m.ModelID
			}
			group.Models = append(group.Models, m.ID)
			resp.Models = append(resp.Models, DashboardModel{
				ID:       m.ID,
				Name:     name,
				Provider: group.Name,
				Free:     m.Free,
				Current:  m.ID == current,
			})
		}
		resp.Providers = append(resp.Providers, group)
	}
	c.JSON(http.StatusOK, resp)
}

// RefreshModels reloads the registry from the backend.
func (h *Handler) RefreshModels(c *gin.Context) {
	if err := h.translator.RefreshModels(c.Request.Context()); err != nil {
		log.WithError(err).Warn("model refresh failed")
		respondError(c, http.StatusBadGateway, err.Error())
		return
	}
	respondOK(c, gin.H{"count": len(h.translator.Models())})
}
