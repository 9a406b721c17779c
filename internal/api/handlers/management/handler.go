// Package management serves the dashboard's /api routes: model selection,
// session and counter resets, status and usage history.
package management

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/nghyane/oc-bridge/internal/bridge"
	"github.com/nghyane/oc-bridge/internal/config"
)

// Handler holds the façade and the live config for the management routes.
type Handler struct {
	translator *bridge.Translator

	cfgMu sync.RWMutex
	cfg   *config.Config
}

// NewHandler creates a management handler.
func NewHandler(translator *bridge.Translator, cfg *config.Config) *Handler {
	return &Handler{translator: translator, cfg: cfg}
}

// SetConfig swaps the config snapshot after a reload.
func (h *Handler) SetConfig(cfg *config.Config) {
	h.cfgMu.Lock()
	h.cfg = cfg
	h.cfgMu.Unlock()
}

func (h *Handler) getConfig() *config.Config {
	h.cfgMu.RLock()
	defer h.cfgMu.RUnlock()
	return h.cfg
}

func respondOK(c *gin.Context, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["success"] = true
	c.JSON(http.StatusOK, body)
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": message})
}

func respondBadRequest(c *gin.Context, message string) {
	respondError(c, http.StatusBadRequest, message)
}

func respondInternalError(c *gin.Context, message string) {
	respondError(c, http.StatusInternalServerError, message)
}
