package management

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nghyane/oc-bridge/internal/config"
	log "github.com/nghyane/oc-bridge/internal/logging"
)

// GetConfig returns the running config. The backend password is never
// serialized and credentials in the usage DSN and proxy URL are masked.
func (h *Handler) GetConfig(c *gin.Context) {
	cfg := h.getConfig()
	if cfg == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	cfgCopy := *cfg
	cfgCopy.Usage.DSN = config.RedactURL(cfgCopy.Usage.DSN)
	cfgCopy.Backend.ProxyURL = config.RedactURL(cfgCopy.Backend.ProxyURL)
	c.JSON(http.StatusOK, &cfgCopy)
}

// GetDebug reports whether debug logging is on.
func (h *Handler) GetDebug(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"debug": log.IsDebug()})
}

// PutDebug toggles debug logging until the next config reload.
func (h *Handler) PutDebug(c *gin.Context) {
	var body struct {
		Value *bool `json:"value"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Value == nil {
		respondBadRequest(c, "invalid body")
		return
	}
	log.SetDebug(*body.Value)
	respondOK(c, gin.H{"debug": *body.Value})
}
