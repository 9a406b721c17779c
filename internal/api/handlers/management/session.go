package management

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/nghyane/oc-bridge/internal/logging"
)

// ResetSession creates a fresh backend session.
func (h *Handler) ResetSession(c *gin.Context) {
	id, err := h.translator.ResetSession(c.Request.Context())
	if err != nil {
		log.WithError(err).Warn("session reset failed")
		respondInternalError(c, err.Error())
		return
	}
	respondOK(c, gin.H{"sessionId": id})
}

// ResetStats zeroes the request and token counters.
func (h *Handler) ResetStats(c *gin.Context) {
	h.translator.ResetStats()
	respondOK(c, gin.H{"message": "Stats reset"})
}

// Status reports the current model, counters and session state.
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.translator.Status())
}
