package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nghyane/oc-bridge/internal/bridge"
	log "github.com/nghyane/oc-bridge/internal/logging"
	"github.com/nghyane/oc-bridge/internal/registry"
	"github.com/nghyane/oc-bridge/internal/usage"
)

// modelEntry is one element of the /v1/models data array.
type modelEntry struct {
	ID                         string `json:"id"`
	Type                       string `json:"type"`
	Name                       string `json:"name"`
	SupportsCachedPreviews     bool   `json:"supports_cached_previews"`
	SupportsSystemInstructions bool   `json:"supports_system_instructions"`
}

func (s *Server) readChatRequest(c *gin.Context) (*bridge.ChatRequest, bool) {
	body, err := c.GetRawData()
	if err != nil {
		abortAPIError(c, http.StatusBadRequest, "invalid_request_error", "failed to read body")
		return nil, false
	}
	req, err := bridge.ParseChatRequest(body)
	if err != nil {
		writeBridgeError(c, err)
		return nil, false
	}
	req.Source = usage.SourceHTTP
	return req, true
}

func (s *Server) handleMessages(c *gin.Context) {
	req, ok := s.readChatRequest(c)
	if !ok {
		return
	}
	res, err := s.translator.HandleChat(c.Request.Context(), req)
	if err != nil {
		log.WithError(err).Warn("chat request failed")
		writeBridgeError(c, err)
		return
	}
	if res.Count != nil {
		c.JSON(http.StatusOK, res.Count)
		return
	}
	c.JSON(http.StatusOK, res.Message)
}

func (s *Server) handleCountTokens(c *gin.Context) {
	req, ok := s.readChatRequest(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.translator.HandleCountTokens(req))
}

func (s *Server) handleListModels(c *gin.Context) {
	models := s.translator.Models()
	data := make([]modelEntry, 0, len(models))
	for _, m := range models {
		data = append(data, toModelEntry(m))
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func toModelEntry(m registry.Model) modelEntry {
	name := m.Name
	if name == "" {
		name = m.ID
	}
	return modelEntry{
		ID:                         m.ID,
		Type:                       "model",
		Name:                       name,
		SupportsCachedPreviews:     true,
		SupportsSystemInstructions: true,
	}
}

func (s *Server) handleAuthenticate(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"type": "authentication", "authenticated": true})
}

func (s *Server) handleWhoami(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"type":  "user",
		"id":    "user_oc_bridge",
		"name":  "oc-bridge",
		"email": "oc-bridge@localhost",
	})
}
