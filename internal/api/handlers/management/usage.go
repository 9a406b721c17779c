package management

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nghyane/oc-bridge/internal/usage"
)

const (
	defaultUsageDays = 7
	maxUsageDays     = 365
)

// GetUsage aggregates the persisted history over the last ?days= days.
func (h *Handler) GetUsage(c *gin.Context) {
	days := defaultUsageDays
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondBadRequest(c, "days must be a positive integer")
			return
		}
		days = min(n, maxUsageDays)
	}

	since := time.Now().AddDate(0, 0, -days)
	summary, err := h.translator.Usage(c.Request.Context(), since)
	if err != nil {
		if errors.Is(err, usage.ErrHistoryDisabled) {
			respondError(c, http.StatusNotFound, err.Error())
			return
		}
		respondInternalError(c, err.Error())
		return
	}

	respondOK(c, gin.H{
		"days":     days,
		"counters": h.translator.Status(),
		"history":  summary,
	})
}
