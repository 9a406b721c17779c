package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nghyane/oc-bridge/internal/bridge"
)

// apiError is the Messages API error envelope.
type apiError struct {
	Type  string       `json:"type"`
	Error apiErrorBody `json:"error"`
}

type apiErrorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func abortAPIError(c *gin.Context, status int, errType, message string) {
	c.AbortWithStatusJSON(status, apiError{
		Type:  "error",
		Error: apiErrorBody{Type: errType, Message: message},
	})
}

// writeBridgeError maps façade errors onto Messages API errors. Backend
// failures are 500 api_error.
func writeBridgeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, bridge.ErrInvalidRequest):
		abortAPIError(c, http.StatusBadRequest, "invalid_request_error", err.Error())
	default:
		abortAPIError(c, http.StatusInternalServerError, "api_error", err.Error())
	}
}
