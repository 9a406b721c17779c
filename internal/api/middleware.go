package api

import (
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/nghyane/oc-bridge/internal/config"
	"github.com/nghyane/oc-bridge/internal/logging"
	"golang.org/x/time/rate"
)

// corsMiddleware returns a Gin middleware handler that adds CORS headers
// to every response, allowing cross-origin requests.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "*")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// setupMiddleware configures all global middleware for the API server:
// logging, recovery, CORS.
func (s *Server) setupMiddleware(extraMiddleware []gin.HandlerFunc) {
	s.engine.Use(logging.GinLogrusLogger())
	s.engine.Use(logging.GinLogrusRecovery())
	for _, mw := range extraMiddleware {
		s.engine.Use(mw)
	}
	s.engine.Use(corsMiddleware())
}

// rateLimiter guards the /v1 surface. The limiter is swapped atomically on
// config reload; nil means unlimited.
type rateLimiter struct {
	limiter atomic.Pointer[rate.Limiter]
}

func newLimiter(cfg config.RateLimitConfig) *rate.Limiter {
	if cfg.RequestsPerSecond <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = max(1, int(cfg.RequestsPerSecond))
	}
	return rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
}

func (r *rateLimiter) update(cfg config.RateLimitConfig) {
	r.limiter.Store(newLimiter(cfg))
}

func (r *rateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l := r.limiter.Load(); l != nil && !l.Allow() {
			abortAPIError(c, http.StatusTooManyRequests, "rate_limit_error", "rate limit exceeded")
			return
		}
		c.Next()
	}
}
