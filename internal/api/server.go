// Package api provides the HTTP server exposing the Messages API subset and
// the dashboard routes.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nghyane/oc-bridge/internal/api/handlers/management"
	"github.com/nghyane/oc-bridge/internal/bridge"
	"github.com/nghyane/oc-bridge/internal/config"
	log "github.com/nghyane/oc-bridge/internal/logging"
)

// ServerOption customizes a Server at construction.
type ServerOption func(*serverOptions)

type serverOptions struct {
	extraMiddleware []gin.HandlerFunc
}

// WithMiddleware appends global middleware after logging and recovery.
func WithMiddleware(mw ...gin.HandlerFunc) ServerOption {
	return func(o *serverOptions) {
		o.extraMiddleware = append(o.extraMiddleware, mw...)
	}
}

// Server is the bridge's HTTP front end.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	translator *bridge.Translator
	mgmt       *management.Handler
	limiter    rateLimiter
}

// NewServer builds the gin engine and registers every route.
func NewServer(cfg *config.Config, translator *bridge.Translator, opts ...ServerOption) *Server {
	var o serverOptions
	for _, opt := range opts {
		opt(&o)
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		engine:     gin.New(),
		translator: translator,
		mgmt:       management.NewHandler(translator, cfg),
	}
	s.limiter.update(cfg.RateLimit)
	s.setupMiddleware(o.extraMiddleware)
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/", serveDashboard)
	s.engine.GET("/healthz", s.handleHealth)

	v1 := s.engine.Group("/v1")
	v1.Use(s.limiter.middleware())
	{
		v1.POST("/messages", s.handleMessages)
		v1.POST("/messages/count_tokens", s.handleCountTokens)
		v1.GET("/models", s.handleListModels)
		v1.GET("/models/list", s.handleListModels)
		v1.GET("/authenticate", s.handleAuthenticate)
		v1.GET("/whoami", s.handleWhoami)
	}

	mgmt := s.engine.Group("/api")
	{
		mgmt.POST("/model", s.mgmt.SelectModel)
		mgmt.GET("/models", s.mgmt.ListModels)
		mgmt.POST("/models/refresh", s.mgmt.RefreshModels)
		mgmt.POST("/reset-session", s.mgmt.ResetSession)
		mgmt.POST("/reset-stats", s.mgmt.ResetStats)
		mgmt.GET("/status", s.mgmt.Status)
		mgmt.GET("/usage", s.mgmt.GetUsage)
		mgmt.GET("/config", s.mgmt.GetConfig)
		mgmt.GET("/debug", s.mgmt.GetDebug)
		mgmt.PUT("/debug", s.mgmt.PutDebug)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	resp := gin.H{"status": "ok"}
	if h, ok := s.translator.BackendHealth(); ok {
		resp["backend"] = h
	}
	c.JSON(http.StatusOK, resp)
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// ApplyConfig applies the reloadable parts of cfg: the rate limit and the
// config served on /api/config.
func (s *Server) ApplyConfig(cfg *config.Config) {
	s.limiter.update(cfg.RateLimit)
	s.mgmt.SetConfig(cfg)
}

// Start listens and serves until Stop is called.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln until Stop is called.
func (s *Server) Serve(ln net.Listener) error {
	log.Infof("oc-bridge listening on http://%s", ln.Addr())
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
