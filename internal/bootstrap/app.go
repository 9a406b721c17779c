package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/nghyane/oc-bridge/internal/backend"
	"github.com/nghyane/oc-bridge/internal/bridge"
	"github.com/nghyane/oc-bridge/internal/config"
	log "github.com/nghyane/oc-bridge/internal/logging"
	"github.com/nghyane/oc-bridge/internal/registry"
	"github.com/nghyane/oc-bridge/internal/resilience"
	"github.com/nghyane/oc-bridge/internal/usage"
)

// App is the assembled bridge shared by the HTTP and stdio front ends.
type App struct {
	Config     *config.Config
	Backend    *backend.Client
	Registry   *registry.ModelRegistry
	State      *bridge.BridgeState
	Translator *bridge.Translator
	Usage      *usage.Recorder
}

// NewApp wires the backend client, registry, usage recorder and façade.
// The registry starts empty; call RefreshModels to populate it.
func NewApp(cfg *config.Config) (*App, error) {
	client, err := backend.NewClient(BackendOptions(cfg))
	if err != nil {
		return nil, err
	}

	counter, err := bridge.NewCounter(cfg.Tokenizer)
	if err != nil {
		return nil, err
	}

	recorder, err := newRecorder(cfg)
	if err != nil {
		return nil, err
	}

	models := registry.NewModelRegistry()
	sessions := bridge.NewSessionManager(client, cfg.Backend.Workspace)
	state := bridge.NewBridgeState(cfg.DefaultModel, sessions, recorder)

	return &App{
		Config:     cfg,
		Backend:    client,
		Registry:   models,
		State:      state,
		Translator: bridge.NewTranslator(state, client, models, counter),
		Usage:      recorder,
	}, nil
}

// RefreshModels loads the catalog. Failure is logged, not fatal.
func (a *App) RefreshModels(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := a.Translator.RefreshModels(ctx); err != nil {
		log.Warnf("Could not load models from %s: %v", a.Backend.BaseURL(), err)
	}
}

// Close flushes and stops the usage history.
func (a *App) Close() error {
	return a.Usage.Close()
}

// BackendOptions maps the backend config block onto client options.
func BackendOptions(cfg *config.Config) backend.Options {
	b := cfg.Backend
	opts := backend.Options{
		BaseURL:  b.URL,
		Username: b.Username,
		Password: b.Password,
		ProxyURL: b.ProxyURL,
		Timeout:  config.MustDuration(b.Timeout),
		Retry:    resilience.NoRetry,
	}
	if b.Retry.MaxRetries > 0 {
		opts.Retry = resilience.RetryConfig{
			MaxRetries: b.Retry.MaxRetries,
			BaseDelay:  config.MustDuration(b.Retry.BaseDelay),
			MaxDelay:   config.MustDuration(b.Retry.MaxDelay),
		}
	}
	if b.Breaker.Enabled {
		bc := resilience.DefaultBreakerConfig("backend")
		if b.Breaker.FailureThreshold > 0 {
			bc.FailureThreshold = b.Breaker.FailureThreshold
		}
		if d := config.MustDuration(b.Breaker.OpenTimeout); d > 0 {
			bc.Timeout = d
		}
		opts.Breaker = &bc
	}
	return opts
}

func newRecorder(cfg *config.Config) (*usage.Recorder, error) {
	if cfg.Usage.DSN == "" {
		return usage.NewRecorder(nil), nil
	}
	b, err := usage.NewBackend(usage.BackendConfigFrom(cfg.Usage))
	if err != nil {
		return nil, fmt.Errorf("usage backend: %w", err)
	}
	if err := b.Start(); err != nil {
		_ = b.Stop()
		return nil, fmt.Errorf("usage backend: %w", err)
	}
	log.Infof("Usage history enabled: %s", config.RedactURL(cfg.Usage.DSN))
	return usage.NewRecorder(b), nil
}
