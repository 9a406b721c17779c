package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nghyane/oc-bridge/internal/api"
	"github.com/nghyane/oc-bridge/internal/bootstrap"
	"github.com/nghyane/oc-bridge/internal/config"
	log "github.com/nghyane/oc-bridge/internal/logging"
	"github.com/nghyane/oc-bridge/internal/watcher"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the oc-bridge server",
	Long: `Start the HTTP bridge.

Loads the configuration, fetches the model catalog from the backend and
serves the Messages API on /v1, the dashboard API on /api and the dashboard
page on /.`,
	RunE: func(c *cobra.Command, args []string) error {
		return runServe(c.Context(), servePort)
	},
}

// loadConfig bootstraps the config and routes logging the way it asks.
func loadConfig() (*bootstrap.Result, error) {
	log.SetupBaseLogger()

	result, err := bootstrap.Bootstrap(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to bootstrap: %w", err)
	}
	cfg := result.Config
	if err := log.ConfigureLogOutput(cfg.LoggingToFile, cfg.LogDir); err != nil {
		return nil, fmt.Errorf("failed to configure log output: %w", err)
	}
	log.SetDebug(cfg.Debug)
	return result, nil
}

func runServe(parent context.Context, port int) error {
	if parent == nil {
		parent = context.Background()
	}
	result, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := result.Config
	if port != 0 {
		cfg.Port = port
	}

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if errClose := app.Close(); errClose != nil {
			log.Warnf("usage history close: %v", errClose)
		}
	}()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.RefreshModels(ctx)
	log.Infof("Backend %s, model %s, %d models available",
		app.Backend.BaseURL(), app.Translator.CurrentModel(), len(app.Translator.Models()))

	server := api.NewServer(cfg, app.Translator)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		w := watcher.New(result.ConfigFilePath, func(next *config.Config) {
			if err := prepareReload(next, port); err != nil {
				log.Errorf("reloaded config rejected, keeping previous config: %v", err)
				return
			}
			log.SetDebug(next.Debug)
			server.ApplyConfig(next)
			if next.Port != cfg.Port || next.Backend.URL != cfg.Backend.URL {
				log.Info("port or backend changes take effect after a restart")
			}
		})
		if err := w.Run(gctx); err != nil {
			log.Warnf("config watcher stopped: %v", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Stop(shutdownCtx)
	})
	return g.Wait()
}

// prepareReload builds a reloaded config the same way the startup one was
// built: OC_BRIDGE_* variables and the --port flag win over the file.
func prepareReload(next *config.Config, port int) error {
	bootstrap.ApplyEnvOverrides(next)
	if port != 0 {
		next.Port = port
	}
	return next.Validate()
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "server port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
