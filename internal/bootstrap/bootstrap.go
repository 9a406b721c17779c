// Package bootstrap loads configuration and assembles the bridge for the CLI
// commands.
package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/nghyane/oc-bridge/internal/cli/env"
	"github.com/nghyane/oc-bridge/internal/config"
	log "github.com/nghyane/oc-bridge/internal/logging"
)

// Result contains the result of bootstrapping the application.
type Result struct {
	Config         *config.Config
	ConfigFilePath string
}

// Bootstrap loads .env, resolves and reads the config file, then applies
// environment overrides. An empty configPath selects the XDG default, which
// is created on first run.
func Bootstrap(configPath string) (*Result, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	if errLoad := godotenv.Load(filepath.Join(wd, ".env")); errLoad != nil {
		if !errors.Is(errLoad, os.ErrNotExist) {
			log.WithError(errLoad).Warn("failed to load .env file")
		}
	}

	defaultConfigPath := config.DefaultConfigPath()
	if configPath == "" {
		configPath = defaultConfigPath
	}
	if resolved, errResolve := config.ExpandPath(configPath); errResolve == nil {
		configPath = resolved
	}

	if configPath == defaultConfigPath {
		if _, statErr := os.Stat(configPath); os.IsNotExist(statErr) {
			autoInitConfig(configPath)
		}
	}

	cfg, err := config.LoadConfigOptional(configPath, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}

	ApplyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Result{
		Config:         cfg,
		ConfigFilePath: configPath,
	}, nil
}

// ApplyEnvOverrides applies OC_BRIDGE_* environment overrides.
func ApplyEnvOverrides(cfg *config.Config) {
	if port, ok := env.LookupEnvInt("OC_BRIDGE_PORT"); ok {
		cfg.Port = port
		log.Infof("Port overridden by env: %d", port)
	}

	if url, ok := env.LookupEnv("OC_BRIDGE_BACKEND_URL"); ok {
		cfg.Backend.URL = url
		log.Infof("Backend URL overridden by env: %s", url)
	}

	if user, ok := env.LookupEnv("OC_BRIDGE_BACKEND_USERNAME"); ok {
		cfg.Backend.Username = user
		log.Infof("Backend username overridden by env")
	}

	if password, ok := env.LookupEnv("OC_BRIDGE_BACKEND_PASSWORD"); ok {
		cfg.Backend.Password = password
		log.Infof("Backend password overridden by env")
	}

	if workspace, ok := env.LookupEnv("OC_BRIDGE_WORKSPACE"); ok {
		cfg.Backend.Workspace = workspace
		log.Infof("Workspace overridden by env: %s", workspace)
	}

	if model, ok := env.LookupEnv("OC_BRIDGE_DEFAULT_MODEL"); ok {
		cfg.DefaultModel = model
		log.Infof("Default model overridden by env: %s", model)
	}

	if tokenizer, ok := env.LookupEnv("OC_BRIDGE_TOKENIZER"); ok {
		cfg.Tokenizer = tokenizer
		log.Infof("Tokenizer overridden by env: %s", tokenizer)
	}

	if debug, ok := env.LookupEnvBool("OC_BRIDGE_DEBUG"); ok {
		cfg.Debug = debug
		log.Infof("Debug overridden by env: %v", debug)
	}

	if loggingToFile, ok := env.LookupEnvBool("OC_BRIDGE_LOGGING_TO_FILE"); ok {
		cfg.LoggingToFile = loggingToFile
		log.Infof("Logging to file overridden by env: %v", loggingToFile)
	}

	if dsn, ok := env.LookupEnv("OC_BRIDGE_USAGE_DSN"); ok {
		cfg.Usage.DSN = dsn
		log.Infof("Usage DSN overridden by env")
	}

	if proxyURL, ok := env.LookupEnv("OC_BRIDGE_PROXY_URL"); ok {
		cfg.Backend.ProxyURL = proxyURL
		log.Infof("Proxy URL overridden by env")
	}
}

// autoInitConfig silently creates config on first run.
func autoInitConfig(configPath string) {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o700); err != nil {
		return
	}
	if err := os.WriteFile(configPath, config.GenerateDefaultConfigYAML(), 0o600); err != nil {
		return
	}
	fmt.Fprintf(os.Stderr, "First run: created config at %s\n", configPath)
}
