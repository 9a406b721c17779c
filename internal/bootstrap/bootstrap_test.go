package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nghyane/oc-bridge/internal/config"
)

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("OC_BRIDGE_PORT", "9999")
	t.Setenv("OC_BRIDGE_BACKEND_URL", "http://10.0.0.2:4096")
	t.Setenv("OC_BRIDGE_BACKEND_PASSWORD", "hunter2")
	t.Setenv("OC_BRIDGE_DEFAULT_MODEL", "anthropic/claude-sonnet-4")
	t.Setenv("OC_BRIDGE_DEBUG", "true")
	t.Setenv("OC_BRIDGE_WORKSPACE", "  ")

	cfg := config.NewDefaultConfig()
	wd := cfg.Backend.Workspace
	ApplyEnvOverrides(cfg)

	if cfg.Port != 9999 {
		t.Errorf("Port = %d", cfg.Port)
	}
	if cfg.Backend.URL != "http://10.0.0.2:4096" || cfg.Backend.Password != "hunter2" {
		t.Errorf("Backend = %+v", cfg.Backend)
	}
	if cfg.DefaultModel != "anthropic/claude-sonnet-4" || !cfg.Debug {
		t.Errorf("DefaultModel = %q Debug = %v", cfg.DefaultModel, cfg.Debug)
	}
	if cfg.Backend.Workspace != wd {
		t.Errorf("blank env value should not override workspace, got %q", cfg.Backend.Workspace)
	}
}

func TestBootstrap_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("port: 9000\ndefault-model: opencode/big-pickle\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	res, err := Bootstrap(path)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if res.ConfigFilePath != path {
		t.Errorf("ConfigFilePath = %q", res.ConfigFilePath)
	}
	if res.Config.Port != 9000 || res.Config.DefaultModel != "opencode/big-pickle" {
		t.Errorf("config = %+v", res.Config)
	}
	if res.Config.Backend.URL != config.DefaultBackendURL {
		t.Errorf("Backend.URL default lost: %q", res.Config.Backend.URL)
	}
}

func TestBootstrap_DefaultPathIsCreated(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	res, err := Bootstrap("")
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if _, err := os.Stat(res.ConfigFilePath); err != nil {
		t.Errorf("default config not created: %v", err)
	}
	if res.Config.Port != config.DefaultPort {
		t.Errorf("Port = %d", res.Config.Port)
	}
}

func TestBackendOptions(t *testing.T) {
	cfg := config.NewDefaultConfig()
	opts := BackendOptions(cfg)
	if opts.Retry.MaxRetries != 0 || opts.Breaker != nil || opts.Timeout != 0 {
		t.Errorf("defaults should disable retry, breaker and timeout: %+v", opts)
	}

	cfg.Backend.Timeout = "30s"
	cfg.Backend.Retry.MaxRetries = 2
	cfg.Backend.Breaker.Enabled = true
	cfg.Backend.Breaker.FailureThreshold = 3
	opts = BackendOptions(cfg)
	if opts.Timeout.String() != "30s" || opts.Retry.MaxRetries != 2 {
		t.Errorf("opts = %+v", opts)
	}
	if opts.Breaker == nil || opts.Breaker.FailureThreshold != 3 {
		t.Errorf("breaker = %+v", opts.Breaker)
	}
}

func TestNewApp_WithSQLiteUsage(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Usage.DSN = "sqlite://" + filepath.Join(t.TempDir(), "usage.db")

	app, err := NewApp(cfg)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	defer app.Close()

	if !app.Usage.HistoryEnabled() {
		t.Error("usage history should be enabled")
	}
	if app.Translator.CurrentModel() != config.DefaultModel {
		t.Errorf("CurrentModel = %q", app.Translator.CurrentModel())
	}
}
