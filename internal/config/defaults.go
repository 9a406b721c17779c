package config

import (
	"os"
	"path/filepath"
	"strings"
)

const defaultConfigYAML = `# oc-bridge configuration
host: 127.0.0.1
port: 8787

debug: false
logging-to-file: false

# provider/model id selected at startup
default-model: opencode/grok-code

# heuristic (chars/4) or tiktoken
tokenizer: heuristic

rate-limit:
  requests-per-second: 0
  burst: 0

backend:
  url: http://127.0.0.1:4096
  username: opencode
  # password: secret
  # workspace: /path/to/project
  # timeout: 10m
  retry:
    max-retries: 0
  breaker:
    enabled: false

usage:
  # dsn: sqlite://~/.local/share/oc-bridge/usage.db
  retention-days: 30
`

// GenerateDefaultConfigYAML returns the commented default config file.
func GenerateDefaultConfigYAML() []byte {
	return []byte(defaultConfigYAML)
}

// DefaultConfigDir returns $XDG_CONFIG_HOME/oc-bridge, falling back to
// ~/.config/oc-bridge.
func DefaultConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "oc-bridge"
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "oc-bridge")
}

// DefaultConfigPath returns the config.yaml path inside DefaultConfigDir.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// ExpandPath resolves a leading ~ and $XDG_CONFIG_HOME in p.
func ExpandPath(p string) (string, error) {
	if p == "" {
		return p, nil
	}
	if strings.Contains(p, "$XDG_CONFIG_HOME") {
		base := os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			base = filepath.Join(home, ".config")
		}
		p = strings.ReplaceAll(p, "$XDG_CONFIG_HOME", base)
	}
	if strings.HasPrefix(p, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		p = filepath.Join(home, p[1:])
	}
	return filepath.Clean(p), nil
}
