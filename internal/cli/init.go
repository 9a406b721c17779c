package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nghyane/oc-bridge/internal/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file",
	RunE: func(c *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.DefaultConfigPath()
		}
		return DoInitConfig(c.OutOrStdout(), path, initForce)
	},
}

// DoInitConfig writes the default config to configPath. An existing file
// is kept unless force is set.
func DoInitConfig(out io.Writer, configPath string, force bool) error {
	configPath, err := config.ExpandPath(configPath)
	if err != nil {
		return err
	}

	if fileExists(configPath) && !force {
		fmt.Fprintf(out, "Config already exists: %s\n", configPath)
		fmt.Fprintln(out, "Use 'oc-bridge init --force' to overwrite")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(configPath, config.GenerateDefaultConfigYAML(), 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintf(out, "Created: %s\n", configPath)
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}
