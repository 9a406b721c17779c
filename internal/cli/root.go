// Package cli implements the oc-bridge command line.
package cli

import (
	"fmt"

	"github.com/nghyane/oc-bridge/internal/buildinfo"
	"github.com/nghyane/oc-bridge/internal/cli/service"
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "oc-bridge",
	Short: "Anthropic Messages API bridge for an opencode backend",
	Long: `oc-bridge accepts Anthropic Messages API requests, answers
token-count requests locally and relays real prompts to a persistent opencode session.

Running without a subcommand starts the server.`,
	Version:       fmt.Sprintf("%s (commit %s, built %s)", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(c *cobra.Command, args []string) error {
		return runServe(c.Context(), 0)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default $XDG_CONFIG_HOME/oc-bridge/config.yaml)")
	rootCmd.AddCommand(service.ServiceCmd)
}
