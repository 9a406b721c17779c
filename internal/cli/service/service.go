// Package service installs oc-bridge as a per-user background service:
// a launchd agent on macOS and a systemd user unit on Linux.
package service

import (
	"github.com/spf13/cobra"
)

const (
	launchdLabel = "com.oc-bridge"
	systemdUnit  = "oc-bridge"
)

// ServiceCmd groups the service subcommands.
var ServiceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage the oc-bridge background service",
}
