package service

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
)

// controlCommand maps an action onto the platform's service manager.
func controlCommand(goos, action string) (*exec.Cmd, error) {
	switch goos {
	case "darwin":
		switch action {
		case "start":
			return exec.Command("launchctl", "start", launchdLabel), nil
		case "stop":
			return exec.Command("launchctl", "stop", launchdLabel), nil
		case "status":
			// exits 0 only when the agent is loaded
			return exec.Command("launchctl", "list", launchdLabel), nil
		}
	case "linux":
		switch action {
		case "start":
			return exec.Command("systemctl", "--user", "start", systemdUnit), nil
		case "stop":
			return exec.Command("systemctl", "--user", "stop", systemdUnit), nil
		case "status":
			return exec.Command("systemctl", "--user", "is-active", systemdUnit), nil
		}
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
	return nil, fmt.Errorf("unknown action: %s", action)
}

// run executes action against the installed service. Status output is
// swallowed; its exit code is the answer.
func run(action string) error {
	cmd, err := controlCommand(runtime.GOOS, action)
	if err != nil {
		return err
	}
	if action != "status" {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	return cmd.Run()
}

func logsCommand(goos, home string) (*exec.Cmd, error) {
	switch goos {
	case "darwin":
		return exec.Command("tail", "-f", filepath.Join(home, ".local/var/log/oc-bridge.log")), nil
	case "linux":
		return exec.Command("journalctl", "--user", "-u", systemdUnit, "-f"), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

var controlActions = []struct {
	use   string
	short string
	run   func(out io.Writer) error
}{
	{"start", "Start the service", func(io.Writer) error { return run("start") }},
	{"stop", "Stop the service", func(io.Writer) error { return run("stop") }},
	{"restart", "Restart the service", func(io.Writer) error {
		_ = run("stop")
		return run("start")
	}},
	{"status", "Check service status", func(out io.Writer) error {
		state := "running"
		if run("status") != nil {
			state = "stopped"
		}
		fmt.Fprintf(out, "Service is %s\n", state)
		return nil
	}},
	{"logs", "Follow service logs", func(io.Writer) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		c, err := logsCommand(runtime.GOOS, home)
		if err != nil {
			return err
		}
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		return c.Run()
	}},
}

func init() {
	for _, a := range controlActions {
		a := a
		ServiceCmd.AddCommand(&cobra.Command{
			Use:   a.use,
			Short: a.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.run(cmd.OutOrStdout())
			},
		})
	}
}
