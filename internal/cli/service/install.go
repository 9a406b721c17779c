package service

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install background service",
	RunE: func(cmd *cobra.Command, args []string) error {
		exe, err := os.Executable()
		if err != nil {
			return err
		}

		exePath, err := filepath.EvalSymlinks(exe)
		if err != nil {
			exePath = exe
		}

		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		// --config is the root command's persistent flag.
		configPath, _ := cmd.Flags().GetString("config")
		if configPath != "" {
			if abs, errAbs := filepath.Abs(configPath); errAbs == nil {
				configPath = abs
			}
		}
		spec := unitSpec{ExePath: exePath, Home: home, ConfigPath: configPath}

		switch runtime.GOOS {
		case "darwin":
			return installMacOS(spec)
		case "linux":
			return installLinux(spec)
		default:
			return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
		}
	},
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Uninstall background service",
	RunE: func(cmd *cobra.Command, args []string) error {
		switch runtime.GOOS {
		case "darwin":
			return uninstallMacOS()
		case "linux":
			return uninstallLinux()
		default:
			return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
		}
	},
}

func init() {
	ServiceCmd.AddCommand(installCmd)
	ServiceCmd.AddCommand(uninstallCmd)
}

// unitSpec is what both service definitions are rendered from.
type unitSpec struct {
	ExePath    string
	Home       string
	ConfigPath string
}

func (s unitSpec) args() []string {
	args := []string{s.ExePath, "serve"}
	if s.ConfigPath != "" {
		args = append(args, "--config", s.ConfigPath)
	}
	return args
}

func (s unitSpec) logDir() string {
	return filepath.Join(s.Home, ".local/var/log")
}

func renderPlist(s unitSpec) string {
	var progArgs string
	for _, a := range s.args() {
		progArgs += fmt.Sprintf("        <string>%s</string>\n", a)
	}
	logFile := filepath.Join(s.logDir(), "oc-bridge.log")

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>%s</string>
    <key>ProgramArguments</key>
    <array>
%s    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <dict>
        <key>SuccessfulExit</key>
        <false/>
    </dict>
    <key>ThrottleInterval</key>
    <integer>5</integer>
    <key>StandardOutPath</key>
    <string>%s</string>
    <key>StandardErrorPath</key>
    <string>%s</string>
    <key>EnvironmentVariables</key>
    <dict>
        <key>PATH</key>
        <string>/usr/local/bin:/usr/bin:/bin:/usr/sbin:/sbin</string>
        <key>HOME</key>
        <string>%s</string>
    </dict>
    <key>WorkingDirectory</key>
    <string>%s</string>
</dict>
</plist>
`, launchdLabel, progArgs, logFile, logFile, s.Home, s.Home)
}

func renderSystemdUnit(s unitSpec) string {
	var execStart string
	for i, a := range s.args() {
		if i > 0 {
			execStart += " "
		}
		execStart += a
	}

	return fmt.Sprintf(`[Unit]
Description=oc-bridge - Anthropic Messages API bridge for opencode
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
ExecStart=%s
WorkingDirectory=%s
Restart=on-failure
RestartSec=5
StartLimitBurst=3
StartLimitIntervalSec=60
Environment=HOME=%s
Environment=PATH=/usr/local/bin:/usr/bin:/bin

[Install]
WantedBy=default.target
`, execStart, s.Home, s.Home)
}

func plistPath(home string) string {
	return filepath.Join(home, "Library/LaunchAgents", launchdLabel+".plist")
}

func unitPath(home string) string {
	return filepath.Join(home, ".config/systemd/user", systemdUnit+".service")
}

// macOS implementation
func installMacOS(s unitSpec) error {
	path := plistPath(s.Home)
	if err := os.MkdirAll(s.logDir(), 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(renderPlist(s)), 0o644); err != nil {
		return fmt.Errorf("failed to write plist: %w", err)
	}

	fmt.Printf("Service installed to %s\n", path)

	_ = exec.Command("launchctl", "unload", path).Run()
	if err := exec.Command("launchctl", "load", path).Run(); err != nil {
		fmt.Printf("Warning: failed to load service: %v\n", err)
		fmt.Printf("Try running: launchctl load %s\n", path)
	} else {
		fmt.Println("Service started")
	}
	return nil
}

func uninstallMacOS() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	path := plistPath(home)

	_ = exec.Command("launchctl", "unload", path).Run()

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove plist: %w", err)
	}

	fmt.Println("Service uninstalled")
	return nil
}

// Linux implementation
func installLinux(s unitSpec) error {
	path := unitPath(s.Home)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(renderSystemdUnit(s)), 0o644); err != nil {
		return fmt.Errorf("failed to write unit file: %w", err)
	}

	fmt.Printf("Service installed to %s\n", path)

	_ = exec.Command("systemctl", "--user", "daemon-reload").Run()
	_ = exec.Command("systemctl", "--user", "enable", systemdUnit).Run()
	if err := exec.Command("systemctl", "--user", "start", systemdUnit).Run(); err != nil {
		fmt.Printf("Warning: failed to start service: %v\n", err)
	} else {
		fmt.Println("Service started")
	}

	// Keep the user manager alive after logout.
	_ = exec.Command("loginctl", "enable-linger", os.Getenv("USER")).Run()
	return nil
}

func uninstallLinux() error {
	_ = exec.Command("systemctl", "--user", "stop", systemdUnit).Run()
	_ = exec.Command("systemctl", "--user", "disable", systemdUnit).Run()

	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	if err := os.Remove(unitPath(home)); err != nil {
		return fmt.Errorf("failed to remove unit file: %w", err)
	}

	_ = exec.Command("systemctl", "--user", "daemon-reload").Run()
	fmt.Println("Service uninstalled")
	return nil
}
