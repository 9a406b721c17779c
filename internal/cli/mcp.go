package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/nghyane/oc-bridge/internal/bootstrap"
	"github.com/nghyane/oc-bridge/internal/buildinfo"
	log "github.com/nghyane/oc-bridge/internal/logging"
	"github.com/nghyane/oc-bridge/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the bridge as an MCP tool server on stdio",
	Long: `Speak line-delimited JSON-RPC 2.0 on stdin/stdout so MCP clients can
chat, count tokens and switch models through the same session as the
HTTP server would use. Logs go to stderr or the log file.`,
	RunE: func(c *cobra.Command, args []string) error {
		result, err := loadConfig()
		if err != nil {
			return err
		}
		if !result.Config.LoggingToFile {
			log.SetOutput(os.Stderr)
		}

		app, err := bootstrap.NewApp(result.Config)
		if err != nil {
			return err
		}
		defer func() {
			if errClose := app.Close(); errClose != nil {
				log.Warnf("usage history close: %v", errClose)
			}
		}()

		ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app.RefreshModels(ctx)
		return mcp.NewServer(app.Translator, buildinfo.Version).Serve(ctx, os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
