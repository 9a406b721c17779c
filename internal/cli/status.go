package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nghyane/oc-bridge/internal/config"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of a running oc-bridge",
	RunE: func(c *cobra.Command, args []string) error {
		result, err := loadConfig()
		if err != nil {
			return err
		}
		return printStatus(c.Context(), c.OutOrStdout(), baseURL(result.Config))
	},
}

func baseURL(cfg *config.Config) string {
	host := cfg.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d", host, cfg.Port)
}

func printStatus(ctx context.Context, out io.Writer, base string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/status", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("oc-bridge is not reachable at %s: %w", base, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status request returned %d", resp.StatusCode)
	}

	s := gjson.ParseBytes(body)
	fmt.Fprintf(out, "URL:        %s\n", base)
	fmt.Fprintf(out, "Model:      %s\n", s.Get("currentModel").String())
	fmt.Fprintf(out, "Session:    %s\n", s.Get("sessionId").String())
	fmt.Fprintf(out, "Requests:   %d\n", s.Get("totalRequests").Int())
	fmt.Fprintf(out, "Tokens:     %d\n", s.Get("totalTokensUsed").Int())
	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
