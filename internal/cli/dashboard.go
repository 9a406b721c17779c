package cli

import (
	"fmt"

	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the dashboard in a browser",
	RunE: func(c *cobra.Command, args []string) error {
		result, err := loadConfig()
		if err != nil {
			return err
		}
		url := baseURL(result.Config) + "/"
		fmt.Fprintf(c.OutOrStdout(), "Opening %s\n", url)
		if err := open.Run(url); err != nil {
			return fmt.Errorf("failed to open browser: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
