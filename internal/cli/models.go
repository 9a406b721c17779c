package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/nghyane/oc-bridge/internal/bootstrap"
	"github.com/nghyane/oc-bridge/internal/json"
	"github.com/nghyane/oc-bridge/internal/registry"
	"github.com/spf13/cobra"
)

var modelsJSON bool

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models the backend offers",
	RunE: func(c *cobra.Command, args []string) error {
		result, err := loadConfig()
		if err != nil {
			return err
		}
		app, err := bootstrap.NewApp(result.Config)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.Translator.RefreshModels(c.Context()); err != nil {
			return fmt.Errorf("failed to load models from %s: %w", app.Backend.BaseURL(), err)
		}
		return printModels(c, app.Translator.Models(), app.Translator.CurrentModel())
	},
}

func printModels(c *cobra.Command, models []registry.Model, current string) error {
	out := c.OutOrStdout()
	if modelsJSON {
		data, err := json.MarshalIndent(models, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPROVIDER\tFREE")
	for _, m := range models {
		id := m.ID
		if id == current {
			id += " *"
		}
		free := ""
		if m.Free {
			free = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", id, m.Name, m.ProviderName, free)
	}
	return tw.Flush()
}

func init() {
	modelsCmd.Flags().BoolVar(&modelsJSON, "json", false, "print JSON instead of a table")
	rootCmd.AddCommand(modelsCmd)
}
