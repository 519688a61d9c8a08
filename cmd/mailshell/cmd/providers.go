package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// providersCmd lists the backend's provider directory.
var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the available sign-in providers",
	Long: `Fetch the provider directory from the backend and print it in the
order the login surface would show: the primary provider first, the rest
by name.`,
	RunE: runProviders,
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

func runProviders(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client := newAuthClient(cfg)
	providers, err := client.Providers(cmd.Context())
	if err != nil {
		return fmt.Errorf("fetching providers: %w", err)
	}

	if len(providers) == 0 {
		cmd.Println("No providers available.")
		return nil
	}

	for _, p := range providers {
		kind := "oauth"
		if p.IsCustom {
			kind = "custom"
		}
		cmd.Printf("%-20s %-30s %s\n", p.ID, p.Name, kind)
	}
	return nil
}
