package cmd

import (
	"github.com/spf13/cobra"

	"github.com/todusapp/mailshell/pkg/routes"
)

var routesAuthOnly bool

// routesCmd prints the web-path to native-screen inventory.
var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Show the web-path to screen mapping",
	RunE:  runRoutes,
}

func init() {
	routesCmd.Flags().BoolVar(&routesAuthOnly, "auth-only", false, "Only show paths that require a session")
	rootCmd.AddCommand(routesCmd)
}

func runRoutes(cmd *cobra.Command, args []string) error {
	cmd.Printf("%-35s %-30s %s\n", "PATH", "SCREEN", "AUTH")
	for _, m := range routes.Inventory {
		needsAuth := routes.RequiresAuth(m.WebPath)
		if routesAuthOnly && !needsAuth {
			continue
		}
		auth := "public"
		if needsAuth {
			auth = "required"
		}
		cmd.Printf("%-35s %-30s %s\n", m.WebPath, m.ScreenName, auth)
	}
	return nil
}
