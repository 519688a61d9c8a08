package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/todusapp/mailshell/pkg/session"
)

var statusRevalidate bool

// statusCmd restores the stored session and reports it.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored session",
	Long: `Restore the session from secure storage the way a shell start does
and print what was found. With --revalidate the token is also checked
against the backend, picking up rotation and server-side revocation.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusRevalidate, "revalidate", false, "Check the token against the backend")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	sessions, closeStore, err := openSessions(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := cmd.Context()
	sessions.Bootstrap(ctx)
	if statusRevalidate {
		sessions.Revalidate(ctx)
	}

	current := sessions.Current()
	if current == nil {
		cmd.Println("Not signed in.")
		return nil
	}

	cmd.Printf("Status:   %s\n", sessions.Status())
	cmd.Printf("Mode:     %s\n", current.Mode)
	if current.Mode == session.ModeBearer {
		cmd.Printf("Token:    %s\n", redact(current.Token))
	}
	cmd.Printf("Created:  %s\n", time.UnixMilli(current.CreatedAt).Format(time.RFC3339))
	if current.ExpiresAt != nil {
		cmd.Printf("Expires:  %s\n", time.UnixMilli(*current.ExpiresAt).Format(time.RFC3339))
	} else {
		cmd.Println("Expires:  never")
	}
	if path := sessions.CurrentPath(); path != "" {
		cmd.Printf("Path:     %s\n", path)
	}
	return nil
}

// redact keeps just enough of a token to recognize it in logs.
func redact(token string) string {
	if len(token) <= 8 {
		return "********"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
