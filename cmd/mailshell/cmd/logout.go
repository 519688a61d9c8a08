package cmd

import (
	"github.com/spf13/cobra"
)

// logoutCmd revokes the token and clears the stored session.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the stored session",
	Long: `Ask the backend to revoke the current token, then remove the session
from secure storage. The local session is cleared even when revocation
fails.`,
	RunE: runLogout,
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

func runLogout(cmd *cobra.Command, args []string) error {
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
	if sessions.Current() == nil {
		cmd.Println("Not signed in.")
		return nil
	}

	sessions.SignOut(ctx)
	cmd.Println("Signed out.")
	return nil
}
