package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/todusapp/mailshell/pkg/auth"
	"github.com/todusapp/mailshell/pkg/auth/bridge"
)

var loginProvider string

// loginCmd runs an interactive sign-in flow through the system browser.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session",
	Long: `Start an OAuth sign-in flow with the chosen provider. The
authorization page opens in the system browser; the callback lands on a
local listener and the resulting session is written to secure storage.`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVarP(&loginProvider, "provider", "P", "", "Provider id (default: the configured primary provider)")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
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

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions.Bootstrap(ctx)
	if current := sessions.Current(); current != nil {
		cmd.Println("Already signed in. Run 'mailshell logout' first to switch accounts.")
		return nil
	}

	client := newAuthClient(cfg)

	providerID := loginProvider
	if providerID == "" {
		providerID = cfg.Auth.PrimaryProvider
	}
	provider, err := pickProvider(ctx, client, providerID)
	if err != nil {
		return err
	}

	surface, err := bridge.NewLoopbackSurface(logger.WithModule("loopback"))
	if err != nil {
		return err
	}
	defer surface.Close()

	b := bridge.New(bridge.Config{
		Client:       client,
		Sessions:     sessions,
		Surface:      surface,
		Opener:       bridge.OpenInBrowser,
		Logger:       logger.WithModule("bridge"),
		WebOrigin:    cfg.WebURL(),
		CallbackURL:  surface.CallbackURL(),
		AllowedHosts: cfg.AllowedHosts(),
	})

	if err := b.Start(ctx, provider); err != nil {
		return fmt.Errorf("starting sign-in: %w", err)
	}

	cmd.Println("Waiting for the browser flow to finish (Ctrl-C to cancel)...")
	select {
	case <-ctx.Done():
		b.Cancel()
		return fmt.Errorf("sign-in cancelled")
	case <-b.Done():
	}

	switch b.State() {
	case bridge.StateCompletedBearer, bridge.StateCompletedCookie:
		cmd.Println("Signed in.")
		return nil
	case bridge.StateCancelled:
		return fmt.Errorf("sign-in cancelled")
	default:
		return fmt.Errorf("sign-in failed: %w", b.Err())
	}
}

// pickProvider resolves a provider id against the directory so custom
// providers carry their redirect path into the flow. An unreachable
// directory degrades to a plain OAuth entry for the requested id.
func pickProvider(ctx context.Context, client *auth.Client, id string) (auth.Provider, error) {
	providers, err := client.Providers(ctx)
	if err != nil {
		return auth.Provider{ID: id, Enabled: true}, nil
	}
	for _, p := range providers {
		if p.ID == id {
			return p, nil
		}
	}
	return auth.Provider{}, fmt.Errorf("provider %q is not offered by the backend", id)
}
