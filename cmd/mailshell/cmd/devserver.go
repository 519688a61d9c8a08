package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/todusapp/mailshell/pkg/auth"
	"github.com/todusapp/mailshell/pkg/devbackend"
)

var (
	devListen       string
	devRotate       bool
	devTokenTTL     time.Duration
	devClientID     string
	devClientSecret string
	devRedirectURL  string
)

// devserverCmd runs the local auth backend stub.
var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run a local auth backend for development",
	Long: `Serve the backend's auth endpoints locally: the provider directory,
sign-in initiation, token validation and revocation, and a consent page
standing in for the provider. Point the shell's backend_url at it to
exercise the full sign-in flow offline. With Google credentials the
consent page is replaced by the real provider.`,
	RunE: runDevserver,
}

func init() {
	devserverCmd.Flags().StringVar(&devListen, "listen", "127.0.0.1:8787", "Listen address")
	devserverCmd.Flags().BoolVar(&devRotate, "rotate", false, "Rotate the token on every get-session call")
	devserverCmd.Flags().DurationVar(&devTokenTTL, "token-ttl", time.Hour, "Lifetime of minted tokens")
	devserverCmd.Flags().StringVar(&devClientID, "google-client-id", "", "Google OAuth client id (enables the real provider)")
	devserverCmd.Flags().StringVar(&devClientSecret, "google-client-secret", "", "Google OAuth client secret")
	devserverCmd.Flags().StringVar(&devRedirectURL, "google-redirect-url", "", "Redirect URL registered with Google (default: http://<listen>/oauth2/callback)")
	rootCmd.AddCommand(devserverCmd)
}

func runDevserver(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg).WithModule("devbackend")

	var upstream *devbackend.Upstream
	if devClientID != "" {
		redirectURL := devRedirectURL
		if redirectURL == "" {
			redirectURL = fmt.Sprintf("http://%s/oauth2/callback", devListen)
		}
		upstream, err = devbackend.NewUpstream(devbackend.UpstreamConfig{
			Provider:     "google",
			ClientID:     devClientID,
			ClientSecret: devClientSecret,
			RedirectURL:  redirectURL,
		})
		if err != nil {
			return err
		}
	}

	backend := devbackend.NewServer(devbackend.Config{
		Providers: []auth.Provider{
			{ID: "todus", Name: "Todus", Enabled: true},
			{ID: "google", Name: "Google", Enabled: true},
		},
		TokenTTL:           devTokenTTL,
		RotateOnGetSession: devRotate,
		Upstream:           upstream,
		Logger:             logger,
	})

	server := &http.Server{
		Addr:         devListen,
		Handler:      backend.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("dev backend listening", "addr", devListen)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
