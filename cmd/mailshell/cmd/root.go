package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/todusapp/mailshell/pkg/auth"
	"github.com/todusapp/mailshell/pkg/config"
	"github.com/todusapp/mailshell/pkg/kvs"
	"github.com/todusapp/mailshell/pkg/logging"
	"github.com/todusapp/mailshell/pkg/session"
)

var (
	cfgFile string
	verbose bool
	version = "dev" // Set by build
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mailshell",
	Short: "Mailshell - native shell tooling for the Todus mail app",
	Long: `Mailshell drives the Todus web mail app from a native shell: it signs
in through the backend's OAuth providers, keeps the resulting session in
the operating system's secure storage, and restores it on the next start.`,
	Version: version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// loadConfig reads the configured file, or falls back to defaults when no
// file was given.
func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	return config.NewFileLoader(cfgFile).Load()
}

// newLogger builds the CLI logger from config and the verbose flag.
func newLogger(cfg *config.Config) logging.Logger {
	level := logging.ParseLevel(cfg.Logging.Level)
	if verbose {
		level = logging.LevelDebug
	}
	return logging.NewSimpleLogger("mailshell", level, cfg.Logging.Color)
}

// openSessions wires the storage backend and the session manager. The
// returned closer releases the storage handle.
func openSessions(cfg *config.Config, logger logging.Logger) (*session.Manager, func(), error) {
	store, err := kvs.New(cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("opening session storage: %w", err)
	}

	client := newAuthClient(cfg)
	manager := session.NewManager(session.NewStore(store), client, logger.WithModule("session"))

	return manager, func() { _ = store.Close() }, nil
}

func newAuthClient(cfg *config.Config) *auth.Client {
	return auth.NewClient(auth.ClientConfig{
		BackendURL: cfg.BackendURL(),
		WebOrigin:  cfg.WebURL(),
		UserAgent:  cfg.App.UserAgent,
		PrimaryID:  cfg.Auth.PrimaryProvider,
	})
}
