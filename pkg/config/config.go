// Package config loads and validates the shell configuration.
package config

import (
	"net/url"
	"strings"

	"github.com/todusapp/mailshell/pkg/kvs"
	"github.com/todusapp/mailshell/pkg/routes"
)

// Config represents the shell configuration
type Config struct {
	App     AppConfig     `yaml:"app" json:"app"`
	Auth    AuthConfig    `yaml:"auth" json:"auth"`
	Storage kvs.Config    `yaml:"storage" json:"storage"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// AppConfig contains application-level settings
type AppConfig struct {
	Name       string `yaml:"name" json:"name"`               // Display name (default: "Todus")
	BackendURL string `yaml:"backend_url" json:"backend_url"` // RPC backend base URL
	WebURL     string `yaml:"web_url" json:"web_url"`         // Web app base URL
	EntryPath  string `yaml:"entry_path" json:"entry_path"`   // Authenticated entry path (default: /mail/inbox)
	UserAgent  string `yaml:"user_agent" json:"user_agent"`   // User agent for embedded surfaces
}

// AuthConfig contains auth flow settings
type AuthConfig struct {
	CallbackURL     string   `yaml:"callback_url" json:"callback_url"`         // OAuth callback URL (default: web URL + entry path)
	CallbackScheme  string   `yaml:"callback_scheme" json:"callback_scheme"`   // Deep-link scheme (default: "todus")
	PrimaryProvider string   `yaml:"primary_provider" json:"primary_provider"` // Provider id pinned first on the login surface
	AllowedHosts    []string `yaml:"allowed_hosts" json:"allowed_hosts"`       // Extra hosts allowed in the embedded surface
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	Color bool   `yaml:"color" json:"color"`
}

// identity-provider hosts every flow may traverse
var providerHosts = []string{"accounts.google.com", "oauth2.googleapis.com"}

// applyDefaults sets default values for optional fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "Todus"
	}
	if cfg.App.BackendURL == "" {
		cfg.App.BackendURL = "https://api.todus.app"
	}
	if cfg.App.WebURL == "" {
		cfg.App.WebURL = "https://todus.app"
	}
	if cfg.App.EntryPath == "" {
		cfg.App.EntryPath = routes.AppEntryPath
	}
	if cfg.App.UserAgent == "" {
		cfg.App.UserAgent = "TodusNative/1.0"
	}
	if cfg.Auth.CallbackURL == "" {
		cfg.Auth.CallbackURL = cfg.EntryURL()
	}
	if cfg.Auth.CallbackScheme == "" {
		cfg.Auth.CallbackScheme = "todus"
	}
	if cfg.Auth.PrimaryProvider == "" {
		cfg.Auth.PrimaryProvider = "todus"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !isHTTPURL(c.App.BackendURL) {
		return ErrInvalidBackendURL
	}
	if !isHTTPURL(c.App.WebURL) {
		return ErrInvalidWebURL
	}
	if !strings.HasPrefix(c.App.EntryPath, "/") {
		return ErrInvalidEntryPath
	}
	if c.Auth.CallbackURL != "" && !isHTTPURL(c.Auth.CallbackURL) {
		if _, err := url.Parse(c.Auth.CallbackURL); err != nil {
			return ErrInvalidCallbackURL
		}
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// BackendURL returns the backend base URL without a trailing slash.
func (c *Config) BackendURL() string {
	return strings.TrimSuffix(c.App.BackendURL, "/")
}

// WebURL returns the web app base URL without a trailing slash.
func (c *Config) WebURL() string {
	return strings.TrimSuffix(c.App.WebURL, "/")
}

// EntryURL returns the absolute URL of the authenticated entry point.
func (c *Config) EntryURL() string {
	path := c.App.EntryPath
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.WebURL() + path
}

// AllowedHosts returns the deduplicated host allow-list for the embedded
// browsing surface: the web and backend hosts, the identity-provider hosts,
// and any configured extras.
func (c *Config) AllowedHosts() []string {
	seen := make(map[string]bool)
	var hosts []string

	add := func(host string) {
		if host != "" && !seen[host] {
			seen[host] = true
			hosts = append(hosts, host)
		}
	}

	add(hostOf(c.App.WebURL))
	add(hostOf(c.App.BackendURL))
	for _, h := range providerHosts {
		add(h)
	}
	for _, h := range c.Auth.AllowedHosts {
		add(h)
	}

	return hosts
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}
