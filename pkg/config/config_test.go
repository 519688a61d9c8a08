package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "Todus", cfg.App.Name)
	assert.Equal(t, "https://api.todus.app", cfg.App.BackendURL)
	assert.Equal(t, "https://todus.app", cfg.App.WebURL)
	assert.Equal(t, "/mail/inbox", cfg.App.EntryPath)
	assert.Equal(t, "TodusNative/1.0", cfg.App.UserAgent)
	assert.Equal(t, "https://todus.app/mail/inbox", cfg.Auth.CallbackURL)
	assert.Equal(t, "todus", cfg.Auth.CallbackScheme)
	assert.Equal(t, "todus", cfg.Auth.PrimaryProvider)
	assert.Equal(t, "info", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "backend url must be http(s)",
			mutate:  func(c *Config) { c.App.BackendURL = "ftp://api.todus.app" },
			wantErr: ErrInvalidBackendURL,
		},
		{
			name:    "web url must be http(s)",
			mutate:  func(c *Config) { c.App.WebURL = "not a url" },
			wantErr: ErrInvalidWebURL,
		},
		{
			name:    "entry path must be rooted",
			mutate:  func(c *Config) { c.App.EntryPath = "mail/inbox" },
			wantErr: ErrInvalidEntryPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_URLTrimming(t *testing.T) {
	cfg := Default()
	cfg.App.BackendURL = "https://api.todus.app/"
	cfg.App.WebURL = "https://todus.app/"

	assert.Equal(t, "https://api.todus.app", cfg.BackendURL())
	assert.Equal(t, "https://todus.app", cfg.WebURL())
	assert.Equal(t, "https://todus.app/mail/inbox", cfg.EntryURL())
}

func TestConfig_AllowedHosts(t *testing.T) {
	cfg := Default()
	cfg.App.BackendURL = "https://sapi.todus.app"
	cfg.App.WebURL = "https://staging.todus.app"
	cfg.Auth.AllowedHosts = []string{"login.microsoftonline.com", "staging.todus.app"}

	hosts := cfg.AllowedHosts()

	assert.Equal(t, []string{
		"staging.todus.app",
		"sapi.todus.app",
		"accounts.google.com",
		"oauth2.googleapis.com",
		"login.microsoftonline.com",
	}, hosts)
}

func TestConfig_AllowedHostsDeterministic(t *testing.T) {
	cfg := Default()
	assert.Equal(t, cfg.AllowedHosts(), cfg.AllowedHosts())
}
