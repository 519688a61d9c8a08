package devbackend

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// UpstreamConfig holds real provider credentials for delegated
// authorization.
type UpstreamConfig struct {
	Provider     string // Provider id, only "google" is wired
	ClientID     string
	ClientSecret string
	RedirectURL  string // Must point at this server's /oauth2/callback
	Scopes       []string
}

// Upstream drives a real OAuth2 provider on the dev backend's behalf.
type Upstream struct {
	provider string
	config   *oauth2.Config
}

// NewUpstream builds an Upstream from credentials. Empty scopes get the
// basic identity set.
func NewUpstream(cfg UpstreamConfig) (*Upstream, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("upstream provider requires client id and secret")
	}
	if cfg.Provider != "" && cfg.Provider != "google" {
		return nil, fmt.Errorf("unsupported upstream provider %q", cfg.Provider)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		}
	}

	return &Upstream{
		provider: "google",
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     google.Endpoint,
		},
	}, nil
}

// Provider returns the upstream provider id.
func (u *Upstream) Provider() string {
	return u.provider
}

// AuthCodeURL builds the provider's authorization URL for a state value.
func (u *Upstream) AuthCodeURL(state string) string {
	return u.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// ExchangeAndIdentify trades an authorization code for tokens and returns
// the signed-in user's email.
func (u *Upstream) ExchangeAndIdentify(ctx context.Context, code string) (string, error) {
	token, err := u.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchanging authorization code: %w", err)
	}

	client := u.config.Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return "", fmt.Errorf("fetching user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("fetching user info: status %d", resp.StatusCode)
	}

	var info struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("decoding user info: %w", err)
	}
	if info.Email == "" {
		return "", fmt.Errorf("user info carried no email")
	}

	return info.Email, nil
}
