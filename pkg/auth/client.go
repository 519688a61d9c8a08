// Package auth talks to the backend's auth endpoints and classifies the
// URLs an OAuth flow produces. Token issuance itself is owned by the
// backend; this package only carries the results across.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Provider is one identity provider offering from the directory.
type Provider struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	// Required mirrors the server flag; the shells do not act on it yet.
	Required bool `json:"required,omitempty"`
	// IsCustom marks providers handled by plain navigation instead of the
	// OAuth bridge.
	IsCustom           bool   `json:"isCustom,omitempty"`
	CustomRedirectPath string `json:"customRedirectPath,omitempty"`
}

// SignInKind tags a SignInResult variant.
type SignInKind int

const (
	// SignInRedirect carries an authorization URL to present.
	SignInRedirect SignInKind = iota
	// SignInToken carries a bearer token directly; no presentation needed.
	SignInToken
)

// SignInResult is the validated outcome of the sign-in-initiation call.
// The backend may answer with JSON or with an HTTP redirect; both shapes
// reduce to one of these variants at the network boundary.
type SignInResult struct {
	Kind      SignInKind
	URL       string
	Token     string
	ExpiresAt *int64
}

// Client calls the backend auth endpoints.
type Client struct {
	httpClient *http.Client
	backendURL string
	webOrigin  string
	userAgent  string
	primaryID  string
}

// ClientConfig configures a Client.
type ClientConfig struct {
	BackendURL string // Backend base URL (required)
	WebOrigin  string // Web app origin, sent as Origin for the backend's CSRF check
	UserAgent  string
	PrimaryID  string // Provider id pinned first in directory ordering
	Timeout    time.Duration
	// Transport overrides the HTTP transport (tests).
	Transport http.RoundTripper
}

// NewClient creates a Client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: cfg.Transport,
			// Redirects carry the authorization URL in Location; never
			// follow them or we would try to parse a consent page.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		backendURL: strings.TrimSuffix(cfg.BackendURL, "/"),
		webOrigin:  strings.TrimSuffix(cfg.WebOrigin, "/"),
		userAgent:  cfg.UserAgent,
		primaryID:  cfg.PrimaryID,
	}
}

// Providers fetches the provider directory: enabled (or custom) providers,
// primary provider pinned first, the rest in case-insensitive name order.
// The sort is stable so repeated calls render the login surface identically.
func (c *Client) Providers(ctx context.Context) ([]Provider, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.backendURL+"/api/public/providers", nil)
	if err != nil {
		return nil, &NetworkError{Op: "list providers", Err: err}
	}
	c.decorate(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "list providers", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &NetworkError{Op: "list providers", Status: resp.StatusCode}
	}

	var payload struct {
		AllProviders []Provider `json:"allProviders"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &NetworkError{Op: "list providers", Err: fmt.Errorf("decoding response: %w", err)}
	}

	return SortProviders(payload.AllProviders, c.primaryID), nil
}

// SortProviders filters to enabled-or-custom providers and orders them:
// the primary id pinned first, then case-insensitive by name, stably.
func SortProviders(providers []Provider, primaryID string) []Provider {
	visible := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p.Enabled || p.IsCustom {
			visible = append(visible, p)
		}
	}

	sort.SliceStable(visible, func(i, j int) bool {
		if visible[i].ID == primaryID {
			return visible[j].ID != primaryID
		}
		if visible[j].ID == primaryID {
			return false
		}
		return strings.ToLower(visible[i].Name) < strings.ToLower(visible[j].Name)
	})

	return visible
}

// SignInSocial asks the backend to start a provider's OAuth flow and
// returns the validated result. Both response shapes are accepted: a 3xx
// with a Location header and a JSON body with a url field. A Location that
// already carries a bearer token short-circuits to SignInToken.
func (c *Client) SignInSocial(ctx context.Context, providerID, callbackURL string) (SignInResult, error) {
	body, err := json.Marshal(map[string]any{
		"provider":        providerID,
		"callbackURL":     callbackURL,
		"disableRedirect": true,
	})
	if err != nil {
		return SignInResult{}, &NetworkError{Op: "sign-in", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.backendURL+"/api/auth/sign-in/social", bytes.NewReader(body))
	if err != nil {
		return SignInResult{}, &NetworkError{Op: "sign-in", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	c.decorate(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SignInResult{}, &NetworkError{Op: "sign-in", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		location := resp.Header.Get("Location")
		if location == "" {
			return SignInResult{}, ErrNoAuthURL
		}
		return resultFromURL(location), nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return SignInResult{}, &NetworkError{Op: "sign-in", Status: resp.StatusCode}
	}

	var payload struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return SignInResult{}, &NetworkError{Op: "sign-in", Err: fmt.Errorf("decoding response: %w", err)}
	}
	if payload.URL == "" {
		return SignInResult{}, ErrNoAuthURL
	}

	return resultFromURL(payload.URL), nil
}

// resultFromURL classifies an authorization URL: one already carrying a
// token needs no presentation at all.
func resultFromURL(rawURL string) SignInResult {
	if cb := ParseCallback(rawURL); cb.Token != "" {
		return SignInResult{Kind: SignInToken, Token: cb.Token, ExpiresAt: cb.ExpiresAt}
	}
	return SignInResult{Kind: SignInRedirect, URL: rawURL}
}

// GetSession validates a bearer token. valid reports whether the backend
// accepted it; when a set-auth-token header is present the returned token
// is the rotated one, otherwise the original. Transport failures come back
// as a NetworkError with valid undefined.
func (c *Client) GetSession(ctx context.Context, token string) (refreshed string, valid bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.backendURL+"/api/auth/get-session", nil)
	if err != nil {
		return "", false, &NetworkError{Op: "get session", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	c.decorate(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", false, &NetworkError{Op: "get session", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", false, nil
	}

	if rotated := resp.Header.Get("set-auth-token"); rotated != "" {
		return rotated, true, nil
	}
	return token, true, nil
}

// SignOut revokes a token server-side. Best effort: callers ignore the
// error beyond logging.
func (c *Client) SignOut(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.backendURL+"/api/auth/sign-out", nil)
	if err != nil {
		return &NetworkError{Op: "sign-out", Err: err}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	c.decorate(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: "sign-out", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &NetworkError{Op: "sign-out", Status: resp.StatusCode}
	}
	return nil
}

// decorate applies the headers every backend call carries.
func (c *Client) decorate(req *http.Request) {
	if c.webOrigin != "" {
		req.Header.Set("Origin", c.webOrigin)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}
