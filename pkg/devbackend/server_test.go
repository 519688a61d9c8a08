package devbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todusapp/mailshell/pkg/auth"
)

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewServer(cfg).Handler())
	t.Cleanup(srv.Close)
	return srv
}

// signInURL walks the JSON sign-in shape and returns the authorize URL.
func signInURL(t *testing.T, srv *httptest.Server, provider string) string {
	t.Helper()

	body, _ := json.Marshal(map[string]any{
		"provider":        provider,
		"callbackURL":     "todus://auth-callback",
		"disableRedirect": true,
	})
	resp, err := http.Post(srv.URL+"/api/auth/sign-in/social", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.NotEmpty(t, payload.URL)
	return payload.URL
}

// noRedirect returns a client that surfaces redirects instead of following
// them.
func noRedirect() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func TestServerProviders(t *testing.T) {
	srv := newTestServer(t, Config{Providers: []auth.Provider{
		{ID: "todus", Name: "Todus", Enabled: true},
		{ID: "google", Name: "Google", Enabled: true},
	}})

	resp, err := http.Get(srv.URL + "/api/public/providers")
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload struct {
		AllProviders []auth.Provider `json:"allProviders"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Len(t, payload.AllProviders, 2)
}

func TestServerSignIn_UnknownProvider(t *testing.T) {
	srv := newTestServer(t, Config{})

	body, _ := json.Marshal(map[string]any{"provider": "nope", "callbackURL": "todus://auth-callback"})
	resp, err := http.Post(srv.URL+"/api/auth/sign-in/social", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServerSignIn_RedirectShape(t *testing.T) {
	srv := newTestServer(t, Config{})

	body, _ := json.Marshal(map[string]any{
		"provider":    "google",
		"callbackURL": "todus://auth-callback",
	})
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/auth/sign-in/social", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := noRedirect().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "/authorize?")
}

func TestServerApprovalFlow(t *testing.T) {
	srv := newTestServer(t, Config{})

	authorizeURL := signInURL(t, srv, "google")

	resp, err := http.Get(authorizeURL)
	require.NoError(t, err)
	page, _ := readAll(resp)
	require.Contains(t, page, "/consent?decision=approve")

	u, _ := url.Parse(authorizeURL)
	consent := srv.URL + "/consent?" + url.Values{
		"decision": {"approve"},
		"provider": {"google"},
		"callback": {u.Query().Get("callback")},
	}.Encode()

	resp2, err := noRedirect().Get(consent)
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusFound, resp2.StatusCode)

	cb := auth.ParseCallback(resp2.Header.Get("Location"))
	assert.NotEmpty(t, cb.Token)
	require.NotNil(t, cb.ExpiresAt)
	assert.Greater(t, *cb.ExpiresAt, time.Now().UnixMilli())

	// The minted token validates.
	client := auth.NewClient(auth.ClientConfig{BackendURL: srv.URL})
	refreshed, valid, err := client.GetSession(context.Background(), cb.Token)
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Equal(t, cb.Token, refreshed)
}

func TestServerDenialFlow(t *testing.T) {
	srv := newTestServer(t, Config{})

	consent := srv.URL + "/consent?" + url.Values{
		"decision": {"deny"},
		"provider": {"google"},
		"callback": {"https://todus.app/login"},
	}.Encode()

	resp, err := noRedirect().Get(consent)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	location := resp.Header.Get("Location")
	assert.Contains(t, location, "error=access_denied")
	assert.Empty(t, auth.ParseCallback(location).Token)
}

func TestServerGetSession(t *testing.T) {
	t.Run("unknown token rejected", func(t *testing.T) {
		srv := newTestServer(t, Config{})

		client := auth.NewClient(auth.ClientConfig{BackendURL: srv.URL})
		_, valid, err := client.GetSession(context.Background(), "bogus")
		require.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		clock := time.Now()
		s := NewServer(Config{TokenTTL: time.Minute, Now: func() time.Time { return clock }})
		srv := httptest.NewServer(s.Handler())
		t.Cleanup(srv.Close)

		token, _ := s.issue("google")
		clock = clock.Add(2 * time.Minute)

		client := auth.NewClient(auth.ClientConfig{BackendURL: srv.URL})
		_, valid, err := client.GetSession(context.Background(), token)
		require.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("rotation replaces the token", func(t *testing.T) {
		s := NewServer(Config{RotateOnGetSession: true})
		srv := httptest.NewServer(s.Handler())
		t.Cleanup(srv.Close)

		token, _ := s.issue("google")

		client := auth.NewClient(auth.ClientConfig{BackendURL: srv.URL})
		rotated, valid, err := client.GetSession(context.Background(), token)
		require.NoError(t, err)
		require.True(t, valid)
		require.NotEqual(t, token, rotated)

		// The old token is gone, the rotated one works.
		_, valid, err = client.GetSession(context.Background(), token)
		require.NoError(t, err)
		assert.False(t, valid)

		_, valid, err = client.GetSession(context.Background(), rotated)
		require.NoError(t, err)
		assert.True(t, valid)
	})
}

func TestServerSignOut(t *testing.T) {
	s := NewServer(Config{})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	token, _ := s.issue("google")

	client := auth.NewClient(auth.ClientConfig{BackendURL: srv.URL})
	require.NoError(t, client.SignOut(context.Background(), token))

	_, valid, err := client.GetSession(context.Background(), token)
	require.NoError(t, err)
	assert.False(t, valid)
}

func readAll(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	return string(data), err
}
