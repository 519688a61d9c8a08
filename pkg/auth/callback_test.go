package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCallback(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantToken  string
		wantExpiry *int64
	}{
		{
			name:       "deep link with token and expiry",
			url:        "todus://auth-callback?token=abc&expiresAt=123",
			wantToken:  "abc",
			wantExpiry: ptr(123),
		},
		{
			name:      "app url without token",
			url:       "https://app.example.com/mail/inbox",
			wantToken: "",
		},
		{
			name:       "set-auth-token parameter",
			url:        "https://todus.app/callback?set-auth-token=xyz",
			wantToken:  "xyz",
			wantExpiry: nil,
		},
		{
			name:       "authToken parameter",
			url:        "https://todus.app/callback?authToken=tail",
			wantToken:  "tail",
			wantExpiry: nil,
		},
		{
			name:       "token wins over set-auth-token",
			url:        "https://todus.app/callback?set-auth-token=second&token=first",
			wantToken:  "first",
			wantExpiry: nil,
		},
		{
			name:       "expires_at variant",
			url:        "todus://auth-callback?token=abc&expires_at=456",
			wantToken:  "abc",
			wantExpiry: ptr(456),
		},
		{
			name:       "exp variant",
			url:        "todus://auth-callback?token=abc&exp=789",
			wantToken:  "abc",
			wantExpiry: ptr(789),
		},
		{
			name:       "expiresAt wins over exp",
			url:        "todus://auth-callback?token=abc&exp=2&expiresAt=1",
			wantToken:  "abc",
			wantExpiry: ptr(1),
		},
		{
			name:       "non-numeric expiry yields nil",
			url:        "todus://auth-callback?token=abc&expiresAt=soon",
			wantToken:  "abc",
			wantExpiry: nil,
		},
		{
			name:       "empty expiry yields nil",
			url:        "todus://auth-callback?token=abc&expiresAt=",
			wantToken:  "abc",
			wantExpiry: nil,
		},
		{
			name:      "empty token parameter yields no token",
			url:       "todus://auth-callback?token=",
			wantToken: "",
		},
		{
			name:      "garbage input yields zero result",
			url:       "::definitely not a url::",
			wantToken: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCallback(tt.url)
			assert.Equal(t, tt.wantToken, got.Token)
			if tt.wantExpiry == nil {
				assert.Nil(t, got.ExpiresAt)
			} else {
				require.NotNil(t, got.ExpiresAt)
				assert.Equal(t, *tt.wantExpiry, *got.ExpiresAt)
			}
		})
	}
}

func ptr(v int64) *int64 { return &v }

func TestIsAllowedURL(t *testing.T) {
	hosts := []string{"app.example.com", "sapi.example.com"}

	tests := []struct {
		url  string
		want bool
	}{
		{"https://app.example.com/mail/inbox", true},
		{"http://sapi.example.com/api/auth/get-session", true},
		{"https://example.com/phishing", false},
		{"https://evil.app.example.com/", false},
		{"ftp://app.example.com/file", false},
		{"todus://auth-callback?token=abc", false},
		{"about:blank", true},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAllowedURL(tt.url, hosts))
		})
	}
}

func TestIsAllowedURL_PortSensitive(t *testing.T) {
	assert.True(t, IsAllowedURL("http://localhost:3000/login", []string{"localhost:3000"}))
	assert.False(t, IsAllowedURL("http://localhost:4000/login", []string{"localhost:3000"}))
}

func TestIsSignedInPath(t *testing.T) {
	origin := "https://staging.todus.app"

	assert.True(t, IsSignedInPath("https://staging.todus.app/mail/inbox", origin))
	assert.True(t, IsSignedInPath("https://staging.todus.app/settings/general", origin))
	assert.False(t, IsSignedInPath("https://staging.todus.app/privacy", origin))
	assert.False(t, IsSignedInPath("https://staging.todus.app/login", origin))
	// Wrong host never counts, even on an authenticated-looking path.
	assert.False(t, IsSignedInPath("https://evil.example.com/mail/inbox", origin))
}

func TestIsLoginPath(t *testing.T) {
	origin := "https://staging.todus.app"

	assert.True(t, IsLoginPath("https://staging.todus.app/login", origin))
	assert.True(t, IsLoginPath("https://staging.todus.app/login?error=access_denied", origin))
	assert.False(t, IsLoginPath("https://staging.todus.app/mail/inbox", origin))
	assert.False(t, IsLoginPath("https://evil.example.com/login", origin))
}

func TestResolveWebPath(t *testing.T) {
	assert.Equal(t, "/settings/general?tab=profile",
		ResolveWebPath("https://staging.todus.app/settings/general?tab=profile"))
	assert.Equal(t, "/mail/sent", ResolveWebPath("https://todus.app/mail/sent"))
	// Unparsable or relative input falls back to the entry path.
	assert.Equal(t, "/mail/inbox", ResolveWebPath("not-a-url"))
	assert.Equal(t, "/mail/inbox", ResolveWebPath(""))
}
