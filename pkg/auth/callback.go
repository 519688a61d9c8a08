package auth

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/todusapp/mailshell/pkg/routes"
)

// Callback is the result of inspecting a URL for an OAuth completion signal.
type Callback struct {
	Token string
	// ExpiresAt is unix milliseconds; nil when absent or not numeric.
	ExpiresAt *int64
}

// tokenParams in priority order.
var tokenParams = []string{"token", "set-auth-token", "authToken"}

// expiryParams in priority order.
var expiryParams = []string{"expiresAt", "expires_at", "exp"}

// ParseCallback extracts a bearer token and optional expiry from a callback
// URL. Any URL shape is tolerated: a URL without a recognized token
// parameter yields the zero Callback, never an error.
func ParseCallback(rawURL string) Callback {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Callback{}
	}
	query := u.Query()

	// First present parameter wins even when empty, matching the web shell.
	var token string
	for _, name := range tokenParams {
		if query.Has(name) {
			token = query.Get(name)
			break
		}
	}
	if token == "" {
		return Callback{}
	}

	var expiresAt *int64
	for _, name := range expiryParams {
		if !query.Has(name) {
			continue
		}
		raw := query.Get(name)
		if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			ms := int64(f)
			expiresAt = &ms
		}
		break
	}

	return Callback{Token: token, ExpiresAt: expiresAt}
}

// IsAllowedURL reports whether a URL may load inside the embedded browsing
// surface: http(s) only, host exactly in the allow-list. about:blank is
// always allowed because surfaces navigate through it between loads.
func IsAllowedURL(rawURL string, allowedHosts []string) bool {
	if rawURL == "about:blank" {
		return true
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	for _, host := range allowedHosts {
		if u.Host == host {
			return true
		}
	}
	return false
}

// IsSignedInPath reports whether a URL points at the app's authenticated
// area. Reaching it mid-flow means the OAuth exchange set cookies directly.
func IsSignedInPath(rawURL, appOrigin string) bool {
	u, ok := sameHost(rawURL, appOrigin)
	if !ok {
		return false
	}
	return routes.RequiresAuth(u.Path)
}

// IsLoginPath reports whether a URL points at the app's login surface.
func IsLoginPath(rawURL, appOrigin string) bool {
	u, ok := sameHost(rawURL, appOrigin)
	if !ok {
		return false
	}
	return strings.HasPrefix(routes.Normalize(u.Path), routes.LoginPath)
}

// sameHost parses both URLs and checks the host matches the app origin.
func sameHost(rawURL, appOrigin string) (*url.URL, bool) {
	origin, err := url.Parse(appOrigin)
	if err != nil || origin.Host == "" {
		return nil, false
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host != origin.Host {
		return nil, false
	}
	return u, true
}

// ResolveWebPath reduces a full URL to the web path (plus query) the shell
// should record as current. Unparsable input falls back to the entry path.
func ResolveWebPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() {
		return routes.AppEntryPath
	}

	path := u.Path
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return routes.Normalize(path)
}
