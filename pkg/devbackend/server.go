// Package devbackend is a local stand-in for the production auth backend.
// It serves the provider directory, the sign-in initiation endpoint, token
// validation and revocation, and a consent page that plays the provider's
// part, so the shells can be exercised end to end without real
// credentials. With credentials configured it drives a real OAuth2
// provider instead of the built-in consent page.
package devbackend

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/todusapp/mailshell/pkg/auth"
	"github.com/todusapp/mailshell/pkg/logging"
)

// Config configures a dev backend.
type Config struct {
	// Providers is the directory served to clients. Empty gets a default
	// google entry.
	Providers []auth.Provider
	// TokenTTL bounds minted tokens. Zero means one hour.
	TokenTTL time.Duration
	// RotateOnGetSession makes every successful validation answer with a
	// replacement token in the set-auth-token header.
	RotateOnGetSession bool
	// Upstream, when set, delegates authorization to a real provider
	// instead of the built-in consent page.
	Upstream *Upstream
	Logger   logging.Logger

	// Now overrides the clock (tests).
	Now func() time.Time
}

type tokenEntry struct {
	provider  string
	expiresAt time.Time
}

// Server implements the backend's auth surface over plain HTTP.
type Server struct {
	providers []auth.Provider
	tokenTTL  time.Duration
	rotate    bool
	upstream  *Upstream
	logger    logging.Logger
	now       func() time.Time

	mu      sync.Mutex
	tokens  map[string]tokenEntry
	pending map[string]string // state -> callback URL, for upstream flows
}

// NewServer creates a Server.
func NewServer(cfg Config) *Server {
	providers := cfg.Providers
	if len(providers) == 0 {
		providers = []auth.Provider{{ID: "google", Name: "Google", Enabled: true}}
	}
	ttl := cfg.TokenTTL
	if ttl == 0 {
		ttl = time.Hour
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Server{
		providers: providers,
		tokenTTL:  ttl,
		rotate:    cfg.RotateOnGetSession,
		upstream:  cfg.Upstream,
		logger:    logger,
		now:       now,
		tokens:    make(map[string]tokenEntry),
		pending:   make(map[string]string),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/public/providers", s.handleProviders)
	mux.HandleFunc("/api/auth/sign-in/social", s.handleSignIn)
	mux.HandleFunc("/api/auth/get-session", s.handleGetSession)
	mux.HandleFunc("/api/auth/sign-out", s.handleSignOut)
	mux.HandleFunc("/authorize", s.handleAuthorize)
	mux.HandleFunc("/consent", s.handleConsent)
	mux.HandleFunc("/oauth2/callback", s.handleUpstreamCallback)
	return mux
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]any{"allProviders": s.providers})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Provider        string `json:"provider"`
		CallbackURL     string `json:"callbackURL"`
		DisableRedirect bool   `json:"disableRedirect"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if !s.knownProvider(body.Provider) {
		http.Error(w, "unknown provider", http.StatusBadRequest)
		return
	}

	authorizeURL := fmt.Sprintf("http://%s/authorize?%s", r.Host, url.Values{
		"provider": {body.Provider},
		"callback": {body.CallbackURL},
	}.Encode())

	s.logger.Debug("sign-in initiated", "provider", body.Provider)

	if body.DisableRedirect {
		writeJSON(w, map[string]string{"url": authorizeURL})
		return
	}
	http.Redirect(w, r, authorizeURL, http.StatusFound)
}

func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	provider := r.URL.Query().Get("provider")
	callback := r.URL.Query().Get("callback")
	if callback == "" {
		http.Error(w, "missing callback", http.StatusBadRequest)
		return
	}

	if s.upstream != nil {
		state := mintToken()
		s.mu.Lock()
		s.pending[state] = callback
		s.mu.Unlock()
		http.Redirect(w, r, s.upstream.AuthCodeURL(state), http.StatusFound)
		return
	}

	q := url.Values{"provider": {provider}, "callback": {callback}}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<html><body>
<h1>Sign in with %s</h1>
<p><a href="/consent?decision=approve&%s">Approve</a></p>
<p><a href="/consent?decision=deny&%s">Deny</a></p>
</body></html>`, provider, q.Encode(), q.Encode())
}

func (s *Server) handleConsent(w http.ResponseWriter, r *http.Request) {
	callback := r.URL.Query().Get("callback")
	if callback == "" {
		http.Error(w, "missing callback", http.StatusBadRequest)
		return
	}

	if r.URL.Query().Get("decision") != "approve" {
		http.Redirect(w, r, appendQuery(callback, url.Values{"error": {"access_denied"}}), http.StatusFound)
		return
	}

	s.issueAndRedirect(w, r, r.URL.Query().Get("provider"), callback)
}

func (s *Server) handleUpstreamCallback(w http.ResponseWriter, r *http.Request) {
	if s.upstream == nil {
		http.Error(w, "no upstream configured", http.StatusNotFound)
		return
	}

	state := r.URL.Query().Get("state")
	s.mu.Lock()
	callback, ok := s.pending[state]
	delete(s.pending, state)
	s.mu.Unlock()
	if !ok {
		http.Error(w, "unknown state", http.StatusBadRequest)
		return
	}

	if errCode := r.URL.Query().Get("error"); errCode != "" {
		http.Redirect(w, r, appendQuery(callback, url.Values{"error": {errCode}}), http.StatusFound)
		return
	}

	email, err := s.upstream.ExchangeAndIdentify(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		s.logger.Error("upstream exchange failed", "error", err)
		http.Redirect(w, r, appendQuery(callback, url.Values{"error": {"server_error"}}), http.StatusFound)
		return
	}
	s.logger.Info("upstream sign-in", "email", email)

	s.issueAndRedirect(w, r, s.upstream.Provider(), callback)
}

func (s *Server) issueAndRedirect(w http.ResponseWriter, r *http.Request, provider, callback string) {
	token, expiresAt := s.issue(provider)
	http.Redirect(w, r, appendQuery(callback, url.Values{
		"token":     {token},
		"expiresAt": {fmt.Sprintf("%d", expiresAt.UnixMilli())},
	}), http.StatusFound)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	s.mu.Lock()
	entry, ok := s.tokens[token]
	if ok && s.now().After(entry.expiresAt) {
		delete(s.tokens, token)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if s.rotate {
		rotated, expiresAt := s.issue(entry.provider)
		s.revoke(token)
		w.Header().Set("set-auth-token", rotated)
		writeJSON(w, map[string]any{
			"session": map[string]any{"expiresAt": expiresAt.UnixMilli(), "provider": entry.provider},
		})
		return
	}

	writeJSON(w, map[string]any{
		"session": map[string]any{"expiresAt": entry.expiresAt.UnixMilli(), "provider": entry.provider},
	})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if token := bearerToken(r); token != "" {
		s.revoke(token)
	}
	writeJSON(w, map[string]bool{"success": true})
}

// issue mints a fresh token bounded by the configured TTL.
func (s *Server) issue(provider string) (string, time.Time) {
	token := mintToken()
	expiresAt := s.now().Add(s.tokenTTL)

	s.mu.Lock()
	s.tokens[token] = tokenEntry{provider: provider, expiresAt: expiresAt}
	s.mu.Unlock()

	return token, expiresAt
}

func (s *Server) revoke(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}

func (s *Server) knownProvider(id string) bool {
	for _, p := range s.providers {
		if p.ID == id {
			return true
		}
	}
	return false
}

func mintToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("reading random bytes: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return ""
	}
	return header[len(prefix):]
}

func appendQuery(rawURL string, values url.Values) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL + "?" + values.Encode()
	}
	q := u.Query()
	for k, vs := range values {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
