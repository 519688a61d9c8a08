// Package session owns the client's authentication state: the persisted
// session record, the secure store around it, and the bootstrap/revalidation
// manager the shells drive on start and on foreground.
package session

import (
	"errors"
	"time"
)

// Mode says how a session authenticates against the backend.
type Mode string

const (
	// ModeBearer carries an opaque token in the Authorization header.
	ModeBearer Mode = "bearer"
	// ModeCookie relies on the cookie jar shared with the embedded surface.
	ModeCookie Mode = "web-cookie"
)

// Session is the persisted session record.
// Timestamps are unix milliseconds to stay wire-compatible with the record
// the web app and the other shells write.
type Session struct {
	Mode      Mode   `json:"mode"`
	Token     string `json:"token,omitempty"`
	CreatedAt int64  `json:"createdAt"`
	// ExpiresAt is nil when the session does not expire client-side;
	// the server remains the authority either way.
	ExpiresAt *int64 `json:"expiresAt,omitempty"`
}

var (
	// ErrBearerTokenMissing is returned when a bearer session has no token
	ErrBearerTokenMissing = errors.New("session: bearer session requires a token")

	// ErrCookieTokenPresent is returned when a cookie session carries a token
	ErrCookieTokenPresent = errors.New("session: cookie session must not carry a token")

	// ErrUnknownMode is returned for a mode outside bearer/web-cookie
	ErrUnknownMode = errors.New("session: unknown session mode")
)

// NewBearer creates a bearer session stamped at now.
func NewBearer(token string, expiresAt *int64, now time.Time) Session {
	return Session{
		Mode:      ModeBearer,
		Token:     token,
		CreatedAt: now.UnixMilli(),
		ExpiresAt: expiresAt,
	}
}

// NewCookie creates a cookie session stamped at now. Validity is delegated
// to the shared cookie jar, so no client-side expiry is recorded.
func NewCookie(now time.Time) Session {
	return Session{
		Mode:      ModeCookie,
		CreatedAt: now.UnixMilli(),
	}
}

// Validate checks the mode/token invariants.
func (s Session) Validate() error {
	switch s.Mode {
	case ModeBearer:
		if s.Token == "" {
			return ErrBearerTokenMissing
		}
	case ModeCookie:
		if s.Token != "" {
			return ErrCookieTokenPresent
		}
	default:
		return ErrUnknownMode
	}
	return nil
}

// Expired reports whether the session has expired client-side at now.
// A session without ExpiresAt never expires client-side.
func (s Session) Expired(now time.Time) bool {
	if s.ExpiresAt == nil {
		return false
	}
	return *s.ExpiresAt <= now.UnixMilli()
}
