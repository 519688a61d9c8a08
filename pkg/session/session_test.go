package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr(v int64) *int64 { return &v }

func TestSession_Validate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		session Session
		wantErr error
	}{
		{"bearer with token", NewBearer("tok", nil, now), nil},
		{"bearer without token", Session{Mode: ModeBearer, CreatedAt: now.UnixMilli()}, ErrBearerTokenMissing},
		{"cookie without token", NewCookie(now), nil},
		{"cookie with token", Session{Mode: ModeCookie, Token: "tok", CreatedAt: now.UnixMilli()}, ErrCookieTokenPresent},
		{"unknown mode", Session{Mode: "magic", CreatedAt: now.UnixMilli()}, ErrUnknownMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.session.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()

	t.Run("no expiry never expires", func(t *testing.T) {
		sess := NewBearer("tok", nil, now)
		assert.False(t, sess.Expired(now.Add(100*365*24*time.Hour)))
	})

	t.Run("future expiry is live", func(t *testing.T) {
		sess := NewBearer("tok", ptr(now.Add(time.Hour).UnixMilli()), now)
		assert.False(t, sess.Expired(now))
	})

	t.Run("past expiry is expired", func(t *testing.T) {
		sess := NewBearer("tok", ptr(now.Add(-time.Hour).UnixMilli()), now)
		assert.True(t, sess.Expired(now))
	})

	t.Run("boundary counts as expired", func(t *testing.T) {
		sess := NewBearer("tok", ptr(now.UnixMilli()), now)
		assert.True(t, sess.Expired(now))
	})
}
