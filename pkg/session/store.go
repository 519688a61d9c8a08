package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/todusapp/mailshell/pkg/kvs"
)

// Storage keys. Versioned so a record format change can migrate cleanly.
const (
	sessionKey  = "todus:session:v1"
	lastPathKey = "todus:last-visited-path"
)

// StorageError wraps a secure-storage failure. Callers that can degrade
// (bootstrap) treat it as "no session"; callers that cannot (explicit
// writes) surface it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("session storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Store persists the session record and the last-visited path in a kvs
// backend. It is the only component that touches the backing store;
// everything else goes through it.
type Store struct {
	kv kvs.Store
}

// NewStore creates a Store on top of a kvs backend.
func NewStore(kv kvs.Store) *Store {
	return &Store{kv: kv}
}

// Get loads the persisted session. A missing record returns (nil, nil):
// "no session" is a valid steady state, not an error. A corrupt record
// also reads as absent so a bad write can never lock the user out.
func (s *Store) Get(ctx context.Context) (*Session, error) {
	data, err := s.kv.Get(ctx, sessionKey)
	if err != nil {
		if errors.Is(err, kvs.ErrNotFound) {
			return nil, nil
		}
		return nil, &StorageError{Op: "get", Err: err}
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, nil
	}
	if err := sess.Validate(); err != nil {
		return nil, nil
	}

	return &sess, nil
}

// Set overwrites the persisted session wholesale.
func (s *Store) Set(ctx context.Context, sess Session) error {
	if err := sess.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return &StorageError{Op: "set", Err: err}
	}

	if err := s.kv.Set(ctx, sessionKey, data, 0); err != nil {
		return &StorageError{Op: "set", Err: err}
	}
	return nil
}

// Clear removes the persisted session.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, sessionKey); err != nil {
		return &StorageError{Op: "clear", Err: err}
	}
	return nil
}

// LastPath returns the last-visited web path, or "" when none is recorded.
func (s *Store) LastPath(ctx context.Context) (string, error) {
	data, err := s.kv.Get(ctx, lastPathKey)
	if err != nil {
		if errors.Is(err, kvs.ErrNotFound) {
			return "", nil
		}
		return "", &StorageError{Op: "get last path", Err: err}
	}
	return string(data), nil
}

// SetLastPath records the last-visited web path.
func (s *Store) SetLastPath(ctx context.Context, path string) error {
	if err := s.kv.Set(ctx, lastPathKey, []byte(path), 0); err != nil {
		return &StorageError{Op: "set last path", Err: err}
	}
	return nil
}
