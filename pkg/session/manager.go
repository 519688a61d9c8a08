package session

import (
	"context"
	"sync"
	"time"

	"github.com/todusapp/mailshell/pkg/logging"
	"github.com/todusapp/mailshell/pkg/routes"
)

// Status is the process-wide authentication status.
// It only moves forward out of StatusBootstrapping, then flips between
// authenticated and unauthenticated.
type Status int

const (
	// StatusBootstrapping is the initial status before the store was read.
	StatusBootstrapping Status = iota
	// StatusAuthenticated means a live session is published.
	StatusAuthenticated
	// StatusUnauthenticated means no live session exists.
	StatusUnauthenticated
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case StatusBootstrapping:
		return "bootstrapping"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Change is delivered to subscribers on every status or session change.
type Change struct {
	Status  Status
	Session *Session
}

// Backend is the slice of the RPC backend the manager needs.
type Backend interface {
	// GetSession validates a bearer token. valid reports whether the
	// backend accepted it; refreshed is the (possibly rotated) token.
	// err covers transport failures only, never rejection.
	GetSession(ctx context.Context, token string) (refreshed string, valid bool, err error)

	// SignOut revokes a token server-side. Best effort.
	SignOut(ctx context.Context, token string) error
}

// Manager holds the active session and authentication status, persists
// changes through the Store, and notifies subscribers. It replaces the
// ambient global atoms of the older shells with one explicit object that
// is passed to whoever needs it.
type Manager struct {
	store   *Store
	backend Backend
	logger  logging.Logger
	now     func() time.Time

	mu          sync.Mutex
	status      Status
	session     *Session
	currentPath string
	subs        map[int]chan Change
	nextSubID   int
}

// NewManager creates a Manager. backend may be nil when revalidation and
// sign-out are not needed (tests, offline tooling).
func NewManager(store *Store, backend Backend, logger logging.Logger) *Manager {
	return &Manager{
		store:       store,
		backend:     backend,
		logger:      logger.WithModule("session"),
		now:         time.Now,
		status:      StatusBootstrapping,
		currentPath: routes.AppEntryPath,
		subs:        make(map[int]chan Change),
	}
}

// Status returns the current authentication status.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Current returns a copy of the active session, or nil.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	copied := *m.session
	return &copied
}

// CurrentPath returns the last known web path.
func (m *Manager) CurrentPath() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentPath
}

// Subscribe registers a status observer. The returned cancel func must be
// called when done. Slow subscribers miss intermediate changes rather than
// blocking the manager.
func (m *Manager) Subscribe() (<-chan Change, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSubID
	m.nextSubID++
	ch := make(chan Change, 8)
	m.subs[id] = ch

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if sub, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(sub)
		}
	}
}

// publish swaps status and session and notifies subscribers.
// Callers must hold m.mu.
func (m *Manager) publish(status Status, sess *Session) {
	m.status = status
	m.session = sess

	change := Change{Status: status}
	if sess != nil {
		copied := *sess
		change.Session = &copied
	}

	for _, ch := range m.subs {
		select {
		case ch <- change:
		default:
		}
	}
}

// Bootstrap reads the store once at process start and publishes the result.
// A storage failure reads as "no session": the shell fails safe to the
// logged-out state instead of crashing.
func (m *Manager) Bootstrap(ctx context.Context) {
	sess, err := m.store.Get(ctx)
	if err != nil {
		m.logger.Warn("Session read failed, treating as signed out", "error", err)
		sess = nil
	}

	lastPath, err := m.store.LastPath(ctx)
	if err != nil {
		m.logger.Warn("Last path read failed", "error", err)
		lastPath = ""
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if lastPath != "" {
		m.currentPath = lastPath
	}

	if sess != nil && !sess.Expired(m.now()) {
		m.logger.Info("Session restored", "mode", sess.Mode)
		m.publish(StatusAuthenticated, sess)
		return
	}

	if err := m.store.Clear(ctx); err != nil {
		m.logger.Warn("Session clear failed", "error", err)
	}
	m.publish(StatusUnauthenticated, nil)
}

// Revalidate checks a bearer session against the backend. It runs at start
// and whenever the application returns to the foreground.
//
// Rejection clears the session and forces re-login. A transport failure is
// swallowed: transient connectivity loss must not log the user out, the
// next foreground event retries. Overlapping calls are safe because both
// write the same derived state idempotently.
func (m *Manager) Revalidate(ctx context.Context) {
	m.mu.Lock()
	sess := m.session
	m.mu.Unlock()

	if m.backend == nil || sess == nil || sess.Mode != ModeBearer {
		return
	}

	refreshed, valid, err := m.backend.GetSession(ctx, sess.Token)
	if err != nil {
		m.logger.Debug("Revalidation skipped", "error", err)
		return
	}
	if !valid {
		m.logger.Info("Session rejected by backend, signing out")
		m.Clear(ctx)
		return
	}

	if refreshed != "" && refreshed != sess.Token {
		m.logger.Info("Session token rotated")
		if err := m.SetBearer(ctx, refreshed, sess.ExpiresAt); err != nil {
			m.logger.Warn("Failed to store rotated token", "error", err)
		}
	}
}

// SetBearer stores a bearer session and publishes it.
func (m *Manager) SetBearer(ctx context.Context, token string, expiresAt *int64) error {
	sess := NewBearer(token, expiresAt, m.now())
	if err := m.store.Set(ctx, sess); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.publish(StatusAuthenticated, &sess)
	return nil
}

// SetCookie stores a cookie session and publishes it. Used when the OAuth
// exchange landed in the authenticated area without handing over a token.
func (m *Manager) SetCookie(ctx context.Context) error {
	sess := NewCookie(m.now())
	if err := m.store.Set(ctx, sess); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.publish(StatusAuthenticated, &sess)
	return nil
}

// SetCurrentPath persists and publishes the last-visited web path.
func (m *Manager) SetCurrentPath(ctx context.Context, path string) error {
	normalized := routes.Normalize(path)
	if err := m.store.SetLastPath(ctx, normalized); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentPath = normalized
	return nil
}

// Clear removes the session and publishes the unauthenticated status.
func (m *Manager) Clear(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Warn("Session clear failed", "error", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.publish(StatusUnauthenticated, nil)
}

// SignOut revokes the session server-side (best effort) and clears it.
func (m *Manager) SignOut(ctx context.Context) {
	m.mu.Lock()
	sess := m.session
	m.mu.Unlock()

	if m.backend != nil && sess != nil && sess.Mode == ModeBearer {
		if err := m.backend.SignOut(ctx, sess.Token); err != nil {
			m.logger.Debug("Server-side sign-out failed", "error", err)
		}
	}

	m.Clear(ctx)
}
