package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/todusapp/mailshell/pkg/auth"
	"github.com/todusapp/mailshell/pkg/logging"
	"github.com/todusapp/mailshell/pkg/session"
)

// State is the bridge's lifecycle position.
type State int

const (
	// StateIdle means no flow has started.
	StateIdle State = iota
	// StateResolving means the authorization URL is being obtained.
	StateResolving
	// StatePresenting means the surface is showing the provider flow.
	StatePresenting
	// StateCompletedBearer means the flow produced a bearer session.
	StateCompletedBearer
	// StateCompletedCookie means the flow produced a cookie session.
	StateCompletedCookie
	// StateFailed means the flow ended without a session.
	StateFailed
	// StateCancelled means the caller abandoned the flow.
	StateCancelled
)

// String returns a readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StatePresenting:
		return "presenting"
	case StateCompletedBearer:
		return "completed-bearer"
	case StateCompletedCookie:
		return "completed-cookie"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// terminal reports whether no further transition can leave s.
func (s State) terminal() bool {
	switch s {
	case StateCompletedBearer, StateCompletedCookie, StateFailed, StateCancelled:
		return true
	}
	return false
}

// Initiator starts a provider sign-in flow on the backend.
type Initiator interface {
	SignInSocial(ctx context.Context, providerID, callbackURL string) (auth.SignInResult, error)
}

// Config assembles a Bridge.
type Config struct {
	Client   Initiator        // Backend sign-in initiation (required unless StartURL is used)
	Sessions *session.Manager // Session writes on completion (required)
	Surface  Surface          // Presentation surface (required)
	Opener   Opener           // External hand-off for custom providers and disallowed hosts
	Logger   logging.Logger

	WebOrigin    string   // Web app origin for path classification
	CallbackURL  string   // Callback URL handed to the backend
	AllowedHosts []string // Hosts the surface may load
}

// Bridge drives one sign-in flow to exactly one outcome. Completion is
// one-shot: once a terminal state is reached every later signal is a
// no-op, so competing completion paths produce a single session write.
type Bridge struct {
	client   Initiator
	sessions *session.Manager
	surface  Surface
	opener   Opener
	logger   logging.Logger

	webOrigin    string
	callbackURL  string
	allowedHosts []string

	mu    sync.Mutex
	state State
	err   error
	done  chan struct{}
}

// New creates an idle Bridge.
func New(cfg Config) *Bridge {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Bridge{
		client:       cfg.Client,
		sessions:     cfg.Sessions,
		surface:      cfg.Surface,
		opener:       cfg.Opener,
		logger:       logger,
		webOrigin:    cfg.WebOrigin,
		callbackURL:  cfg.CallbackURL,
		allowedHosts: cfg.AllowedHosts,
		state:        StateIdle,
		done:         make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Err returns the failure cause once the bridge is in StateFailed.
func (b *Bridge) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Done is closed when the bridge reaches a terminal state.
func (b *Bridge) Done() <-chan struct{} {
	return b.done
}

// Start resolves the provider's authorization URL and presents it. Custom
// providers skip the surface entirely and go to the external opener; the
// flow then completes through the deep-link callback. A backend answer
// that already carries a token completes without presenting anything.
func (b *Bridge) Start(ctx context.Context, provider auth.Provider) error {
	if !b.transition(StateIdle, StateResolving) {
		return fmt.Errorf("bridge already started (state %s)", b.State())
	}

	if provider.IsCustom {
		target := b.webOrigin + provider.CustomRedirectPath
		if !b.transition(StateResolving, StatePresenting) {
			return nil
		}
		b.logger.Debug("opening custom provider externally", "provider", provider.ID)
		if err := b.open(target); err != nil {
			b.fail(fmt.Errorf("opening %s: %w", target, err))
			return err
		}
		return nil
	}

	result, err := b.client.SignInSocial(ctx, provider.ID, b.callbackURL)
	if err != nil {
		b.fail(err)
		return err
	}

	if result.Kind == auth.SignInToken {
		b.completeBearer(ctx, result.Token, result.ExpiresAt)
		return nil
	}

	return b.present(ctx, result.URL)
}

// StartURL presents a caller-supplied authorization URL, skipping backend
// resolution.
func (b *Bridge) StartURL(ctx context.Context, authURL string) error {
	if !b.transition(StateIdle, StateResolving) {
		return fmt.Errorf("bridge already started (state %s)", b.State())
	}
	return b.present(ctx, authURL)
}

func (b *Bridge) present(ctx context.Context, authURL string) error {
	if !b.transition(StateResolving, StatePresenting) {
		return nil
	}

	if err := b.surface.Load(authURL); err != nil {
		b.fail(fmt.Errorf("loading authorization url: %w", err))
		return err
	}

	go b.run(ctx)
	return nil
}

// run consumes surface events until the bridge reaches a terminal state
// or the surface goes away.
func (b *Bridge) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			b.Cancel()
			return
		case <-b.done:
			return
		case ev, ok := <-b.surface.Events():
			if !ok {
				return
			}
			b.handle(ctx, ev)
		}
	}
}

func (b *Bridge) handle(ctx context.Context, ev Event) {
	switch ev.Kind {
	case EventRequest:
		if cb := auth.ParseCallback(ev.URL); cb.Token != "" {
			b.completeBearer(ctx, cb.Token, cb.ExpiresAt)
			return
		}
		if !auth.IsAllowedURL(ev.URL, b.allowedHosts) {
			b.logger.Debug("handing disallowed host to external opener", "url", ev.URL)
			if err := b.open(ev.URL); err != nil {
				b.logger.Warn("external open failed", "error", err)
			}
		}

	case EventNavigation:
		if cb := auth.ParseCallback(ev.URL); cb.Token != "" {
			b.completeBearer(ctx, cb.Token, cb.ExpiresAt)
			return
		}
		if auth.IsLoginPath(ev.URL, b.webOrigin) {
			if denied(ev.URL) {
				b.fail(auth.ErrAuthorizationDenied)
			}
			return
		}
		if auth.IsSignedInPath(ev.URL, b.webOrigin) {
			b.completeCookie(ctx, ev.URL)
		}

	case EventMessage:
		var msg struct {
			Token     string `json:"token"`
			ExpiresAt *int64 `json:"expiresAt"`
		}
		if err := json.Unmarshal([]byte(ev.Payload), &msg); err != nil || msg.Token == "" {
			return
		}
		b.completeBearer(ctx, msg.Token, msg.ExpiresAt)

	case EventLoadError:
		b.fail(fmt.Errorf("surface load: %w", ev.Err))
	}
}

// HandleDeepLink feeds an out-of-band callback URL into the flow. The
// surface, if one is presenting, is discarded: the deep link supersedes
// whatever it was showing. A callback without a token fails the flow.
func (b *Bridge) HandleDeepLink(ctx context.Context, rawURL string) {
	cb := auth.ParseCallback(rawURL)
	if cb.Token == "" {
		b.fail(auth.ErrTokenExtraction)
		return
	}
	b.completeBearer(ctx, cb.Token, cb.ExpiresAt)
}

// Cancel abandons the flow and discards the surface. Safe to call in any
// state; after a completion it does nothing.
func (b *Bridge) Cancel() {
	b.mu.Lock()
	if b.state.terminal() {
		b.mu.Unlock()
		return
	}
	b.state = StateCancelled
	close(b.done)
	b.mu.Unlock()

	b.closeSurface()
}

func (b *Bridge) completeBearer(ctx context.Context, token string, expiresAt *int64) {
	if !b.finish(StateCompletedBearer) {
		return
	}
	b.closeSurface()

	if err := b.sessions.SetBearer(ctx, token, expiresAt); err != nil {
		b.logger.Error("persisting bearer session", "error", err)
	}
}

func (b *Bridge) completeCookie(ctx context.Context, landedURL string) {
	if !b.finish(StateCompletedCookie) {
		return
	}
	b.closeSurface()

	if err := b.sessions.SetCurrentPath(ctx, auth.ResolveWebPath(landedURL)); err != nil {
		b.logger.Warn("persisting landing path", "error", err)
	}
	if err := b.sessions.SetCookie(ctx); err != nil {
		b.logger.Error("persisting cookie session", "error", err)
	}
}

// fail moves to StateFailed. Any session already stored stays untouched.
func (b *Bridge) fail(cause error) {
	b.mu.Lock()
	if b.state.terminal() {
		b.mu.Unlock()
		return
	}
	b.state = StateFailed
	b.err = cause
	close(b.done)
	b.mu.Unlock()

	b.logger.Warn("sign-in flow failed", "error", cause)
	b.closeSurface()
}

// finish claims a completion state. Exactly one caller wins; everyone
// else gets false and must not write a session.
func (b *Bridge) finish(to State) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state.terminal() {
		return false
	}
	b.state = to
	close(b.done)
	return true
}

// transition moves from a specific state to another, refusing anything
// that does not match. Illegal transitions are no-ops.
func (b *Bridge) transition(from, to State) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != from {
		return false
	}
	b.state = to
	return true
}

func (b *Bridge) closeSurface() {
	if b.surface == nil {
		return
	}
	if err := b.surface.Close(); err != nil {
		b.logger.Debug("closing surface", "error", err)
	}
}

func (b *Bridge) open(url string) error {
	if b.opener == nil {
		return fmt.Errorf("no external opener configured")
	}
	return b.opener(url)
}

// denied reports whether a login URL carries a provider error parameter.
func denied(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Query().Has("error")
}
