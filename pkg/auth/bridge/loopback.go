package bridge

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/todusapp/mailshell/pkg/logging"
)

// LoopbackSurface presents the flow in the system browser and receives
// the callback on a loopback HTTP listener. It is the surface the CLI
// uses: Load opens the browser, and the provider's final redirect to
// 127.0.0.1 arrives as a request event.
type LoopbackSurface struct {
	listener net.Listener
	server   *http.Server
	events   chan Event
	opener   Opener
	logger   logging.Logger

	closeOnce sync.Once
	closeErr  error
}

// NewLoopbackSurface binds a listener on an ephemeral loopback port and
// starts serving the callback endpoint.
func NewLoopbackSurface(logger logging.Logger) (*LoopbackSurface, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("binding loopback listener: %w", err)
	}

	s := &LoopbackSurface{
		listener: listener,
		events:   make(chan Event, 8),
		opener:   OpenInBrowser,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", s.handleCallback)
	s.server = &http.Server{Handler: mux}

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Warn("loopback server stopped", "error", err)
		}
	}()

	return s, nil
}

// CallbackURL is the redirect target to hand to the backend when
// initiating sign-in.
func (s *LoopbackSurface) CallbackURL() string {
	return fmt.Sprintf("http://%s/callback", s.listener.Addr().String())
}

// Load opens the authorization URL in the system browser.
func (s *LoopbackSurface) Load(url string) error {
	s.logger.Info("opening browser for sign-in", "url", url)
	return s.opener(url)
}

// Events streams the callback arrivals.
func (s *LoopbackSurface) Events() <-chan Event {
	return s.events
}

// Close shuts the listener down and closes the event stream.
func (s *LoopbackSurface) Close() error {
	s.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.closeErr = s.server.Shutdown(ctx)
		close(s.events)
	})
	return s.closeErr
}

func (s *LoopbackSurface) handleCallback(w http.ResponseWriter, r *http.Request) {
	select {
	case s.events <- Event{Kind: EventRequest, URL: r.URL.String()}:
	default:
		s.logger.Warn("dropping callback, event stream full")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<html><body><p>Sign-in received. You can close this tab and return to the terminal.</p></body></html>")
}

// OpenInBrowser opens a URL with the platform's default browser.
func OpenInBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("opening browser: %w", err)
	}
	return nil
}
