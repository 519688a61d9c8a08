// Package bridge runs one OAuth sign-in flow from initiation to a stored
// session. The flow is presented on a Surface, an abstraction over whatever
// is actually showing the provider's pages, and driven entirely by the
// events that surface reports.
package bridge

// EventKind identifies what a Surface observed.
type EventKind int

const (
	// EventNavigation reports the surface landing on a URL.
	EventNavigation EventKind = iota
	// EventRequest reports a request the surface is about to issue.
	EventRequest
	// EventMessage reports a message posted by page content.
	EventMessage
	// EventLoadError reports a failed page load.
	EventLoadError
)

// Event is one observation from a presenting surface.
type Event struct {
	Kind EventKind
	// URL is set for navigation and request events.
	URL string
	// Payload is set for message events.
	Payload string
	// Err is set for load-error events.
	Err error
}

// Surface is a browsing surface the bridge can present an authorization
// URL on. Implementations close the Events channel once the surface is
// gone; Close is idempotent.
type Surface interface {
	// Load points the surface at a URL.
	Load(url string) error
	// Events streams the surface's observations.
	Events() <-chan Event
	// Close tears the surface down.
	Close() error
}

// Opener hands a URL to something outside the bridge's control, normally
// the system browser. Used for custom providers and for hosts the policy
// does not allow on the surface.
type Opener func(url string) error
