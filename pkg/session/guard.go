package session

import (
	"strings"

	"github.com/todusapp/mailshell/pkg/routes"
)

// Action is the navigation decision the guard hands back to a shell.
type Action int

const (
	// ActionWait means keep showing the loading state; status is not
	// resolved yet and no navigation may happen.
	ActionWait Action = iota
	// ActionNone means the current location is fine.
	ActionNone
	// ActionRedirectLogin means navigate to the login surface.
	ActionRedirectLogin
	// ActionRedirectEntry means navigate to the authenticated entry point.
	ActionRedirectEntry
)

// String returns the string representation of the action
func (a Action) String() string {
	switch a {
	case ActionWait:
		return "wait"
	case ActionNone:
		return "none"
	case ActionRedirectLogin:
		return "redirect-login"
	case ActionRedirectEntry:
		return "redirect-entry"
	default:
		return "unknown"
	}
}

// inLoginArea reports whether a path belongs to the login route group.
func inLoginArea(path string) bool {
	return strings.HasPrefix(routes.Normalize(path), routes.LoginPath)
}

// Decide is the auth guard: a pure function of status and current path.
// Unauthenticated users outside the login area are pushed to login,
// authenticated users still sitting in the login area are pushed to the
// entry point, and everything else stays put.
func Decide(status Status, currentPath string) Action {
	if status == StatusBootstrapping {
		return ActionWait
	}

	switch status {
	case StatusUnauthenticated:
		if !inLoginArea(currentPath) {
			return ActionRedirectLogin
		}
	case StatusAuthenticated:
		if inLoginArea(currentPath) {
			return ActionRedirectEntry
		}
	}

	return ActionNone
}
