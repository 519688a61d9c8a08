package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthorizationDenied is returned when the provider redirected back
	// to the login surface carrying an error parameter.
	ErrAuthorizationDenied = errors.New("auth: authorization denied by provider")

	// ErrTokenExtraction is returned when a flow finished without a token
	// and without landing in the authenticated area.
	ErrTokenExtraction = errors.New("auth: no token found in callback")

	// ErrNoAuthURL is returned when the sign-in endpoint answered without
	// an authorization URL.
	ErrNoAuthURL = errors.New("auth: provider did not return an authorization URL")
)

// NetworkError reports an unreachable or non-2xx backend endpoint.
// Status is zero for transport failures.
type NetworkError struct {
	Op     string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("auth: %s failed (status %d)", e.Op, e.Status)
	}
	return fmt.Sprintf("auth: %s failed: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
