package google

import (
	"errors"
	"fmt"
)

var (
	// ErrNoToken is returned when no token file exists and interactive
	// authorization is disabled.
	ErrNoToken = errors.New("no token file and interactive authorization is disabled")

	// ErrHandshakeTimeout is returned when the consent callback never arrives.
	ErrHandshakeTimeout = errors.New("timed out waiting for authorization callback")

	// ErrStateMismatch is returned when the callback carries an unexpected state.
	ErrStateMismatch = errors.New("authorization callback state mismatch")
)

// AuthError reports a failure to obtain a credential for a provider.
type AuthError struct {
	Provider Provider
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s authorization failed: %v", e.Provider, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
