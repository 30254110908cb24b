package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent failures of the authorization and token
// lifecycle. Callers match on error kind with errors.Is/errors.As
// rather than inspecting message text.
var (
	// ErrMissingAuthorizationCode indicates the OAuth callback resolved
	// without an authorization code (and without a provider error).
	ErrMissingAuthorizationCode = errors.New("authorization callback contained no code")

	// ErrNoRefreshToken indicates a token refresh was requested but no
	// refresh token is stored. Recovery requires full re-authorization.
	ErrNoRefreshToken = errors.New("no refresh token stored; run setup to re-authorize")

	// ErrTokenExpired indicates the provider rejected the access token
	// (HTTP 401). Recovery requires refresh or full re-authorization.
	ErrTokenExpired = errors.New("access token rejected by Monzo; re-authorization required")

	// ErrBrowserLaunch indicates the system browser could not be opened.
	// Non-fatal: the caller shows the authorization URL for manual use.
	ErrBrowserLaunch = errors.New("could not open browser")
)

// PortInUseError indicates the callback listener could not bind its port.
// Another process (or a concurrent authorization attempt) holds it.
type PortInUseError struct {
	Port int
}

func (e *PortInUseError) Error() string {
	return fmt.Sprintf(
		"port %d is already in use: free the port or check for another authorization attempt in progress",
		e.Port)
}

// AuthorizationDeniedError indicates the provider redirected back with an
// error instead of a code, typically because the user declined access.
type AuthorizationDeniedError struct {
	Code        string
	Description string
}

func (e *AuthorizationDeniedError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("authorization denied: %s (%s)", e.Code, e.Description)
	}
	return fmt.Sprintf("authorization denied: %s", e.Code)
}

// StateMismatchError indicates the state parameter returned by the
// provider does not match the one generated for this attempt. The
// callback may not correspond to our request (possible CSRF).
type StateMismatchError struct {
	Expected string
	Received string
}

func (e *StateMismatchError) Error() string {
	return "state parameter mismatch: callback does not match this authorization attempt (possible CSRF)"
}

// TokenExchangeError indicates the authorization code could not be
// exchanged for tokens.
type TokenExchangeError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *TokenExchangeError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("token exchange failed: %s - %s", e.Code, e.Description)
	}
	return fmt.Sprintf("token exchange failed with status %d", e.StatusCode)
}

// RefreshFailedError indicates a token refresh was rejected by the
// provider. The refresh token is invalid or expired; recovery requires
// full re-authorization.
type RefreshFailedError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *RefreshFailedError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("token refresh failed: %s - %s", e.Code, e.Description)
	}
	return fmt.Sprintf("token refresh failed with status %d", e.StatusCode)
}

// MalformedConfigError indicates the persisted configuration failed
// schema validation and cannot be classified.
type MalformedConfigError struct {
	Reason string
}

func (e *MalformedConfigError) Error() string {
	return fmt.Sprintf("malformed config: %s", e.Reason)
}

// IsPortInUse returns true if the error indicates the callback port
// could not be bound.
func IsPortInUse(err error) bool {
	var pErr *PortInUseError
	return errors.As(err, &pErr)
}

// IsAuthorizationDenied returns true if the error indicates the user
// declined authorization.
func IsAuthorizationDenied(err error) bool {
	var dErr *AuthorizationDeniedError
	return errors.As(err, &dErr)
}

// IsStateMismatch returns true if the error indicates a CSRF state
// mismatch.
func IsStateMismatch(err error) bool {
	var sErr *StateMismatchError
	return errors.As(err, &sErr)
}

// IsMalformedConfig returns true if the error indicates a config schema
// failure.
func IsMalformedConfig(err error) bool {
	var mErr *MalformedConfigError
	return errors.As(err, &mErr)
}
