package domain

import "time"

// Credential stores the Monzo OAuth client details and the token set
// obtained through the authorization code flow.
//
// The token fields travel together: if AccessToken is set, RefreshToken,
// TokenExpiresAt, and AuthorizedAt must all be set too. Partial token
// states are rejected by Validate.
type Credential struct {
	// ClientID is the OAuth client identifier from the Monzo developer portal.
	ClientID string
	// ClientSecret is the matching OAuth client secret.
	ClientSecret string

	// AccessToken is the bearer token for API access. Empty before
	// authorization has completed.
	AccessToken string
	// RefreshToken is used to obtain new access tokens.
	RefreshToken string
	// TokenExpiresAt is when the access token expires.
	TokenExpiresAt time.Time
	// AuthorizedAt is when the user completed the authorization flow.
	AuthorizedAt time.Time
}

// Token holds the result of a token endpoint call (initial exchange or
// refresh). It is merged into a Credential by the caller.
type Token struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
}

// HasClient returns true if the OAuth client details are present.
func (c *Credential) HasClient() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// HasToken returns true if an access token is present.
func (c *Credential) HasToken() bool {
	return c.AccessToken != ""
}

// HasRefreshToken returns true if a refresh token is available.
func (c *Credential) HasRefreshToken() bool {
	return c.RefreshToken != ""
}

// IsExpired returns true if the access token has an expiry in the past.
// A zero expiry is not treated as expired here; the token lifecycle
// manager treats a missing expiry as needing refresh instead.
func (c *Credential) IsExpired(now time.Time) bool {
	if c.TokenExpiresAt.IsZero() {
		return false
	}
	return c.TokenExpiresAt.Before(now)
}

// Validate rejects partial token states. A credential with an access
// token but no refresh token, expiry, or authorization timestamp cannot
// be refreshed or classified meaningfully and indicates a corrupted
// config file.
func (c *Credential) Validate() error {
	if c.AccessToken == "" {
		return nil
	}
	switch {
	case c.RefreshToken == "":
		return &MalformedConfigError{Reason: "access token present but refresh token missing"}
	case c.TokenExpiresAt.IsZero():
		return &MalformedConfigError{Reason: "access token present but token expiry missing"}
	case c.AuthorizedAt.IsZero():
		return &MalformedConfigError{Reason: "access token present but authorization timestamp missing"}
	}
	return nil
}
