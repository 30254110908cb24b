package driven

import (
	"context"

	"github.com/alexcrawford/actual-monzo-sub000/internal/core/domain"
)

// OAuthGateway performs the provider-side operations of the
// authorization code flow against Monzo's endpoints.
type OAuthGateway interface {
	// AuthorizationURL builds the provider authorization URL with
	// client_id, redirect_uri, response_type=code, and state. Pure;
	// never fails.
	AuthorizationURL(clientID, redirectURI, state string) string

	// Exchange trades an authorization code for a token set.
	// Failures are reported as *domain.TokenExchangeError.
	Exchange(ctx context.Context, clientID, clientSecret, code, redirectURI string) (*domain.Token, error)

	// Refresh obtains a new token set from a refresh token.
	// Failures are reported as *domain.RefreshFailedError and are never
	// retried; the caller falls back to full re-authorization.
	Refresh(ctx context.Context, clientID, clientSecret, refreshToken string) (*domain.Token, error)
}

// CallbackListener is the short-lived local HTTP endpoint that receives
// the OAuth redirect. One listener serves one authorization attempt;
// create a fresh listener to re-arm for a subsequent attempt.
type CallbackListener interface {
	// Start binds the listener. Fails with *domain.PortInUseError when
	// the port is taken; it never falls back to another port, since the
	// provider's registered redirect URI fixes it.
	Start() error

	// Wait blocks until the redirect arrives or ctx is cancelled.
	// Resolves at most once; requests after resolution get a 404.
	Wait(ctx context.Context) (domain.CallbackResult, error)

	// Shutdown releases the port. Idempotent; invoked on every exit
	// path of an authorization attempt.
	Shutdown() error

	// RedirectURI returns the redirect URI registered with the provider.
	RedirectURI() string
}

// BrowserOpener opens a URL in the system browser. Failure is
// non-fatal: the caller shows the URL for manual opening.
type BrowserOpener interface {
	Open(url string) error
}
