package monzo

import (
	"golang.org/x/oauth2"

	"github.com/alexcrawford/actual-monzo-sub000/internal/core/domain"
)

// TokenSource adapts a credential to oauth2.TokenSource for the API
// client. The token manager has already refreshed and persisted the
// credential before it reaches here, so a static source is enough:
// refresh-during-fetch is deliberately not supported.
func TokenSource(cred *domain.Credential) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cred.AccessToken,
		TokenType:   "Bearer",
		Expiry:      cred.TokenExpiresAt,
	})
}
