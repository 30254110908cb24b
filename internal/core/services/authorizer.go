package services

import (
	"context"
	"time"

	"github.com/alexcrawford/actual-monzo-sub000/internal/core/domain"
	"github.com/alexcrawford/actual-monzo-sub000/internal/core/ports/driven"
	"github.com/alexcrawford/actual-monzo-sub000/internal/logger"
)

// ListenerFactory creates a fresh callback listener for one
// authorization attempt. A new listener re-arms the single-shot wait;
// attempts never share listener state.
type ListenerFactory func() driven.CallbackListener

// AuthURLNotifier is told the authorization URL once the flow reaches
// the waiting stage. browserErr is non-nil when the browser could not
// be opened and the user must open the URL manually.
type AuthURLNotifier func(authURL string, browserErr error)

// Authorizer drives the OAuth authorization code flow: start the local
// callback listener, send the user to the provider, wait for the
// redirect, validate the CSRF state, and exchange the code for tokens.
//
// Every exit path shuts the listener down so the port is released, and
// no failure is retried automatically; authorization is user-in-the-loop
// and is restarted explicitly by the caller.
type Authorizer struct {
	gateway     driven.OAuthGateway
	newListener ListenerFactory
	browser     driven.BrowserOpener
	notify      AuthURLNotifier
	now         func() time.Time
}

// NewAuthorizer creates an authorizer. notify may be nil.
func NewAuthorizer(
	gateway driven.OAuthGateway,
	newListener ListenerFactory,
	browser driven.BrowserOpener,
	notify AuthURLNotifier,
) *Authorizer {
	if notify == nil {
		notify = func(string, error) {}
	}
	return &Authorizer{
		gateway:     gateway,
		newListener: newListener,
		browser:     browser,
		notify:      notify,
		now:         time.Now,
	}
}

// Authorize runs one complete authorization attempt and returns the
// resulting credential. The caller persists it.
func (a *Authorizer) Authorize(ctx context.Context, clientID, clientSecret string) (*domain.Credential, error) {
	state := NewStateToken()

	listener := a.newListener()
	if err := listener.Start(); err != nil {
		return nil, err
	}
	defer func() {
		if err := listener.Shutdown(); err != nil {
			logger.Warn("callback listener shutdown: %v", err)
		}
	}()

	redirectURI := listener.RedirectURI()
	authURL := a.gateway.AuthorizationURL(clientID, redirectURI, state)

	browserErr := a.browser.Open(authURL)
	if browserErr != nil {
		// Non-fatal: the notifier shows the URL for manual opening.
		logger.Warn("%v: %v", domain.ErrBrowserLaunch, browserErr)
	}
	a.notify(authURL, browserErr)

	logger.Debug("waiting for authorization callback on %s", redirectURI)
	result, err := listener.Wait(ctx)
	if err != nil {
		return nil, err
	}

	if result.ErrorCode != "" {
		return nil, &domain.AuthorizationDeniedError{
			Code:        result.ErrorCode,
			Description: result.ErrorDescription,
		}
	}
	// State is checked before the code is consumed.
	if !ValidateState(state, result.State) {
		return nil, &domain.StateMismatchError{Expected: state, Received: result.State}
	}
	if result.Code == "" {
		return nil, domain.ErrMissingAuthorizationCode
	}

	token, err := a.gateway.Exchange(ctx, clientID, clientSecret, result.Code, redirectURI)
	if err != nil {
		return nil, err
	}

	return &domain.Credential{
		ClientID:       clientID,
		ClientSecret:   clientSecret,
		AccessToken:    token.AccessToken,
		RefreshToken:   token.RefreshToken,
		TokenExpiresAt: token.ExpiresAt,
		AuthorizedAt:   a.now(),
	}, nil
}
