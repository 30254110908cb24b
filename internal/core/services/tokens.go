package services

import (
	"context"
	"fmt"
	"time"

	"github.com/alexcrawford/actual-monzo-sub000/internal/core/domain"
	"github.com/alexcrawford/actual-monzo-sub000/internal/core/ports/driven"
	"github.com/alexcrawford/actual-monzo-sub000/internal/logger"
)

// RefreshBuffer is the safety margin before expiry at which a token is
// refreshed, guarding against races between the expiry check and the
// first API call that uses the token.
const RefreshBuffer = 5 * time.Minute

// NeedsRefresh reports whether the stored token must be refreshed
// before use: the expiry is missing, or less than RefreshBuffer away.
func NeedsRefresh(cred *domain.Credential, now time.Time) bool {
	if cred.TokenExpiresAt.IsZero() {
		return true
	}
	return cred.TokenExpiresAt.Sub(now) < RefreshBuffer
}

// TokenManager keeps the stored access token usable. It refreshes
// expiring tokens through the OAuth gateway and persists the updated
// credential before the new token is handed to any caller.
type TokenManager struct {
	gateway driven.OAuthGateway
	store   driven.ConfigStore
	now     func() time.Time
}

// NewTokenManager creates a token manager.
func NewTokenManager(gateway driven.OAuthGateway, store driven.ConfigStore) *TokenManager {
	return &TokenManager{
		gateway: gateway,
		store:   store,
		now:     time.Now,
	}
}

// EnsureFresh returns a credential with a usable access token,
// refreshing and persisting cfg.Monzo first when needed. Refresh
// failures are never retried here; the caller falls back to full
// re-authorization.
func (m *TokenManager) EnsureFresh(ctx context.Context, cfg *domain.Config) (*domain.Credential, error) {
	cred := &cfg.Monzo
	if !NeedsRefresh(cred, m.now()) {
		return cred, nil
	}

	if !cred.HasRefreshToken() {
		return nil, domain.ErrNoRefreshToken
	}

	logger.Debug("access token expires at %s, refreshing", cred.TokenExpiresAt.Format(time.RFC3339))
	token, err := m.gateway.Refresh(ctx, cred.ClientID, cred.ClientSecret, cred.RefreshToken)
	if err != nil {
		return nil, err
	}

	// ClientID, ClientSecret, and AuthorizedAt are unchanged by refresh.
	cred.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		cred.RefreshToken = token.RefreshToken
	}
	cred.TokenExpiresAt = token.ExpiresAt

	// Persist before the new token is used, so a crash cannot lose a
	// rotated refresh token.
	if err := m.store.Save(ctx, cfg); err != nil {
		return nil, fmt.Errorf("persisting refreshed credential: %w", err)
	}

	return cred, nil
}
