package monzo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alexcrawford/actual-monzo-sub000/internal/core/domain"
	"github.com/alexcrawford/actual-monzo-sub000/internal/core/ports/driven"
)

const (
	// AuthURL is Monzo's authorization endpoint. Monzo serves the
	// consent page at the host root, parameterised by query string.
	AuthURL = "https://auth.monzo.com/"

	// TokenPath is the token endpoint path on the API host.
	TokenPath = "/oauth2/token"
)

// Gateway implements the token-endpoint side of the authorization code
// flow against Monzo.
type Gateway struct {
	authURL    string
	tokenURL   string
	httpClient *http.Client
	now        func() time.Time
}

var _ driven.OAuthGateway = (*Gateway)(nil)

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithEndpoints overrides the authorization and token URLs. Used in tests.
func WithEndpoints(authURL, tokenURL string) GatewayOption {
	return func(g *Gateway) {
		g.authURL = authURL
		g.tokenURL = tokenURL
	}
}

// WithClock overrides the clock used to compute token expiry.
func WithClock(now func() time.Time) GatewayOption {
	return func(g *Gateway) { g.now = now }
}

// NewGateway creates an OAuth gateway for Monzo's endpoints.
func NewGateway(opts ...GatewayOption) *Gateway {
	g := &Gateway{
		authURL:    AuthURL,
		tokenURL:   APIBase + TokenPath,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AuthorizationURL builds the provider authorization URL. Pure; no
// side effects and no failure modes.
func (g *Gateway) AuthorizationURL(clientID, redirectURI, state string) string {
	q := url.Values{}
	q.Set("client_id", clientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("response_type", "code")
	q.Set("state", state)
	return g.authURL + "?" + q.Encode()
}

// Exchange trades an authorization code for a token set.
func (g *Gateway) Exchange(ctx context.Context, clientID, clientSecret, code, redirectURI string) (*domain.Token, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)

	token, status, oauthErr, err := g.post(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}
	if token == nil {
		return nil, &domain.TokenExchangeError{
			StatusCode:  status,
			Code:        oauthErr.Code,
			Description: oauthErr.Description,
		}
	}
	return token, nil
}

// Refresh obtains a new token set from a refresh token. Never retried;
// a failure means the caller falls back to full re-authorization.
func (g *Gateway) Refresh(ctx context.Context, clientID, clientSecret, refreshToken string) (*domain.Token, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	form.Set("refresh_token", refreshToken)

	token, status, oauthErr, err := g.post(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("token refresh: %w", err)
	}
	if token == nil {
		return nil, &domain.RefreshFailedError{
			StatusCode:  status,
			Code:        oauthErr.Code,
			Description: oauthErr.Description,
		}
	}
	return token, nil
}

// oauthErrorBody is the provider's error payload. Monzo answers with
// either the standard OAuth error/error_description pair or its own
// code/message pair depending on the failure.
type oauthErrorBody struct {
	Code        string
	Description string
}

func (g *Gateway) post(ctx context.Context, form url.Values) (*domain.Token, int, oauthErrorBody, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, oauthErrorBody{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, 0, oauthErrorBody{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error       string `json:"error"`
			Description string `json:"error_description"`
			Code        string `json:"code"`
			Message     string `json:"message"`
		}
		oauthErr := oauthErrorBody{}
		if json.NewDecoder(resp.Body).Decode(&body) == nil {
			oauthErr.Code = body.Error
			oauthErr.Description = body.Description
			if oauthErr.Code == "" {
				oauthErr.Code = body.Code
				oauthErr.Description = body.Message
			}
		}
		return nil, resp.StatusCode, oauthErr, nil
	}

	var payload struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, resp.StatusCode, oauthErrorBody{}, fmt.Errorf("decoding token response: %w", err)
	}

	token := &domain.Token{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		TokenType:    payload.TokenType,
	}
	if payload.ExpiresIn > 0 {
		token.ExpiresAt = g.now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	}
	return token, resp.StatusCode, oauthErrorBody{}, nil
}
