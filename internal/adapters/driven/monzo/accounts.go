package monzo

import (
	"context"
	"net/url"

	"github.com/alexcrawford/actual-monzo-sub000/internal/core/domain"
)

type accountPayload struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Closed      bool   `json:"closed"`
}

type accountsResponse struct {
	Accounts []accountPayload `json:"accounts"`
}

// Accounts lists the accounts visible to the authorized user.
func (c *Client) Accounts(ctx context.Context) ([]domain.Account, error) {
	var payload accountsResponse
	if err := c.getJSON(ctx, "/accounts", nil, &payload); err != nil {
		return nil, err
	}

	accounts := make([]domain.Account, 0, len(payload.Accounts))
	for _, a := range payload.Accounts {
		accounts = append(accounts, domain.Account{
			ID:          a.ID,
			Description: a.Description,
			Type:        a.Type,
			Closed:      a.Closed,
		})
	}
	return accounts, nil
}

type whoAmIResponse struct {
	Authenticated bool   `json:"authenticated"`
	ClientID      string `json:"client_id"`
	UserID        string `json:"user_id"`
}

// WhoAmI verifies the access token against the API and returns the
// authenticated user id.
func (c *Client) WhoAmI(ctx context.Context) (string, error) {
	var payload whoAmIResponse
	if err := c.getJSON(ctx, "/ping/whoami", url.Values{}, &payload); err != nil {
		return "", err
	}
	if !payload.Authenticated {
		return "", domain.ErrTokenExpired
	}
	return payload.UserID, nil
}
