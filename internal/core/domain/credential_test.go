package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredential_HasClient(t *testing.T) {
	assert.False(t, (&Credential{}).HasClient())
	assert.False(t, (&Credential{ClientID: "id"}).HasClient())
	assert.True(t, (&Credential{ClientID: "id", ClientSecret: "secret"}).HasClient())
}

func TestCredential_IsExpired(t *testing.T) {
	now := time.Now()

	cred := Credential{TokenExpiresAt: now.Add(-time.Second)}
	assert.True(t, cred.IsExpired(now))

	cred.TokenExpiresAt = now.Add(time.Second)
	assert.False(t, cred.IsExpired(now))
}

func TestCredential_IsExpired_ZeroExpiry(t *testing.T) {
	// A missing expiry is handled by the refresh check, not by expiry.
	cred := Credential{AccessToken: "access"}
	assert.False(t, cred.IsExpired(time.Now()))
}

func TestCredential_Validate_NoToken(t *testing.T) {
	cred := Credential{ClientID: "id", ClientSecret: "secret"}
	assert.NoError(t, cred.Validate())
}

func TestCredential_Validate_PartialTokenStates(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		cred Credential
	}{
		{
			name: "missing refresh token",
			cred: Credential{AccessToken: "a", TokenExpiresAt: now, AuthorizedAt: now},
		},
		{
			name: "missing expiry",
			cred: Credential{AccessToken: "a", RefreshToken: "r", AuthorizedAt: now},
		},
		{
			name: "missing authorized at",
			cred: Credential{AccessToken: "a", RefreshToken: "r", TokenExpiresAt: now},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cred.Validate()
			require.Error(t, err)
			assert.True(t, IsMalformedConfig(err))
		})
	}
}

func TestCredential_Validate_CompleteTokenSet(t *testing.T) {
	now := time.Now()
	cred := Credential{
		ClientID:       "id",
		ClientSecret:   "secret",
		AccessToken:    "a",
		RefreshToken:   "r",
		TokenExpiresAt: now.Add(time.Hour),
		AuthorizedAt:   now,
	}
	assert.NoError(t, cred.Validate())
}
