package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validCredential(now time.Time) Credential {
	return Credential{
		ClientID:       "oauth2client_123",
		ClientSecret:   "secret",
		AccessToken:    "access",
		RefreshToken:   "refresh",
		TokenExpiresAt: now.Add(time.Hour),
		AuthorizedAt:   now.Add(-time.Hour),
	}
}

func TestClassifyState_Unconfigured(t *testing.T) {
	now := time.Now()
	assert.Equal(t, StateUnconfigured, ClassifyState(&Credential{}, time.Time{}, time.Time{}, now))
	assert.Equal(t, StateUnconfigured, ClassifyState(nil, time.Time{}, time.Time{}, now))
}

func TestClassifyState_MonzoOnly(t *testing.T) {
	now := time.Now()
	cred := validCredential(now)

	state := ClassifyState(&cred, time.Time{}, time.Time{}, now)
	assert.Equal(t, StateMonzoOnly, state)
}

func TestClassifyState_ActualOnly(t *testing.T) {
	now := time.Now()

	state := ClassifyState(&Credential{}, now.Add(-time.Minute), time.Time{}, now)
	assert.Equal(t, StateActualOnly, state)
}

func TestClassifyState_Complete(t *testing.T) {
	now := time.Now()
	cred := validCredential(now)

	state := ClassifyState(&cred, now.Add(-time.Minute), now.Add(-time.Minute), now)
	assert.Equal(t, StateComplete, state)
}

func TestClassifyState_BothSidesButSetupUnfinished(t *testing.T) {
	now := time.Now()
	cred := validCredential(now)

	// Both sides present but setup never completed: not Complete.
	state := ClassifyState(&cred, now.Add(-time.Minute), time.Time{}, now)
	assert.Equal(t, StateUnconfigured, state)
}

func TestClassifyState_ExpiredTakesPriority(t *testing.T) {
	now := time.Now()
	cred := validCredential(now)
	cred.TokenExpiresAt = now.Add(-time.Minute)

	// An otherwise complete config with a stale token reports expiry.
	state := ClassifyState(&cred, now.Add(-time.Hour), now.Add(-time.Hour), now)
	assert.Equal(t, StateExpiredTokens, state)
}

func TestClassifyState_Idempotent(t *testing.T) {
	now := time.Now()
	cred := validCredential(now)

	first := ClassifyState(&cred, now.Add(-time.Minute), now.Add(-time.Minute), now)
	second := ClassifyState(&cred, now.Add(-time.Minute), now.Add(-time.Minute), now)
	assert.Equal(t, first, second)
}

func TestConfigState_MalformedShortCircuits(t *testing.T) {
	now := time.Now()
	cfg := &Config{
		Monzo: Credential{
			ClientID:     "id",
			ClientSecret: "secret",
			AccessToken:  "access",
			// Refresh token missing: partial token state.
		},
	}

	assert.Equal(t, StateMalformed, cfg.State(now))
}

func TestConfigState_Complete(t *testing.T) {
	now := time.Now()
	cfg := &Config{
		Monzo: validCredential(now),
		Actual: ActualConfig{
			ServerURL:   "https://actual.example.com",
			BudgetID:    "budget-1",
			ValidatedAt: now.Add(-time.Hour),
		},
		SetupCompletedAt: now.Add(-time.Hour),
	}

	assert.Equal(t, StateComplete, cfg.State(now))
}

func TestConfigState_String(t *testing.T) {
	assert.Equal(t, "unconfigured", StateUnconfigured.String())
	assert.Equal(t, "monzo only", StateMonzoOnly.String())
	assert.Equal(t, "actual only", StateActualOnly.String())
	assert.Equal(t, "complete", StateComplete.String())
	assert.Equal(t, "expired tokens", StateExpiredTokens.String())
	assert.Equal(t, "malformed", StateMalformed.String())
	assert.Equal(t, "unknown", ConfigState(99).String())
}
