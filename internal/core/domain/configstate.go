package domain

import "time"

// ConfigState classifies a persisted configuration into a setup state.
// It is derived on every read, never stored, and drives which setup
// phase the CLI (re)runs after a partial failure.
type ConfigState int

const (
	// StateUnconfigured means neither Monzo nor Actual is set up.
	StateUnconfigured ConfigState = iota
	// StateMonzoOnly means Monzo is authorized but Actual is not validated.
	StateMonzoOnly
	// StateActualOnly means Actual is validated but Monzo is not authorized.
	StateActualOnly
	// StateComplete means both sides are set up and setup has finished.
	StateComplete
	// StateExpiredTokens means the stored Monzo token has expired.
	// Takes priority over completeness.
	StateExpiredTokens
	// StateMalformed means the configuration failed schema validation.
	StateMalformed
)

// String returns the state name for display.
func (s ConfigState) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateMonzoOnly:
		return "monzo only"
	case StateActualOnly:
		return "actual only"
	case StateComplete:
		return "complete"
	case StateExpiredTokens:
		return "expired tokens"
	case StateMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// ClassifyState maps a credential and the two validation timestamps to
// a ConfigState. Pure and idempotent. Expiry is checked first so an
// otherwise complete configuration with a stale token reports
// StateExpiredTokens. Schema failures short-circuit to StateMalformed
// before this function is called; see Config.State.
func ClassifyState(cred *Credential, actualValidatedAt, setupCompletedAt, now time.Time) ConfigState {
	if cred != nil && cred.IsExpired(now) {
		return StateExpiredTokens
	}

	hasMonzo := cred != nil && cred.HasToken()
	hasActual := !actualValidatedAt.IsZero()

	switch {
	case hasMonzo && hasActual && !setupCompletedAt.IsZero():
		return StateComplete
	case hasMonzo && !hasActual:
		return StateMonzoOnly
	case !hasMonzo && hasActual:
		return StateActualOnly
	default:
		return StateUnconfigured
	}
}

// State validates the config and classifies it, short-circuiting to
// StateMalformed on schema failure.
func (c *Config) State(now time.Time) ConfigState {
	if err := c.Validate(); err != nil {
		return StateMalformed
	}
	return ClassifyState(&c.Monzo, c.Actual.ValidatedAt, c.SetupCompletedAt, now)
}
