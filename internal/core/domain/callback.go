package domain

// CallbackResult carries the query parameters of one OAuth redirect.
// Produced once per authorization attempt by the callback listener and
// consumed immediately by the authorizer. Never persisted.
type CallbackResult struct {
	// Code is the authorization code, when the user approved access.
	Code string
	// State is the CSRF state parameter round-tripped through the
	// provider. Validated against the value generated for this attempt
	// before the code is consumed.
	State string
	// ErrorCode is the provider's error parameter (e.g. access_denied).
	ErrorCode string
	// ErrorDescription is the provider's human-readable error detail.
	ErrorDescription string
}
