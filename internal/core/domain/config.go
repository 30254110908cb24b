package domain

import "time"

// Config is the persisted configuration: Monzo credentials, Actual
// Budget connection details, and the account mappings between them.
type Config struct {
	// Monzo holds the OAuth client and token set.
	Monzo Credential
	// Actual holds the downstream Actual Budget connection details.
	Actual ActualConfig
	// Mappings pairs Monzo accounts with Actual accounts.
	Mappings []AccountMapping
	// SetupCompletedAt is set once both the Monzo and Actual phases of
	// setup have finished.
	SetupCompletedAt time.Time
}

// ActualConfig holds the connection details for the downstream Actual
// Budget server. The sync mechanics live outside this tool; only
// enough is kept here to classify setup state and label imports.
type ActualConfig struct {
	ServerURL string
	BudgetID  string
	// ValidatedAt is set once the Actual connection details have been
	// verified.
	ValidatedAt time.Time
}

// Validate rejects configurations that fail schema-level invariants.
func (c *Config) Validate() error {
	if err := c.Monzo.Validate(); err != nil {
		return err
	}
	for _, m := range c.Mappings {
		if m.MonzoAccountID == "" || m.ActualAccountID == "" {
			return &MalformedConfigError{Reason: "account mapping with empty account id"}
		}
	}
	return nil
}

// MappingFor returns the mapping for a Monzo account id, or nil.
func (c *Config) MappingFor(monzoAccountID string) *AccountMapping {
	for i := range c.Mappings {
		if c.Mappings[i].MonzoAccountID == monzoAccountID {
			return &c.Mappings[i]
		}
	}
	return nil
}
